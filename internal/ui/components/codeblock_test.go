// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
)

func TestParseCodeBlocksProseOnly(t *testing.T) {
	segs := ParseCodeBlocks("just some prose\nover two lines")
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].IsCode {
		t.Error("prose segment marked as code")
	}
}

func TestParseCodeBlocksFencedCode(t *testing.T) {
	content := "intro\n```go\nfunc main() {}\n```\noutro"
	segs := ParseCodeBlocks(content)
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segs), segs)
	}
	if !segs[1].IsCode {
		t.Error("fenced segment not marked as code")
	}
	if segs[1].Language != "go" {
		t.Errorf("language = %q, want go", segs[1].Language)
	}
	if segs[1].Text != "func main() {}" {
		t.Errorf("code text = %q", segs[1].Text)
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	// A fence still open mid-stream must render as code, not vanish.
	content := "look:\n```python\nprint('hi')"
	segs := ParseCodeBlocks(content)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	last := segs[len(segs)-1]
	if !last.IsCode || last.Language != "python" {
		t.Errorf("unclosed fence segment = %+v", last)
	}
}

func TestCodeBlockRenderKeepsSource(t *testing.T) {
	block := NewCodeBlock("go", "package main")
	out := block.Render()
	if !strings.Contains(out, "main") {
		t.Errorf("rendered block lost source: %q", out)
	}
	if !strings.Contains(out, "go") {
		t.Errorf("rendered block missing language tag: %q", out)
	}
}

func TestCodeBlockUnknownLanguageFallsBack(t *testing.T) {
	block := NewCodeBlock("notalanguage", "some text here")
	out := block.Render()
	if !strings.Contains(out, "some text here") {
		t.Errorf("fallback lost source: %q", out)
	}
}

func TestRenderInlineCodePreservesText(t *testing.T) {
	out := RenderInlineCode("use `go test` to run")
	for _, want := range []string{"use ", "go test", " to run"} {
		if !strings.Contains(out, want) {
			t.Errorf("inline render missing %q: %q", want, out)
		}
	}

	// Unbalanced backticks pass through untouched.
	if out := RenderInlineCode("lone ` tick"); out != "lone ` tick" {
		t.Errorf("unbalanced backtick mangled: %q", out)
	}
}
