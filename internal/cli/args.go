// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser gives every command the same flag handling:
//
//	--flag value    --flag=value    -f value    --flag (boolean)
//
// Arguments without flags are positional.
type ArgParser struct {
	flags      map[string][]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses raw arguments.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string][]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") {
			p.positional = append(p.positional, arg)
			i++
			continue
		}

		if name, value, found := strings.Cut(strings.TrimLeft(arg, "-"), "="); found {
			if value == "true" || value == "false" {
				p.boolFlags[name] = value == "true"
			} else {
				p.flags[name] = append(p.flags[name], value)
			}
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = append(p.flags[name], raw[i+1])
			i += 2
		} else {
			p.boolFlags[name] = true
			i++
		}
	}
	return p
}

// Flag returns the last value given for any of the flag names, e.g.
// Flag("model", "m").
func (p *ArgParser) Flag(names ...string) string {
	for _, name := range names {
		if v, ok := p.flags[name]; ok && len(v) > 0 {
			return v[len(v)-1]
		}
	}
	return ""
}

// FlagValues returns every value given for any of the flag names, for
// repeatable flags like --file.
func (p *ArgParser) FlagValues(names ...string) []string {
	var out []string
	for _, name := range names {
		out = append(out, p.flags[name]...)
	}
	return out
}

// BoolFlag reports whether any of the given boolean flags is set.
func (p *ArgParser) BoolFlag(names ...string) bool {
	for _, name := range names {
		if p.boolFlags[name] {
			return true
		}
	}
	return false
}

// Positional returns the positional arguments.
func (p *ArgParser) Positional() []string {
	return p.positional
}

// PositionalText joins the positional arguments into one string; commands
// like ask treat the whole tail as the prompt.
func (p *ArgParser) PositionalText() string {
	return strings.Join(p.positional, " ")
}
