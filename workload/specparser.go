package workload

import (
	"fmt"
	"os"
	"strings"
)

//
// Component specifier grammar (§6): a comma-separated list of Name or
// Name(opt1,opt2,...) items, read either from an inline string or — if
// the string names a readable file — from that file's contents. '#'
// introduces a comment that runs to end of line, except inside quotes.
// Ported from comp_inj.cpp's _RmEolSpacesComments/_ParseOneComp.
//

// ErrMalformedSpecifier is returned when a component specifier string
// can't be parsed per the grammar above.
var ErrMalformedSpecifier = fmt.Errorf("workload: malformed component specifier")

// ComponentSpec is one parsed Name(opt1,opt2,...) item.
type ComponentSpec struct {
	Name string
	Opts []string
}

// String renders spec in canonical form: Name if there are no options,
// Name(opt1,opt2,...) otherwise.
func (s ComponentSpec) String() string {
	if len(s.Opts) == 0 {
		return s.Name
	}
	return s.Name + "(" + strings.Join(s.Opts, ",") + ")"
}

// FormatComponents renders a full stack specifier in canonical form.
func FormatComponents(specs []ComponentSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// ParseComponents parses a component stack specifier. If input names a
// readable file, its contents are parsed instead of the literal string.
func ParseComponents(input string) ([]ComponentSpec, error) {
	text := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		if data, err := os.ReadFile(input); err == nil {
			text = string(data)
		}
	}

	cleaned := strings.ReplaceAll(stripComments(text), "\n", " ")
	items := splitTopLevel(cleaned)

	var specs []ComponentSpec
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		spec, err := parseOneComp(it)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func stripComments(s string) string {
	var out strings.Builder
	var inQuote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			out.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch {
		case c == '"' || c == '\'':
			inQuote = c
			out.WriteByte(c)
		case c == '#':
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				out.WriteByte('\n')
			}
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}

// splitTopLevel splits s on commas that are not nested inside parentheses
// or quotes.
func splitTopLevel(s string) []string {
	var items []string
	var cur strings.Builder
	var inQuote byte
	depth := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inQuote != 0 {
			cur.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			inQuote = c
			cur.WriteByte(c)
		case '(':
			depth++
			cur.WriteByte(c)
		case ')':
			depth--
			cur.WriteByte(c)
		case ',':
			if depth == 0 {
				items = append(items, cur.String())
				cur.Reset()
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
	}
	if strings.TrimSpace(cur.String()) != "" {
		items = append(items, cur.String())
	}
	return items
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func parseOneComp(item string) (ComponentSpec, error) {
	idx := strings.IndexByte(item, '(')
	if idx == -1 {
		return ComponentSpec{Name: strings.TrimSpace(item)}, nil
	}
	if !strings.HasSuffix(item, ")") {
		return ComponentSpec{}, fmt.Errorf("%w: %q missing closing paren", ErrMalformedSpecifier, item)
	}
	name := strings.TrimSpace(item[:idx])
	inner := item[idx+1 : len(item)-1]

	var opts []string
	if strings.TrimSpace(inner) != "" {
		for _, raw := range splitTopLevel(inner) {
			opts = append(opts, stripQuotes(strings.TrimSpace(raw)))
		}
	}
	return ComponentSpec{Name: name, Opts: opts}, nil
}
