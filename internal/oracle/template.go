package oracle

import (
	"fmt"
	"strings"
)

// Vars binds template placeholder names to values.
type Vars map[string]string

// Template is a prompt with named {placeholder} slots. A literal brace is
// written as "{{" or "}}".
//
// Templates are parsed once by [NewTemplate] and are safe for concurrent use.
type Template struct {
	// Name identifies the template in logs, metrics, and cache keys.
	Name string

	// Text is the raw template source.
	Text string

	segments []segment
	names    []string
}

// segment is either literal text or a placeholder reference.
type segment struct {
	text        string
	placeholder bool
}

// NewTemplate parses text into a Template. It fails on an unterminated or
// empty placeholder and on a stray closing brace.
func NewTemplate(name, text string) (*Template, error) {
	if name == "" {
		return nil, fmt.Errorf("oracle: template name must not be empty")
	}
	t := &Template{Name: name, Text: text}
	seen := make(map[string]bool)

	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			t.segments = append(t.segments, segment{text: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '{' && i+1 < len(text) && text[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(text) && text[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return nil, fmt.Errorf("oracle: template %q: unterminated placeholder at offset %d", name, i)
			}
			ph := strings.TrimSpace(text[i+1 : i+1+end])
			if ph == "" || strings.ContainsAny(ph, "{") {
				return nil, fmt.Errorf("oracle: template %q: invalid placeholder at offset %d", name, i)
			}
			flush()
			t.segments = append(t.segments, segment{text: ph, placeholder: true})
			if !seen[ph] {
				seen[ph] = true
				t.names = append(t.names, ph)
			}
			i += end + 1
		case c == '}':
			return nil, fmt.Errorf("oracle: template %q: unmatched '}' at offset %d", name, i)
		default:
			lit.WriteByte(c)
		}
	}
	flush()
	return t, nil
}

// MustTemplate is like [NewTemplate] but panics on error. It is intended for
// package-level prompt definitions.
func MustTemplate(name, text string) *Template {
	t, err := NewTemplate(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t *Template) Placeholders() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// Render substitutes vars into the template. Every placeholder must be bound;
// extra bindings are ignored.
func (t *Template) Render(vars Vars) (string, error) {
	var missing []string
	for _, n := range t.names {
		if _, ok := vars[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("template %q: unbound placeholders: %s", t.Name, strings.Join(missing, ", "))
	}

	var sb strings.Builder
	sb.Grow(len(t.Text))
	for _, s := range t.segments {
		if s.placeholder {
			sb.WriteString(vars[s.text])
		} else {
			sb.WriteString(s.text)
		}
	}
	return sb.String(), nil
}
