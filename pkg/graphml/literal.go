package graphml

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// BracketShaped reports whether s is textually shaped like a collection
// literal: it begins and ends with a matching square- or curly-bracket pair.
// Only such values are candidates for structural parsing; everything else
// stays a string. Parenthesized text is not a candidate, since the writer
// never emits tuple literals.
func BracketShaped(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case '[':
		return s[len(s)-1] == ']'
	case '{':
		return s[len(s)-1] == '}'
	}
	return false
}

// ParseLiteral strictly parses s as a literal value in the upstream tooling's
// text form: lists, tuples, sets, string-keyed mappings, quoted strings,
// integers, floats, True/False, and None. Lists, tuples, and sets all decode
// to []any; mappings decode to map[string]any with non-string keys rendered
// through Repr.
//
// The parse is strict: unterminated brackets, unknown tokens, or trailing
// characters after the value fail with an error. Callers treat a failed parse
// as "this was a plain string after all", never as a fatal condition.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{src: s}
	v, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing characters at offset %d", p.pos)
	}
	return v, nil
}

type literalParser struct {
	src string
	pos int
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(rune(p.src[p.pos])) {
		p.pos++
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}

func (p *literalParser) parseValue() (any, error) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}
	switch {
	case c == '[':
		return p.parseSequence('[', ']')
	case c == '(':
		return p.parseSequence('(', ')')
	case c == '{':
		return p.parseBraced()
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseIdent()
	}
}

// parseSequence parses a bracketed, comma-separated sequence into []any.
func (p *literalParser) parseSequence(open, close byte) ([]any, error) {
	p.pos++ // consume open
	items := []any{}
	p.skipSpace()
	if c, ok := p.peek(); ok && c == close {
		p.pos++
		return items, nil
	}
	for {
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated %q", string(open))
		}
		switch c {
		case ',':
			p.pos++
		case close:
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", string(c), p.pos)
		}
	}
}

// parseBraced parses either a set literal (to []any) or a mapping literal
// (to map[string]any), decided by whether a colon follows the first element.
func (p *literalParser) parseBraced() (any, error) {
	p.pos++ // consume '{'
	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		// empty braces denote an empty mapping
		p.pos++
		return map[string]any{}, nil
	}

	first, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unterminated '{'")
	}

	if c == ':' {
		return p.parseMapRest(first)
	}
	return p.parseSetRest(first)
}

func (p *literalParser) parseSetRest(first any) ([]any, error) {
	items := []any{first}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated '{'")
		}
		switch c {
		case ',':
			p.pos++
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		case '}':
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", string(c), p.pos)
		}
	}
}

func (p *literalParser) parseMapRest(firstKey any) (map[string]any, error) {
	out := map[string]any{}
	key := firstKey
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok || c != ':' {
			return nil, fmt.Errorf("expected ':' at offset %d", p.pos)
		}
		p.pos++
		v, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		out[mapKey(key)] = v

		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated '{'")
		}
		switch c {
		case ',':
			p.pos++
			key, err = p.parseValue()
			if err != nil {
				return nil, err
			}
		case '}':
			p.pos++
			return out, nil
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", string(c), p.pos)
		}
	}
}

// mapKey renders a mapping key as a string. String keys pass through; other
// scalar keys keep their literal text.
func mapKey(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return Repr(k)
}

func (p *literalParser) parseString(quote byte) (string, error) {
	p.pos++ // consume opening quote
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case quote:
			p.pos++
			return b.String(), nil
		case '\\':
			p.pos++
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("unterminated string escape")
			}
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(e)
			default:
				return "", fmt.Errorf("unsupported escape %q", string(e))
			}
			p.pos++
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E' || (c >= '0' && c <= '9') {
			p.pos++
			continue
		}
		break
	}
	text := p.src[start:p.pos]
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return i, nil
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil {
		return f, nil
	}
	return nil, fmt.Errorf("invalid number %q", text)
}

func (p *literalParser) parseIdent() (any, error) {
	start := p.pos
	for p.pos < len(p.src) && (unicode.IsLetter(rune(p.src[p.pos]))) {
		p.pos++
	}
	switch p.src[start:p.pos] {
	case "True":
		return true, nil
	case "False":
		return false, nil
	case "None":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown token at offset %d", start)
}

// Repr renders v in the canonical literal text form that ParseLiteral reads
// back: quoted strings, True/False booleans, shortest round-trip floats, and
// bracketed collections. It is the element renderer behind the codec's
// stringify-on-write pass.
func Repr(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case bool:
		if t {
			return "True"
		}
		return "False"
	case string:
		return quote(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return reprFloat(t, 64)
	case float32:
		return reprFloat(float64(t), 32)
	case []any:
		return reprSlice(t)
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return reprSlice(items)
	case []int64:
		items := make([]any, len(t))
		for i, n := range t {
			items[i] = n
		}
		return reprSlice(items)
	case []float64:
		items := make([]any, len(t))
		for i, f := range t {
			items[i] = f
		}
		return reprSlice(items)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		var b strings.Builder
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quote(k))
			b.WriteString(": ")
			b.WriteString(Repr(t[k]))
		}
		b.WriteByte('}')
		return b.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// reprFloat renders floats in shortest round-trip form, keeping a ".0" on
// integral values so the text parses back as a float, not an int.
func reprFloat(f float64, bits int) string {
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eEnI") {
		s += ".0"
	}
	return s
}

func reprSlice(items []any) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Repr(v))
	}
	b.WriteByte(']')
	return b.String()
}

func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String()
}
