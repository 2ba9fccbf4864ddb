package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// LineWidth is the length of one flat-file row of t, without the newline.
// Fields are separated by a single space.
func (t Table) LineWidth() int {
	n := len(t.Fields) - 1
	for _, f := range t.Fields {
		n += f.Width
	}
	return n
}

// Parse converts the fixed-width text of f to a value of f's kind.
func (f Field) Parse(text string) (any, error) {
	s := strings.TrimSpace(text)
	switch f.Kind {
	case Int:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", f.Name, err)
		}
		return i, nil
	case Float, Time:
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("schema: %s: %w", f.Name, err)
		}
		return x, nil
	default:
		return s, nil
	}
}

// Format renders v in f's flat-file layout. nil renders as the null value.
// A value wider than the field is an error.
func (f Field) Format(v any) (string, error) {
	if v == nil {
		v = f.Null
	}
	v = f.Coerce(v)
	var s string
	switch f.Kind {
	case Int:
		i, ok := v.(int64)
		if !ok {
			return "", fmt.Errorf("schema: %s: %T is not an integer", f.Name, v)
		}
		s = fmt.Sprintf("%*d", f.Width, i)
	case Float, Time:
		x, ok := v.(float64)
		if !ok {
			return "", fmt.Errorf("schema: %s: %T is not a number", f.Name, v)
		}
		s = fmt.Sprintf("%*.*f", f.Width, f.Precision, x)
	default:
		str, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("schema: %s: %T is not a string", f.Name, v)
		}
		if str == "" {
			str = "-"
		}
		s = fmt.Sprintf("%-*s", f.Width, str)
	}
	if len(s) > f.Width {
		return "", fmt.Errorf("schema: %s: %q is wider than %d", f.Name, strings.TrimSpace(s), f.Width)
	}
	return s, nil
}

// ParseLine splits one flat-file row into values in field order.
func (t Table) ParseLine(line string) ([]any, error) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < t.LineWidth() {
		return nil, fmt.Errorf("schema: %s: row is %d bytes, want %d", t.Name, len(line), t.LineWidth())
	}
	out := make([]any, len(t.Fields))
	off := 0
	for i, f := range t.Fields {
		v, err := f.Parse(line[off : off+f.Width])
		if err != nil {
			return nil, err
		}
		out[i] = v
		off += f.Width + 1
	}
	return out, nil
}

// FormatLine renders values in field order as one flat-file row.
func (t Table) FormatLine(vals []any) (string, error) {
	if len(vals) != len(t.Fields) {
		return "", fmt.Errorf("schema: %s: %d values for %d fields", t.Name, len(vals), len(t.Fields))
	}
	parts := make([]string, len(vals))
	for i, f := range t.Fields {
		s, err := f.Format(vals[i])
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return strings.Join(parts, " "), nil
}
