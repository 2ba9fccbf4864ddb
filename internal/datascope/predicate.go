package datascope

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Getter reads one field of the row under test.
type Getter func(field string) (any, error)

// Filter reports whether a row is kept.
type Filter func(get Getter) (bool, error)

// Predicate is a subset expression. Engines that can push a predicate down
// (see Overlap) may do so; every predicate can also be evaluated row by row
// through its Filter.
type Predicate interface {
	// Fields names the fields the predicate reads.
	Fields() []string
	Filter() (Filter, error)
	// String is the Datascope spelling of the expression.
	String() string
}

// Match keeps rows whose field matches Pattern as a whole (the Datascope
// `field =~ /pattern/` operator).
type Match struct {
	Field   string
	Pattern string
}

func (m Match) Fields() []string { return []string{m.Field} }

func (m Match) String() string { return fmt.Sprintf("%s=~/%s/", m.Field, m.Pattern) }

func (m Match) Filter() (Filter, error) {
	re, err := regexp.Compile("^(?:" + m.Pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("datascope: subset %s: %w", m, err)
	}
	return func(get Getter) (bool, error) {
		v, err := get(m.Field)
		if err != nil {
			return false, err
		}
		return re.MatchString(ValueString(v)), nil
	}, nil
}

// Overlap keeps rows whose [StartField, EndField] span intersects the window
// [Start, End): end > Start && start < End. Times are epoch seconds.
type Overlap struct {
	StartField string
	EndField   string
	Start      float64
	End        float64
}

func (o Overlap) Fields() []string { return []string{o.StartField, o.EndField} }

func (o Overlap) String() string {
	return fmt.Sprintf("%s > %s && %s < %s", o.EndField, formatFloat(o.Start), o.StartField, formatFloat(o.End))
}

func (o Overlap) Filter() (Filter, error) {
	return func(get Getter) (bool, error) {
		start, err := floatField(get, o.StartField)
		if err != nil {
			return false, err
		}
		end, err := floatField(get, o.EndField)
		if err != nil {
			return false, err
		}
		return end > o.Start && start < o.End, nil
	}, nil
}

func floatField(get Getter, field string) (float64, error) {
	v, err := get(field)
	if err != nil {
		return 0, err
	}
	f, ok := ToFloat(v)
	if !ok {
		return 0, fmt.Errorf("datascope: field %s: %v is not numeric", field, v)
	}
	return f, nil
}

// ToFloat converts a field value to float64.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// ToInt converts a field value to int64. Floats must be integral.
func ToInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case float64:
		if x == float64(int64(x)) {
			return int64(x), true
		}
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return i, err == nil
	}
	return 0, false
}

// ValueString renders a field value the way a flat table file spells it.
// The null sentinel renders as "-".
func ValueString(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		return x
	case float64:
		return formatFloat(x)
	case float32:
		return formatFloat(float64(x))
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
