package recipeutil

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	mixedNumberPattern = regexp.MustCompile(`^(\d+)\s+(\d+)\s*/\s*(\d+)$`)
	fractionPattern    = regexp.MustCompile(`^(\d+)\s*/\s*(\d+)$`)
	numericPrefix      = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)([eE][-+]?\d+)?`)
)

// QuantityKind tells which form a Quantity was authored in.
type QuantityKind int

const (
	Numeric QuantityKind = iota
	Fraction
	Descriptive
)

// Quantity is an ingredient amount resolved once when a recipe is loaded.
// The zero value is Numeric(0).
type Quantity struct {
	kind  QuantityKind
	value float64
	num   int64
	den   int64
	text  string
}

// NumericQuantity returns a plain decimal quantity.
func NumericQuantity(v float64) Quantity {
	return Quantity{kind: Numeric, value: v}
}

// FractionQuantity returns num/den. A zero denominator yields Numeric(num).
func FractionQuantity(num, den int64) Quantity {
	if den == 0 {
		return NumericQuantity(float64(num))
	}
	return Quantity{kind: Fraction, num: num, den: den}
}

// DescriptiveQuantity returns free text such as "to taste".
func DescriptiveQuantity(text string) Quantity {
	return Quantity{kind: Descriptive, text: text}
}

// QuantityFromString resolves authored text into a Quantity.
func QuantityFromString(s string) Quantity {
	s = strings.TrimSpace(s)
	if s == "" {
		return NumericQuantity(0)
	}
	if m := mixedNumberPattern.FindStringSubmatch(s); m != nil {
		whole, errW := strconv.ParseInt(m[1], 10, 64)
		num, errN := strconv.ParseInt(m[2], 10, 64)
		den, errD := strconv.ParseInt(m[3], 10, 64)
		if errW != nil || errN != nil || errD != nil {
			return NumericQuantity(mixedFloat(m[1], m[2], m[3]))
		}
		if den == 0 {
			return NumericQuantity(float64(whole) + float64(num))
		}
		if whole > (math.MaxInt64-num)/den {
			return NumericQuantity(float64(whole) + float64(num)/float64(den))
		}
		return FractionQuantity(whole*den+num, den)
	}
	if m := fractionPattern.FindStringSubmatch(s); m != nil {
		num, errN := strconv.ParseInt(m[1], 10, 64)
		den, errD := strconv.ParseInt(m[2], 10, 64)
		if errN != nil || errD != nil {
			return NumericQuantity(mixedFloat("0", m[1], m[2]))
		}
		return FractionQuantity(num, den)
	}
	if v, ok := parseFloatPrefix(s); ok {
		return NumericQuantity(v)
	}
	return DescriptiveQuantity(s)
}

// mixedFloat evaluates whole + num/den for digit strings too long for int64.
func mixedFloat(whole, num, den string) float64 {
	w, _ := strconv.ParseFloat(whole, 64)
	n, _ := strconv.ParseFloat(num, 64)
	d, _ := strconv.ParseFloat(den, 64)
	if d == 0 {
		return w + n
	}
	return w + n/d
}

// Kind reports the authored form.
func (q Quantity) Kind() QuantityKind { return q.kind }

// IsDescriptive reports whether q is free text.
func (q Quantity) IsDescriptive() bool { return q.kind == Descriptive }

// Text returns the free text of a descriptive quantity.
func (q Quantity) Text() string { return q.text }

// Float returns the arithmetic value. Descriptive quantities are 0.
func (q Quantity) Float() float64 {
	switch q.kind {
	case Fraction:
		return float64(q.num) / float64(q.den)
	case Descriptive:
		return 0
	default:
		return q.value
	}
}

// String renders the quantity the way it was authored.
func (q Quantity) String() string {
	switch q.kind {
	case Fraction:
		if q.num > q.den {
			whole, rem := q.num/q.den, q.num%q.den
			if rem == 0 {
				return strconv.FormatInt(whole, 10)
			}
			return fmt.Sprintf("%d %d/%d", whole, rem, q.den)
		}
		return fmt.Sprintf("%d/%d", q.num, q.den)
	case Descriptive:
		return q.text
	default:
		return strconv.FormatFloat(q.value, 'f', -1, 64)
	}
}

// MarshalJSON writes numbers for numeric quantities and strings otherwise.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.kind == Numeric {
		if math.IsNaN(q.value) || math.IsInf(q.value, 0) {
			return []byte("0"), nil
		}
		return json.Marshal(q.value)
	}
	return json.Marshal(q.String())
}

// UnmarshalJSON accepts a number, a string or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*q = NumericQuantity(0)
	case float64:
		*q = NumericQuantity(t)
	case string:
		*q = QuantityFromString(t)
	default:
		return fmt.Errorf("quantity must be a number or string, got %s", string(data))
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON for seed and CLI files.
func (q Quantity) MarshalYAML() (any, error) {
	if q.kind == Numeric {
		return q.value, nil
	}
	return q.String(), nil
}

// UnmarshalYAML accepts a scalar number or string.
func (q *Quantity) UnmarshalYAML(unmarshal func(any) error) error {
	var v any
	if err := unmarshal(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case nil:
		*q = NumericQuantity(0)
	case int:
		*q = NumericQuantity(float64(t))
	case float64:
		*q = NumericQuantity(t)
	case string:
		*q = QuantityFromString(t)
	default:
		*q = QuantityFromString(fmt.Sprint(t))
	}
	return nil
}

// ParseQuantity converts a number or authored string into a float64.
// Anything it cannot read becomes 0.
func ParseQuantity(quantity any) float64 {
	switch v := quantity.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case Quantity:
		return v.Float()
	case string:
		return QuantityFromString(v).Float()
	default:
		return 0
	}
}

// parseFloatPrefix reads the leading number of s, ignoring trailing text.
func parseFloatPrefix(s string) (float64, bool) {
	m := numericPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
