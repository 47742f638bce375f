// Package numsafe provides guarded arithmetic and formatting so that no NaN,
// Infinity or empty value ever reaches a rendered report.
//
// Every function accepts an arbitrary raw value and a fallback and returns a
// finite number (or a non-empty string). Fallback substitutions are recorded
// on a per-run Tracker when a field name is supplied.
package numsafe

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// Reason classifies why a raw value was replaced by its fallback.
type Reason string

const (
	ReasonNaN                Reason = "nan"
	ReasonInfinity           Reason = "infinity"
	ReasonNegativeUnexpected Reason = "negative_unexpected"
	ReasonDivisionByZero     Reason = "division_by_zero"
	ReasonOutOfRange         Reason = "out_of_range"
)

// Warning records one fallback substitution.
type Warning struct {
	Field        string  `json:"field"`
	RawValue     string  `json:"rawValue"`
	FallbackUsed float64 `json:"fallbackUsed"`
	Reason       Reason  `json:"reason"`
}

// Tracker accumulates warnings for a single pipeline run. A nil *Tracker is
// valid and records nothing.
type Tracker struct {
	mu       sync.Mutex
	warnings []Warning
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Reset discards all recorded warnings.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.warnings = nil
	t.mu.Unlock()
}

// Warnings returns a copy of the recorded warnings.
func (t *Tracker) Warnings() []Warning {
	if t == nil {
		return []Warning{}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Warning, len(t.warnings))
	copy(out, t.warnings)
	return out
}

func (t *Tracker) record(field string, raw any, fallback float64, reason Reason) {
	if t == nil || field == "" {
		return
	}
	t.mu.Lock()
	t.warnings = append(t.warnings, Warning{
		Field:        field,
		RawValue:     describe(raw),
		FallbackUsed: fallback,
		Reason:       reason,
	})
	t.mu.Unlock()
}

// Number coerces value to a finite float64, returning fallback for nil,
// NaN, ±Inf and non-numeric input.
func (t *Tracker) Number(value any, fallback float64, field string) float64 {
	fb := finiteOr(fallback, 0)
	f, _ := coerce(value)
	switch {
	case math.IsNaN(f):
		t.record(field, value, fb, ReasonNaN)
		return fb
	case math.IsInf(f, 0):
		t.record(field, value, fb, ReasonInfinity)
		return fb
	}
	return f
}

// Divide returns numerator/denominator, or fallback when the denominator is
// zero or non-finite or the quotient is non-finite.
func (t *Tracker) Divide(numerator, denominator any, fallback float64, field string) float64 {
	fb := finiteOr(fallback, 0)
	n, _ := coerce(numerator)
	d, _ := coerce(denominator)
	if d == 0 || !IsFinite(d) {
		t.record(field, denominator, fb, ReasonDivisionByZero)
		return fb
	}
	q := n / d
	if !IsFinite(q) {
		t.record(field, numerator, fb, ReasonDivisionByZero)
		return fb
	}
	return q
}

// Percent returns numerator*100/denominator with Divide's guarantees.
func (t *Tracker) Percent(numerator, denominator any, fallback float64, field string) float64 {
	n, _ := coerce(numerator)
	return t.Divide(n*100, denominator, fallback, field)
}

// NonNegative behaves like Number but also replaces negative values,
// recording negative_unexpected.
func (t *Tracker) NonNegative(value any, fallback float64, field string) float64 {
	fb := math.Max(finiteOr(fallback, 0), 0)
	v := t.Number(value, fb, field)
	if v < 0 {
		t.record(field, value, fb, ReasonNegativeUnexpected)
		return fb
	}
	return v
}

// InRange behaves like Number but clamps to [min, max], recording
// out_of_range when clamping was needed.
func (t *Tracker) InRange(value any, min, max float64, field string) float64 {
	v := t.Number(value, min, field)
	if v < min || v > max {
		c := Clamp(v, min, max)
		t.record(field, value, c, ReasonOutOfRange)
		return c
	}
	return v
}

// Number is the untracked form of (*Tracker).Number.
func Number(value any, fallback float64) float64 {
	return (*Tracker)(nil).Number(value, fallback, "")
}

// Divide is the untracked form of (*Tracker).Divide.
func Divide(numerator, denominator any, fallback float64) float64 {
	return (*Tracker)(nil).Divide(numerator, denominator, fallback, "")
}

// Percent is the untracked form of (*Tracker).Percent.
func Percent(numerator, denominator any, fallback float64) float64 {
	return (*Tracker)(nil).Percent(numerator, denominator, fallback, "")
}

// Clamp bounds value to [min, max]. Non-finite input clamps to min.
func Clamp(value, min, max float64) float64 {
	if !IsFinite(value) {
		return min
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Round rounds value half away from zero to the given number of decimals.
func Round(value any, decimals int, fallback float64) float64 {
	f := Number(value, fallback)
	out, _ := decimal.NewFromFloat(f).Round(clampDecimals(decimals)).Float64()
	return out
}

// Fixed formats value with exactly decimals digits after the point.
func Fixed(value any, decimals int, fallback float64) string {
	f := Number(value, fallback)
	return decimal.NewFromFloat(f).StringFixed(clampDecimals(decimals))
}

// Currency formats value as dollars with thousands separators, e.g.
// "$1,234.50" or "-$3.00". It is the only currency formatter in the
// pipeline and never yields "$NaN".
func Currency(value any, decimals int) string {
	f := Number(value, 0)
	d := decimal.NewFromFloat(f).Round(clampDecimals(decimals))
	neg := d.IsNegative()
	s := d.Abs().StringFixed(clampDecimals(decimals))
	intPart, frac, hasFrac := strings.Cut(s, ".")
	out := "$" + groupThousands(intPart)
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// String returns value when it is a non-blank string that is not a literal
// JavaScript artifact ("NaN", "undefined", "null", "Infinity"); otherwise
// fallback.
func String(value any, fallback string) string {
	if strings.TrimSpace(fallback) == "" {
		fallback = "Unknown"
	}
	s, ok := value.(string)
	if !ok {
		return fallback
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return fallback
	}
	switch strings.ToLower(trimmed) {
	case "nan", "undefined", "null", "infinity", "-infinity":
		return fallback
	}
	return trimmed
}

// IsDisplayable reports whether an optional value is worth rendering. It is
// false for nil, NaN, zero and blank strings and true otherwise.
func IsDisplayable(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(v) != ""
	}
	f, ok := coerce(value)
	if !ok {
		return true
	}
	return !math.IsNaN(f) && f != 0
}

// IsFinite reports whether f is neither NaN nor ±Inf.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

type floater interface {
	Float64() float64
}

// coerce converts raw into a float64. ok is false when raw is not numeric;
// the returned value is then NaN.
func coerce(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return math.NaN(), false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case *float64:
		if v == nil {
			return math.NaN(), false
		}
		return *v, true
	case json.Number:
		return parseFloat(string(v))
	case string:
		return parseFloat(v)
	case floater:
		return v.Float64(), true
	default:
		return math.NaN(), false
	}
}

func parseFloat(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return f, true
		}
		return math.NaN(), false
	}
	return f, true
}

func finiteOr(f, def float64) float64 {
	if IsFinite(f) {
		return f
	}
	return def
}

func clampDecimals(decimals int) int32 {
	if decimals < 0 {
		return 0
	}
	if decimals > 10 {
		return 10
	}
	return int32(decimals)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func describe(raw any) string {
	switch v := raw.(type) {
	case nil:
		return "undefined"
	case string:
		return strconv.Quote(v)
	case floater:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
