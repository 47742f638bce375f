package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a numeric field produced by the upstream analyzer. Decoding is
// lenient: numbers, numeric strings and the literals "NaN", "Infinity" and
// "-Infinity" are accepted; null and anything else decode to NaN so the
// numeric safety layer sees and records them.
type Amount float64

// Float64 returns the raw value, which may be non-finite.
func (a Amount) Float64() float64 {
	return float64(a)
}

// Ptr returns a pointer to a, for optional fields.
func (a Amount) Ptr() *Amount {
	return &a
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Amount(math.NaN())
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*a = Amount(math.NaN())
			return nil
		}
		*a = parseAmount(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*a = Amount(math.NaN())
		return nil
	}
	*a = Amount(f)
	return nil
}

// MarshalJSON writes non-finite values as strings so a Result can always be
// re-encoded.
func (a Amount) MarshalJSON() ([]byte, error) {
	f := float64(a)
	switch {
	case math.IsNaN(f):
		return []byte(`"NaN"`), nil
	case math.IsInf(f, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-Infinity"`), nil
	}
	return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
}

func parseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	switch strings.ToLower(s) {
	case "nan", "", "undefined", "null":
		return Amount(math.NaN())
	case "infinity", "+infinity", "inf":
		return Amount(math.Inf(1))
	case "-infinity", "-inf":
		return Amount(math.Inf(-1))
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Amount(math.NaN())
	}
	return Amount(f)
}
