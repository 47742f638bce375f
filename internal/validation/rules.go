package validation

import (
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

var forbiddenText = []string{"NaN", "undefined", "Infinity"}

// structValidator is shared; validator.Validate caches struct metadata and
// is safe for concurrent use.
var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "finite", isFinite)
	mustRegister(v, "safetext", isSafeText)
	mustRegister(v, "yearmonth", isYearMonth)
	mustRegister(v, "isodate", isISODate)
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func isFinite(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Float32, reflect.Float64:
		return !math.IsNaN(f.Float()) && !math.IsInf(f.Float(), 0)
	default:
		return true
	}
}

func isSafeText(fl validator.FieldLevel) bool {
	if fl.Field().Kind() != reflect.String {
		return true
	}
	return SafeText(fl.Field().String())
}

func isYearMonth(fl validator.FieldLevel) bool {
	return yearMonthPattern.MatchString(fl.Field().String())
}

func isISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// SafeText reports whether s is free of non-finite artifacts.
func SafeText(s string) bool {
	for _, f := range forbiddenText {
		if strings.Contains(s, f) {
			return false
		}
	}
	return true
}
