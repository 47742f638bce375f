package report

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// FindUnsafeValues walks v and returns the JSON-style path of every
// non-finite float and every string carrying "NaN", "undefined" or
// "Infinity". An empty result means v is safe to render.
func FindUnsafeValues(v any) []string {
	var out []string
	walkUnsafe(reflect.ValueOf(v), "$", &out)
	return out
}

func walkUnsafe(v reflect.Value, path string, out *[]string) {
	if !v.IsValid() {
		return
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if !v.IsNil() {
			walkUnsafe(v.Elem(), path, out)
		}
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			*out = append(*out, path)
		}
	case reflect.String:
		if containsForbidden(v.String()) {
			*out = append(*out, path)
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			walkUnsafe(v.Field(i), path+"."+jsonName(f), out)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			walkUnsafe(v.Index(i), path+"["+strconv.Itoa(i)+"]", out)
		}
	case reflect.Map:
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			p := path + "[" + strconv.Quote(k.String()) + "]"
			if k.Kind() == reflect.String && containsForbidden(k.String()) {
				*out = append(*out, p)
			}
			walkUnsafe(v.MapIndex(k), p, out)
		}
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}
