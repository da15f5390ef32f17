package pao

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is how timestamp fields are rendered into the report.
const DateLayout = "02/01/2006"

// Document is a raw record as returned by a store: field name to value.
// Values are limited to strings, numbers, bools, time.Time, []any and
// map[string]any; stores normalise driver-specific types before returning.
type Document map[string]any

// Fields reads optional values from a Document, falling back to the schema
// table.
type Fields struct {
	doc Document
}

func FieldsOf(doc Document) Fields { return Fields{doc: doc} }

func (f Fields) raw(name Field) (any, bool) {
	if f.doc == nil {
		return nil, false
	}
	v, ok := f.doc[string(name)]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (f Fields) String(name Field) string {
	def, _ := Default(name).(string)
	v, ok := f.raw(name)
	if !ok {
		return def
	}
	s, ok := scalarString(v)
	if !ok {
		return def
	}
	return s
}

// Strings accepts a list of scalars or a single scalar. Empty elements are
// kept so positional lists (subjects) keep their positions.
func (f Fields) Strings(name Field) []string {
	v, ok := f.raw(name)
	if !ok {
		return defaultStrings(name)
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, _ := scalarString(item)
			out = append(out, s)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	default:
		if s, ok := scalarString(v); ok && strings.TrimSpace(s) != "" {
			return []string{s}
		}
		return defaultStrings(name)
	}
}

func (f Fields) Int(name Field) int {
	def, _ := Default(name).(int)
	v, ok := f.raw(name)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		if t != math.Trunc(t) {
			return def
		}
		return int(t)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return def
		}
		return n
	default:
		return def
	}
}

// Docs returns nested documents stored either as a list or as a map keyed by
// an arbitrary id. Map entries are returned in key order.
func (f Fields) Docs(name Field) []Document {
	v, ok := f.raw(name)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []any:
		out := make([]Document, 0, len(t))
		for _, item := range t {
			if d, ok := asDocument(item); ok {
				out = append(out, d)
			}
		}
		return out
	case []Document:
		return append([]Document(nil), t...)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Document, 0, len(keys))
		for _, k := range keys {
			if d, ok := asDocument(t[k]); ok {
				out = append(out, d)
			}
		}
		return out
	default:
		return nil
	}
}

func asDocument(v any) (Document, bool) {
	switch t := v.(type) {
	case map[string]any:
		return Document(t), true
	case Document:
		return t, true
	default:
		return nil, false
	}
}

func defaultStrings(name Field) []string {
	def, _ := Default(name).([]string)
	return append([]string{}, def...)
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case time.Time:
		if t.IsZero() {
			return "", true
		}
		return t.Format(DateLayout), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return "", true
		}
		return t.Format(DateLayout), true
	case int:
		return strconv.Itoa(t), true
	case int32:
		return strconv.FormatInt(int64(t), 10), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}
