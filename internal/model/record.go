// Package model holds the typed domain records and their bidirectional
// mapping to the remote API's snake_case wire format.
//
// Every FromWire function accepts any subset of keys with any value types and
// never fails; every ToWire function leaves unset optional fields out.
package model

import (
	"encoding/json"
	"time"

	"github.com/kaia-invest/kaia-core/internal/coerce"
)

// Record is one decoded wire object.
type Record map[string]any

// now is swapped in tests that need a fixed clock.
var now = time.Now

// Has reports whether key is present with a non-null value.
func (r Record) Has(key string) bool {
	if r == nil {
		return false
	}
	v, ok := r[key]
	return ok && v != nil
}

// Get returns the raw value for key; nil-safe.
func (r Record) Get(key string) any {
	if r == nil {
		return nil
	}
	return r[key]
}

// JSON encodes the record.
func (r Record) JSON() ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(r))
}

// Sub returns the nested object under key, or an empty record.
func (r Record) Sub(key string) Record {
	switch v := r.Get(key).(type) {
	case Record:
		return v
	case map[string]any:
		return Record(v)
	}
	return Record{}
}

func optInt(r Record, key string) *int64 {
	if !r.Has(key) {
		return nil
	}
	v := coerce.ToInt(r[key])
	return &v
}

func optNum(r Record, key string) *float64 {
	if !r.Has(key) {
		return nil
	}
	v := coerce.ToNum(r[key])
	return &v
}

func optStr(r Record, key string) *string {
	if !r.Has(key) {
		return nil
	}
	v := coerce.ToStr(r[key])
	return &v
}

func dateOrNow(v any) time.Time {
	if d := coerce.ToDate(v); d != nil {
		return *d
	}
	return now()
}

func putInt(r Record, key string, v *int64) {
	if v != nil {
		r[key] = *v
	}
}

func putNum(r Record, key string, v *float64) {
	if v != nil {
		r[key] = *v
	}
}

func putStr(r Record, key string, v *string) {
	if v != nil {
		r[key] = *v
	}
}

func putDate(r Record, key string, v *time.Time) {
	if s, ok := coerce.ISO(v); ok {
		r[key] = s
	}
}

func putTime(r Record, key string, v time.Time) {
	putDate(r, key, &v)
}

// Ptr returns a pointer to v. Handy for optional fields.
func Ptr[T any](v T) *T { return &v }
