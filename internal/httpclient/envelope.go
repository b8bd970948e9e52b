package httpclient

import (
	"bytes"
	"encoding/json"

	"github.com/tidwall/gjson"

	"github.com/kaia-invest/kaia-core/internal/model"
)

// Kind names the wrapping a response payload arrived in.
type Kind int

const (
	// Bare is the payload itself.
	Bare Kind = iota
	// Data is {"data": payload}.
	Data
	// Named is a list under a resource-specific key, e.g. {"projects": [...]}.
	Named
)

func (k Kind) String() string {
	switch k {
	case Data:
		return "data"
	case Named:
		return "named"
	default:
		return "bare"
	}
}

// Envelope is a response payload with its wrapping resolved. Field is set
// for Named envelopes.
type Envelope struct {
	Kind  Kind
	Field string
	Value gjson.Result
}

// UnwrapValue resolves a single-value body: {"data": v} when data is present
// and not null, the body itself otherwise.
func UnwrapValue(body []byte) Envelope {
	if !gjson.ValidBytes(body) {
		return Envelope{Kind: Bare}
	}
	root := gjson.ParseBytes(body)
	if root.IsObject() {
		if d := root.Get("data"); d.Exists() && d.Type != gjson.Null {
			return Envelope{Kind: Data, Value: d}
		}
	}
	return Envelope{Kind: Bare, Value: root}
}

// UnwrapList resolves a list body: a bare array, {"data": [...]}, or an array
// under one of fields, checked in that order. Anything else is an empty list.
func UnwrapList(body []byte, fields ...string) Envelope {
	if !gjson.ValidBytes(body) {
		return Envelope{Kind: Bare}
	}
	root := gjson.ParseBytes(body)
	if root.IsArray() {
		return Envelope{Kind: Bare, Value: root}
	}
	if !root.IsObject() {
		return Envelope{Kind: Bare}
	}
	if d := root.Get("data"); d.IsArray() {
		return Envelope{Kind: Data, Value: d}
	}
	named := root.Map()
	for _, f := range fields {
		if v := named[f]; v.IsArray() {
			return Envelope{Kind: Named, Field: f, Value: v}
		}
	}
	return Envelope{Kind: Bare}
}

// Record decodes the unwrapped value as an object, or returns an empty record.
func (e Envelope) Record() model.Record {
	return toRecord(e.Value)
}

// Records decodes every object element of an unwrapped list. Elements that
// are not objects are skipped.
func (e Envelope) Records() []model.Record {
	if !e.Value.IsArray() {
		return []model.Record{}
	}
	items := e.Value.Array()
	out := make([]model.Record, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			out = append(out, toRecord(item))
		}
	}
	return out
}

// Empty reports whether nothing usable was found.
func (e Envelope) Empty() bool {
	return !e.Value.Exists() || e.Value.Type == gjson.Null
}

func toRecord(v gjson.Result) model.Record {
	if !v.IsObject() {
		return model.Record{}
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(v.Raw)))
	dec.UseNumber()
	var r model.Record
	if err := dec.Decode(&r); err != nil || r == nil {
		return model.Record{}
	}
	return r
}

// errorMessage returns the body's "message" string, or fallback.
func errorMessage(body []byte, fallback string) string {
	if gjson.ValidBytes(body) {
		if m := gjson.GetBytes(body, "message"); m.Type == gjson.String && m.String() != "" {
			return m.String()
		}
	}
	return fallback
}
