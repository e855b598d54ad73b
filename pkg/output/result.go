package output

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Result is a structured key/value command result. Keys keep insertion order.
type Result struct {
	fields *orderedmap.OrderedMap[string, any]
}

// NewResult creates an empty result.
func NewResult() *Result {
	return &Result{fields: orderedmap.New[string, any]()}
}

// Set stores value under key and returns the result for chaining.
// Setting an existing key keeps its original position.
func (r *Result) Set(key string, value any) *Result {
	r.fields.Set(key, value)
	return r
}

// Get returns the value stored under key.
func (r *Result) Get(key string) (any, bool) {
	return r.fields.Get(key)
}

// Len returns the number of keys.
func (r *Result) Len() int {
	return r.fields.Len()
}

// Keys returns the keys in insertion order.
func (r *Result) Keys() []string {
	keys := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each calls fn for every key in insertion order.
func (r *Result) Each(fn func(key string, value any)) {
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// MarshalJSON encodes the result as a JSON object preserving key order.
func (r *Result) MarshalJSON() ([]byte, error) {
	return r.fields.MarshalJSON()
}

// Message wraps a plain text message as {Message: text}.
func Message(text string) *Result {
	return NewResult().Set("Message", text)
}

// ErrorResult wraps an error message as {Error: text}.
func ErrorResult(text string) *Result {
	return NewResult().Set("Error", text)
}
