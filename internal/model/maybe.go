package model

import "encoding/json"

// Maybe holds either a value or the explicit absence of one. Absence means
// "no data available" and is distinct from a zero value.
type Maybe[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{Value: v, Valid: true}
}

// None returns the no-data sentinel for T.
func None[T any]() Maybe[T] {
	return Maybe[T]{}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) {
	return m.Value, m.Valid
}

// OrElse returns the value, or def when absent.
func (m Maybe[T]) OrElse(def T) T {
	if !m.Valid {
		return def
	}
	return m.Value
}

// MarshalJSON encodes an absent value as null.
func (m Maybe[T]) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(m.Value)
}

// UnmarshalJSON decodes null as absent.
func (m *Maybe[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Maybe[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Some(v)
	return nil
}
