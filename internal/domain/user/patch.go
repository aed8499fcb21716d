package user

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errNullValue = errors.New("null is not an accepted value")

// Optional holds a value together with whether it was supplied at all.
// The zero Optional is "not set", which is distinct from Some(zero value).
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns an Optional that is set to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Ptr returns a pointer to the value, or nil when unset.
func (o Optional[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.Value
	return &v
}

// UnmarshalJSON marks the Optional as set. Explicit nulls are rejected:
// none of the user fields can be cleared.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return errNullValue
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Set = true
	return nil
}

// MarshalJSON writes the value, or null when unset.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Set {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Patch is a partial update of a user. Only fields that are Set are written.
type Patch struct {
	Name     Optional[string]
	Email    Optional[string]
	Age      Optional[int]
	IsActive Optional[bool]
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	return !p.Name.Set && !p.Email.Set && !p.Age.Set && !p.IsActive.Set
}
