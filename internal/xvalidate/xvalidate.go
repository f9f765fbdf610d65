// Package xvalidate wraps github.com/go-playground/validator/v10 for use
// at spec-build time only: validating the *configuration* a schema author
// wrote (a field's resolved default value) rather than any
// value a CLI user supplies at parse time. This keeps spec.md's Non-goal
// ("does not validate semantic invariants beyond type/choice/arity")
// intact — user input is never run through this package — while still
// giving a concrete home to the teacher's validator dependency, here
// implementing spec.md §7's "Invalid default instance" error kind.
package xvalidate

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
	})

	return instance
}

// Default validates value against a go-playground/validator tag string
// (e.g. "required,min=1"). An empty tag is always valid. The returned
// error, if any, is suitable for wrapping with clierrors.ErrInvalidDefault.
func Default(fieldName string, value any, tag string) error {
	if tag == "" || value == nil {
		return nil
	}

	if err := engine().Var(value, tag); err != nil {
		return fmt.Errorf("field %q: %w", fieldName, err)
	}

	return nil
}
