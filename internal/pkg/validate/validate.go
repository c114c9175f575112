// Package validate exposes a process-wide validator instance.
package validate

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Validate returns the shared validator.
func Validate() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
	})
	return instance
}
