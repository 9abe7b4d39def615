// Package validators holds the request validator shared by all handlers.
package validators

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/navin3756/shipit/internal/fare"
)

var (
	once     sync.Once
	instance *validator.Validate
)

// New returns the process-wide validator. Field errors use JSON names.
func New() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err := v.RegisterValidation("booking_duration", func(fl validator.FieldLevel) bool {
			_, err := fare.ParseDuration(fl.Field().String())
			return err == nil
		})
		if err != nil {
			panic(fmt.Sprintf("register booking_duration validation: %v", err))
		}
		instance = v
	})
	return instance
}
