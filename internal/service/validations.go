package service

import (
	"errors"
	"log"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	errorvalues "github.com/limbo/journal/internal/error_values"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// InitValidator must run before any Signup. Safe to call more than once.
func InitValidator() {
	once.Do(func() {
		validate = validator.New()
		if err := validate.RegisterValidation("alphanum_underscore", alphanumUnderscore); err != nil {
			log.Fatal("registering alphanum_underscore validation error: " + err.Error())
		}
	})
}

// Letters, digits and underscores, not starting with a digit or underscore
func alphanumUnderscore(fl validator.FieldLevel) bool {
	for i, char := range fl.Field().String() {
		if i == 0 && (unicode.IsDigit(char) || char == '_') {
			return false
		}
		if !unicode.IsLetter(char) && !unicode.IsDigit(char) && char != '_' {
			return false
		}
	}
	return true
}

// validateStruct joins every failed field onto ErrValidation.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.New("validation unexpected error: " + err.Error())
	}
	joined := errorvalues.ErrValidation
	for _, fieldErr := range fieldErrs {
		joined = errors.Join(joined, fieldErr)
	}
	return joined
}
