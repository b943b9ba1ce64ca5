package api

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"

	"github.com/go-playground/validator/v10"
)

// Brazilian CEP, digits only. Hyphenated input must be normalized by the
// client.
var cepPattern = regexp.MustCompile(`^\d{8}$`)

func validateCEP(fl validator.FieldLevel) bool {
	str, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	return cepPattern.MatchString(str)
}

func registerValidators() error {
	v, _ := binding.Validator.Engine().(*validator.Validate)
	if err := v.RegisterValidation("cep", validateCEP); err != nil {
		return fmt.Errorf("validator registration: %s", err.Error())
	}
	return nil
}
