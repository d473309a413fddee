// Package validate оборачивает go-playground/validator и приводит его ошибки
// к единой ошибке ErrValidation, которую вызывающий код проверяет через errors.Is.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// ErrValidation возвращается, когда входные данные не прошли проверку.
var ErrValidation = errors.New("validation failed")

// Validator проверяет структуры по тегам validate.
type Validator struct {
	v *validator.Validate
}

// New создает новый Validator.
func New() *Validator {
	return &Validator{v: validator.New()}
}

// Struct проверяет структуру и возвращает ошибку, обёрнутую в ErrValidation.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}
