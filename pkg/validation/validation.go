// Package validation envuelve go-playground/validator con nombres de campo JSON y mensajes en español.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// FieldError error de validación de un campo.
type FieldError struct {
	Field       string // nombre JSON (o del struct si no tiene tag json)
	StructField string
	Tag         string
	Param       string
	Message     string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors lista de errores de campo.
type Errors []FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Error())
	}
	return strings.Join(parts, "; ")
}

// Struct valida s según sus tags `validate`. Devuelve nil o Errors.
func Struct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field:       fe.Field(),
			StructField: fe.StructField(),
			Tag:         fe.Tag(),
			Param:       fe.Param(),
			Message:     message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "es obligatorio"
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "uuid", "uuid4":
		return "debe ser un UUID"
	case "number":
		return "debe ser un entero no negativo"
	case "numeric":
		return "debe ser numérico"
	case "min", "gte":
		return "debe ser mayor o igual a " + fe.Param()
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return "excede la longitud máxima de " + fe.Param()
		}
		return "debe ser menor o igual a " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	default:
		return "no cumple la regla " + fe.Tag()
	}
}
