// Package validation runs struct rules at the service boundary and turns
// validator failures into *domain.ValidationError values.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"commerce-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

var cepPattern = regexp.MustCompile(`^\d{5}-?\d{3}$`)

var brazilianStates = map[string]struct{}{
	"AC": {}, "AL": {}, "AP": {}, "AM": {}, "BA": {}, "CE": {}, "DF": {}, "ES": {}, "GO": {},
	"MA": {}, "MT": {}, "MS": {}, "MG": {}, "PA": {}, "PB": {}, "PR": {}, "PE": {}, "PI": {},
	"RJ": {}, "RN": {}, "RS": {}, "RO": {}, "RR": {}, "SC": {}, "SP": {}, "SE": {}, "TO": {},
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = validate.RegisterValidation("uf", isStateCode)
		validate.RegisterStructValidation(addressRules, domain.Address{})
	})
	return validate
}

func isStateCode(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// addressRules applies the national formats when the address is Brazilian.
func addressRules(sl validator.StructLevel) {
	a := sl.Current().Interface().(domain.Address)
	if a.Country != "" && !strings.EqualFold(a.Country, "BR") {
		return
	}
	if a.State != "" {
		if _, ok := brazilianStates[a.State]; !ok {
			sl.ReportError(a.State, "state", "State", "uf", "")
		}
	}
	if a.ZipCode != "" && !cepPattern.MatchString(a.ZipCode) {
		sl.ReportError(a.ZipCode, "zipCode", "ZipCode", "cep", "")
	}
}

// Collect validates v and returns every failing field. The result is never nil;
// callers may add their own checks before deciding to fail.
func Collect(v any) *domain.ValidationError {
	out := &domain.ValidationError{}
	err := instance().Struct(v)
	if err == nil {
		return out
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add("", err.Error())
		return out
	}
	for _, fe := range verrs {
		out.Add(fieldPath(fe.Namespace()), message(fe))
	}
	return out
}

// Struct validates v and returns nil or a *domain.ValidationError.
func Struct(v any) error {
	if verr := Collect(v); verr.HasErrors() {
		return verr
	}
	return nil
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uf":
		return "must be a valid 2-letter state code"
	case "cep":
		return "must match the postal code format 00000-000"
	}
	return "is invalid"
}

// Var validates a single value against tag.
func Var(v any, tag string) error {
	return instance().Var(v, tag)
}
