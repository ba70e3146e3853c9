package models

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one validation failure. Path is the JSON field name, with an
// index suffix for list items (techStack[2]).
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// imageref accepts absolute http(s) URLs and site-relative paths such as
	// the /uploads/ URLs produced by the local upload backend.
	if err := v.RegisterValidation("imageref", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
			return true
		}
		u, err := url.Parse(s)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	}); err != nil {
		panic(err)
	}
	return v
}

func requireText(errs []FieldError, partial bool, path string, v *string) []FieldError {
	switch {
	case v == nil && partial:
		return errs
	case v == nil:
		return append(errs, FieldError{Path: path, Message: "Required"})
	case strings.TrimSpace(*v) == "":
		return append(errs, FieldError{Path: path, Message: "Must not be empty"})
	}
	return errs
}

func structErrors(in any) []FieldError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Path: "", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Path: fieldPath(fe), Message: describe(fe)})
	}
	return out
}

// fieldPath strips the struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "url":
		return "Must be a valid URL"
	case "imageref":
		return "Must be a valid URL or site path"
	case "email":
		return "Must be a valid email address"
	default:
		return fmt.Sprintf("Failed %q validation", fe.Tag())
	}
}
