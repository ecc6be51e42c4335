// Package validation configures gin's binding validator for the webinar API.
package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// MaxSlugLength bounds slug path segments.
const MaxSlugLength = 200

// IsSlug reports whether s is a URL-safe webinar slug: lowercase alphanumerics
// separated by single hyphens.
func IsSlug(s string) bool {
	return len(s) > 0 && len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}

// Init registers JSON tag names and the "slug" tag on gin's validator.
func Init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// Register installs the custom tags on v.
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("uri"), ",", 2)[0]
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})
}

// Message turns a binding error into a short client-facing message.
func Message(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid request"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "uuid":
		return fe.Field() + " must be a valid UUID"
	case "slug":
		return fe.Field() + " must be a valid slug"
	default:
		return fe.Field() + " is invalid"
	}
}
