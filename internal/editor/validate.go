// internal/editor/validate.go
package editor

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	yearPattern    = regexp.MustCompile(`^\d{4}$`)
	zoobankPattern = regexp.MustCompile(`(?i)^https?://(www\.)?zoobank\.org/.+$`)
	httpURLPattern = regexp.MustCompile(`(?i)^https?://[^\s]+$`)
	orcidPattern   = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("year4", func(fl validator.FieldLevel) bool {
		return yearPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("zoobank", func(fl validator.FieldLevel) bool {
		return zoobankPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		return httpURLPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	_ = v.RegisterValidation("orcid", func(fl validator.FieldLevel) bool {
		return orcidPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

var tagMessages = map[string]string{
	"required":      "is required",
	"required_if":   "is required when \"other\" is selected",
	"required_with": "title and URL must be filled in together",
	"year4":         "must be a 4-digit year",
	"zoobank":       "must be a ZooBank URL (https://zoobank.org/...)",
	"httpurl":       "must be an http(s) URL",
	"unique":        "must not contain duplicates",
	"oneof":         "has an unsupported value",
	"number":        "must be a number",
	"orcid":         "must be an ORCID iD (0000-0000-0000-0000)",
	"datetime":      "must be a date (YYYY-MM-DD)",
}

// validateDraft checks draft against its validate tags and returns a
// *ValidationError keyed by JSON field path.
func validateDraft(draft any) error {
	err := validate.Struct(draft)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fieldKey(fe)
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldKey drops the struct name from the namespace: "type_images[0].url".
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "min" && fe.Kind() == reflect.Slice {
		return "at least " + fe.Param() + " required"
	}
	if msg, ok := tagMessages[fe.Tag()]; ok {
		return msg
	}
	return "is invalid (" + fe.Tag() + ")"
}
