package validators

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var phoneRe = regexp.MustCompile(`^\+?[1-9]\d{9,13}$`)

var phoneStrip = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// NormalizePhone drops the usual separators: "(11) 98888-7777" -> "11988887777".
func NormalizePhone(s string) string {
	return phoneStrip.Replace(strings.TrimSpace(s))
}

// IsPhone accepts Brazilian numbers with DDD, optionally in E.164.
func IsPhone(s string) bool {
	return phoneRe.MatchString(NormalizePhone(s))
}

func phoneRule(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

// RegisterBindings installs the custom tags on gin's validator and makes
// validation errors report json field names.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v.RegisterValidation("phone", phoneRule)
}

// FirstInvalidField names the first field rejected by validation, if any.
func FirstInvalidField(err error) (field, tag string, ok bool) {
	errs, isValidation := err.(validator.ValidationErrors)
	if !isValidation || len(errs) == 0 {
		return "", "", false
	}
	return errs[0].Field(), errs[0].Tag(), true
}
