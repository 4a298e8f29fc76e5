package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"videogen/internal/textutil"
)

var registerOnce sync.Once

// registerValidations adds the blobpath rule and JSON field names to gin's
// validator engine.
func registerValidations() {
	registerOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		engine.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = engine.RegisterValidation("blobpath", validateBlobPath)
	})
}

func validateBlobPath(fl validator.FieldLevel) bool {
	_, ok := textutil.CleanObjectPath(fl.Field().String())
	return ok
}

// bindingMessage turns binder errors into a short client-facing message.
func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
			case "blobpath":
				parts = append(parts, fmt.Sprintf("%s is not a valid object path", fe.Field()))
			default:
				parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
		}
		return strings.Join(parts, "; ")
	}
	return "invalid request body: " + err.Error()
}
