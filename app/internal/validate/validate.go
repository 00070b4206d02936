package validate

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var versionRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// RegisterValidation 注册gin binding用到的自定义校验标签
func RegisterValidation() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
		return versionRe.MatchString(fl.Field().String())
	})
}
