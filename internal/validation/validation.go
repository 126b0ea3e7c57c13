// Package validation 注册自定义校验规则，并把 validator 错误转换为 apperr.ValidationError
package validation

import (
	"errors"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/d60-Lab/appdata-service/internal/apperr"
	"github.com/d60-Lab/appdata-service/internal/interval"
)

var std = New()

// New 返回已注册自定义规则的 validator
func New() *validator.Validate {
	v := validator.New()
	if err := Register(v); err != nil {
		panic(err)
	}
	return v
}

// Register 注册 interval 与 absuri 两条规则；gin 的 binding 引擎也通过它注册
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("interval", func(fl validator.FieldLevel) bool {
		return interval.Interval(fl.Field().String()).IsValid()
	}); err != nil {
		return err
	}
	return v.RegisterValidation("absuri", func(fl validator.FieldLevel) bool {
		return IsAbsoluteURI(fl.Field().String())
	})
}

// IsAbsoluteURI 要求带 scheme 与 host
func IsAbsoluteURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}

// Struct 校验结构体
func Struct(s any) error {
	return Convert(std.Struct(s))
}

// Var 校验单个值，field 用于错误信息
func Var(field string, value any, tag string) error {
	return convert(std.Var(value, tag), field)
}

// Convert 把 validator.ValidationErrors 转换为 apperr.ValidationError，其他错误原样返回
func Convert(err error) error {
	return convert(err, "")
}

func convert(err error, field string) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fe := make([]apperr.FieldError, len(ve))
	for i, e := range ve {
		name := field
		if name == "" {
			name = e.Field()
		}
		fe[i] = apperr.FieldError{Field: name, Message: message(e)}
	}
	return &apperr.ValidationError{Errors: fe}
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "absuri":
		return "must be an absolute URI"
	case "interval":
		return "must be one of Daily, Weekly, Monthly, Quarterly, Never, Immediately"
	case "json":
		return "must be valid JSON"
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "oneof":
		return "must be one of " + e.Param()
	}
	return "failed on " + e.Tag()
}
