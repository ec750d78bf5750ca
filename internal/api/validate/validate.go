package validate

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// FieldError 单个字段的校验错误。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// BindJSON 解析并校验请求体。
//
// 校验失败时它会直接写出 400 响应（message + errors 字段列表）并返回
// false，调用方此时应当立即 return。
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fieldErrors := make([]FieldError, 0, len(verrs))
			for _, fe := range verrs {
				field := strings.ToLower(fe.Field())
				fieldErrors = append(fieldErrors, FieldError{
					Field:   field,
					Message: messageFor(field, fe.Tag()),
				})
			}
			Fail(c, fieldErrors)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return false
	}
	return true
}

// Fail 输出标准的校验失败响应。
func Fail(c *gin.Context, errs []FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"message": "Validation failed",
		"errors":  errs,
	})
	c.Abort()
}

// Username 检查用户名的字符集约束（长度交给 binding 标签）。
func Username(username string) *FieldError {
	if username == "" || usernamePattern.MatchString(username) {
		return nil
	}
	return &FieldError{
		Field:   "username",
		Message: "Username can only contain letters, numbers, and underscores",
	}
}

// Password 检查密码复杂度：至少一个小写、一个大写和一个数字。
func Password(password string) *FieldError {
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if password == "" || (hasLower && hasUpper && hasDigit) {
		return nil
	}
	return &FieldError{
		Field:   "password",
		Message: "Password must contain at least one lowercase letter, one uppercase letter, and one number",
	}
}

// messageFor 把 validator 的 tag 翻译为面向用户的提示语。
func messageFor(field, tag string) string {
	switch field {
	case "username":
		switch tag {
		case "required":
			return "Username is required"
		case "min", "max":
			return "Username must be between 3 and 30 characters"
		}
	case "email":
		switch tag {
		case "required":
			return "Email is required"
		case "email":
			return "Please provide a valid email address"
		}
	case "password":
		switch tag {
		case "required":
			return "Password is required"
		case "min":
			return "Password must be at least 6 characters long"
		}
	case "title":
		switch tag {
		case "required", "min":
			return "Task title is required"
		case "max":
			return "Title cannot exceed 100 characters"
		}
	case "description":
		if tag == "max" {
			return "Description cannot exceed 500 characters"
		}
	case "status":
		if tag == "oneof" || tag == "required" {
			return "Status must be either pending or completed"
		}
	}
	return field + " is invalid"
}
