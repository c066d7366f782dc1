package utils

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Total      int64       `json:"total"`
	TotalPages int         `json:"total_pages"`
}

func SendError(c *gin.Context, status int, err string) {
	c.JSON(status, ErrorResponse{
		Error: err,
		Code:  status,
	})
}

// SendDetail writes the {"detail": ...} body clients of the rental app
// expect for not-found and permission errors.
func SendDetail(c *gin.Context, status int, detail string) {
	c.JSON(status, gin.H{"detail": detail})
}

// SendSuccess writes {"success": message}.
func SendSuccess(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": message})
}

// SendValidationError turns binding errors into a field -> messages map.
// Errors that are not validator errors (malformed JSON) are reported under
// "non_field_errors".
func SendValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ValidationErrors(err))
}

func ValidationErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string][]string{"non_field_errors": {err.Error()}}
	}

	fields := map[string][]string{}
	for _, fe := range verrs {
		name := fe.Field()
		fields[name] = append(fields[name], fieldMessage(fe))
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return "Ensure this field has no more than " + fe.Param() + " characters."
	case "min":
		return "Ensure this field has at least " + fe.Param() + " characters."
	case "len":
		return "Ensure this field has exactly " + fe.Param() + " characters."
	case "eqfield":
		return "Must match " + toSnake(fe.Param()) + "."
	case "strongpassword":
		return "Password must be at least 8 characters and mix upper case, lower case, digits or symbols."
	case "bikestatus":
		return "Must be one of AVAILABLE, IN_USE, MAINTENANCE, RESERVED."
	case "url":
		return "Enter a valid URL."
	case "latitude", "longitude", "numeric":
		return "Enter a valid " + fe.Tag() + "."
	}
	return "Invalid value."
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func SendPaginated(c *gin.Context, data interface{}, page, limit int, total int64) {
	totalPages := int((total + int64(limit) - 1) / int64(limit))

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:       data,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	})
}
