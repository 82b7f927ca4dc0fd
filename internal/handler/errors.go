package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/newsflow/go-editor-service/internal/editor"
	"github.com/newsflow/go-editor-service/internal/importer"
	"github.com/newsflow/go-editor-service/internal/linkcheck"
	"github.com/newsflow/go-editor-service/internal/upload"
)

// statusFor 错误到 HTTP 状态码的映射
func statusFor(err error) int {
	switch {
	case errors.Is(err, linkcheck.ErrInvalidURL):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrEmptyClipboard), errors.Is(err, upload.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, upload.ErrNotImage), errors.Is(err, importer.ErrNotHTML):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, upload.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrNoArticle):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, editor.ErrUploadFailed), errors.Is(err, importer.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage 把校验错误整理为一行
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}

func countLabel(n int) string {
	return fmt.Sprintf("%d characters", n)
}
