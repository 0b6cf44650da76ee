package http

import (
	"errors"
	"net/http"

	"carservice/internal/generated/servers"
	"carservice/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps application errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrInvalidTransition), errors.Is(err, errs.ErrConcurrencyConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as a servers.Error. Client errors carry the error text;
// server errors are logged and answered with fallback only.
func (s *Server) respondError(ctx echo.Context, err error, fallback string) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), fallback,
			"method", ctx.Request().Method,
			"path", ctx.Request().URL.Path,
			"error", err,
		)
		return ctx.JSON(code, servers.Error{Code: code, Message: fallback})
	}
	return ctx.JSON(code, servers.Error{Code: code, Message: err.Error()})
}

func badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, servers.Error{
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// ErrorHandler renders errors that escape handlers, such as routing and binding
// failures, in the same shape as handler errors.
func ErrorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	}

	if ctx.Request().Method == http.MethodHead {
		_ = ctx.NoContent(code)
		return
	}
	_ = ctx.JSON(code, servers.Error{Code: code, Message: message})
}
