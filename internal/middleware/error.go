package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go-directory-app/internal/apperr"
	"go-directory-app/internal/logger"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// PageRenderer renders the HTML error page.
type PageRenderer interface {
	Render(w http.ResponseWriter, r *http.Request, name string, data map[string]interface{}) error
}

// FromError maps err to its HTTP status. The message is the caller-facing
// text of the error; storage and unknown failures keep their cause for logs only.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	code := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		code = http.StatusBadRequest
	case apperr.KindNotFound:
		code = http.StatusNotFound
	case apperr.KindUnauthorized:
		code = http.StatusUnauthorized
	case apperr.KindForbidden:
		code = http.StatusForbidden
	case apperr.KindRateLimit:
		code = http.StatusTooManyRequests
	}
	msg := apperr.Message(err)
	if apperr.KindOf(err) == apperr.KindUnknown {
		msg = http.StatusText(code)
	}
	return &AppError{Error: err, Message: msg, Code: code}
}

// WriteError writes e as {"ok":false,"error":message}.
func WriteError(w http.ResponseWriter, e *AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(e.Code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "error": e.Message})
}

// JSONError converts handler errors and panics into JSON error responses.
func JSONError(log logger.Logger) func(AppHandler) http.Handler {
	return handleErrors(log, func(w http.ResponseWriter, _ *http.Request, e *AppError) {
		WriteError(w, e)
	})
}

// Error converts handler errors and panics into the HTML error page.
func Error(log logger.Logger, view PageRenderer) func(AppHandler) http.Handler {
	return handleErrors(log, func(w http.ResponseWriter, r *http.Request, e *AppError) {
		data := map[string]interface{}{
			"StatusCode": e.Code,
			"StatusText": e.Message,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(e.Code)
		if err := view.Render(w, r, "error.html", data); err != nil {
			log.Error(err, "failed to render error page")
		}
	})
}

func handleErrors(log logger.Logger, write func(http.ResponseWriter, *http.Request, *AppError)) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					write(w, r, &AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError})
				}
			}()

			if e := next(w, r); e != nil {
				if e.Code >= http.StatusInternalServerError {
					log.Error(e.Error, e.Message)
				} else {
					log.Debug(fmt.Sprintf("%s %s: %d %s", r.Method, r.URL.Path, e.Code, e.Message))
				}
				write(w, r, e)
			}
		})
	}
}
