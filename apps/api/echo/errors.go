package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/examprep/portal/core"
	"github.com/examprep/portal/services/backend"
)

var (
	errHttpUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound     = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// retryableError is a page-level failure the client may retry, eg. unreadable saved questions.
type retryableError struct {
	err error
	msg string
}

func (e *retryableError) Error() string { return e.msg + ": " + e.err.Error() }

func newRetryableError(err error, msg string) error {
	return &retryableError{err: err, msg: msg}
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *retryableError:
			code = http.StatusServiceUnavailable
			message = echo.Map{"error": origErr.msg, "retry": true}
			logger.Warn(origErr.msg, err, contextSession(ctx))
		case *backend.StatusError:
			// backend rejections (eg. 409 conflicts) are forwarded, its outages are ours
			if origErr.Code < http.StatusInternalServerError {
				code = origErr.Code
				message = origErr.Message
				if message == "" {
					message = http.StatusText(code)
				}
				break
			}
			code = http.StatusBadGateway
			message = http.StatusText(code)
			logger.Error(message.(string), err, contextSession(ctx))
		default:
			switch origErr {
			case core.ErrNotFound:
				code = http.StatusNotFound
				message = errHttpNotFound.Message
			case core.ErrUnauthorized:
				code = http.StatusUnauthorized
				message = errHttpUnauthorized.Message
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg
				logger.Error(msg, errors.Wrap(err, msg), contextSession(ctx))

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if _, ok := message.(string); ok && ctx.Echo().Debug && code >= http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
