package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/escola/core"
	"github.com/trezcool/escola/core/student"
)

var (
	errHttpNotFound   = echo.NewHTTPError(http.StatusNotFound, "Aluno não encontrado")
	errHttpNameExists = echo.NewHTTPError(http.StatusConflict, "Já existe um estudante com esse nome.")
	errHttpBadBody    = echo.NewHTTPError(http.StatusUnprocessableEntity, "corpo da requisição inválido")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// Every error body is {"detail": ...}; validation errors add a field map under "errors".
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		body := echo.Map{}

		cause := errors.Cause(err)
		switch cause {
		case student.ErrNotFound:
			cause = errHttpNotFound
		case student.ErrNameExists:
			cause = errHttpNameExists
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			body["detail"] = origErr.Message
		case *core.ValidationError:
			code = http.StatusUnprocessableEntity
			body["detail"] = origErr.Error()
			if len(origErr.Fields) > 0 {
				body["errors"] = origErr.FieldMap()
			}
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body["detail"] = msg
			if logger != nil {
				logger.Error(msg, errors.Wrap(err, msg), map[string]interface{}{
					"method": ctx.Request().Method,
					"path":   ctx.Request().URL.Path,
				})
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
			if ctx.Echo().Debug {
				body["detail"] = err.Error()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
