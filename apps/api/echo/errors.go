package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/quangvd/barem/core"
	"github.com/quangvd/barem/core/exam"
	"github.com/quangvd/barem/core/similarity"
	"github.com/quangvd/barem/services/gradeapi"
)

func appHTTPErrorHandler(err error, c echo.Context) {
	var code int
	var message interface{}

	cause := errors.Cause(err)
	switch err := cause.(type) {
	case *echo.HTTPError:
		if err.Internal != nil {
			if herr, ok := err.Internal.(*echo.HTTPError); ok {
				err = herr
			}
		}
		code = err.Code
		message = err.Message
	case validator.ValidationErrors:
		fldErrs := make(map[string]string)
		for _, vErr := range err {
			fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
		}
		code = http.StatusBadRequest
		message = fldErrs
	case *core.ValidationError:
		if err.Fields != nil {
			fldErrs := make(map[string]string)
			for _, fErr := range err.Fields {
				fldErrs[fErr.Field] = fErr.Error
			}
			message = fldErrs
		} else {
			message = err.Error()
		}
		code = http.StatusBadRequest
	case *gradeapi.APIError:
		// server rejections pass through verbatim; transport failures
		// surface as a bad gateway
		code = err.StatusCode
		if code == 0 {
			code = http.StatusBadGateway
		}
		message = err.Message
	case *exam.ParseError:
		code = http.StatusUnprocessableEntity
		message = err.Error()
	default:
		switch cause {
		case core.ErrSessionExpired:
			code = http.StatusUnauthorized
			message = cause.Error()
		case similarity.ErrNotCached, exam.ErrNotFound:
			code = http.StatusNotFound
			message = cause.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)
		}
	}

	if c.Echo().Debug {
		message = err.Error()
	} else if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	// Send response
	if !c.Response().Committed {
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, message)
		}
		if err != nil {
			c.Echo().Logger.Error(err)
		}
	}
}
