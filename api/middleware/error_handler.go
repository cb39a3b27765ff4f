// api/middleware/error_handler.go
package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Annany2002/taxacurator/internal/console"
	"github.com/Annany2002/taxacurator/internal/core"
	"github.com/Annany2002/taxacurator/internal/editor"
	"github.com/Annany2002/taxacurator/internal/gateway"
	"github.com/Annany2002/taxacurator/internal/geo"
	"github.com/Annany2002/taxacurator/internal/logger"
	"github.com/Annany2002/taxacurator/internal/session"
)

var (
	customLog = logger.NewLogger()
)

// ErrorHandler creates a Gin middleware for centralized error handling.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// Only the last error decides the response.
		err := c.Errors.Last().Err
		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		statusCode, body := mapError(err)

		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, body)
		} else {
			customLog.Warnf("[ErrorHandler] Response already written before handling error.")
		}
	}
}

func mapError(err error) (int, gin.H) {
	var draftErr *editor.ValidationError
	var bindErrs validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.As(err, &draftErr):
		return http.StatusBadRequest, gin.H{"error": "Validation failed. Please check your input.", "fields": draftErr.Fields}

	case errors.As(err, &bindErrs):
		fields := make(map[string]string, len(bindErrs))
		for _, fe := range bindErrs {
			customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
			fields[fe.Field()] = "failed on '" + fe.Tag() + "'"
		}
		return http.StatusBadRequest, gin.H{"error": "Validation failed. Please check your input.", "fields": fields}

	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return http.StatusBadRequest, gin.H{"error": "Malformed JSON body."}

	case errors.Is(err, gateway.ErrRecordNotFound),
		errors.Is(err, gateway.ErrTableNotFound),
		errors.Is(err, console.ErrUnknownConsole):
		return http.StatusNotFound, gin.H{"error": err.Error()}

	case errors.Is(err, editor.ErrDuplicateID),
		errors.Is(err, gateway.ErrConstraintViolation):
		return http.StatusConflict, gin.H{"error": err.Error()}

	case errors.Is(err, editor.ErrNotEditing),
		errors.Is(err, editor.ErrAlreadyOpen):
		return http.StatusConflict, gin.H{"error": err.Error()}

	case errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized, gin.H{"error": "Invalid email or password."}

	case errors.Is(err, session.ErrTokenExpired):
		return http.StatusUnauthorized, gin.H{"error": "Authentication token has expired."}

	case errors.Is(err, session.ErrSessionRevoked):
		return http.StatusUnauthorized, gin.H{"error": "Session has been signed out."}

	case errors.Is(err, session.ErrUnauthorized),
		errors.Is(err, session.ErrTokenMalformed),
		errors.Is(err, session.ErrTokenInvalid),
		errors.Is(err, session.ErrTokenClaimsInvalid),
		errors.Is(err, session.ErrUnexpectedSigningMethod):
		return http.StatusUnauthorized, gin.H{"error": "Invalid or malformed authentication token."}

	case errors.Is(err, core.ErrInvalidParam),
		errors.Is(err, gateway.ErrColumnNotFound),
		errors.Is(err, gateway.ErrTypeMismatch),
		errors.Is(err, gateway.ErrInvalidIdentifier),
		errors.Is(err, editor.ErrNotEditMode),
		errors.Is(err, editor.ErrIndexOutOfRange),
		errors.Is(err, geo.ErrOutOfRange),
		errors.Is(err, geo.ErrInvalidHemisphere),
		errors.Is(err, geo.ErrInvalidNumber),
		errors.Is(err, geo.ErrUnsupportedFormat):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	}

	customLog.Printf("Unhandled error type: %T, Error: %v", err, err)
	return http.StatusInternalServerError, gin.H{"error": "An unexpected internal server error occurred."}
}
