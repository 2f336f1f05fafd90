package middleware

import (
	ierr "github.com/creatorly/churnalytics/internal/errors"
	"github.com/gin-gonic/gin"
)

// ErrorHandlerMiddleware renders errors attached via c.Error as the standard
// error envelope, with the HTTP status derived from the error's mark.
func ErrorHandlerMiddleware(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}

	err := c.Errors.Last().Err
	c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
}
