// Package handlers implements the HTTP endpoints over the structure
// application service.
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ChemNotation/internal/domain/notation"
	"github.com/turtacn/ChemNotation/internal/interfaces/http/middleware"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/common"
)

// respondOK writes the standard success envelope.
func respondOK(c *gin.Context, status int, data interface{}) {
	resp := common.NewSuccessResponse(data)
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}

// respondError maps an application error onto the standard error envelope.
// Server-side failures are masked; the typed code and request ID survive for
// correlation.
func respondError(c *gin.Context, err error) {
	var pe *notation.ParseError
	if errors.As(err, &pe) {
		err = apperrors.Wrap(err, apperrors.ErrCodeNotationInvalid, pe.Error())
	}

	code := apperrors.GetCode(err)
	status := apperrors.HTTPStatusForCode(code)

	message := err.Error()
	if apperrors.IsServerError(code) {
		message = apperrors.DefaultMessageForCode(code)
	}

	resp := common.NewErrorResponse(code.String(), message, "")
	resp.RequestID = middleware.GetRequestID(c)
	c.JSON(status, resp)
}

// parsePagination reads page/page_size query parameters with bounds applied.
func parsePagination(c *gin.Context) common.Pagination {
	p := common.Pagination{Page: 1, PageSize: 20}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Page = n
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			p.PageSize = n
		}
	}
	return p
}

// parseDimension reads a positive integer query parameter, returning 0 when
// absent or out of range so the renderer falls back to its default.
func parseDimension(c *gin.Context, name string) int {
	v := c.Query(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 4096 {
		return 0
	}
	return n
}
