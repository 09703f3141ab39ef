package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/ChemNotation/internal/application/structure"
	"github.com/turtacn/ChemNotation/internal/domain/depiction"
	"github.com/turtacn/ChemNotation/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/ChemNotation/pkg/errors"
	"github.com/turtacn/ChemNotation/pkg/types/chem"
	"github.com/turtacn/ChemNotation/pkg/types/common"
)

// maxImportBytes caps molfile/SDF upload size.
const maxImportBytes = 8 << 20

// StructureHandler serves the structure endpoints.
type StructureHandler struct {
	svc structure.Service
	log logging.Logger
}

// NewStructureHandler wires the handler.
func NewStructureHandler(svc structure.Service, log logging.Logger) *StructureHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &StructureHandler{svc: svc, log: log.Named("handler.structure")}
}

// validateRequest is the body of POST /structures/validate.
type validateRequest struct {
	Notation string `json:"notation"`
}

// Validate resolves a notation string.  A rejected notation is still a 200:
// the result DTO carries the structured error, and clients render it inline.
func (h *StructureHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.InvalidParam("request body must be JSON with a notation field"))
		return
	}

	dto, err := h.svc.Validate(c.Request.Context(), req.Notation)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, dto)
}

// Summary returns validation plus depiction availability for one notation.
func (h *StructureHandler) Summary(c *gin.Context) {
	notation := c.Query("notation")
	sum, err := h.svc.Summarize(c.Request.Context(), notation)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, sum)
}

// Depict renders a notation as SVG (default) or PNG and returns raw image
// bytes rather than the JSON envelope.
func (h *StructureHandler) Depict(c *gin.Context) {
	notation := c.Query("notation")
	format := chem.DepictionFormat(c.Query("format"))
	opts := depiction.RenderOptions{
		Width:  parseDimension(c, "width"),
		Height: parseDimension(c, "height"),
	}

	data, contentType, err := h.svc.Depict(c.Request.Context(), notation, format, opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// Import ingests a molfile or SD file posted as the raw request body.  The
// format query parameter selects "mol" or "sdf".
func (h *StructureHandler) Import(c *gin.Context) {
	format := c.DefaultQuery("format", "sdf")

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes+1))
	if err != nil {
		respondError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "failed to read request body"))
		return
	}
	if len(data) == 0 {
		respondError(c, apperrors.InvalidParam("request body is empty"))
		return
	}
	if len(data) > maxImportBytes {
		respondError(c, apperrors.InvalidParam("upload exceeds size limit"))
		return
	}

	result, err := h.svc.Import(c.Request.Context(), format, data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// ListRecords pages through the persisted structure registry.
func (h *StructureHandler) ListRecords(c *gin.Context) {
	page, err := h.svc.ListRecords(c.Request.Context(), parsePagination(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, page)
}

// GetRecord fetches one persisted record by ID.
func (h *StructureHandler) GetRecord(c *gin.Context) {
	id := common.ID(c.Param("id"))
	if err := id.Validate(); err != nil {
		respondError(c, apperrors.InvalidParam("invalid record id"))
		return
	}
	rec, err := h.svc.GetRecord(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, rec)
}
