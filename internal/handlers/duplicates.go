package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/services"
)

type DuplicateHandler struct {
	log        *logger.Logger
	duplicates services.DuplicateService
}

func NewDuplicateHandler(log *logger.Logger, duplicates services.DuplicateService) *DuplicateHandler {
	return &DuplicateHandler{
		log:        log.With("handler", "DuplicateHandler"),
		duplicates: duplicates,
	}
}

// GET /api/duplicates?group=email&limit=50&offset=0
// Lists duplicate values ordered by how many leads share them.
func (h *DuplicateHandler) ListDuplicates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, total, err := h.duplicates.List(c.Request.Context(), c.Query("group"), limit, offset)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "duplicate_list_failed", err)
		return
	}

	RespondOK(c, gin.H{"duplicates": records, "total": total})
}

// GET /api/duplicates/:id/leads
func (h *DuplicateHandler) GetLinkedLeads(c *gin.Context) {
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_duplicate_id", err)
		return
	}

	record, leadIDs, err := h.duplicates.LinkedLeads(c.Request.Context(), recordID)
	if err != nil {
		RespondError(c, http.StatusNotFound, "duplicate_not_found", err)
		return
	}

	RespondOK(c, gin.H{"duplicate": record, "lead_ids": leadIDs})
}
