package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/services"
)

type LeadHandler struct {
	log   *logger.Logger
	leads services.LeadService
}

func NewLeadHandler(log *logger.Logger, leads services.LeadService) *LeadHandler {
	return &LeadHandler{
		log:   log.With("handler", "LeadHandler"),
		leads: leads,
	}
}

// DELETE /api/leads/:id
// Soft-deletes a lead and unwinds its duplicate links and ledger counts.
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	leadID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_lead_id", err)
		return
	}

	if err := h.leads.DeleteLead(c.Request.Context(), leadID); err != nil {
		if errors.Is(err, services.ErrLeadNotFound) {
			RespondError(c, http.StatusNotFound, "lead_not_found", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "lead_delete_failed", err)
		return
	}

	RespondOK(c, gin.H{"deleted": leadID})
}
