package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quantumexchange8/bankofgold/internal/logger"
	"github.com/quantumexchange8/bankofgold/internal/requestdata"
	"github.com/quantumexchange8/bankofgold/internal/services"
)

type ImportHandler struct {
	log     *logger.Logger
	imports services.ImportService
}

func NewImportHandler(log *logger.Logger, imports services.ImportService) *ImportHandler {
	return &ImportHandler{
		log:     log.With("handler", "ImportHandler"),
		imports: imports,
	}
}

// POST /api/imports
// Accepts a multipart upload (field "file") and enqueues it for processing.
func (h *ImportHandler) CreateImport(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusForbidden, "forbidden", errors.New("forbidden"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	defer f.Close()

	run, err := h.imports.CreateFromUpload(c.Request.Context(), rd.UserID, fileHeader.Filename, f)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "import_create_failed", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"import": run})
}

// GET /api/imports
func (h *ImportHandler) ListImports(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusForbidden, "forbidden", errors.New("forbidden"))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	runs, total, err := h.imports.ListForUser(c.Request.Context(), rd.UserID, limit, offset)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "import_list_failed", err)
		return
	}

	RespondOK(c, gin.H{"imports": runs, "total": total})
}

// GET /api/imports/:id
func (h *ImportHandler) GetImport(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusForbidden, "forbidden", errors.New("forbidden"))
		return
	}

	importID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_import_id", err)
		return
	}

	run, err := h.imports.GetForUser(c.Request.Context(), importID, rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "import_lookup_failed", err)
		return
	}
	if run == nil {
		RespondError(c, http.StatusNotFound, "import_not_found", errors.New("import not found"))
		return
	}

	RespondOK(c, gin.H{"import": run})
}
