package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/epeers/debtimport/internal/lock"
	"github.com/epeers/debtimport/internal/models"
	"github.com/epeers/debtimport/internal/services"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// UploadField is the multipart field carrying the debtor file
const UploadField = "archivo"

// ImportHandler handles debtor file uploads
type ImportHandler struct {
	importSvc *services.ImportService
	locker    lock.Locker
	uploadDir string
}

// NewImportHandler creates a new ImportHandler. Uploads are spooled to
// uploadDir, or the OS temp dir when empty.
func NewImportHandler(importSvc *services.ImportService, locker lock.Locker, uploadDir string) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		locker:    locker,
		uploadDir: uploadDir,
	}
}

// ImportDebtors handles POST /import/deudores
// @Summary Import a debtor exposure file
// @Description Parse a fixed-width debtor file, aggregate it per debtor and per entity, and merge the totals into the store
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param archivo formData file true "Fixed-width debtor file"
// @Success 200 {object} models.ImportSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /import/deudores [post]
func (h *ImportHandler) ImportDebtors(c *gin.Context) {
	fileHeader, err := c.FormFile(UploadField)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: "multipart field '" + UploadField + "' is required",
		})
		return
	}

	release, err := h.locker.TryLock(c.Request.Context())
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			c.JSON(http.StatusConflict, models.ErrorResponse{
				Error:   "conflict",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	defer release()

	tmp, err := os.CreateTemp(h.uploadDir, "deudores-*.txt")
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			log.Warnf("failed to remove upload %s: %v", tmpPath, err)
		}
	}()

	if err := c.SaveUploadedFile(fileHeader, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	// a client hanging up must not abandon a half-drained run
	ctx := context.WithoutCancel(c.Request.Context())
	summary, err := h.importSvc.ImportFile(ctx, tmpPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "import_failed",
			Message: err.Error(),
		})
		return
	}
	summary.Source = fileHeader.Filename

	c.JSON(http.StatusOK, summary)
}
