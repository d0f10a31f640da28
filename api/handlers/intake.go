package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/docintake/internal/models"
	"github.com/clinicore/docintake/internal/records"
	intakesvc "github.com/clinicore/docintake/internal/service/intake"
	"github.com/clinicore/docintake/internal/utils/validator"
	"github.com/clinicore/docintake/pkg/logger"
)

type IntakeHandler struct {
	service intakesvc.IntakeService
	logger  logger.Logger
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewIntakeHandler(service intakesvc.IntakeService, logger logger.Logger) *IntakeHandler {
	return &IntakeHandler{
		service: service,
		logger:  logger,
	}
}

// IntakeFiles accepts a multipart drop batch. The optional patientId
// form field carries the patient currently selected in the upload
// screen; it is only a fallback owner for medical documents.
func (h *IntakeHandler) IntakeFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}
	effectivePatientID := c.PostForm("patientId")

	inputs := make([]intakesvc.FileInput, 0, len(files))
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			h.handleError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
			return
		}
		defer file.Close()

		inputs = append(inputs, intakesvc.FileInput{
			Name:      header.Filename,
			MimeType:  header.Header.Get("Content-Type"),
			SizeBytes: header.Size,
			Payload:   file,
			Tags:      form.Value["tags"],
		})
	}

	docs, err := h.service.IntakeBatch(c.Request.Context(), inputs, effectivePatientID)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to intake files", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
	})
}

// ListPending returns the pending documents in insertion order.
func (h *IntakeHandler) ListPending(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"documents": h.service.Pending(c.Request.Context()),
	})
}

// overrideRequest is one manual edit. Field selects which classification
// field changes; for owner edits either patientId or virtualClinic is
// set, and neither means "clear the owner".
type overrideRequest struct {
	Field         string `json:"field" binding:"required"`
	Value         string `json:"value"`
	PatientID     string `json:"patientId"`
	VirtualClinic bool   `json:"virtualClinic"`
	EditedBy      string `json:"editedBy"`
}

// Override applies a manual edit to one pending document.
func (h *IntakeHandler) Override(c *gin.Context) {
	id := c.Param("id")

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid override request", err)
		return
	}

	var (
		doc models.PendingDocument
		err error
	)

	switch req.Field {
	case "category":
		if !validator.ValidCategory(req.Value) {
			h.handleError(c, http.StatusBadRequest, "Unknown category", nil)
			return
		}
		doc, err = h.service.OverrideCategory(c.Request.Context(), id, models.Category(req.Value), req.EditedBy)

	case "documentType":
		current, ok := h.currentDocument(c, id)
		if !ok {
			return
		}
		if verr := validator.CheckSubtype(current.Classification.Category, req.Value); verr != nil {
			h.handleError(c, http.StatusBadRequest, "Subtype not allowed for category", verr)
			return
		}
		doc, err = h.service.OverrideDocumentType(c.Request.Context(), id, req.Value, req.EditedBy)

	case "owner":
		var owner *models.OwnerRef
		switch {
		case req.PatientID != "":
			owner = models.PatientOwner(req.PatientID)
		case req.VirtualClinic:
			owner = models.ClinicOwner()
		}
		doc, err = h.service.OverrideOwner(c.Request.Context(), id, owner, req.EditedBy)

	default:
		h.handleError(c, http.StatusBadRequest, "Unknown field", nil)
		return
	}

	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, records.ErrNotFound) {
			status = http.StatusNotFound
		}
		h.handleError(c, status, "Failed to apply override", err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// Discard removes a pending document. Unknown ids succeed quietly.
func (h *IntakeHandler) Discard(c *gin.Context) {
	h.service.Discard(c.Request.Context(), c.Param("id"))
	c.Status(http.StatusNoContent)
}

// ConfirmAll drains the pending store into the upload transport.
func (h *IntakeHandler) ConfirmAll(c *gin.Context) {
	docs, err := h.service.ConfirmAll(c.Request.Context())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, records.ErrUnresolvedOwner) {
			status = http.StatusConflict
		}
		h.handleError(c, status, "Failed to confirm batch", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"submitted": len(docs),
		"documents": docs,
	})
}

// ListPatients exposes the directory snapshot for the owner picker.
func (h *IntakeHandler) ListPatients(c *gin.Context) {
	patients, err := h.service.Patients(c.Request.Context())
	if err != nil {
		h.handleError(c, http.StatusBadGateway, "Patient directory unavailable", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"patients": patients,
	})
}

func (h *IntakeHandler) currentDocument(c *gin.Context, id string) (models.PendingDocument, bool) {
	for _, doc := range h.service.Pending(c.Request.Context()) {
		if doc.ID == id {
			return doc, true
		}
	}
	h.handleError(c, http.StatusNotFound, "Pending document not found", nil)
	return models.PendingDocument{}, false
}

func (h *IntakeHandler) handleError(c *gin.Context, status int, message string, err error) {
	h.logger.Error(message,
		logger.String("path", c.Request.URL.Path),
		logger.Error(err),
	)

	response := ErrorResponse{
		Message: message,
	}
	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(status, response)
}
