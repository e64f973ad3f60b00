package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"go-label-printer/internal/compliance"
	"go-label-printer/internal/logger"
	"go-label-printer/internal/models"
	"go-label-printer/internal/repository"
	"go-label-printer/internal/services"

	"github.com/gin-gonic/gin"
)

type LabelTemplateHandler struct {
	templateRepo *repository.LabelTemplateRepository
	audit        *compliance.AuditLogger
	errors       *ErrorHandler
	logger       *logger.StructuredLogger
}

func NewLabelTemplateHandler(templateRepo *repository.LabelTemplateRepository, log *logger.StructuredLogger) *LabelTemplateHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &LabelTemplateHandler{
		templateRepo: templateRepo,
		errors:       NewErrorHandler(log),
		logger:       log,
	}
}

// WithAuditLogger records every template change in the audit chain.
func (h *LabelTemplateHandler) WithAuditLogger(audit *compliance.AuditLogger) *LabelTemplateHandler {
	h.audit = audit
	return h
}

func (h *LabelTemplateHandler) recordAudit(c *gin.Context, eventType string, id uint, oldData, newData interface{}) {
	if h.audit == nil {
		return
	}
	if err := h.audit.LogTemplateEvent(eventType, id, oldData, newData, c.ClientIP(), c.GetString("request_id")); err != nil {
		// the change is already committed; losing the audit entry must not fail it
		h.logger.Error("Failed to write audit event", err, map[string]interface{}{
			"template_id": id,
			"event_type":  eventType,
		})
	}
}

// TemplateOptions lists the accepted symbologies and the stock defaults a
// new template starts from.
func (h *LabelTemplateHandler) TemplateOptions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbologies": models.Symbologies(),
		"defaults":    models.NewLabelTemplate(""),
	})
}

func (h *LabelTemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.templateRepo.List(c.Query("all") == "true")
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

func (h *LabelTemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tmpl, err := h.templateRepo.GetByID(id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// CreateTemplate starts from the stock defaults, so a body only needs the
// fields that differ.
func (h *LabelTemplateHandler) CreateTemplate(c *gin.Context) {
	tmpl := models.NewLabelTemplate("")
	if err := c.ShouldBindJSON(&tmpl); err != nil {
		h.errors.BadRequest(c, err.Error())
		return
	}
	tmpl.LabelTemplateID = 0
	if err := h.normalize(&tmpl); err != nil {
		h.errors.Respond(c, err)
		return
	}

	if err := h.templateRepo.Create(&tmpl); err != nil {
		h.errors.Respond(c, err)
		return
	}
	h.recordAudit(c, compliance.EventCreate, tmpl.LabelTemplateID, nil, tmpl)
	h.logger.LogBusinessEvent("template_created", "label_template", "create", map[string]interface{}{
		"template_id": tmpl.LabelTemplateID,
		"name":        tmpl.Name,
	})
	c.JSON(http.StatusCreated, tmpl)
}

func (h *LabelTemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tmpl, err := h.templateRepo.GetByID(id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	before := *tmpl
	if err := c.ShouldBindJSON(tmpl); err != nil {
		h.errors.BadRequest(c, err.Error())
		return
	}
	tmpl.LabelTemplateID = id
	if err := h.normalize(tmpl); err != nil {
		h.errors.Respond(c, err)
		return
	}

	if err := h.templateRepo.Update(tmpl); err != nil {
		h.errors.Respond(c, err)
		return
	}
	h.recordAudit(c, compliance.EventUpdate, id, before, tmpl)
	h.logger.LogBusinessEvent("template_updated", "label_template", "update", map[string]interface{}{
		"template_id": tmpl.LabelTemplateID,
	})
	c.JSON(http.StatusOK, tmpl)
}

func (h *LabelTemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	existing, err := h.templateRepo.GetByID(id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	if err := h.templateRepo.Delete(id); err != nil {
		h.errors.Respond(c, err)
		return
	}
	h.recordAudit(c, compliance.EventDelete, id, existing, nil)
	h.logger.LogBusinessEvent("template_deleted", "label_template", "delete", map[string]interface{}{
		"template_id": id,
	})
	c.Status(http.StatusNoContent)
}

// GetTemplateAudit returns the change history of a template together with
// the integrity state of the whole chain.
func (h *LabelTemplateHandler) GetTemplateAudit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if h.audit == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "NOT_FOUND", "message": "audit trail is disabled"})
		return
	}

	events, err := h.audit.GetAuditTrail(compliance.ObjectLabelTemplate, strconv.FormatUint(uint64(id), 10))
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	intact, verifyErr := h.audit.VerifyChainIntegrity()
	resp := gin.H{
		"events":      events,
		"chainIntact": intact,
	}
	if verifyErr != nil {
		resp["integrityError"] = verifyErr.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// normalize accepts dashed and lower-case symbology spellings and rejects
// templates that could never print.
func (h *LabelTemplateHandler) normalize(tmpl *models.LabelTemplate) error {
	if tmpl.Name == "" {
		return fmt.Errorf("%w: name is required", services.ErrInvalidTemplate)
	}
	if sym, err := models.ParseSymbology(string(tmpl.Symbology)); err == nil {
		tmpl.Symbology = sym
	}
	return services.ValidateTemplate(tmpl)
}
