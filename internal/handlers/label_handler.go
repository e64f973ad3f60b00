package handlers

import (
	"fmt"
	"net/http"
	"time"

	"go-label-printer/internal/logger"
	"go-label-printer/internal/models"
	"go-label-printer/internal/repository"
	"go-label-printer/internal/services"

	"github.com/gin-gonic/gin"
)

// LabelHandler serves the wizard, print and preview endpoints and the
// per-product barcode images.
type LabelHandler struct {
	printService  *services.LabelPrintService
	wizardService *services.LabelWizardService
	sheetService  *services.LabelSheetService
	barcodes      *services.BarcodeService
	productRepo   *repository.ProductRepository
	errors        *ErrorHandler
}

func NewLabelHandler(
	printService *services.LabelPrintService,
	wizardService *services.LabelWizardService,
	sheetService *services.LabelSheetService,
	barcodes *services.BarcodeService,
	productRepo *repository.ProductRepository,
	log *logger.StructuredLogger,
) *LabelHandler {
	return &LabelHandler{
		printService:  printService,
		wizardService: wizardService,
		sheetService:  sheetService,
		barcodes:      barcodes,
		productRepo:   productRepo,
		errors:        NewErrorHandler(log),
	}
}

type WizardRequest struct {
	SourceModel string `json:"sourceModel" binding:"required"`
	IDs         []uint `json:"ids" binding:"required"`
	Quantity    int    `json:"quantity"`
}

// LabelRecordResponse is the JSON form of one printed label.
type LabelRecordResponse struct {
	ProductID  uint       `json:"productID"`
	Name       string     `json:"name"`
	Barcode    string     `json:"barcode"`
	Price      string     `json:"price"`
	Lot        string     `json:"lot,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Symbology  string     `json:"symbology,omitempty"`
	Image      string     `json:"image,omitempty"`
}

func (h *LabelHandler) Wizard(c *gin.Context) {
	var req WizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.BadRequest(c, err.Error())
		return
	}

	defaults, err := h.wizardService.Defaults(req.SourceModel, req.IDs, req.Quantity)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, defaults)
}

// Print runs a job and returns the sheet as pdf (default), html or json.
func (h *LabelHandler) Print(c *gin.Context) {
	format := c.DefaultQuery("format", "pdf")
	if format != "pdf" && format != "html" && format != "json" {
		h.errors.BadRequest(c, fmt.Sprintf("unknown format %q", format))
		return
	}

	result, ok := h.runJob(c)
	if !ok {
		return
	}

	switch format {
	case "json":
		c.JSON(http.StatusOK, gin.H{
			"jobID":    result.JobID,
			"template": result.Template,
			"labels":   toRecordResponses(result.Records),
		})
	case "html":
		h.writeHTML(c, result)
	default:
		pdfBytes, err := h.sheetService.RenderPDF(result.Template, result.Records)
		if err != nil {
			h.errors.Respond(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=labels_%s.pdf", result.JobID))
		c.Header("X-Label-Job", result.JobID)
		c.Data(http.StatusOK, "application/pdf", pdfBytes)
	}
}

// Preview renders the job as an HTML page.
func (h *LabelHandler) Preview(c *gin.Context) {
	result, ok := h.runJob(c)
	if !ok {
		return
	}
	h.writeHTML(c, result)
}

func (h *LabelHandler) runJob(c *gin.Context) (*services.PrintResult, bool) {
	var req services.PrintJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errors.BadRequest(c, err.Error())
		return nil, false
	}

	result, err := h.printService.Print(c.Request.Context(), req)
	if err != nil {
		h.errors.Respond(c, err)
		return nil, false
	}
	return result, true
}

func (h *LabelHandler) writeHTML(c *gin.Context, result *services.PrintResult) {
	page, err := h.sheetService.RenderHTML(result.Template, result.Records)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}
	c.Header("X-Label-Job", result.JobID)
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *LabelHandler) ProductBarcode(c *gin.Context) {
	h.productImage(c, "barcode", h.barcodes.GenerateProductBarcode)
}

func (h *LabelHandler) ProductQR(c *gin.Context) {
	h.productImage(c, "qr", h.barcodes.GenerateProductQR)
}

func (h *LabelHandler) productImage(c *gin.Context, kind string, generate func(*models.Product) ([]byte, error)) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	product, err := h.productRepo.GetByID(id)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	pngBytes, err := generate(product)
	if err != nil {
		h.errors.Respond(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=product_%d_%s.png", product.ProductID, kind))
	c.Data(http.StatusOK, "image/png", pngBytes)
}

func toRecordResponses(records []models.LabelRecord) []LabelRecordResponse {
	out := make([]LabelRecordResponse, 0, len(records))
	for _, rec := range records {
		r := LabelRecordResponse{
			Barcode:    rec.Barcode,
			Price:      rec.Price.StringFixed(2),
			Lot:        rec.Lot,
			ExpiryDate: rec.ExpiryDate,
		}
		if rec.Product != nil {
			r.ProductID = rec.Product.ProductID
			r.Name = rec.Product.Name
		}
		if rec.Image != nil {
			r.Symbology = string(rec.Image.Symbology)
			r.Image = rec.Image.DataURI()
		}
		out = append(out, r)
	}
	return out
}
