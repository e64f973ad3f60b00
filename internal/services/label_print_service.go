package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-label-printer/internal/logger"
	"go-label-printer/internal/models"
	"go-label-printer/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound  = errors.New("label template not found")
	ErrPricelistNotFound = errors.New("pricelist not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrNoLines           = errors.New("print job has no lines")
	ErrInvalidLine       = errors.New("invalid print line")
)

// PrintJobLine asks for Quantity labels of a product, optionally for a lot.
type PrintJobLine struct {
	ProductID uint  `json:"productID" binding:"required"`
	Quantity  int   `json:"quantity"`
	LotID     *uint `json:"lotID,omitempty"`
}

// PrintJobRequest describes one print job. A nil TemplateID selects the
// default template; a nil PricelistID prints list prices.
type PrintJobRequest struct {
	TemplateID  *uint          `json:"templateID,omitempty"`
	PricelistID *uint          `json:"pricelistID,omitempty"`
	Lines       []PrintJobLine `json:"lines"`
}

type PrintResult struct {
	JobID    string                `json:"jobID"`
	Template *models.LabelTemplate `json:"template"`
	Records  []models.LabelRecord  `json:"records"`
}

// LabelPrintService loads everything a print job references and runs the
// builder over it.
type LabelPrintService struct {
	templateRepo  *repository.LabelTemplateRepository
	productRepo   *repository.ProductRepository
	lotRepo       *repository.LotRepository
	pricelistRepo *repository.PricelistRepository
	codec         ImageCodec
	builder       *LabelBuilder
	logger        *logger.StructuredLogger
}

func NewLabelPrintService(db *repository.Database, codec ImageCodec, log *logger.StructuredLogger) *LabelPrintService {
	if log == nil {
		log = logger.NewNop()
	}
	return &LabelPrintService{
		templateRepo:  repository.NewLabelTemplateRepository(db),
		productRepo:   repository.NewProductRepository(db),
		lotRepo:       repository.NewLotRepository(db),
		pricelistRepo: repository.NewPricelistRepository(db),
		codec:         codec,
		builder:       NewLabelBuilder(codec, log),
		logger:        log,
	}
}

// WithFailureRecorder reports rejected codes of every job to r.
func (s *LabelPrintService) WithFailureRecorder(r FailureRecorder) *LabelPrintService {
	s.builder.SetFailureRecorder(r)
	return s
}

// ResolveTemplate returns the template with id, or the default one when id
// is nil.
func (s *LabelPrintService) ResolveTemplate(id *uint) (*models.LabelTemplate, error) {
	var (
		tmpl *models.LabelTemplate
		err  error
	)
	if id != nil {
		tmpl, err = s.templateRepo.GetByID(*id)
	} else {
		tmpl, err = s.templateRepo.GetDefault()
	}
	if errors.Is(err, repository.ErrNotFound) {
		if id != nil {
			return nil, fmt.Errorf("%w: %d", ErrTemplateNotFound, *id)
		}
		return nil, fmt.Errorf("%w: no active template", ErrTemplateNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return tmpl, nil
}

// Print builds the label records of a job.
func (s *LabelPrintService) Print(ctx context.Context, req PrintJobRequest) (*PrintResult, error) {
	if len(req.Lines) == 0 {
		return nil, ErrNoLines
	}
	start := time.Now()
	jobID := uuid.New().String()

	tmpl, err := s.ResolveTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}
	// fail on a bad template before touching products or images
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	var pricelist *models.Pricelist
	if req.PricelistID != nil {
		pricelist, err = s.pricelistRepo.GetByID(*req.PricelistID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrPricelistNotFound, *req.PricelistID)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load pricelist: %w", err)
		}
	}

	requests, err := s.loadRequests(req.Lines)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records, err := s.builder.WithCodec(s.jobCodec(tmpl)).Build(tmpl, requests, ResolverFor(tmpl, pricelist))
	if err != nil {
		s.logger.Error("Label job failed", err, map[string]interface{}{
			"job_id":      jobID,
			"template_id": tmpl.LabelTemplateID,
		})
		return nil, err
	}

	s.logger.LogBusinessEvent("labels_built", "label_job", "print", map[string]interface{}{
		"job_id":      jobID,
		"template_id": tmpl.LabelTemplateID,
		"symbology":   string(tmpl.Symbology),
		"lines":       len(req.Lines),
		"labels":      len(records),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return &PrintResult{JobID: jobID, Template: tmpl, Records: records}, nil
}

// jobCodec fixes the caption setting for the whole job, so memoized images
// keyed by code and symbology stay consistent.
func (s *LabelPrintService) jobCodec(tmpl *models.LabelTemplate) ImageCodec {
	if barcodes, ok := s.codec.(*BarcodeService); ok {
		return barcodes.WithText(tmpl.ShowBarcodeText)
	}
	return s.codec
}

func (s *LabelPrintService) loadRequests(lines []PrintJobLine) ([]models.LabelRequest, error) {
	productIDs := make([]uint, 0, len(lines))
	var lotIDs []uint
	for _, line := range lines {
		productIDs = append(productIDs, line.ProductID)
		if line.LotID != nil {
			lotIDs = append(lotIDs, *line.LotID)
		}
	}

	products, err := s.productRepo.GetByIDs(productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	lots := map[uint]*models.StockLot{}
	if len(lotIDs) > 0 {
		lots, err = s.lotRepo.GetByIDs(lotIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to load lots: %w", err)
		}
	}

	requests := make([]models.LabelRequest, 0, len(lines))
	for i, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", ErrProductNotFound, line.ProductID)
		}
		req := models.LabelRequest{Product: product, Quantity: line.Quantity}
		if line.LotID != nil {
			lot, ok := lots[*line.LotID]
			if !ok {
				return nil, fmt.Errorf("%w: line %d references unknown lot %d", ErrInvalidLine, i, *line.LotID)
			}
			if lot.ProductID != product.ProductID {
				return nil, fmt.Errorf("%w: lot %s does not belong to product %d", ErrInvalidLine, lot.Name, product.ProductID)
			}
			req.Lot = lot
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// EnsureDefaultTemplate creates a stock template when none exists yet.
func (s *LabelPrintService) EnsureDefaultTemplate(name string, symbology models.Symbology) (*models.LabelTemplate, bool, error) {
	existing, err := s.templateRepo.List(true)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list templates: %w", err)
	}
	if len(existing) > 0 {
		return &existing[0], false, nil
	}

	tmpl := models.NewLabelTemplate(name)
	if symbology.Valid() {
		tmpl.Symbology = symbology
	}
	if err := s.templateRepo.Create(&tmpl); err != nil {
		return nil, false, fmt.Errorf("failed to create default template: %w", err)
	}
	s.logger.LogBusinessEvent("template_seeded", "label_template", "create", map[string]interface{}{
		"template_id": tmpl.LabelTemplateID,
		"name":        tmpl.Name,
	})
	return &tmpl, true, nil
}
