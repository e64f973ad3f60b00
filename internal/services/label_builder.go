package services

import (
	"errors"
	"fmt"

	"go-label-printer/internal/logger"
	"go-label-printer/internal/models"

	"github.com/shopspring/decimal"
)

var ErrInvalidTemplate = errors.New("invalid label template")

// PriceResolver yields the unit price printed for a product.
type PriceResolver interface {
	ResolvePrice(product *models.Product) (decimal.Decimal, error)
}

// PriceResolverFunc adapts a plain function to PriceResolver.
type PriceResolverFunc func(product *models.Product) (decimal.Decimal, error)

func (f PriceResolverFunc) ResolvePrice(product *models.Product) (decimal.Decimal, error) {
	return f(product)
}

// FailureRecorder is told about every code the codec rejected. fallback is
// the symbology printed instead, empty when the label has no image.
type FailureRecorder interface {
	RecordCodecFailure(value string, symbology, fallback models.Symbology, err error)
}

// LabelBuilder expands label requests into printable records.
type LabelBuilder struct {
	codec    ImageCodec
	logger   *logger.StructuredLogger
	failures FailureRecorder
}

func NewLabelBuilder(codec ImageCodec, log *logger.StructuredLogger) *LabelBuilder {
	if log == nil {
		log = logger.NewNop()
	}
	return &LabelBuilder{codec: codec, logger: log}
}

// WithCodec returns a builder sharing logger and failure recorder but
// encoding through codec.
func (b *LabelBuilder) WithCodec(codec ImageCodec) *LabelBuilder {
	cp := *b
	cp.codec = codec
	return &cp
}

func (b *LabelBuilder) SetFailureRecorder(r FailureRecorder) {
	b.failures = r
}

func (b *LabelBuilder) recordFailure(value string, symbology, fallback models.Symbology, err error) {
	if b.failures != nil {
		b.failures.RecordCodecFailure(value, symbology, fallback, err)
	}
}

// ValidateTemplate checks what a job needs from the template before any
// image is generated.
func ValidateTemplate(t *models.LabelTemplate) error {
	if t == nil {
		return fmt.Errorf("%w: nil template", ErrInvalidTemplate)
	}
	if !t.Symbology.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedSymbology, t.Symbology)
	}
	if t.LabelWidth <= 0 || t.LabelHeight <= 0 {
		return fmt.Errorf("%w: label dimensions must be positive", ErrInvalidTemplate)
	}
	if t.BarcodeWidth <= 0 || t.BarcodeHeight <= 0 {
		return fmt.Errorf("%w: barcode dimensions must be positive", ErrInvalidTemplate)
	}
	if t.LabelsPerRow <= 0 || t.LabelsPerColumn <= 0 {
		return fmt.Errorf("%w: grid must have at least one row and column", ErrInvalidTemplate)
	}
	return nil
}

type imageKey struct {
	value     string
	symbology models.Symbology
}

// Build returns one record per requested label, in request order. Each
// distinct (code, symbology) pair is encoded at most once per call; records
// sharing it share the same *LabelImage. A resolver error aborts the job.
func (b *LabelBuilder) Build(template *models.LabelTemplate, requests []models.LabelRequest, prices PriceResolver) ([]models.LabelRecord, error) {
	if err := ValidateTemplate(template); err != nil {
		return nil, err
	}

	total := 0
	for _, req := range requests {
		if req.Quantity > 0 {
			total += req.Quantity
		}
	}

	images := make(map[imageKey]*models.LabelImage)
	records := make([]models.LabelRecord, 0, total)

	for i, req := range requests {
		if req.Quantity <= 0 {
			continue
		}
		if req.Product == nil {
			return nil, fmt.Errorf("request %d has no product", i)
		}

		code := req.Product.DisplayCode()

		var img *models.LabelImage
		if code != "" {
			key := imageKey{value: code, symbology: template.Symbology}
			cached, seen := images[key]
			if !seen {
				cached = b.encode(code, template.Symbology)
				images[key] = cached
			}
			img = cached
		}

		price, err := prices.ResolvePrice(req.Product)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve price for product %d: %w", req.Product.ProductID, err)
		}

		record := models.LabelRecord{
			Product: req.Product,
			Barcode: code,
			Price:   price,
			Image:   img,
		}
		if req.Lot != nil {
			record.Lot = req.Lot.Name
			record.ExpiryDate = req.Lot.ExpirationDate
		}

		for n := 0; n < req.Quantity; n++ {
			records = append(records, record)
		}
	}

	return records, nil
}

// encode asks the codec for the image, falling back to Code 128 once. A nil
// result means no image.
func (b *LabelBuilder) encode(value string, symbology models.Symbology) *models.LabelImage {
	pngBytes, err := b.codec.Encode(value, symbology)
	if err == nil {
		return &models.LabelImage{Value: value, Symbology: symbology, PNG: pngBytes}
	}

	if symbology == models.SymbologyCode128 {
		b.recordFailure(value, symbology, "", err)
		b.logger.Warn("Barcode generation failed, printing without image", map[string]interface{}{
			"value":     value,
			"symbology": string(symbology),
			"error":     err.Error(),
		})
		return nil
	}

	b.logger.Warn("Barcode generation failed, falling back to CODE128", map[string]interface{}{
		"value":     value,
		"symbology": string(symbology),
		"error":     err.Error(),
	})

	pngBytes, fbErr := b.codec.Encode(value, models.SymbologyCode128)
	if fbErr != nil {
		b.recordFailure(value, symbology, "", fbErr)
		b.logger.Warn("CODE128 fallback failed, printing without image", map[string]interface{}{
			"value": value,
			"error": fbErr.Error(),
		})
		return nil
	}
	b.recordFailure(value, symbology, models.SymbologyCode128, err)
	return &models.LabelImage{Value: value, Symbology: models.SymbologyCode128, PNG: pngBytes}
}
