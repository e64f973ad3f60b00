package services

import (
	"errors"
	"fmt"

	"go-label-printer/internal/repository"
)

var ErrUnsupportedSourceModel = repository.ErrUnsupportedSourceModel

// WizardDefaults pre-fills a print job from a set of source documents.
type WizardDefaults struct {
	TemplateID *uint          `json:"templateID"`
	Lines      []PrintJobLine `json:"lines"`
}

type LabelWizardService struct {
	templateRepo *repository.LabelTemplateRepository
	sourceRepo   *repository.SourceDocumentRepository
}

func NewLabelWizardService(db *repository.Database) *LabelWizardService {
	return &LabelWizardService{
		templateRepo: repository.NewLabelTemplateRepository(db),
		sourceRepo:   repository.NewSourceDocumentRepository(db),
	}
}

// Defaults returns the default template and one line per product referenced
// by the documents. quantityPerProduct below 1 means 1.
func (s *LabelWizardService) Defaults(sourceModel string, ids []uint, quantityPerProduct int) (*WizardDefaults, error) {
	if quantityPerProduct < 1 {
		quantityPerProduct = 1
	}

	productIDs, err := s.sourceRepo.ProductIDs(sourceModel, ids)
	if err != nil {
		return nil, err
	}

	defaults := &WizardDefaults{Lines: make([]PrintJobLine, 0, len(productIDs))}
	tmpl, err := s.templateRepo.GetDefault()
	switch {
	case err == nil:
		defaults.TemplateID = &tmpl.LabelTemplateID
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to load default template: %w", err)
	}

	for _, id := range productIDs {
		defaults.Lines = append(defaults.Lines, PrintJobLine{ProductID: id, Quantity: quantityPerProduct})
	}
	return defaults, nil
}
