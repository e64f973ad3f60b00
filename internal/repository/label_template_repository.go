package repository

import (
	"go-label-printer/internal/models"
)

type LabelTemplateRepository struct {
	db *Database
}

func NewLabelTemplateRepository(db *Database) *LabelTemplateRepository {
	return &LabelTemplateRepository{db: db}
}

func (r *LabelTemplateRepository) Create(template *models.LabelTemplate) error {
	return r.db.Create(template).Error
}

func (r *LabelTemplateRepository) GetByID(id uint) (*models.LabelTemplate, error) {
	var template models.LabelTemplate
	if err := r.db.First(&template, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &template, nil
}

// GetDefault returns the first active template by sequence, then name.
func (r *LabelTemplateRepository) GetDefault() (*models.LabelTemplate, error) {
	var template models.LabelTemplate
	err := r.db.Where("active = ?", true).
		Order("sequence ASC, name ASC").
		First(&template).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &template, nil
}

func (r *LabelTemplateRepository) List(includeInactive bool) ([]models.LabelTemplate, error) {
	var templates []models.LabelTemplate
	query := r.db.Model(&models.LabelTemplate{})
	if !includeInactive {
		query = query.Where("active = ?", true)
	}
	err := query.Order("sequence ASC, name ASC").Find(&templates).Error
	return templates, err
}

func (r *LabelTemplateRepository) Update(template *models.LabelTemplate) error {
	return r.db.Save(template).Error
}

func (r *LabelTemplateRepository) Delete(id uint) error {
	res := r.db.Delete(&models.LabelTemplate{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
