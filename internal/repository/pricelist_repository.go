package repository

import (
	"go-label-printer/internal/models"

	"gorm.io/gorm"
)

type PricelistRepository struct {
	db *Database
}

func NewPricelistRepository(db *Database) *PricelistRepository {
	return &PricelistRepository{db: db}
}

func (r *PricelistRepository) Create(pricelist *models.Pricelist) error {
	return r.db.Create(pricelist).Error
}

// GetByID loads a pricelist together with its rules, ordered by sequence.
func (r *PricelistRepository) GetByID(id uint) (*models.Pricelist, error) {
	var pricelist models.Pricelist
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence ASC, pricelistItemID ASC")
	}).First(&pricelist, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &pricelist, nil
}
