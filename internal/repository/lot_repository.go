package repository

import (
	"go-label-printer/internal/models"
)

type LotRepository struct {
	db *Database
}

func NewLotRepository(db *Database) *LotRepository {
	return &LotRepository{db: db}
}

func (r *LotRepository) Create(lot *models.StockLot) error {
	return r.db.Create(lot).Error
}

func (r *LotRepository) GetByIDs(ids []uint) (map[uint]*models.StockLot, error) {
	result := make(map[uint]*models.StockLot, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var lots []models.StockLot
	if err := r.db.Where("lotID IN ?", ids).Find(&lots).Error; err != nil {
		return nil, err
	}
	for i := range lots {
		result[lots[i].LotID] = &lots[i]
	}
	return result, nil
}
