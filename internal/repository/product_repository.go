package repository

import (
	"go-label-printer/internal/models"
)

type ProductRepository struct {
	db *Database
}

func NewProductRepository(db *Database) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

func (r *ProductRepository) GetByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// GetByIDs loads products keyed by id. Missing ids are simply absent.
func (r *ProductRepository) GetByIDs(ids []uint) (map[uint]*models.Product, error) {
	result := make(map[uint]*models.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []models.Product
	if err := r.db.Where("productID IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	for i := range products {
		result[products[i].ProductID] = &products[i]
	}
	return result, nil
}

func (r *ProductRepository) GetByBarcode(barcode string) (*models.Product, error) {
	var product models.Product
	if err := r.db.Where("barcode = ?", barcode).First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// VariantIDs returns the product ids of the given templates, in template order.
func (r *ProductRepository) VariantIDs(templateIDs []uint) ([]uint, error) {
	if len(templateIDs) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.Where("templateID IN ?", templateIDs).
		Order("templateID ASC, productID ASC").
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	byTemplate := make(map[uint][]uint)
	for _, p := range products {
		byTemplate[*p.TemplateID] = append(byTemplate[*p.TemplateID], p.ProductID)
	}
	var ids []uint
	for _, tid := range templateIDs {
		ids = append(ids, byTemplate[tid]...)
	}
	return ids, nil
}

func (r *ProductRepository) List(params *models.FilterParams) ([]models.Product, error) {
	var products []models.Product

	query := r.db.Model(&models.Product{})

	if params.SearchTerm != "" {
		searchPattern := "%" + params.SearchTerm + "%"
		query = query.Where("name LIKE ? OR barcode LIKE ? OR default_code LIKE ?", searchPattern, searchPattern, searchPattern)
	}

	if params.Limit > 0 {
		query = query.Limit(params.Limit)
	}
	if params.Offset > 0 {
		query = query.Offset(params.Offset)
	}

	err := query.Order("name ASC").Find(&products).Error
	return products, err
}
