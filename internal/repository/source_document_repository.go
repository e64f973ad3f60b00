package repository

import (
	"errors"
	"fmt"
)

// Source models labels can be printed from.
const (
	SourceProduct         = "product.product"
	SourceProductTemplate = "product.template"
	SourceSaleOrder       = "sale.order"
	SourcePurchaseOrder   = "purchase.order"
	SourceStockPicking    = "stock.picking"
	SourceAccountMove     = "account.move"
)

var ErrUnsupportedSourceModel = errors.New("unsupported source model")

// lineTables maps document models to the table holding their product lines.
var lineTables = map[string]struct {
	table  string
	docCol string
	lineID string
}{
	SourceSaleOrder:     {"sale_order_lines", "saleOrderID", "saleOrderLineID"},
	SourcePurchaseOrder: {"purchase_order_lines", "purchaseOrderID", "purchaseOrderLineID"},
	SourceStockPicking:  {"stock_moves", "stockPickingID", "stockMoveID"},
	SourceAccountMove:   {"account_move_lines", "accountMoveID", "accountMoveLineID"},
}

type SourceDocumentRepository struct {
	db       *Database
	products *ProductRepository
}

func NewSourceDocumentRepository(db *Database) *SourceDocumentRepository {
	return &SourceDocumentRepository{db: db, products: NewProductRepository(db)}
}

// ProductIDs resolves the products referenced by the given documents.
// Ids are distinct and keep first-seen order, documents taken in input order.
func (r *SourceDocumentRepository) ProductIDs(model string, ids []uint) ([]uint, error) {
	switch model {
	case SourceProduct:
		return distinct(ids), nil
	case SourceProductTemplate:
		variantIDs, err := r.products.VariantIDs(ids)
		if err != nil {
			return nil, fmt.Errorf("failed to load variants: %w", err)
		}
		return distinct(variantIDs), nil
	}

	src, ok := lineTables[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceModel, model)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	type lineRow struct {
		DocID     uint
		ProductID *uint
	}
	var rows []lineRow
	err := r.db.Table(src.table).
		Select(src.docCol+" AS doc_id, productID AS product_id").
		Where(src.docCol+" IN ?", ids).
		Order(src.lineID + " ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s lines: %w", model, err)
	}

	byDoc := make(map[uint][]uint)
	for _, row := range rows {
		// invoice lines may be notes or sections without a product
		if row.ProductID == nil {
			continue
		}
		byDoc[row.DocID] = append(byDoc[row.DocID], *row.ProductID)
	}

	var productIDs []uint
	for _, id := range ids {
		productIDs = append(productIDs, byDoc[id]...)
	}
	return distinct(productIDs), nil
}

func distinct(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
