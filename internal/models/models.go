package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductTemplate struct {
	ProductTemplateID uint      `json:"productTemplateID" gorm:"primaryKey;column:productTemplateID"`
	Name              string    `json:"name" gorm:"not null;column:name"`
	Variants          []Product `json:"variants,omitempty" gorm:"foreignKey:TemplateID;references:ProductTemplateID"`
}

func (ProductTemplate) TableName() string {
	return "product_templates"
}

type Product struct {
	ProductID   uint            `json:"productID" gorm:"primaryKey;column:productID"`
	TemplateID  *uint           `json:"templateID" gorm:"column:templateID;index"`
	Name        string          `json:"name" gorm:"not null;column:name"`
	Barcode     *string         `json:"barcode" gorm:"column:barcode;index"`
	DefaultCode *string         `json:"defaultCode" gorm:"column:default_code"`
	ListPrice   decimal.Decimal `json:"listPrice" gorm:"column:list_price;type:decimal(12,2);default:0"`
	TaxRate     decimal.Decimal `json:"taxRate" gorm:"column:tax_rate;type:decimal(5,2);default:0"`
	Active      bool            `json:"active" gorm:"column:active"`
}

func (Product) TableName() string {
	return "products"
}

// DisplayCode is the value printed and encoded on a label: the barcode,
// falling back to the internal reference.
func (p Product) DisplayCode() string {
	if p.Barcode != nil && *p.Barcode != "" {
		return *p.Barcode
	}
	if p.DefaultCode != nil && *p.DefaultCode != "" {
		return *p.DefaultCode
	}
	return ""
}

// InternalRef returns the internal reference or an empty string.
func (p Product) InternalRef() string {
	if p.DefaultCode == nil {
		return ""
	}
	return *p.DefaultCode
}

type StockLot struct {
	LotID          uint       `json:"lotID" gorm:"primaryKey;column:lotID"`
	Name           string     `json:"name" gorm:"not null;column:name"`
	ProductID      uint       `json:"productID" gorm:"not null;column:productID;index"`
	ExpirationDate *time.Time `json:"expirationDate" gorm:"column:expiration_date;type:date"`
}

func (StockLot) TableName() string {
	return "stock_lots"
}

const (
	ComputeFixed      = "fixed"
	ComputePercentage = "percentage"
)

type Pricelist struct {
	PricelistID uint            `json:"pricelistID" gorm:"primaryKey;column:pricelistID"`
	Name        string          `json:"name" gorm:"not null;column:name"`
	Currency    string          `json:"currency" gorm:"column:currency;default:EUR"`
	Items       []PricelistItem `json:"items,omitempty" gorm:"foreignKey:PricelistID"`
}

func (Pricelist) TableName() string {
	return "pricelists"
}

// PricelistItem is one pricing rule. A nil ProductID applies to every product.
type PricelistItem struct {
	PricelistItemID uint            `json:"pricelistItemID" gorm:"primaryKey;column:pricelistItemID"`
	PricelistID     uint            `json:"pricelistID" gorm:"not null;column:pricelistID;index"`
	ProductID       *uint           `json:"productID" gorm:"column:productID"`
	Sequence        int             `json:"sequence" gorm:"column:sequence"`
	MinQuantity     decimal.Decimal `json:"minQuantity" gorm:"column:min_quantity;type:decimal(12,3);default:0"`
	ComputePrice    string          `json:"computePrice" gorm:"column:compute_price;default:fixed"`
	FixedPrice      decimal.Decimal `json:"fixedPrice" gorm:"column:fixed_price;type:decimal(12,2);default:0"`
	PercentPrice    decimal.Decimal `json:"percentPrice" gorm:"column:percent_price;type:decimal(5,2);default:0"`
	DateStart       *time.Time      `json:"dateStart" gorm:"column:date_start"`
	DateEnd         *time.Time      `json:"dateEnd" gorm:"column:date_end"`
}

func (PricelistItem) TableName() string {
	return "pricelist_items"
}

// Source documents labels can be printed from.

type SaleOrder struct {
	SaleOrderID uint            `json:"saleOrderID" gorm:"primaryKey;column:saleOrderID"`
	Name        string          `json:"name" gorm:"column:name"`
	Lines       []SaleOrderLine `json:"lines,omitempty" gorm:"foreignKey:SaleOrderID"`
}

func (SaleOrder) TableName() string {
	return "sale_orders"
}

type SaleOrderLine struct {
	SaleOrderLineID uint `json:"saleOrderLineID" gorm:"primaryKey;column:saleOrderLineID"`
	SaleOrderID     uint `json:"saleOrderID" gorm:"not null;column:saleOrderID;index"`
	ProductID       uint `json:"productID" gorm:"not null;column:productID"`
}

func (SaleOrderLine) TableName() string {
	return "sale_order_lines"
}

type PurchaseOrder struct {
	PurchaseOrderID uint                `json:"purchaseOrderID" gorm:"primaryKey;column:purchaseOrderID"`
	Name            string              `json:"name" gorm:"column:name"`
	Lines           []PurchaseOrderLine `json:"lines,omitempty" gorm:"foreignKey:PurchaseOrderID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

type PurchaseOrderLine struct {
	PurchaseOrderLineID uint `json:"purchaseOrderLineID" gorm:"primaryKey;column:purchaseOrderLineID"`
	PurchaseOrderID     uint `json:"purchaseOrderID" gorm:"not null;column:purchaseOrderID;index"`
	ProductID           uint `json:"productID" gorm:"not null;column:productID"`
}

func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}

type StockPicking struct {
	StockPickingID uint        `json:"stockPickingID" gorm:"primaryKey;column:stockPickingID"`
	Name           string      `json:"name" gorm:"column:name"`
	Moves          []StockMove `json:"moves,omitempty" gorm:"foreignKey:StockPickingID"`
}

func (StockPicking) TableName() string {
	return "stock_pickings"
}

type StockMove struct {
	StockMoveID    uint `json:"stockMoveID" gorm:"primaryKey;column:stockMoveID"`
	StockPickingID uint `json:"stockPickingID" gorm:"not null;column:stockPickingID;index"`
	ProductID      uint `json:"productID" gorm:"not null;column:productID"`
}

func (StockMove) TableName() string {
	return "stock_moves"
}

type AccountMove struct {
	AccountMoveID uint              `json:"accountMoveID" gorm:"primaryKey;column:accountMoveID"`
	Name          string            `json:"name" gorm:"column:name"`
	InvoiceLines  []AccountMoveLine `json:"invoiceLines,omitempty" gorm:"foreignKey:AccountMoveID"`
}

func (AccountMove) TableName() string {
	return "account_moves"
}

type AccountMoveLine struct {
	AccountMoveLineID uint  `json:"accountMoveLineID" gorm:"primaryKey;column:accountMoveLineID"`
	AccountMoveID     uint  `json:"accountMoveID" gorm:"not null;column:accountMoveID;index"`
	ProductID         *uint `json:"productID" gorm:"column:productID"`
}

func (AccountMoveLine) TableName() string {
	return "account_move_lines"
}

type FilterParams struct {
	SearchTerm string `form:"search"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
	Page       int    `form:"page"`
}

// AllModels lists every persisted model, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&ProductTemplate{},
		&Product{},
		&StockLot{},
		&Pricelist{},
		&PricelistItem{},
		&LabelTemplate{},
		&AuditEvent{},
		&SaleOrder{},
		&SaleOrderLine{},
		&PurchaseOrder{},
		&PurchaseOrderLine{},
		&StockPicking{},
		&StockMove{},
		&AccountMove{},
		&AccountMoveLine{},
	}
}
