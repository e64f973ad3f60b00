package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Symbology selects the barcode encoding standard for a template.
type Symbology string

const (
	SymbologyEAN13   Symbology = "EAN13"
	SymbologyEAN8    Symbology = "EAN8"
	SymbologyUPCA    Symbology = "UPCA"
	SymbologyCode128 Symbology = "CODE128"
	SymbologyCode39  Symbology = "CODE39"
	SymbologyQR      Symbology = "QR"
)

var symbologies = []Symbology{
	SymbologyEAN13,
	SymbologyEAN8,
	SymbologyUPCA,
	SymbologyCode128,
	SymbologyCode39,
	SymbologyQR,
}

// Symbologies returns every supported symbology in display order.
func Symbologies() []Symbology {
	out := make([]Symbology, len(symbologies))
	copy(out, symbologies)
	return out
}

// ParseSymbology accepts any casing and the dashed spellings (EAN-13, UPC-A).
func ParseSymbology(s string) (Symbology, error) {
	normalized := Symbology(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "")))
	if normalized.Valid() {
		return normalized, nil
	}
	return "", fmt.Errorf("unknown symbology %q", s)
}

func (s Symbology) Valid() bool {
	for _, known := range symbologies {
		if s == known {
			return true
		}
	}
	return false
}

// Is1D reports whether the symbology is a linear barcode.
func (s Symbology) Is1D() bool {
	return s.Valid() && s != SymbologyQR
}

// LabelTemplate describes the physical label and what goes on it.
type LabelTemplate struct {
	LabelTemplateID  uint      `json:"labelTemplateID" gorm:"primaryKey;column:labelTemplateID"`
	Name             string    `json:"name" gorm:"not null;column:name"`
	Sequence         int       `json:"sequence" gorm:"column:sequence"`
	Active           bool      `json:"active" gorm:"column:active"`
	LabelWidth       float64   `json:"labelWidth" gorm:"column:label_width;default:50"`
	LabelHeight      float64   `json:"labelHeight" gorm:"column:label_height;default:30"`
	LabelsPerRow     int       `json:"labelsPerRow" gorm:"column:labels_per_row;default:2"`
	LabelsPerColumn  int       `json:"labelsPerColumn" gorm:"column:labels_per_column;default:5"`
	Symbology        Symbology `json:"symbology" gorm:"column:symbology;type:varchar(16);default:EAN13"`
	BarcodeWidth     float64   `json:"barcodeWidth" gorm:"column:barcode_width;default:40"`
	BarcodeHeight    float64   `json:"barcodeHeight" gorm:"column:barcode_height;default:15"`
	ShowProductName  bool      `json:"showProductName" gorm:"column:show_product_name"`
	ShowInternalRef  bool      `json:"showInternalRef" gorm:"column:show_internal_ref"`
	ShowBarcodeText  bool      `json:"showBarcodeText" gorm:"column:show_barcode_text"`
	ShowPrice        bool      `json:"showPrice" gorm:"column:show_price"`
	ShowPriceWithTax bool      `json:"showPriceWithTax" gorm:"column:show_price_with_tax"`
	ShowCompanyLogo  bool      `json:"showCompanyLogo" gorm:"column:show_company_logo"`
	ShowLotSerial    bool      `json:"showLotSerial" gorm:"column:show_lot_serial"`
	ShowExpiryDate   bool      `json:"showExpiryDate" gorm:"column:show_expiry_date"`
	FontSize         int       `json:"fontSize" gorm:"column:font_size;default:10"`
	PriceFontSize    int       `json:"priceFontSize" gorm:"column:price_font_size;default:14"`
	CreatedAt        time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt        time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (LabelTemplate) TableName() string {
	return "label_templates"
}

// NewLabelTemplate returns a template carrying the stock defaults.
func NewLabelTemplate(name string) LabelTemplate {
	return LabelTemplate{
		Name:             name,
		Sequence:         10,
		Active:           true,
		LabelWidth:       50,
		LabelHeight:      30,
		LabelsPerRow:     2,
		LabelsPerColumn:  5,
		Symbology:        SymbologyEAN13,
		BarcodeWidth:     40,
		BarcodeHeight:    15,
		ShowProductName:  true,
		ShowInternalRef:  true,
		ShowBarcodeText:  true,
		ShowPrice:        true,
		ShowPriceWithTax: true,
		FontSize:         10,
		PriceFontSize:    14,
	}
}

// LabelsPerPage is the grid capacity of one sheet.
func (t LabelTemplate) LabelsPerPage() int {
	return t.LabelsPerRow * t.LabelsPerColumn
}

// LabelRequest asks for Quantity labels of Product, optionally tied to a lot.
type LabelRequest struct {
	Product  *Product
	Quantity int
	Lot      *StockLot
}

// LabelImage is an encoded barcode raster shared by every record with the
// same code and symbology.
type LabelImage struct {
	Value     string    `json:"value"`
	Symbology Symbology `json:"symbology"`
	PNG       []byte    `json:"-"`
}

// Base64 returns the PNG as standard base64, the form report templates embed.
func (i *LabelImage) Base64() string {
	if i == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(i.PNG)
}

// DataURI returns the PNG as a data URI.
func (i *LabelImage) DataURI() string {
	if i == nil {
		return ""
	}
	return "data:image/png;base64," + i.Base64()
}

// LabelRecord is one printable label. A nil Image means no image.
type LabelRecord struct {
	Product    *Product
	Barcode    string
	Price      decimal.Decimal
	Lot        string
	ExpiryDate *time.Time
	Image      *LabelImage
}

func (r LabelRecord) HasImage() bool {
	return r.Image != nil
}
