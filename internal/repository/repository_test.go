package repository

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go-label-printer/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func uintPtr(v uint) *uint    { return &v }
func strPtr(s string) *string { return &s }

func TestProductRepositoryGetByIDsAndBarcode(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProductRepository(db)

	a := &models.Product{Name: "Apple", Barcode: strPtr("5901234123457"), ListPrice: decimal.RequireFromString("1.20"), Active: true}
	b := &models.Product{Name: "Banana", DefaultCode: strPtr("BAN-1"), ListPrice: decimal.RequireFromString("0.80"), Active: true}
	for _, p := range []*models.Product{a, b} {
		if err := repo.Create(p); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := repo.GetByIDs([]uint{b.ProductID, a.ProductID, 999})
	if err != nil {
		t.Fatalf("get by ids: %v", err)
	}
	if len(got) != 2 || got[a.ProductID].Name != "Apple" || got[b.ProductID].Name != "Banana" {
		t.Fatalf("unexpected products %v", got)
	}
	if !got[a.ProductID].ListPrice.Equal(decimal.RequireFromString("1.2")) {
		t.Fatalf("expected list price 1.2, got %s", got[a.ProductID].ListPrice)
	}

	byCode, err := repo.GetByBarcode("5901234123457")
	if err != nil || byCode.ProductID != a.ProductID {
		t.Fatalf("get by barcode: %v %v", byCode, err)
	}
	if _, err := repo.GetByBarcode("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLabelTemplateRepositoryDefaultOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLabelTemplateRepository(db)

	late := models.NewLabelTemplate("Zeta")
	late.Sequence = 20
	early := models.NewLabelTemplate("Beta")
	early.Sequence = 5
	inactive := models.NewLabelTemplate("Alpha")
	inactive.Sequence = 1
	inactive.Active = false

	for _, tmpl := range []*models.LabelTemplate{&late, &early, &inactive} {
		if err := repo.Create(tmpl); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	def, err := repo.GetDefault()
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def.Name != "Beta" {
		t.Fatalf("expected Beta as default, got %s", def.Name)
	}

	active, err := repo.List(false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active templates, got %d", len(active))
	}
	all, _ := repo.List(true)
	if len(all) != 3 || all[0].Name != "Alpha" {
		t.Fatalf("expected Alpha first of 3, got %v", all)
	}

	if err := repo.Delete(early.LabelTemplateID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(early.LabelTemplateID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := repo.GetByID(early.LabelTemplateID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLabelTemplateRepositoryKeepsZeroSequence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLabelTemplateRepository(db)

	stock := models.NewLabelTemplate("Stock")
	first := models.NewLabelTemplate("First")
	first.Sequence = 0
	for _, tmpl := range []*models.LabelTemplate{&stock, &first} {
		if err := repo.Create(tmpl); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	stored, err := repo.GetByID(first.LabelTemplateID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Sequence != 0 {
		t.Fatalf("expected sequence 0 to be stored, got %d", stored.Sequence)
	}
	def, err := repo.GetDefault()
	if err != nil {
		t.Fatalf("get default: %v", err)
	}
	if def.Name != "First" {
		t.Fatalf("expected First as default, got %s", def.Name)
	}
}

func TestPricelistRepositoryPreloadsItemsBySequence(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPricelistRepository(db)

	pl := &models.Pricelist{
		Name: "Retail",
		Items: []models.PricelistItem{
			{Sequence: 20, ComputePrice: models.ComputePercentage, PercentPrice: decimal.NewFromInt(10)},
			{Sequence: 5, ComputePrice: models.ComputeFixed, FixedPrice: decimal.NewFromInt(3), ProductID: uintPtr(1)},
		},
	}
	if err := repo.Create(pl); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(pl.PricelistID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].Sequence != 5 {
		t.Fatalf("expected items ordered by sequence, got %+v", got.Items)
	}
}

func TestLotRepositoryGetByIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewLotRepository(db)

	expiry := time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC)
	lot := &models.StockLot{Name: "LOT-42", ProductID: 1, ExpirationDate: &expiry}
	if err := repo.Create(lot); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByIDs([]uint{lot.LotID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got[lot.LotID] == nil || got[lot.LotID].Name != "LOT-42" {
		t.Fatalf("unexpected lots %v", got)
	}
}

func TestSourceDocumentProductIDs(t *testing.T) {
	db := setupTestDB(t)
	products := NewProductRepository(db)

	tmplA := &models.ProductTemplate{Name: "Shirt"}
	if err := db.Create(tmplA).Error; err != nil {
		t.Fatalf("create template: %v", err)
	}
	var ids []uint
	for _, name := range []string{"Shirt S", "Shirt M", "Mug"} {
		p := &models.Product{Name: name, Active: true}
		if strings.HasPrefix(name, "Shirt") {
			p.TemplateID = uintPtr(tmplA.ProductTemplateID)
		}
		if err := products.Create(p); err != nil {
			t.Fatalf("create product: %v", err)
		}
		ids = append(ids, p.ProductID)
	}
	shirtS, shirtM, mug := ids[0], ids[1], ids[2]

	order1 := &models.SaleOrder{Name: "SO1", Lines: []models.SaleOrderLine{{ProductID: mug}, {ProductID: shirtS}}}
	order2 := &models.SaleOrder{Name: "SO2", Lines: []models.SaleOrderLine{{ProductID: shirtM}, {ProductID: mug}}}
	for _, o := range []*models.SaleOrder{order1, order2} {
		if err := db.Create(o).Error; err != nil {
			t.Fatalf("create order: %v", err)
		}
	}
	invoice := &models.AccountMove{Name: "INV1", InvoiceLines: []models.AccountMoveLine{{ProductID: nil}, {ProductID: uintPtr(shirtM)}}}
	if err := db.Create(invoice).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	repo := NewSourceDocumentRepository(db)

	got, err := repo.ProductIDs(SourceSaleOrder, []uint{order2.SaleOrderID, order1.SaleOrderID})
	if err != nil {
		t.Fatalf("sale order ids: %v", err)
	}
	want := []uint{shirtM, mug, shirtS}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("sale order ids = %v, want %v", got, want)
	}

	got, err = repo.ProductIDs(SourceProductTemplate, []uint{tmplA.ProductTemplateID})
	if err != nil {
		t.Fatalf("template ids: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint([]uint{shirtS, shirtM}) {
		t.Fatalf("template ids = %v", got)
	}

	got, err = repo.ProductIDs(SourceAccountMove, []uint{invoice.AccountMoveID})
	if err != nil {
		t.Fatalf("invoice ids: %v", err)
	}
	if fmt.Sprint(got) != fmt.Sprint([]uint{shirtM}) {
		t.Fatalf("invoice ids = %v", got)
	}

	got, _ = repo.ProductIDs(SourceProduct, []uint{mug, mug, shirtS})
	if fmt.Sprint(got) != fmt.Sprint([]uint{mug, shirtS}) {
		t.Fatalf("product ids = %v", got)
	}

	if _, err := repo.ProductIDs("res.partner", []uint{1}); !errors.Is(err, ErrUnsupportedSourceModel) {
		t.Fatalf("expected ErrUnsupportedSourceModel, got %v", err)
	}
}
