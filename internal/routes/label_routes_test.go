package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go-label-printer/internal/compliance"
	"go-label-printer/internal/config"
	"go-label-printer/internal/handlers"
	"go-label-printer/internal/logger"
	"go-label-printer/internal/middleware"
	"go-label-printer/internal/models"
	"go-label-printer/internal/monitoring"
	"go-label-printer/internal/repository"
	"go-label-printer/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testServer struct {
	engine   *gin.Engine
	db       *repository.Database
	template *models.LabelTemplate
	product  *models.Product
}

func strPtr(s string) *string { return &s }

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	tmpl := models.NewLabelTemplate("Shelf")
	templateRepo := repository.NewLabelTemplateRepository(db)
	if err := templateRepo.Create(&tmpl); err != nil {
		t.Fatalf("create template: %v", err)
	}
	productRepo := repository.NewProductRepository(db)
	p := &models.Product{Name: "Apple", Barcode: strPtr("5901234123457"), ListPrice: decimal.RequireFromString("1.20"), Active: true}
	if err := productRepo.Create(p); err != nil {
		t.Fatalf("create product: %v", err)
	}

	log := logger.NewNop()
	barcodes := services.NewBarcodeService(services.BarcodeOptions{ShowText: true})
	sheets, err := services.NewLabelSheetService(
		config.PDFConfig{PaperSize: "A4", Orientation: "P", Margins: map[string]float64{"left": 10, "top": 10}},
		config.LabelConfig{CurrencySymbol: "EUR"},
	)
	if err != nil {
		t.Fatalf("sheet service: %v", err)
	}

	audit, err := compliance.NewAuditLogger(db.DB)
	if err != nil {
		t.Fatalf("audit logger: %v", err)
	}
	codecFailures := monitoring.NewCodecFailureTracker(100, time.Hour)
	perfMonitor := middleware.NewPerformanceMonitor(time.Second, log)

	h := Handlers{
		Labels: handlers.NewLabelHandler(
			services.NewLabelPrintService(db, barcodes, log).WithFailureRecorder(codecFailures),
			services.NewLabelWizardService(db),
			sheets,
			barcodes,
			productRepo,
			log,
		),
		Templates:  handlers.NewLabelTemplateHandler(templateRepo, log).WithAuditLogger(audit),
		Monitoring: handlers.NewMonitoringHandler(codecFailures, perfMonitor),
		Monitor:    perfMonitor,
		Ping:       db.Ping,
	}

	return &testServer{engine: NewEngine(gin.TestMode, log, h), db: db, template: &tmpl, product: p}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestPrintPDF(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/labels/print", gin.H{
		"lines": []gin.H{{"productID": s.product.ProductID, "quantity": 3}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a PDF")
	}
	if w.Header().Get("X-Label-Job") == "" {
		t.Fatal("missing job id header")
	}
	if w.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestPrintJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/labels/print?format=json", gin.H{
		"templateID": s.template.LabelTemplateID,
		"lines":      []gin.H{{"productID": s.product.ProductID, "quantity": 2}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		JobID  string                         `json:"jobID"`
		Labels []handlers.LabelRecordResponse `json:"labels"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID == "" || len(resp.Labels) != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	label := resp.Labels[0]
	if label.Barcode != "5901234123457" || label.Symbology != "EAN13" {
		t.Fatalf("unexpected label %+v", label)
	}
	if !strings.HasPrefix(label.Image, "data:image/png;base64,") {
		t.Fatal("expected an embedded image")
	}
}

func TestPreviewHTML(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/labels/preview", gin.H{
		"lines": []gin.H{{"productID": s.product.ProductID, "quantity": 1}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Apple") {
		t.Fatal("preview does not show the product")
	}
}

func TestPrintErrorMapping(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"/api/labels/print", gin.H{"lines": []gin.H{}}, http.StatusBadRequest, "NO_LINES"},
		{"/api/labels/print", gin.H{"templateID": 999, "lines": []gin.H{{"productID": s.product.ProductID, "quantity": 1}}}, http.StatusNotFound, "TEMPLATE_NOT_FOUND"},
		{"/api/labels/print", gin.H{"lines": []gin.H{{"productID": 999, "quantity": 1}}}, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
		{"/api/labels/print?format=zpl", gin.H{}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"/api/labels/wizard", gin.H{"sourceModel": "res.partner", "ids": []uint{1}}, http.StatusBadRequest, "UNSUPPORTED_SOURCE_MODEL"},
	}
	for _, tc := range cases {
		w := s.do(t, http.MethodPost, tc.path, tc.body)
		if w.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d: %s", tc.path, tc.status, w.Code, w.Body.String())
		}
		var resp map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%s: decode: %v", tc.path, err)
		}
		if resp["error"] != tc.code || resp["message"] == "" {
			t.Fatalf("%s: unexpected body %v", tc.path, resp)
		}
	}
}

func TestWizard(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/labels/wizard", gin.H{
		"sourceModel": repository.SourceProduct,
		"ids":         []uint{s.product.ProductID},
		"quantity":    4,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp services.WizardDefaults
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.TemplateID == nil || len(resp.Lines) != 1 || resp.Lines[0].Quantity != 4 {
		t.Fatalf("unexpected defaults %+v", resp)
	}
}

func TestTemplateCRUD(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/label-templates", gin.H{"name": "Tiny", "symbology": "code-128", "labelsPerRow": 4})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created models.LabelTemplate
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.Symbology != models.SymbologyCode128 || created.LabelsPerRow != 4 || created.LabelWidth != 50 {
		t.Fatalf("unexpected template %+v", created)
	}

	path := fmt.Sprintf("/api/label-templates/%d", created.LabelTemplateID)
	if w := s.do(t, http.MethodPut, path, gin.H{"fontSize": 8}); w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	w = s.do(t, http.MethodGet, path, nil)
	var fetched models.LabelTemplate
	_ = json.Unmarshal(w.Body.Bytes(), &fetched)
	if fetched.FontSize != 8 || fetched.Name != "Tiny" {
		t.Fatalf("update not persisted: %+v", fetched)
	}

	if w := s.do(t, http.MethodPut, path, gin.H{"symbology": "PDF417"}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad symbology, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/label-templates", gin.H{"symbology": "QR"}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing name, got %d", w.Code)
	}

	w = s.do(t, http.MethodGet, "/api/label-templates", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "Tiny") {
		t.Fatalf("list: %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, path+"/audit", nil)
	var audit struct {
		Events      []models.AuditEvent `json:"events"`
		ChainIntact bool                `json:"chainIntact"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &audit); err != nil {
		t.Fatalf("decode audit: %v", err)
	}
	if len(audit.Events) != 2 || audit.Events[1].EventType != compliance.EventUpdate || !audit.ChainIntact {
		t.Fatalf("unexpected audit trail %+v", audit)
	}

	if w := s.do(t, http.MethodDelete, path, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, path, nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/label-templates/abc", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", w.Code)
	}
}

func TestProductImages(t *testing.T) {
	s := newTestServer(t)

	for _, kind := range []string{"barcode.png", "qr.png"} {
		w := s.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d/%s", s.product.ProductID, kind), nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", kind, w.Code, w.Body.String())
		}
		if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
			t.Fatalf("%s: body is not a PNG", kind)
		}
	}

	if w := s.do(t, http.MethodGet, "/api/products/999/qr.png", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "healthy" || resp["database"] != "ok" {
		t.Fatalf("unexpected health %v", resp)
	}
}

func TestCodecFailureMonitoring(t *testing.T) {
	s := newTestServer(t)

	bad := &models.Product{Name: "Odd", Barcode: strPtr("ABC-1"), ListPrice: decimal.RequireFromString("2"), Active: true}
	if err := repository.NewProductRepository(s.db).Create(bad); err != nil {
		t.Fatalf("create product: %v", err)
	}
	w := s.do(t, http.MethodPost, "/api/labels/print?format=json", gin.H{
		"lines": []gin.H{{"productID": bad.ProductID, "quantity": 1}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("print: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/api/monitoring/codec-failures", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Failures []monitoring.CodecFailure `json:"failures"`
		Count    int                       `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Failures[0].Value != "ABC-1" {
		t.Fatalf("unexpected failures %+v", resp)
	}

	path := fmt.Sprintf("/api/monitoring/codec-failures/%s/resolve", resp.Failures[0].Fingerprint)
	if w := s.do(t, http.MethodPost, path, nil); w.Code != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/monitoring/codec-failures/nope/resolve", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown fingerprint, got %d", w.Code)
	}
	if w := s.do(t, http.MethodGet, "/api/monitoring/performance", nil); w.Code != http.StatusOK {
		t.Fatalf("performance: expected 200, got %d", w.Code)
	}
}

func TestTemplateOptions(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/labels/options", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Symbologies []models.Symbology   `json:"symbologies"`
		Defaults    models.LabelTemplate `json:"defaults"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Symbologies) != 6 || resp.Symbologies[0] != models.SymbologyEAN13 {
		t.Fatalf("unexpected symbologies %v", resp.Symbologies)
	}
	if resp.Defaults.LabelWidth != 50 || resp.Defaults.Symbology != models.SymbologyEAN13 {
		t.Fatalf("unexpected defaults %+v", resp.Defaults)
	}
}
