package services

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	"go-label-printer/internal/config"
	"go-label-printer/internal/models"

	"github.com/disintegration/imaging"
	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	ptToMM       = 0.3528
	labelPadding = 1.5
	logoWidthMM  = 12.0
	logoHeightMM = 6.0
)

// LabelSheetService lays label records out on printable sheets.
type LabelSheetService struct {
	pdfConfig   config.PDFConfig
	labelConfig config.LabelConfig
	logoPNG     []byte
}

func NewLabelSheetService(pdfCfg config.PDFConfig, labelCfg config.LabelConfig) (*LabelSheetService, error) {
	s := &LabelSheetService{pdfConfig: pdfCfg, labelConfig: labelCfg}
	if labelCfg.LogoPath != "" {
		logo, err := loadLogo(labelCfg.LogoPath)
		if err != nil {
			return nil, err
		}
		s.logoPNG = logo
	}
	return s, nil
}

// loadLogo downsizes the company logo once so every label embeds the same
// small PNG.
func loadLogo(path string) ([]byte, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open logo %s: %w", path, err)
	}
	img = imaging.Fit(img, 240, 120, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	return buf.Bytes(), nil
}

// Paginate splits records into sheets of perRow x perCol labels.
func Paginate(records []models.LabelRecord, perRow, perCol int) [][]models.LabelRecord {
	perPage := perRow * perCol
	if perPage <= 0 || len(records) == 0 {
		return nil
	}
	pages := make([][]models.LabelRecord, 0, (len(records)+perPage-1)/perPage)
	for start := 0; start < len(records); start += perPage {
		end := start + perPage
		if end > len(records) {
			end = len(records)
		}
		pages = append(pages, records[start:end])
	}
	return pages
}

// FormatPrice renders a price with the configured currency symbol.
func (s *LabelSheetService) FormatPrice(price decimal.Decimal) string {
	return s.labelConfig.CurrencySymbol + " " + price.StringFixed(2)
}

func (s *LabelSheetService) margin(side string) float64 {
	if v, ok := s.pdfConfig.Margins[side]; ok {
		return v
	}
	return 10
}

// RenderPDF draws every record on a labels_per_row x labels_per_column grid.
func (s *LabelSheetService) RenderPDF(tmpl *models.LabelTemplate, records []models.LabelRecord) ([]byte, error) {
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	orientation := s.pdfConfig.Orientation
	if orientation == "" {
		orientation = "P"
	}
	paper := s.pdfConfig.PaperSize
	if paper == "" {
		paper = "A4"
	}

	pdf := gofpdf.New(orientation, "mm", paper, "")
	pdf.SetMargins(s.margin("left"), s.margin("top"), s.margin("right"))
	pdf.SetAutoPageBreak(false, 0)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// one registration per distinct image
	imageNames := make(map[*models.LabelImage]string)
	for _, rec := range records {
		if rec.Image == nil {
			continue
		}
		if _, ok := imageNames[rec.Image]; ok {
			continue
		}
		name := fmt.Sprintf("barcode-%d", len(imageNames))
		pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(rec.Image.PNG))
		imageNames[rec.Image] = name
	}
	if tmpl.ShowCompanyLogo && s.logoPNG != nil {
		pdf.RegisterImageOptionsReader("logo", gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(s.logoPNG))
	}

	pages := Paginate(records, tmpl.LabelsPerRow, tmpl.LabelsPerColumn)
	if len(pages) == 0 {
		pdf.AddPage()
	}
	for _, page := range pages {
		pdf.AddPage()
		for i, rec := range page {
			row := i / tmpl.LabelsPerRow
			col := i % tmpl.LabelsPerRow

			offsetX := s.margin("left") + float64(col)*tmpl.LabelWidth
			offsetY := s.margin("top") + float64(row)*tmpl.LabelHeight

			s.drawLabel(pdf, tr, tmpl, rec, imageNames[rec.Image], offsetX, offsetY)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to lay out labels: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	pdfBytes := buf.Bytes()
	if len(pdfBytes) < 4 || string(pdfBytes[:4]) != "%PDF" {
		return nil, fmt.Errorf("gofpdf did not generate valid PDF content")
	}
	return pdfBytes, nil
}

func (s *LabelSheetService) drawLabel(pdf *gofpdf.Fpdf, tr func(string) string, tmpl *models.LabelTemplate, rec models.LabelRecord, imageName string, x, y float64) {
	w, h := tmpl.LabelWidth, tmpl.LabelHeight
	inner := w - 2*labelPadding

	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(x, y, w, h, "D")
	pdf.ClipRect(x, y, w, h, false)
	defer pdf.ClipEnd()

	textLine := float64(tmpl.FontSize)*ptToMM + 0.8
	cursor := y + labelPadding

	if tmpl.ShowCompanyLogo && s.logoPNG != nil {
		pdf.ImageOptions("logo", x+w-labelPadding-logoWidthMM, cursor, logoWidthMM, logoHeightMM, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	if tmpl.ShowProductName && rec.Product != nil {
		pdf.SetFont("Arial", "B", float64(tmpl.FontSize))
		pdf.SetXY(x+labelPadding, cursor)
		pdf.CellFormat(inner, textLine, fitText(pdf, tr(rec.Product.Name), inner), "", 0, "L", false, 0, "")
		cursor += textLine
	}
	if tmpl.ShowInternalRef && rec.Product != nil && rec.Product.InternalRef() != "" {
		pdf.SetFont("Arial", "", float64(tmpl.FontSize)-2)
		pdf.SetXY(x+labelPadding, cursor)
		pdf.CellFormat(inner, textLine-1, fitText(pdf, tr("["+rec.Product.InternalRef()+"]"), inner), "", 0, "L", false, 0, "")
		cursor += textLine - 1
	}

	// reserve the bottom for lot, expiry and price
	footer := 0.0
	if tmpl.ShowLotSerial && rec.Lot != "" {
		footer += textLine - 1
	}
	if tmpl.ShowExpiryDate && rec.ExpiryDate != nil {
		footer += textLine - 1
	}
	if tmpl.ShowPrice {
		footer += float64(tmpl.PriceFontSize)*ptToMM + 1
	}

	available := y + h - labelPadding - footer - cursor
	if rec.Image != nil && imageName != "" && available > 0 {
		bw := math.Min(tmpl.BarcodeWidth, inner)
		bh := math.Min(tmpl.BarcodeHeight, available)
		if rec.Image.Symbology == models.SymbologyQR {
			side := math.Min(bw, bh)
			bw, bh = side, side
		}
		pdf.ImageOptions(imageName, x+(w-bw)/2, cursor, bw, bh, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		cursor += bh
	} else if rec.Barcode != "" && tmpl.ShowBarcodeText {
		pdf.SetFont("Courier", "", float64(tmpl.FontSize))
		pdf.SetXY(x+labelPadding, cursor)
		pdf.CellFormat(inner, textLine, tr(rec.Barcode), "", 0, "C", false, 0, "")
		cursor += textLine
	}

	cursor = y + h - labelPadding - footer
	if tmpl.ShowLotSerial && rec.Lot != "" {
		pdf.SetFont("Arial", "", float64(tmpl.FontSize)-2)
		pdf.SetXY(x+labelPadding, cursor)
		pdf.CellFormat(inner, textLine-1, fitText(pdf, tr("Lot: "+rec.Lot), inner), "", 0, "L", false, 0, "")
		cursor += textLine - 1
	}
	if tmpl.ShowExpiryDate && rec.ExpiryDate != nil {
		pdf.SetFont("Arial", "", float64(tmpl.FontSize)-2)
		pdf.SetXY(x+labelPadding, cursor)
		pdf.CellFormat(inner, textLine-1, "Exp: "+rec.ExpiryDate.Format("2006-01-02"), "", 0, "L", false, 0, "")
		cursor += textLine - 1
	}
	if tmpl.ShowPrice {
		pdf.SetFont("Arial", "B", float64(tmpl.PriceFontSize))
		pdf.SetXY(x+labelPadding, cursor)
		pdf.CellFormat(inner, float64(tmpl.PriceFontSize)*ptToMM+1, tr(s.FormatPrice(rec.Price)), "", 0, "R", false, 0, "")
	}
}

// fitText truncates text with an ellipsis until it fits width.
func fitText(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if pdf.GetStringWidth(candidate) <= width {
			return candidate
		}
	}
	return ""
}

type htmlLabel struct {
	Name       string
	Ref        string
	Barcode    string
	Image      template.URL
	IsQR       bool
	Price      string
	Lot        string
	ExpiryDate string
}

type htmlSheet struct {
	Template *models.LabelTemplate
	Pages    [][]htmlLabel
	Logo     template.URL
}

var sheetTemplate = template.Must(template.New("labels").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Labels</title>
    <style>
        body { margin: 0; font-family: Arial, sans-serif; }
        .page { display: grid; grid-template-columns: repeat({{.Template.LabelsPerRow}}, {{.Template.LabelWidth}}mm); grid-auto-rows: {{.Template.LabelHeight}}mm; page-break-after: always; }
        .label { box-sizing: border-box; border: 1px solid #ccc; padding: 1.5mm; overflow: hidden; position: relative; font-size: {{.Template.FontSize}}pt; }
        .name { font-weight: bold; white-space: nowrap; overflow: hidden; text-overflow: ellipsis; }
        .ref, .lot, .expiry { font-size: smaller; }
        .barcode { text-align: center; }
        .barcode img { max-width: {{.Template.BarcodeWidth}}mm; max-height: {{.Template.BarcodeHeight}}mm; }
        .price { font-weight: bold; text-align: right; font-size: {{.Template.PriceFontSize}}pt; }
        .logo { position: absolute; top: 1.5mm; right: 1.5mm; max-width: 12mm; max-height: 6mm; }
    </style>
</head>
<body>
{{- $t := .Template }}{{ $logo := .Logo }}
{{- range .Pages }}
<div class="page">
{{- range . }}
    <div class="label">
        {{- if and $t.ShowCompanyLogo $logo }}<img class="logo" src="{{ $logo }}">{{ end }}
        {{- if $t.ShowProductName }}<div class="name">{{ .Name }}</div>{{ end }}
        {{- if and $t.ShowInternalRef .Ref }}<div class="ref">[{{ .Ref }}]</div>{{ end }}
        <div class="barcode">
        {{- if .Image }}<img src="{{ .Image }}" alt="{{ .Barcode }}">{{ else if and $t.ShowBarcodeText .Barcode }}<code>{{ .Barcode }}</code>{{ end }}
        </div>
        {{- if and $t.ShowLotSerial .Lot }}<div class="lot">Lot: {{ .Lot }}</div>{{ end }}
        {{- if and $t.ShowExpiryDate .ExpiryDate }}<div class="expiry">Exp: {{ .ExpiryDate }}</div>{{ end }}
        {{- if $t.ShowPrice }}<div class="price">{{ .Price }}</div>{{ end }}
    </div>
{{- end }}
</div>
{{- end }}
</body>
</html>`))

// RenderHTML produces a browser preview of the sheet.
func (s *LabelSheetService) RenderHTML(tmpl *models.LabelTemplate, records []models.LabelRecord) ([]byte, error) {
	if err := ValidateTemplate(tmpl); err != nil {
		return nil, err
	}

	data := htmlSheet{Template: tmpl}
	if s.logoPNG != nil {
		data.Logo = template.URL((&models.LabelImage{PNG: s.logoPNG}).DataURI())
	}

	for _, page := range Paginate(records, tmpl.LabelsPerRow, tmpl.LabelsPerColumn) {
		labels := make([]htmlLabel, 0, len(page))
		for _, rec := range page {
			l := htmlLabel{
				Barcode: rec.Barcode,
				Price:   s.FormatPrice(rec.Price),
				Lot:     rec.Lot,
			}
			if rec.Product != nil {
				l.Name = rec.Product.Name
				l.Ref = rec.Product.InternalRef()
			}
			if rec.Image != nil {
				l.Image = template.URL(rec.Image.DataURI())
				l.IsQR = rec.Image.Symbology == models.SymbologyQR
			}
			if rec.ExpiryDate != nil {
				l.ExpiryDate = rec.ExpiryDate.Format("2006-01-02")
			}
			labels = append(labels, l)
		}
		data.Pages = append(data.Pages, labels)
	}

	var buf bytes.Buffer
	if err := sheetTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render label HTML: %w", err)
	}
	return buf.Bytes(), nil
}
