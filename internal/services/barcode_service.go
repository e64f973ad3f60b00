package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"go-label-printer/internal/config"
	"go-label-printer/internal/models"
	"go-label-printer/internal/scan"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	ErrUnsupportedSymbology = errors.New("unsupported symbology")
	ErrInvalidBarcodeValue  = errors.New("invalid barcode value")
	ErrVerificationFailed   = errors.New("barcode verification failed")
	ErrNoCode               = errors.New("product has no barcode or internal reference")
)

// ImageCodec turns a value into a PNG for the given symbology. Implementations
// must be pure functions of their inputs.
type ImageCodec interface {
	Encode(value string, symbology models.Symbology) ([]byte, error)
}

// BarcodeOptions controls rasterization.
type BarcodeOptions struct {
	ModuleWidthPx    int
	BarcodeHeightPx  int
	QuietZoneModules int
	QRSize           int
	ShowText         bool
	Verify           bool
}

const captionMargin = 4

type BarcodeService struct {
	opts     BarcodeOptions
	verifier *scan.Verifier
}

func NewBarcodeService(opts BarcodeOptions) *BarcodeService {
	if opts.ModuleWidthPx <= 0 {
		opts.ModuleWidthPx = 2
	}
	if opts.BarcodeHeightPx <= 0 {
		opts.BarcodeHeightPx = 100
	}
	if opts.QRSize <= 0 {
		opts.QRSize = 256
	}
	if opts.QuietZoneModules < 0 {
		opts.QuietZoneModules = 0
	}

	s := &BarcodeService{opts: opts}
	if opts.Verify {
		s.verifier = scan.NewVerifier()
	}
	return s
}

// NewBarcodeServiceFromConfig builds the codec from the label section.
func NewBarcodeServiceFromConfig(cfg *config.LabelConfig) *BarcodeService {
	return NewBarcodeService(BarcodeOptions{
		ModuleWidthPx:    cfg.ModuleWidthPx,
		BarcodeHeightPx:  cfg.BarcodeHeightPx,
		QuietZoneModules: cfg.QuietZoneModules,
		QRSize:           cfg.QRSize,
		ShowText:         true,
		Verify:           cfg.VerifyImages,
	})
}

// WithText returns a copy that does or does not print the human-readable
// text under linear barcodes.
func (s *BarcodeService) WithText(show bool) *BarcodeService {
	cp := *s
	cp.opts.ShowText = show
	return &cp
}

// Encode renders value as a PNG in the requested symbology.
func (s *BarcodeService) Encode(value string, symbology models.Symbology) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty value", ErrInvalidBarcodeValue)
	}

	var (
		pngBytes []byte
		expected string
		err      error
	)
	switch {
	case symbology == models.SymbologyQR:
		pngBytes, err = s.GenerateQRCode(value, s.opts.QRSize)
		expected = value
	case symbology.Is1D():
		var bc barcode.Barcode
		bc, err = encodeLinear(value, symbology)
		if err != nil {
			return nil, err
		}
		expected = bc.Content()
		pngBytes, err = s.renderLinear(bc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSymbology, symbology)
	}
	if err != nil {
		return nil, err
	}

	if s.verifier != nil {
		if err := s.verify(pngBytes, symbology, expected); err != nil {
			return nil, err
		}
	}
	return pngBytes, nil
}

// EncodeWithFallback encodes in the requested symbology and, on failure,
// once more as Code 128. It reports the symbology actually used.
func (s *BarcodeService) EncodeWithFallback(value string, symbology models.Symbology) ([]byte, models.Symbology, error) {
	pngBytes, err := s.Encode(value, symbology)
	if err == nil {
		return pngBytes, symbology, nil
	}
	if symbology == models.SymbologyCode128 {
		return nil, symbology, err
	}
	pngBytes, fbErr := s.Encode(value, models.SymbologyCode128)
	if fbErr != nil {
		return nil, models.SymbologyCode128, fmt.Errorf("%v; code128 fallback: %w", err, fbErr)
	}
	return pngBytes, models.SymbologyCode128, nil
}

// GenerateQRCode encodes data as a QR code of size x size pixels.
func (s *BarcodeService) GenerateQRCode(data string, size int) ([]byte, error) {
	pngBytes, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to create QR code: %w", err)
	}

	return pngBytes, nil
}

// GenerateProductBarcode renders the product barcode, picking the symbology
// from the shape of the value.
func (s *BarcodeService) GenerateProductBarcode(product *models.Product) ([]byte, error) {
	if product.Barcode == nil || *product.Barcode == "" {
		return nil, ErrNoCode
	}
	pngBytes, _, err := s.EncodeWithFallback(*product.Barcode, GuessSymbology(*product.Barcode))
	return pngBytes, err
}

// GenerateProductQR renders a QR code of the barcode or internal reference.
func (s *BarcodeService) GenerateProductQR(product *models.Product) ([]byte, error) {
	value := product.DisplayCode()
	if value == "" {
		return nil, ErrNoCode
	}
	return s.Encode(value, models.SymbologyQR)
}

// GuessSymbology maps all-digit values of retail lengths onto EAN/UPC and
// everything else onto Code 128.
func GuessSymbology(value string) models.Symbology {
	if !isDigits(value) {
		return models.SymbologyCode128
	}
	switch len(value) {
	case 13:
		return models.SymbologyEAN13
	case 8:
		return models.SymbologyEAN8
	case 12:
		return models.SymbologyUPCA
	default:
		return models.SymbologyCode128
	}
}

func encodeLinear(value string, symbology models.Symbology) (barcode.Barcode, error) {
	var (
		bc  barcode.Barcode
		err error
	)
	switch symbology {
	case models.SymbologyEAN13:
		if !isDigits(value) || (len(value) != 12 && len(value) != 13) {
			return nil, fmt.Errorf("%w: EAN-13 needs 12 or 13 digits, got %q", ErrInvalidBarcodeValue, value)
		}
		bc, err = ean.Encode(value)
	case models.SymbologyEAN8:
		if !isDigits(value) || (len(value) != 7 && len(value) != 8) {
			return nil, fmt.Errorf("%w: EAN-8 needs 7 or 8 digits, got %q", ErrInvalidBarcodeValue, value)
		}
		bc, err = ean.Encode(value)
	case models.SymbologyUPCA:
		if !isDigits(value) || (len(value) != 11 && len(value) != 12) {
			return nil, fmt.Errorf("%w: UPC-A needs 11 or 12 digits, got %q", ErrInvalidBarcodeValue, value)
		}
		bc, err = ean.Encode("0" + value)
	case models.SymbologyCode128:
		bc, err = code128.Encode(value)
	case models.SymbologyCode39:
		bc, err = code39.Encode(strings.ToUpper(value), true, false)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSymbology, symbology)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBarcodeValue, err)
	}
	return bc, nil
}

// renderLinear scales the symbol to whole-pixel modules, pads the quiet zone
// and optionally writes the content underneath.
func (s *BarcodeService) renderLinear(bc barcode.Barcode) ([]byte, error) {
	modules := bc.Bounds().Dx()
	barWidth := modules * s.opts.ModuleWidthPx
	scaled, err := barcode.Scale(bc, barWidth, s.opts.BarcodeHeightPx)
	if err != nil {
		return nil, fmt.Errorf("failed to scale barcode: %w", err)
	}

	quiet := s.opts.QuietZoneModules * s.opts.ModuleWidthPx
	height := s.opts.BarcodeHeightPx + 2*captionMargin
	caption := ""
	if s.opts.ShowText {
		caption = bc.Content()
		height += basicfont.Face7x13.Height + captionMargin
	}

	canvas := image.NewRGBA(image.Rect(0, 0, barWidth+2*quiet, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)

	barRect := image.Rect(quiet, captionMargin, quiet+barWidth, captionMargin+s.opts.BarcodeHeightPx)
	draw.Draw(canvas, barRect, scaled, scaled.Bounds().Min, draw.Src)

	if caption != "" {
		drawCaption(canvas, caption, captionMargin+s.opts.BarcodeHeightPx+captionMargin)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("failed to encode barcode as PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// drawCaption centers text horizontally with its top edge at top.
func drawCaption(img *image.RGBA, text string, top int) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{color.Black},
		Face: face,
	}
	width := d.MeasureString(text).Round()
	x := (img.Bounds().Dx() - width) / 2
	if x < 0 {
		x = 0
	}
	d.Dot = fixed.Point26_6{
		X: fixed.I(x),
		Y: fixed.I(top + face.Ascent),
	}
	d.DrawString(text)
}

func (s *BarcodeService) verify(pngBytes []byte, symbology models.Symbology, expected string) error {
	decoded, err := s.verifier.Decode(pngBytes, symbology)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrVerificationFailed, err)
	}
	if decoded == expected {
		return nil
	}
	// Code 39 readers hand back the mod-43 check character as data
	if symbology == models.SymbologyCode39 && len(decoded) == len(expected)+1 && strings.HasPrefix(decoded, expected) {
		return nil
	}
	return fmt.Errorf("%w: decoded %q, expected %q", ErrVerificationFailed, decoded, expected)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
