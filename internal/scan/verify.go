package scan

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"go-label-printer/internal/models"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

var (
	// ErrNoBarcode is returned when the image holds nothing the reader recognizes.
	ErrNoBarcode = errors.New("no barcode found")
	ErrNoReader  = errors.New("no reader for symbology")
)

// Verifier decodes generated label images back to text. gozxing readers
// keep scratch buffers between calls, so each Decode gets its own reader and
// one Verifier may serve concurrent requests.
type Verifier struct {
	readers map[models.Symbology]func() gozxing.Reader
}

// NewVerifier creates a verifier with one reader constructor per symbology
func NewVerifier() *Verifier {
	return &Verifier{
		readers: map[models.Symbology]func() gozxing.Reader{
			models.SymbologyEAN13:   oned.NewEAN13Reader,
			models.SymbologyEAN8:    oned.NewEAN8Reader,
			models.SymbologyUPCA:    oned.NewEAN13Reader, // UPC-A is written as EAN-13 with a leading zero
			models.SymbologyCode128: oned.NewCode128Reader,
			models.SymbologyCode39:  oned.NewCode39Reader,
			models.SymbologyQR:      qrcode.NewQRCodeReader,
		},
	}
}

// Decode reads the PNG with the reader for symbology and returns its text.
func (v *Verifier) Decode(pngBytes []byte, symbology models.Symbology) (string, error) {
	newReader, ok := v.readers[symbology]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrNoReader, symbology)
	}

	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return "", fmt.Errorf("PNG decode failed: %w", err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(toRGBA(img))
	if err != nil {
		return "", fmt.Errorf("failed to create bitmap: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	if symbology == models.SymbologyQR {
		hints[gozxing.DecodeHintType_PURE_BARCODE] = true
	}

	result, err := newReader().Decode(bmp, hints)
	if err != nil || result == nil {
		return "", fmt.Errorf("%w: %v", ErrNoBarcode, err)
	}
	return result.GetText(), nil
}

// toRGBA flattens paletted and gray images so the luminance source sees
// plain RGBA pixels.
func toRGBA(img image.Image) image.Image {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, img.At(x, y))
		}
	}
	return out
}
