package pix

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultQRCodeSize = 256
	dataURIPrefix     = "data:image/png;base64,"
)

// Renderer turns a PIX code into a base64 PNG.
type Renderer interface {
	Render(content string) (string, error)
}

// QRRenderer renders PNG QR codes with medium error correction.
type QRRenderer struct {
	Size int
}

func NewQRRenderer(size int) *QRRenderer {
	if size <= 0 {
		size = DefaultQRCodeSize
	}
	return &QRRenderer{Size: size}
}

// Render returns the raw base64 PNG payload, without a data-URI prefix.
func (r *QRRenderer) Render(content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("empty QR content")
	}

	png, err := qrcode.Encode(content, qrcode.Medium, r.Size)
	if err != nil {
		return "", fmt.Errorf("failed to render QR code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// StripDataURI removes a leading "data:image/png;base64," prefix.
func StripDataURI(s string) string {
	return strings.TrimPrefix(s, dataURIPrefix)
}
