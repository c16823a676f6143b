// Package pix builds the locally synthesized PIX payloads used when the
// payment gateway is unavailable, and renders PIX codes as QR images.
package pix

import (
	"fmt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Merchant identifies the receiver embedded in fallback payloads.
type Merchant struct {
	Name string
	City string
}

// BuildFallbackPayload returns the degraded-mode PIX text for an order.
// The output is deterministic in (merchant, orderID, amount) and is not a
// redeemable payment instrument: it carries no CRC.
func BuildFallbackPayload(merchant Merchant, orderID string, amount models.Money) string {
	return fmt.Sprintf(
		"00020126580014br.gov.bcb.pix0136%s520400005303986540%s5802BR5913%s6009%s62070503***6304",
		orderID,
		amount.String(),
		merchant.Name,
		merchant.City,
	)
}
