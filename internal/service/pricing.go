package service

import (
	"fmt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// ItemsTotal computes sum(price x quantity) over the line items.
func ItemsTotal(items []models.OrderItem) models.Money {
	var total models.Money
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// VerifyTotal reports a mismatch between the submitted total and the line
// items. Both sides are compared at two decimal places.
func VerifyTotal(items []models.OrderItem, total models.Money) error {
	expected := ItemsTotal(items)
	if !expected.Equal(total) {
		return fmt.Errorf("total amount %s does not match items total %s", total.String(), expected.String())
	}
	return nil
}
