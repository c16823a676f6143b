package service

import (
	"fmt"
	"strings"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const invalidPaymentMethodMessage = "Invalid payment method"

// ValidateCheckoutRequest checks a checkout submission before anything is
// persisted. All problems are reported in the error's Details; Field and
// Message describe the first one.
func ValidateCheckoutRequest(req *models.CheckoutRequest) error {
	v := &validator{}

	if req == nil {
		v.add("body", "request body is required")
		return v.err()
	}

	v.required("customerName", req.CustomerName)
	v.required("customerPhone", req.CustomerPhone)
	v.required("deliveryAddress", req.DeliveryAddress)
	v.required("deliveryCep", req.DeliveryCep)
	v.required("deliveryCity", req.DeliveryCity)
	v.required("deliveryState", req.DeliveryState)

	if len(req.Items) == 0 {
		v.add("items", "at least one item is required")
	}
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.ProductID) == "" {
			v.add(field+".productId", "product ID is required")
		}
		if item.Quantity <= 0 {
			v.add(field+".quantity", "quantity must be positive")
		}
		if item.Price.IsNegative() {
			v.add(field+".price", "price cannot be negative")
		}
		if item.Price.HasSubCents() {
			v.add(field+".price", "price must have at most two decimal places")
		}
	}

	if !req.PaymentMethod.Valid() {
		v.add("paymentMethod", invalidPaymentMethodMessage)
	}

	if req.TotalAmount.HasSubCents() {
		v.add("totalAmount", "total amount must have at most two decimal places")
	} else if len(req.Items) > 0 {
		if err := VerifyTotal(req.Items, req.TotalAmount); err != nil {
			v.add("totalAmount", err.Error())
		}
	}

	return v.err()
}

type validator struct {
	first   *errors.ValidationError
	details map[string]string
}

func (v *validator) required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.add(field, field+" is required")
	}
}

func (v *validator) add(field, message string) {
	if v.details == nil {
		v.details = make(map[string]string)
		v.first = &errors.ValidationError{Field: field, Message: message}
	}
	v.details[field] = message
}

func (v *validator) err() error {
	if v.first == nil {
		return nil
	}
	v.first.Details = v.details
	return v.first
}
