package models

// CardData holds the raw card fields a client may submit with a credit
// card checkout. It only lives for the duration of the request and is
// never persisted or logged.
type CardData struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	CardExpiry string `json:"cardExpiry"`
	CardCvv    string `json:"cardCvv"`
}

// Last4 returns the last four digits of the card number, or "****" when
// fewer than four digits are available.
func (c *CardData) Last4() string {
	if c == nil {
		return "****"
	}
	digits := make([]byte, 0, len(c.CardNumber))
	for i := 0; i < len(c.CardNumber); i++ {
		if ch := c.CardNumber[i]; ch >= '0' && ch <= '9' {
			digits = append(digits, ch)
		}
	}
	if len(digits) < 4 {
		return "****"
	}
	return string(digits[len(digits)-4:])
}

// CheckoutRequest is the body of POST /api/orders.
type CheckoutRequest struct {
	CustomerName       string        `json:"customerName"`
	CustomerPhone      string        `json:"customerPhone"`
	CustomerEmail      *string       `json:"customerEmail"`
	DeliveryAddress    string        `json:"deliveryAddress"`
	DeliveryCep        string        `json:"deliveryCep"`
	DeliveryCity       string        `json:"deliveryCity"`
	DeliveryState      string        `json:"deliveryState"`
	DeliveryComplement *string       `json:"deliveryComplement"`
	Items              []OrderItem   `json:"items"`
	TotalAmount        Money         `json:"totalAmount"`
	PaymentMethod      PaymentMethod `json:"paymentMethod"`
	CardData           *CardData     `json:"cardData,omitempty"`
	IdempotencyKey     string        `json:"-"`
}

// ToCreateOrderRequest maps the checkout onto a pending order. Card data
// is intentionally left behind.
func (r *CheckoutRequest) ToCreateOrderRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		CustomerName:       r.CustomerName,
		CustomerPhone:      r.CustomerPhone,
		CustomerEmail:      r.CustomerEmail,
		DeliveryAddress:    r.DeliveryAddress,
		DeliveryCep:        r.DeliveryCep,
		DeliveryCity:       r.DeliveryCity,
		DeliveryState:      r.DeliveryState,
		DeliveryComplement: r.DeliveryComplement,
		Items:              r.Items,
		TotalAmount:        r.TotalAmount,
		PaymentMethod:      r.PaymentMethod,
		Status:             OrderStatusPending,
		IdempotencyKey:     r.IdempotencyKey,
	}
}
