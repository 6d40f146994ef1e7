package domain

// DeliveryMethod is how a confirmed order reaches the customer.
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryDelivery DeliveryMethod = "delivery"
)

// Courier enumerates the supported shipping carriers.
type Courier string

const (
	CourierStarken     Courier = "starken"
	CourierChilexpress Courier = "chilexpress"
	CourierBluexpress  Courier = "bluexpress"
)

// Couriers lists the carriers in menu order.
var Couriers = []Courier{CourierStarken, CourierChilexpress, CourierBluexpress}

const (
	// ChannelWhatsApp is the sales channel recorded on bot-created orders.
	ChannelWhatsApp = "whatsapp"
	// PaymentBankTransfer is the only payment method the bot offers.
	PaymentBankTransfer = "transferencia"
)

// OrderItem is one line of an order-creation request.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the payload accepted by the backend order API.
type CreateOrderRequest struct {
	CustomerID      string      `json:"customer_id"`
	DeliveryAddress string      `json:"delivery_address"`
	Courier         Courier     `json:"courier,omitempty"`
	Channel         string      `json:"channel"`
	PaymentMethod   string      `json:"payment_method"`
	Items           []OrderItem `json:"items"`
	ManualDiscount  int64       `json:"manual_discount"`
}

// Order is the backend's view of a created order. The response does not
// echo the total, so callers compute it from the local cart.
type Order struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}
