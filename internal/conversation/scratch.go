package conversation

import "github.com/frutalia/ventabot/internal/domain"

// SearchScratch holds the working data of the product-search flow.
type SearchScratch struct {
	Term     string           `json:"term,omitempty"`
	Results  []domain.Product `json:"results,omitempty"`
	Selected *domain.Product  `json:"selected,omitempty"`
}

// AmbiguousOption maps one numbered option shown to the user back to the
// concrete product and the originally requested quantity.
type AmbiguousOption struct {
	RequestedName     string         `json:"requested_name"`
	RequestedQuantity int            `json:"requested_quantity"`
	Product           domain.Product `json:"product"`
}

// OrderScratch is the order draft populated incrementally across the
// order-capture states and consumed at confirmation.
type OrderScratch struct {
	Options        map[int]AmbiguousOption `json:"options,omitempty"`
	DeliveryMethod domain.DeliveryMethod   `json:"delivery_method,omitempty"`
	Address        string                  `json:"address,omitempty"`
	City           string                  `json:"city,omitempty"`
	District       string                  `json:"district,omitempty"`
	Courier        domain.Courier          `json:"courier,omitempty"`
}

// DeliveryAddress flattens the captured fields into the single address
// string the backend order API expects.
func (o *OrderScratch) DeliveryAddress() string {
	if o == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, p := range []string{o.Address, o.District, o.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
