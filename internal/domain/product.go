// Package domain holds the core commerce entities shared across the bot.
package domain

// Product is a catalog entry as served by the commerce backend.
type Product struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	BulkPrice int64  `json:"bulk_price"`
	Stock     int    `json:"stock"`
}

// Mention is one product reference extracted from free text, with the
// quantity the user asked for (1 when unspecified).
type Mention struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Customer is the backend-owned identity cached locally for a session.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
