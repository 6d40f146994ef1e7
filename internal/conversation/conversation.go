package conversation

import (
	"time"

	"github.com/frutalia/ventabot/internal/domain"
)

// Conversation is the per-user dialogue record. A missing record implies
// StateInitial with empty scratch.
type Conversation struct {
	UserID    string           `json:"user_id"`
	State     State            `json:"state"`
	Customer  *domain.Customer `json:"customer,omitempty"`
	Search    *SearchScratch   `json:"search,omitempty"`
	Order     *OrderScratch    `json:"order,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func newConversation(userID string) *Conversation {
	return &Conversation{
		UserID: userID,
		State:  StateInitial,
	}
}
