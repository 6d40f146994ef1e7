// Package conversation tracks each user's position in the dialogue state
// machine plus the scratch data of the active flow.
package conversation

// State represents a dialogue state machine position.
type State string

const (
	// StateInitial is the implicit state of a user with no stored record.
	StateInitial State = "initial"
	// StateAwaitingName waits for the first and last name during registration.
	StateAwaitingName State = "awaiting_first_name_lastname"
	// StateMenu is the main menu.
	StateMenu State = "menu"
	// StateProductInfo is the post-search menu shown after product details.
	StateProductInfo State = "product_info"
	// StateOrdersMenu shows order-related options.
	StateOrdersMenu State = "orders_menu"
	// StateFAQ answers frequently asked questions by keyword.
	StateFAQ State = "faq"

	StateSearchAwaitingQuery     State = "product_search_awaiting_query"
	StateSearchAwaitingSelection State = "product_search_awaiting_selection"
	StateSearchShowingDetails    State = "product_search_showing_details"

	StateOrderAwaitingProductList    State = "order_awaiting_product_list"
	StateOrderResolvingAmbiguous     State = "order_resolving_ambiguous_products"
	StateOrderAwaitingAddMore        State = "order_awaiting_add_more_decision"
	StateOrderAwaitingDeliveryMethod State = "order_awaiting_delivery_method"
	StateOrderAwaitingAddress        State = "order_awaiting_address"
	StateOrderAwaitingCity           State = "order_awaiting_city"
	StateOrderAwaitingDistrict       State = "order_awaiting_district"
	StateOrderAwaitingCourier        State = "order_awaiting_courier"
	StateOrderAwaitingConfirmation   State = "order_awaiting_confirmation"
)

// States lists every valid state, in menu-to-order order.
var States = []State{
	StateInitial,
	StateAwaitingName,
	StateMenu,
	StateProductInfo,
	StateOrdersMenu,
	StateFAQ,
	StateSearchAwaitingQuery,
	StateSearchAwaitingSelection,
	StateSearchShowingDetails,
	StateOrderAwaitingProductList,
	StateOrderResolvingAmbiguous,
	StateOrderAwaitingAddMore,
	StateOrderAwaitingDeliveryMethod,
	StateOrderAwaitingAddress,
	StateOrderAwaitingCity,
	StateOrderAwaitingDistrict,
	StateOrderAwaitingCourier,
	StateOrderAwaitingConfirmation,
}

// IsOrderFlow reports whether the state belongs to the order-capture flow.
func (s State) IsOrderFlow() bool {
	switch s {
	case StateOrderAwaitingProductList,
		StateOrderResolvingAmbiguous,
		StateOrderAwaitingAddMore,
		StateOrderAwaitingDeliveryMethod,
		StateOrderAwaitingAddress,
		StateOrderAwaitingCity,
		StateOrderAwaitingDistrict,
		StateOrderAwaitingCourier,
		StateOrderAwaitingConfirmation:
		return true
	}
	return false
}

// SuppressesClassification reports whether free-text NLP/LLM classification
// is skipped for messages arriving in this state. Menu-driven and
// order-capture states interpret input literally.
func (s State) SuppressesClassification() bool {
	switch s {
	case StateMenu, StateAwaitingName, StateSearchAwaitingSelection:
		return true
	}
	return s.IsOrderFlow()
}

// IsProductContext reports whether the state is product-centric; help and
// sentiment short-circuits are suppressed here so a frustrated "no
// encuentro nada" is not hijacked away from the search.
func (s State) IsProductContext() bool {
	switch s {
	case StateProductInfo,
		StateSearchAwaitingQuery,
		StateSearchAwaitingSelection,
		StateSearchShowingDetails,
		StateOrderAwaitingProductList,
		StateOrderResolvingAmbiguous,
		StateOrderAwaitingAddMore:
		return true
	}
	return false
}

// IsIdle reports whether a greeting in this state should restart the
// welcome flow.
func (s State) IsIdle() bool {
	switch s {
	case StateInitial, StateMenu, StateOrdersMenu, StateFAQ:
		return true
	}
	return false
}

// Valid reports whether s is one of the enumerated states.
func (s State) Valid() bool {
	for _, known := range States {
		if s == known {
			return true
		}
	}
	return false
}
