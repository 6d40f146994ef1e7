package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/domain"
)

func TestFormatCLP(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{0, "$0"},
		{123, "$123"},
		{1000, "$1.000"},
		{50000, "$50.000"},
		{1234567, "$1.234.567"},
		{-4500, "-$4.500"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatCLP(tc.amount))
	}
}

func TestSessionExpired(t *testing.T) {
	plain := SessionExpired(false)
	assert.Contains(t, plain, "sesión expiró")
	assert.NotContains(t, plain, "descartados")

	withCart := SessionExpired(true)
	assert.Contains(t, withCart, "descartados")
}

func TestCartSummary(t *testing.T) {
	assert.Equal(t, CartEmpty, CartSummary(nil))
	assert.Equal(t, CartEmpty, CartSummary(&cart.Cart{}))

	c := &cart.Cart{Lines: []cart.Line{
		{ProductID: "p1", Name: "Almendras", Quantity: 6, UnitPrice: 1000, BulkPrice: 800, AppliedPrice: 800, LineTotal: 4800, BulkApplied: true},
		{ProductID: "p2", Name: "Té verde", Quantity: 1, UnitPrice: 3500, AppliedPrice: 3500, LineTotal: 3500},
	}}
	out := CartSummary(c)
	assert.Contains(t, out, "6 x Almendras · $4.800 (precio por mayor)")
	assert.Contains(t, out, "1 x Té verde · $3.500")
	assert.Contains(t, out, "Subtotal: $9.500")
	assert.Contains(t, out, "Descuento por mayor: -$1.200")
	assert.Contains(t, out, "*Total: $8.300*")
}

func TestCaptureSummary(t *testing.T) {
	added := []cart.Line{
		{Name: "Almendras", Quantity: 2, LineTotal: 2000},
	}
	ambiguous := []CaptureOption{
		{Number: 1, RequestedName: "te", Product: domain.Product{Name: "Té verde", UnitPrice: 3500}},
		{Number: 2, RequestedName: "te", Product: domain.Product{Name: "Té negro", UnitPrice: 3200}},
	}
	missed := []CaptureMiss{{Name: "nueces", Reason: "sin coincidencias"}}

	out := CaptureSummary(added, ambiguous, missed)
	assert.Contains(t, out, "Agregado a tu carrito")
	assert.Contains(t, out, "2 x Almendras")
	assert.Contains(t, out, "No pude agregar")
	assert.Contains(t, out, "nueces (sin coincidencias)")
	assert.Contains(t, out, "varias opciones")
	assert.Contains(t, out, "Para \"te\":")
	assert.Contains(t, out, "1️⃣ Té verde · $3.500")
	assert.Contains(t, out, "2️⃣ Té negro · $3.200")
	assert.Contains(t, out, AmbiguousPrompt)

	// a fully-added capture has no prompts
	onlyAdded := CaptureSummary(added, nil, nil)
	assert.NotContains(t, onlyAdded, "No pude agregar")
	assert.NotContains(t, onlyAdded, AmbiguousPrompt)
}

func TestOrderConfirmationRendersModality(t *testing.T) {
	c := &cart.Cart{Lines: []cart.Line{
		{Name: "Almendras", Quantity: 5, AppliedPrice: 10000, LineTotal: 50000},
	}}

	pickup := OrderConfirmation(c, domain.DeliveryPickup, "", "")
	assert.Contains(t, pickup, "retiro en tienda")
	assert.Contains(t, pickup, PickupAddress)

	delivery := OrderConfirmation(c, domain.DeliveryDelivery, "Calle Falsa 123, Providencia, Santiago", domain.CourierStarken)
	assert.Contains(t, delivery, "despacho a Calle Falsa 123, Providencia, Santiago")
	assert.Contains(t, delivery, "Courier: starken")
}
