// Package messages holds the user-facing chat copy and its formatting
// helpers. Flow handlers never build user-visible strings inline.
package messages

import (
	"fmt"
	"strings"

	"github.com/frutalia/ventabot/internal/cart"
	"github.com/frutalia/ventabot/internal/domain"
)

const (
	Welcome = "¡Hola! 👋 Bienvenido a Frutalia, tu tienda de frutos secos.\n" +
		"Para partir, dime tu nombre y apellido."
	AskNameAgain = "Necesito tu nombre y apellido (por ejemplo: Ana Pérez) para registrarte."
	RegistrationFailed = "No pudimos completar tu registro en este momento. " +
		"Intenta enviarme tu nombre y apellido de nuevo."

	Farewell = "¡Gracias por escribirnos! 🙌 Nos vemos pronto."

	SessionWarning = "⏳ Sigues ahí? Tu sesión expira en 3 minutos. " +
		"Escríbeme cualquier cosa para mantenerla activa."
	ContextReset = "Volvimos al menú principal por inactividad. " +
		"Escribe *menú* cuando quieras ver las opciones."

	MenuHeader = "¿Qué quieres hacer?"
	MenuBody = "1️⃣ Buscar productos\n" +
		"2️⃣ Hacer un pedido\n" +
		"3️⃣ Ver mi carrito\n" +
		"4️⃣ Mis pedidos\n" +
		"5️⃣ Preguntas frecuentes\n\n" +
		"Responde con el número de la opción."
	InvalidMenuOption = "No entendí esa opción. Responde con un número del 1 al 5."

	OrdersMenu = "📦 Tus pedidos se confirman por este mismo chat y te avisamos " +
		"cuando salgan a despacho.\nEscribe *menú* para volver."
	FAQIntro = "Pregúntame por *horario*, *despacho*, *pago* o *devoluciones*.\n" +
		"Escribe *menú* para volver."
	FAQUnknown = "No tengo una respuesta para eso todavía. Prueba con *horario*, " +
		"*despacho*, *pago* o *devoluciones*, o escribe *menú* para volver."

	AskSearchQuery   = "🔎 ¿Qué producto buscas? Escríbeme el nombre."
	SearchNoTerm     = "No logré identificar un producto en tu mensaje. ¿Qué estás buscando?"
	SearchUnavailable = "La búsqueda no está disponible en este momento, intenta de nuevo en unos minutos."
	DetailsOptions = "1️⃣ Agregar al carrito\n2️⃣ Buscar otro producto\n3️⃣ Volver al menú"

	ProductInfoMenu = "1️⃣ Buscar otro producto\n2️⃣ Hacer un pedido\n3️⃣ Volver al menú"

	AskProductList = "🛒 Dime qué productos quieres y cuántos, por ejemplo:\n" +
		"\"2 kilos de almendras y 1 té verde\"\n\n" +
		"Escribe *cancelar* para salir."
	ProductListEmpty = "No reconocí productos en tu mensaje. Inténtalo de nuevo, " +
		"por ejemplo: \"2 almendras, 1 té\"."
	AmbiguousPrompt = "Responde con los números de las opciones que quieres, " +
		"separados por coma. Puedes indicar cantidad con dos puntos, " +
		"por ejemplo: \"1: 2, 3\"."
	AmbiguousUnparseable = "No entendí tu selección. " + AmbiguousPrompt

	AddMorePrompt    = "1️⃣ Agregar más productos\n2️⃣ Finalizar pedido"
	AddMoreReprompt  = "Responde *1* para agregar más productos o *2* para finalizar."
	EmptyCartAbort   = "Tu carrito quedó vacío, así que volvemos al menú principal."
	DeliveryPrompt   = "¿Cómo prefieres recibir tu pedido?\n1️⃣ Retiro en tienda\n2️⃣ Despacho a domicilio"
	DeliveryReprompt = "Responde *1* para retiro en tienda o *2* para despacho a domicilio."

	PickupAddress = "Av. Los Aromos 1420, local 3, Providencia"

	AskAddress  = "📍 ¿A qué dirección despachamos? (calle y número)"
	AddressTooShort = "La dirección parece muy corta. Escríbela con calle y número."
	AskCity     = "¿En qué ciudad?"
	CityTooShort = "El nombre de la ciudad parece muy corto. Inténtalo de nuevo."
	AskDistrict = "¿En qué comuna?"
	DistrictTooShort = "El nombre de la comuna parece muy corto. Inténtalo de nuevo."
	AskCourier = "¿Con qué courier despachamos?\n1️⃣ Starken\n2️⃣ Chilexpress\n3️⃣ Bluexpress"
	CourierReprompt = "Responde *1*, *2* o *3*, o el nombre del courier."

	ConfirmationReprompt = "Responde *confirmar* para enviar tu pedido o *cancelar* para descartarlo."
	OrderCancelled = "Pedido cancelado. Tu carrito quedó vacío y volvemos al menú principal."
	OrderMissingIdentity = "Perdimos tus datos de cliente, así que no pudimos enviar el pedido. " +
		"Volvamos a empezar desde el menú."
	PaymentInstructions = "💳 Paga por transferencia bancaria a:\n" +
		"Frutalia SpA · Banco Andino · Cta. Cte. 00-123-45678-9 · RUT 76.543.210-K\n" +
		"Envía el comprobante por este chat para agilizar el despacho."

	CartEmpty = "Tu carrito está vacío. Escribe *pedido* cuando quieras armar uno."

	TemporaryFailure = "Tuvimos un problema temporal. Intenta de nuevo en un momento, por favor."
	EmpatheticRedirect = "Lamento que la experiencia no haya sido buena 😔. " +
		"Volvamos al menú principal para ayudarte mejor."
)

// FormatCLP renders an amount in Chilean pesos with thousands separators.
func FormatCLP(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	if negative {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// GreetingRegistered greets a customer the backend already knows.
func GreetingRegistered(name string) string {
	return fmt.Sprintf("¡Hola %s! 👋 Qué gusto verte de nuevo.", firstName(name))
}

// RegistrationDone confirms a fresh registration.
func RegistrationDone(name string) string {
	return fmt.Sprintf("¡Listo %s! Ya estás registrado. 🎉", firstName(name))
}

// MainMenu renders the menu block.
func MainMenu() string {
	return MenuHeader + "\n" + MenuBody
}

// SessionExpired renders the expiry notice, mentioning cart loss when the
// cart held items.
func SessionExpired(cartHadItems bool) string {
	msg := "Tu sesión expiró por inactividad."
	if cartHadItems {
		msg += " Los productos de tu carrito fueron descartados."
	}
	return msg + " Escríbeme de nuevo cuando quieras. 👋"
}

// SearchNoResults tells the user nothing matched.
func SearchNoResults(term string) string {
	return fmt.Sprintf("No encontré productos para %q. Prueba con otro nombre.", term)
}

// SearchResultList renders an N-result list with selection numbers.
func SearchResultList(products []domain.Product) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Encontré %d productos:\n", len(products)))
	for i, p := range products {
		b.WriteString(fmt.Sprintf("%d️⃣ %s · %s\n", i+1, p.Name, FormatCLP(p.UnitPrice)))
	}
	b.WriteString("\nResponde con el número del producto que te interesa.")
	return b.String()
}

// SelectionOutOfRange re-prompts a numeric selection.
func SelectionOutOfRange(max int) string {
	return fmt.Sprintf("Responde con un número entre 1 y %d.", max)
}

// ProductDetails renders a product card.
func ProductDetails(p domain.Product) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✨ *%s*\nPrecio: %s", p.Name, FormatCLP(p.UnitPrice)))
	if p.BulkPrice > 0 && p.BulkPrice < p.UnitPrice {
		b.WriteString(fmt.Sprintf("\nPrecio por mayor (desde %d unidades): %s", cart.BulkThreshold, FormatCLP(p.BulkPrice)))
	}
	b.WriteString(fmt.Sprintf("\nStock disponible: %d", p.Stock))
	b.WriteString("\n\n" + DetailsOptions)
	return b.String()
}

// AddedToCart confirms a single added line.
func AddedToCart(line cart.Line, totals cart.Totals) string {
	return fmt.Sprintf("✅ Agregué %d x %s (%s c/u).\nTu carrito suma %s.",
		line.Quantity, line.Name, FormatCLP(line.AppliedPrice), FormatCLP(totals.Total))
}

// StockInsufficient explains why an add was rejected.
func StockInsufficient(name string, inCart, available int) string {
	if inCart > 0 {
		return fmt.Sprintf("Solo quedan %d unidades de %s y ya tienes %d en tu carrito.",
			available, name, inCart)
	}
	return fmt.Sprintf("Solo quedan %d unidades de %s.", available, name)
}

// CartSummary renders the full cart with pricing and discount.
func CartSummary(c *cart.Cart) string {
	if c == nil || len(c.Lines) == 0 {
		return CartEmpty
	}

	totals := c.Totals()
	var b strings.Builder
	b.WriteString("🛒 *Tu carrito*\n")
	for _, line := range c.Lines {
		b.WriteString(fmt.Sprintf("• %d x %s · %s", line.Quantity, line.Name, FormatCLP(line.LineTotal)))
		if line.BulkApplied {
			b.WriteString(" (precio por mayor)")
		}
		b.WriteString("\n")
	}
	if totals.Discount > 0 {
		b.WriteString(fmt.Sprintf("Subtotal: %s\nDescuento por mayor: -%s\n", FormatCLP(totals.Subtotal), FormatCLP(totals.Discount)))
	}
	b.WriteString(fmt.Sprintf("*Total: %s*", FormatCLP(totals.Total)))
	return b.String()
}

// DeliveryMinimumNotMet sends the user back to keep adding products.
func DeliveryMinimumNotMet(total, minimum int64) string {
	return fmt.Sprintf("El despacho a domicilio requiere un mínimo de %s y tu carrito suma %s "+
		"(te faltan %s).\n\n%s",
		FormatCLP(minimum), FormatCLP(total), FormatCLP(minimum-total), AddMorePrompt)
}

// PickupConfirmed records the pickup modality.
func PickupConfirmed() string {
	return fmt.Sprintf("Retiro en tienda: %s.", PickupAddress)
}

// OrderConfirmation renders the final itemized summary before submission.
func OrderConfirmation(c *cart.Cart, method domain.DeliveryMethod, address string, courier domain.Courier) string {
	var b strings.Builder
	b.WriteString("📋 *Resumen de tu pedido*\n")
	b.WriteString(CartSummary(c))
	b.WriteString("\n\n")
	if method == domain.DeliveryPickup {
		b.WriteString("Entrega: retiro en tienda, " + PickupAddress)
	} else {
		b.WriteString("Entrega: despacho a " + address)
		if courier != "" {
			b.WriteString(fmt.Sprintf("\nCourier: %s", courier))
		}
	}
	b.WriteString("\nPago: transferencia bancaria")
	b.WriteString("\n\nResponde *confirmar* para enviar el pedido o *cancelar* para descartarlo.")
	return b.String()
}

// OrderCreated confirms a submitted order. The total comes from the local
// cart because the backend response does not echo it.
func OrderCreated(orderID string, total int64) string {
	return fmt.Sprintf("🎉 ¡Pedido recibido! Tu número de orden es *%s* por un total de %s.\n\n%s",
		orderID, FormatCLP(total), PaymentInstructions)
}

// OrderSubmissionFailed keeps the retry door open; cart and draft survive.
func OrderSubmissionFailed(detail string) string {
	return fmt.Sprintf("No pudimos registrar tu pedido: %s\n\n"+
		"Tu carrito sigue intacto. Responde *confirmar* para reintentar o *cancelar* para descartarlo.", detail)
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return full
	}
	return fields[0]
}
