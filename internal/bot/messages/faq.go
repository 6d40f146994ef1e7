package messages

// FAQAnswer returns the canned answer for an FAQ topic key, or "" when the
// topic is unknown.
func FAQAnswer(topic string) string {
	switch topic {
	case "horario":
		return "🕐 Atendemos de lunes a viernes de 9:00 a 19:00 y sábados de 10:00 a 14:00."
	case "despacho":
		return "🚚 Despachamos a todo Chile. Pedidos confirmados antes de las 14:00 salen el mismo día; el despacho a domicilio requiere un mínimo de " + FormatCLP(50000) + "."
	case "pago":
		return "💳 Por este canal el pago es por transferencia bancaria. Te enviamos los datos al confirmar tu pedido."
	case "devoluciones":
		return "↩️ Tienes 10 días para cambios o devoluciones de productos sellados. Escríbenos por este chat y lo coordinamos."
	}
	return ""
}
