package nlp

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "menu", Normalize("  Menú "))
	assert.Equal(t, "te verde, por favor", Normalize("Té verde, POR FAVOR"))
}

func TestDetectGreeting(t *testing.T) {
	cases := []struct {
		text    string
		matched bool
	}{
		{"Hola", true},
		{"hola, buenas tardes", true},
		{"Buenas!", true},
		{"wena", true},
		{"holanda", false},
		{"quiero almendras", false},
	}
	for _, tc := range cases {
		res := DetectGreeting(tc.text)
		assert.Equal(t, tc.matched, res.Matched, tc.text)
		if tc.matched {
			assert.Equal(t, CategoryGreeting, res.Category)
			assert.Greater(t, res.Confidence, 0.8)
		}
	}
}

func TestDetectFarewell(t *testing.T) {
	cases := []struct {
		text    string
		matched bool
	}{
		{"chao!", true},
		{"ya, nos vemos", true},
		{"eso sería todo", true},
		{"gracias", true},
		{"muchas gracias", true},
		{"ok muchas gracias", true},
		{"gracias, eso era", true},
		// thanks mid-sentence is not a goodbye
		{"gracias a la promo quiero comprar mas", false},
		{"quiero almendras", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.matched, DetectFarewell(tc.text).Matched, tc.text)
	}
}

func TestDetectHelp(t *testing.T) {
	assert.True(t, DetectHelp("no entiendo nada").Matched)
	assert.True(t, DetectHelp("ayuda por favor").Matched)
	assert.False(t, DetectHelp("quiero un kilo de nueces").Matched)
}

func TestSentiment(t *testing.T) {
	assert.Less(t, Sentiment("pésimo servicio"), -0.5)
	assert.Greater(t, Sentiment("excelente atención"), 0.5)
	assert.InDelta(t, 0, Sentiment("quiero dos kilos de almendras"), 0.01)
	// one harsh word in a long message is dampened
	assert.GreaterOrEqual(t, Sentiment("el despacho anterior llego malo pero igual quiero pedir mas productos para esta semana"), -0.5)
}

func TestDetectAutoReply(t *testing.T) {
	res := DetectAutoReply("¿cuál es su horario?")
	assert.True(t, res.Matched)
	assert.Greater(t, res.Confidence, 0.85)
	assert.Contains(t, res.Reply, "lunes a viernes")

	res = DetectAutoReply("aceptan tarjeta?")
	assert.True(t, res.Matched)
	assert.Contains(t, res.Reply, "transferencia")

	assert.False(t, DetectAutoReply("quiero nueces").Matched)
}

func TestLooksLikeProductQuery(t *testing.T) {
	assert.True(t, LooksLikeProductQuery("¿cuánto cuesta el kilo de nueces?"))
	assert.True(t, LooksLikeProductQuery("tienen almendras tostadas"))
	assert.False(t, LooksLikeProductQuery("hola buenas"))
}

func TestFAQTopic(t *testing.T) {
	cases := []struct {
		text  string
		topic string
		ok    bool
	}{
		{"a qué hora abren?", "horario", true},
		{"cuánto demora el envío", "despacho", true},
		{"puedo pagar con transferencia", "pago", true},
		{"quiero hacer un cambio", "devoluciones", true},
		{"me gustan los frutos secos", "", false},
	}
	for _, tc := range cases {
		topic, ok := FAQTopic(tc.text)
		assert.Equal(t, tc.ok, ok, tc.text)
		assert.Equal(t, tc.topic, topic, tc.text)
	}
}
