// Package nlp holds the pure text classifiers and the product extractors.
// Classifiers never touch flow state; the router alone interprets their
// output against the current conversation state.
package nlp

import "strings"

// Category labels a classifier match.
type Category string

const (
	CategoryGreeting  Category = "greeting"
	CategoryFarewell  Category = "farewell"
	CategoryHelp      Category = "help"
	CategoryAutoReply Category = "auto_reply"
)

// Result is the stable classifier contract.
type Result struct {
	Matched    bool
	Category   Category
	Confidence float64
	Reply      string
}

var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u",
	"Á", "a", "É", "e", "Í", "i", "Ó", "o", "Ú", "u", "Ü", "u",
)

// Normalize lowercases and strips Spanish accents so pattern tables stay
// short.
func Normalize(text string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(text)))
}

var greetingPatterns = []string{
	"hola", "buenas", "buenos dias", "buenas tardes", "buenas noches",
	"que tal", "alo", "hey", "wena",
}

// DetectGreeting matches salutations at the start of the message.
func DetectGreeting(text string) Result {
	norm := Normalize(text)
	for _, p := range greetingPatterns {
		if norm == p || strings.HasPrefix(norm, p+" ") || strings.HasPrefix(norm, p+",") || strings.HasPrefix(norm, p+"!") {
			return Result{Matched: true, Category: CategoryGreeting, Confidence: 0.9}
		}
	}
	return Result{}
}

var farewellPatterns = []string{
	"chao", "chau", "adios", "nos vemos", "hasta luego", "hasta pronto",
	"bye", "me voy", "eso seria", "eso era todo",
}

var thanksPatterns = []string{
	"gracias", "muchas gracias", "mil gracias", "se agradece",
}

// DetectFarewell matches goodbyes and thanks. A thanks counts as a
// farewell: the user is closing the conversation either way.
func DetectFarewell(text string) Result {
	norm := Normalize(text)
	for _, p := range farewellPatterns {
		if strings.Contains(norm, p) {
			return Result{Matched: true, Category: CategoryFarewell, Confidence: 0.9}
		}
	}
	for _, p := range thanksPatterns {
		if norm == p || strings.HasPrefix(norm, p+",") || strings.HasPrefix(norm, p+"!") || strings.HasSuffix(norm, " "+p) {
			return Result{Matched: true, Category: CategoryFarewell, Confidence: 0.8}
		}
	}
	return Result{}
}

var helpPatterns = []string{
	"ayuda", "no entiendo", "como funciona", "que puedo hacer",
	"no se que hacer", "estoy perdido", "estoy perdida", "help",
}

// DetectHelp matches explicit requests for guidance.
func DetectHelp(text string) Result {
	norm := Normalize(text)
	for _, p := range helpPatterns {
		if strings.Contains(norm, p) {
			return Result{Matched: true, Category: CategoryHelp, Confidence: 0.8}
		}
	}
	return Result{}
}

var negativeWords = []string{
	"pesimo", "terrible", "horrible", "malo", "mala", "nunca", "enojado",
	"enojada", "molesto", "molesta", "indignante", "estafa", "reclamo",
	"furioso", "furiosa", "decepcion",
}

var positiveWords = []string{
	"excelente", "genial", "bueno", "buena", "gracias", "perfecto",
	"bacan", "increible", "feliz", "contento", "contenta",
}

// Sentiment scores the message in [-1, 1] with a small word lexicon.
// Anything below -0.5 is treated as strongly negative by the router.
func Sentiment(text string) float64 {
	norm := Normalize(text)
	words := strings.Fields(norm)
	if len(words) == 0 {
		return 0
	}

	var score float64
	for _, neg := range negativeWords {
		if strings.Contains(norm, neg) {
			score -= 1
		}
	}
	for _, pos := range positiveWords {
		if strings.Contains(norm, pos) {
			score += 1
		}
	}

	// dampen by length so one harsh word in a long sentence counts less
	score /= float64(max(1, len(words)/3))

	if score > 1 {
		return 1
	}
	if score < -1 {
		return -1
	}
	return score
}

// cannedReply pairs a pattern set with a fixed answer.
type cannedReply struct {
	patterns   []string
	confidence float64
	reply      string
}

var cannedReplies = []cannedReply{
	{
		patterns:   []string{"horario", "a que hora abren", "a que hora cierran", "estan abiertos"},
		confidence: 0.9,
		reply:      "🕐 Atendemos de lunes a viernes de 9:00 a 19:00 y sábados de 10:00 a 14:00.",
	},
	{
		patterns:   []string{"donde estan", "ubicacion", "direccion de la tienda", "donde queda"},
		confidence: 0.9,
		reply:      "📍 Estamos en Av. Los Aromos 1420, local 3, Providencia.",
	},
	{
		patterns:   []string{"medios de pago", "formas de pago", "aceptan tarjeta", "como se paga"},
		confidence: 0.9,
		reply:      "💳 Por este canal aceptamos pago por transferencia bancaria.",
	},
}

// DetectAutoReply matches questions with a fixed high-confidence answer.
func DetectAutoReply(text string) Result {
	norm := Normalize(text)
	for _, canned := range cannedReplies {
		for _, p := range canned.patterns {
			if strings.Contains(norm, p) {
				return Result{
					Matched:    true,
					Category:   CategoryAutoReply,
					Confidence: canned.confidence,
					Reply:      canned.reply,
				}
			}
		}
	}
	return Result{}
}

var productQueryPatterns = []string{
	"precio", "cuanto cuesta", "cuanto vale", "cuanto sale", "tienen",
	"venden", "busco", "me interesa", "hay stock", "tendran", "valor de",
}

// LooksLikeProductQuery is the pattern-based heuristic for a quick catalog
// lookup, independent of the LLM call.
func LooksLikeProductQuery(text string) bool {
	norm := Normalize(text)
	for _, p := range productQueryPatterns {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}

var faqTopics = []struct {
	topic    string
	patterns []string
}{
	{"horario", []string{"horario", "hora", "abren", "cierran", "atencion"}},
	{"despacho", []string{"despacho", "envio", "entrega", "reparto", "llega"}},
	{"pago", []string{"pago", "pagar", "transferencia", "tarjeta", "efectivo"}},
	{"devoluciones", []string{"devolucion", "devoluciones", "cambio", "garantia", "reembolso"}},
}

// FAQTopic maps a message to one of the FAQ answer keys. Only consulted
// while the user is in the FAQ state.
func FAQTopic(text string) (string, bool) {
	norm := Normalize(text)
	for _, entry := range faqTopics {
		for _, p := range entry.patterns {
			if strings.Contains(norm, p) {
				return entry.topic, true
			}
		}
	}
	return "", false
}
