package nlp

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/frutalia/ventabot/internal/domain"
)

// Extractor turns free text into product references. ExtractTerm returns
// "" when no product is mentioned; ExtractProducts returns an empty slice.
type Extractor interface {
	ExtractTerm(ctx context.Context, text string) (string, error)
	ExtractProducts(ctx context.Context, text string) ([]domain.Mention, error)
}

// KeywordExtractor is the deterministic fallback used when the LLM
// collaborator is unavailable. It strips filler words and parses
// "<quantity> <name>" segments.
type KeywordExtractor struct{}

// NewKeywordExtractor builds the fallback extractor.
func NewKeywordExtractor() *KeywordExtractor {
	return &KeywordExtractor{}
}

var fillerWords = map[string]struct{}{
	"hola": {}, "quiero": {}, "quisiera": {}, "necesito": {}, "dame": {},
	"agrega": {}, "agregar": {}, "comprar": {}, "vender": {}, "busco": {},
	"tienen": {}, "venden": {}, "hay": {}, "precio": {}, "valor": {},
	"cuanto": {}, "cuesta": {}, "vale": {}, "sale": {}, "stock": {},
	"por": {}, "favor": {}, "me": {}, "interesa": {}, "el": {}, "la": {},
	"los": {}, "las": {}, "un": {}, "una": {}, "unos": {}, "unas": {},
	"de": {}, "del": {}, "kilo": {}, "kilos": {}, "kg": {}, "gramos": {},
	"unidad": {}, "unidades": {}, "paquete": {}, "paquetes": {}, "bolsa": {},
	"bolsas": {}, "y": {}, "con": {}, "para": {}, "que": {}, "cual": {},
	"es": {}, "tendran": {},
}

// punctCutset covers the punctuation that clings to words in chat text.
const punctCutset = "¿?¡!.,;"

var segmentSplitter = regexp.MustCompile(`[,\n;]| y `)

var quantityPrefix = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// ExtractTerm reduces the message to its most likely product words.
func (e *KeywordExtractor) ExtractTerm(ctx context.Context, text string) (string, error) {
	kept := keepProductWords(Normalize(text))
	return strings.Join(kept, " "), nil
}

// ExtractProducts parses comma/"y"-separated segments with optional
// leading quantities; quantity defaults to 1.
func (e *KeywordExtractor) ExtractProducts(ctx context.Context, text string) ([]domain.Mention, error) {
	var mentions []domain.Mention

	for _, segment := range segmentSplitter.Split(Normalize(text), -1) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		// "quiero 2 almendras": the quantity hides behind leading fillers
		segment = trimLeadingFillers(segment)

		quantity := 1
		if m := quantityPrefix.FindStringSubmatch(segment); m != nil {
			if q, err := strconv.Atoi(m[1]); err == nil && q > 0 {
				quantity = q
				segment = m[2]
			}
		}

		kept := keepProductWords(segment)
		if len(kept) == 0 {
			continue
		}

		mentions = append(mentions, domain.Mention{
			Name:     strings.Join(kept, " "),
			Quantity: quantity,
		})
	}

	return mentions, nil
}

func trimLeadingFillers(segment string) string {
	words := strings.Fields(segment)
	for len(words) > 0 {
		word := strings.Trim(words[0], punctCutset)
		if _, filler := fillerWords[word]; !filler {
			break
		}
		words = words[1:]
	}
	return strings.Join(words, " ")
}

func keepProductWords(normalized string) []string {
	var kept []string
	for _, word := range strings.Fields(normalized) {
		word = strings.Trim(word, punctCutset)
		if word == "" {
			continue
		}
		if _, filler := fillerWords[word]; filler {
			continue
		}
		if _, err := strconv.Atoi(word); err == nil {
			continue
		}
		kept = append(kept, word)
	}
	return kept
}
