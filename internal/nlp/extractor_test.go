package nlp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frutalia/ventabot/internal/domain"
)

func TestKeywordExtractor_ExtractTerm(t *testing.T) {
	e := NewKeywordExtractor()
	ctx := context.Background()

	cases := []struct {
		text string
		want string
	}{
		{"quiero el precio de las almendras", "almendras"},
		{"¿tienen nueces mariposa?", "nueces mariposa"},
		{"hola, busco té verde por favor", "te verde"},
		{"cuanto cuesta?", ""},
	}
	for _, tc := range cases {
		term, err := e.ExtractTerm(ctx, tc.text)
		require.NoError(t, err)
		assert.Equal(t, tc.want, term, tc.text)
	}
}

func TestKeywordExtractor_ExtractProducts(t *testing.T) {
	e := NewKeywordExtractor()
	ctx := context.Background()

	mentions, err := e.ExtractProducts(ctx, "quiero 2 kilos de almendras y 1 té verde, pasas")
	require.NoError(t, err)

	require.Len(t, mentions, 3)
	assert.Equal(t, domain.Mention{Name: "almendras", Quantity: 2}, mentions[0])
	assert.Equal(t, domain.Mention{Name: "te verde", Quantity: 1}, mentions[1])
	assert.Equal(t, domain.Mention{Name: "pasas", Quantity: 1}, mentions[2])
}

func TestKeywordExtractor_ExtractProductsEmpty(t *testing.T) {
	e := NewKeywordExtractor()

	mentions, err := e.ExtractProducts(context.Background(), "hola, quisiera comprar por favor")
	require.NoError(t, err)
	assert.Empty(t, mentions)
}

type failingExtractor struct{}

func (failingExtractor) ExtractTerm(ctx context.Context, text string) (string, error) {
	return "", errors.New("llm unavailable")
}

func (failingExtractor) ExtractProducts(ctx context.Context, text string) ([]domain.Mention, error) {
	return nil, errors.New("llm unavailable")
}

func TestFailoverExtractor_FallsBack(t *testing.T) {
	f := NewFailoverExtractor(failingExtractor{}, NewKeywordExtractor(), testLogger())
	ctx := context.Background()

	term, err := f.ExtractTerm(ctx, "busco almendras")
	require.NoError(t, err)
	assert.Equal(t, "almendras", term)

	mentions, err := f.ExtractProducts(ctx, "3 nueces")
	require.NoError(t, err)
	require.Len(t, mentions, 1)
	assert.Equal(t, 3, mentions[0].Quantity)
}

func TestFailoverExtractor_NoPrimary(t *testing.T) {
	f := NewFailoverExtractor(nil, NewKeywordExtractor(), testLogger())

	term, err := f.ExtractTerm(context.Background(), "tienen pistachos?")
	require.NoError(t, err)
	assert.Equal(t, "pistachos", term)
}
