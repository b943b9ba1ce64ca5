package shipping

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brechodigital/brecho-core/internal/domain"
)

type stubQuoter struct {
	calls  int
	quotes []domain.ShippingQuote
	err    error
}

func (s *stubQuoter) Quote(_ context.Context, _ int64, _ string) ([]domain.ShippingQuote, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.quotes, nil
}

func TestQuoteCache_SecondReadServedFromCache(t *testing.T) {
	quoter := &stubQuoter{quotes: []domain.ShippingQuote{
		{ServiceID: "sedex", CarrierName: "Correios", PriceCents: 1500},
	}}
	cache := NewQuoteCache(quoter, time.Minute)

	first, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, quoter.calls)
}

func TestQuoteCache_ExpiredEntryRefetched(t *testing.T) {
	quoter := &stubQuoter{quotes: []domain.ShippingQuote{{ServiceID: "pac"}}}
	cache := NewQuoteCache(quoter, time.Nanosecond)

	_, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	assert.Equal(t, 2, quoter.calls)
}

func TestQuoteCache_KeysAreIndependent(t *testing.T) {
	quoter := &stubQuoter{quotes: []domain.ShippingQuote{{ServiceID: "pac"}}}
	cache := NewQuoteCache(quoter, time.Minute)

	_, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	_, err = cache.Quotes(context.Background(), 55, "22041011")
	require.NoError(t, err)
	_, err = cache.Quotes(context.Background(), 56, "01310000")
	require.NoError(t, err)

	assert.Equal(t, 3, quoter.calls)
}

func TestQuoteCache_FreshQuotesBypassesCache(t *testing.T) {
	quoter := &stubQuoter{quotes: []domain.ShippingQuote{{ServiceID: "pac"}}}
	cache := NewQuoteCache(quoter, time.Minute)

	_, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)

	_, err = cache.FreshQuotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	assert.Equal(t, 2, quoter.calls)
}

func TestQuoteCache_CallerCannotMutateCachedEntry(t *testing.T) {
	quoter := &stubQuoter{quotes: []domain.ShippingQuote{
		{ServiceID: "sedex", PriceCents: 1500},
	}}
	cache := NewQuoteCache(quoter, time.Minute)

	first, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	first[0].PriceCents = 1

	second, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	assert.Equal(t, int64(1500), second[0].PriceCents)
}

func TestQuoteCache_UpstreamErrorNotCached(t *testing.T) {
	quoter := &stubQuoter{err: errors.New("aggregator down")}
	cache := NewQuoteCache(quoter, time.Minute)

	_, err := cache.Quotes(context.Background(), 55, "01310000")
	require.Error(t, err)

	quoter.err = nil
	quoter.quotes = []domain.ShippingQuote{{ServiceID: "pac"}}

	quotes, err := cache.Quotes(context.Background(), 55, "01310000")
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}
