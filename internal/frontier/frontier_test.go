package frontier

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOfferDeduplicates(t *testing.T) {
	t.Parallel()

	f := New(nil)
	require.True(t, f.Offer("https://example.com/a"))
	require.False(t, f.Offer("https://example.com/a"))
	require.Equal(t, 1, f.PendingLen())

	url, ok := f.TakeNext()
	require.True(t, ok)
	require.Equal(t, "https://example.com/a", url)
	f.MarkVisited(url)

	// visited URLs never re-enter pending
	require.False(t, f.Offer("https://example.com/a"))
	require.Zero(t, f.PendingLen())
	require.True(t, f.IsVisited(url))
}

func TestTakeNextIsFIFO(t *testing.T) {
	t.Parallel()

	f := New(nil)
	f.Offer("a")
	f.Offer("b")
	f.Offer("c")

	for _, want := range []string{"a", "b", "c"} {
		got, ok := f.TakeNext()
		require.True(t, ok)
		require.Equal(t, want, got)
	}
	_, ok := f.TakeNext()
	require.False(t, ok)
}

func TestAcceptPredicateGatesOffers(t *testing.T) {
	t.Parallel()

	f := New(func(url string) bool { return strings.HasPrefix(url, "https://ok.example") })
	require.False(t, f.Offer("https://other.example/x"))
	require.True(t, f.Offer("https://ok.example/x"))
	require.Equal(t, 1, f.PendingLen())
}

func TestSeedBypassesAcceptPredicate(t *testing.T) {
	t.Parallel()

	f := New(func(string) bool { return false })
	require.False(t, f.Offer("https://example.com/start"))
	require.True(t, f.Seed("https://example.com/start"))
	require.Equal(t, 1, f.PendingLen())

	// seeds still dedup against pending and visited
	require.False(t, f.Seed("https://example.com/start"))
	url, ok := f.TakeNext()
	require.True(t, ok)
	require.Equal(t, "https://example.com/start", url)
	f.MarkVisited(url)
	require.False(t, f.Seed(url))
}

func TestMarkVisitedRemovesPendingEntry(t *testing.T) {
	t.Parallel()

	f := New(nil)
	f.Offer("a")
	f.Offer("b")
	f.MarkVisited("a")

	require.Equal(t, 1, f.PendingLen())
	url, ok := f.TakeNext()
	require.True(t, ok)
	require.Equal(t, "b", url)

	// sets stay disjoint: a is visited only
	require.True(t, f.IsVisited("a"))
	require.False(t, f.Offer("a"))
}

func TestMarkVisitedIsIdempotent(t *testing.T) {
	t.Parallel()

	f := New(nil)
	f.MarkVisited("a")
	f.MarkVisited("a")
	require.Equal(t, 1, f.VisitedLen())
}
