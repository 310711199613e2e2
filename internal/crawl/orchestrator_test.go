package crawl

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sailscout/sailscout/internal/crawler"
	"github.com/sailscout/sailscout/internal/hash/sha256"
	"github.com/sailscout/sailscout/internal/metrics"
	notifymem "github.com/sailscout/sailscout/internal/notify/memory"
	"github.com/sailscout/sailscout/internal/persist"
	"github.com/sailscout/sailscout/internal/sites"
	storemem "github.com/sailscout/sailscout/internal/storage/memory"
)

func init() {
	metrics.Init()
}

type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, req crawler.FetchRequest) (crawler.FetchResponse, error) {
	f.calls = append(f.calls, req.URL)
	body, ok := f.pages[req.URL]
	if !ok {
		return crawler.FetchResponse{}, fmt.Errorf("fetch %s: connection refused", req.URL)
	}
	return crawler.FetchResponse{
		URL:        req.URL,
		StatusCode: 200,
		Body:       []byte(body),
	}, nil
}

func vesselSite(t *testing.T) *sites.Site {
	t.Helper()
	s, err := sites.New("specsheets", sites.Config{
		BaseURL:          "https://sbd.test",
		SeedURL:          "https://sbd.test/?page_number=0",
		PaginationMarker: "page",
		DetailMarker:     "/sailboat/",
		DenyQueryMarker:  "?units",
		Transport:        sites.TransportHTTP,
		Schema:           sites.SchemaVessel,
	})
	require.NoError(t, err)
	return s
}

func listingSite(t *testing.T) *sites.Site {
	t.Helper()
	s, err := sites.New("brokerage", sites.Config{
		BaseURL:          "https://yw.test",
		SeedURL:          "https://yw.test/boats-for-sale/type-sail/",
		PaginationMarker: "/type-sail/page",
		DetailMarker:     "/yacht/",
		Transport:        sites.TransportHTTP,
		Schema:           sites.SchemaListing,
	})
	require.NoError(t, err)
	return s
}

func detailPage(model, loa string) string {
	return fmt.Sprintf(`<html><body>
<h1>%s</h1>
<table>
<tr><td>Hull Type:</td><td>Fin w/spade rudder</td></tr>
<tr><td>LOA:</td><td>%s</td></tr>
<tr><td>Designer:</td><td>Frank Butler</td></tr>
</table>
</body></html>`, model, loa)
}

func vesselPages() map[string]string {
	return map[string]string{
		"https://sbd.test/?page_number=0": `<html><body>
<a href="/sailboat/catalina-30">Catalina 30</a>
<a href="/sailboat/cal-20">Cal 20</a>
<a href="/?page_number=1">Next</a>
<a href="/sailboat/catalina-30?units=metric">metric view</a>
<a href="https://elsewhere.test/sailboat/x">offsite</a>
</body></html>`,
		"https://sbd.test/?page_number=1": `<html><body>
<a href="/sailboat/catalina-30">Catalina 30 again</a>
</body></html>`,
		"https://sbd.test/sailboat/catalina-30": detailPage("Catalina 30", "29.92 ft / 9.12 m"),
		"https://sbd.test/sailboat/cal-20":      detailPage("Cal 20", "20.00 ft / 6.10 m"),
	}
}

func newVesselOrchestrator(t *testing.T, fetcher crawler.Fetcher) (*Orchestrator, *storemem.VesselStore, *notifymem.Publisher, *storemem.BlobStore) {
	t.Helper()
	store := storemem.NewVesselStore()
	publisher := notifymem.New()
	archive := storemem.NewBlobStore()
	o, err := New(vesselSite(t), fetcher, persist.New(store), archive, publisher, sha256.New(), zap.NewNop())
	require.NoError(t, err)
	return o, store, publisher, archive
}

func TestRunCrawlsGraphAndPersistsRecords(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: vesselPages()}
	o, store, publisher, _ := newVesselOrchestrator(t, fetcher)

	counters, listings, err := o.Run(context.Background(), "job-1", Config{})
	require.NoError(t, err)
	require.Empty(t, listings)

	// 2 index pages + 2 detail pages; dedup stops the repeat catalina link
	// and the ?units variant never enters the frontier
	require.Equal(t, 4, counters.PagesFetched)
	require.Zero(t, counters.PagesFailed)
	require.Equal(t, 2, counters.RecordsCreated)
	require.Zero(t, counters.RecordsUpdated)
	require.Len(t, fetcher.calls, 4)

	require.Equal(t, 2, store.Len())
	_, rec, err := store.FindByModel(context.Background(), "Catalina 30")
	require.NoError(t, err)
	require.Equal(t, "Fin w/spade rudder", rec.HullType)
	require.Equal(t, "Frank Butler", rec.Designer)
	require.NotNil(t, rec.LOA)
	require.Equal(t, 29.92, *rec.LOA.Primary)
	require.Equal(t, 9.12, *rec.LOA.Secondary)

	msgs := publisher.Messages()
	require.Len(t, msgs, 2)
	require.Equal(t, "vessel-changes", msgs[0].Topic)
}

func TestRunIsIdempotentAcrossSessions(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: vesselPages()}
	o, store, publisher, _ := newVesselOrchestrator(t, fetcher)

	_, _, err := o.Run(context.Background(), "job-1", Config{})
	require.NoError(t, err)
	firstPublishes := len(publisher.Messages())

	counters, _, err := o.Run(context.Background(), "job-2", Config{})
	require.NoError(t, err)

	require.Equal(t, 2, counters.RecordsUnchanged)
	require.Zero(t, counters.RecordsCreated)
	require.Zero(t, counters.RecordsUpdated)
	require.Equal(t, 2, store.Len())
	// unchanged upserts publish nothing
	require.Len(t, publisher.Messages(), firstPublishes)
}

func TestRunArchivesPagesWhenEnabled(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: vesselPages()}
	o, _, _, archive := newVesselOrchestrator(t, fetcher)

	_, _, err := o.Run(context.Background(), "job-1", Config{Archive: true})
	require.NoError(t, err)

	digest, err := sha256.New().Hash([]byte("https://sbd.test/sailboat/catalina-30"))
	require.NoError(t, err)
	body, ok := archive.GetObject(fmt.Sprintf("jobs/job-1/%s.html", digest))
	require.True(t, ok)
	require.Contains(t, string(body), "Catalina 30")
}

func TestRunCountsFailedPagesAndContinues(t *testing.T) {
	t.Parallel()

	pages := vesselPages()
	delete(pages, "https://sbd.test/sailboat/cal-20")
	fetcher := &fakeFetcher{pages: pages}
	o, store, _, _ := newVesselOrchestrator(t, fetcher)

	counters, _, err := o.Run(context.Background(), "job-1", Config{})
	require.NoError(t, err)
	require.Equal(t, 1, counters.PagesFailed)
	require.Equal(t, 3, counters.PagesFetched)
	require.Equal(t, 1, counters.RecordsCreated)
	require.Equal(t, 1, store.Len())
}

func TestRunHonorsPageCap(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: vesselPages()}
	o, _, _, _ := newVesselOrchestrator(t, fetcher)

	counters, _, err := o.Run(context.Background(), "job-1", Config{MaxPages: 1})
	require.NoError(t, err)
	require.Equal(t, 1, counters.PagesFetched+counters.PagesFailed)
	require.Len(t, fetcher.calls, 1)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: vesselPages()}
	o, _, _, _ := newVesselOrchestrator(t, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := o.Run(ctx, "job-1", Config{})
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestRunFetchesSeedOutsideLinkFilter(t *testing.T) {
	t.Parallel()

	// the built-in brokerage seed is a bare index root carrying neither the
	// detail nor the pagination marker; it must still start the crawl
	site, err := sites.New("yachtworld", sites.Defaults()["yachtworld"])
	require.NoError(t, err)
	require.False(t, site.Accept(site.Seeds()[0]))

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://www.yachtworld.com/boats-for-sale/type-sail/": `<html><body>
<a href="/yacht/1990-hunter-30-99">1990 Hunter 30</a>
</body></html>`,
		"https://www.yachtworld.com/yacht/1990-hunter-30-99": `<html><body>
<h1>1990 Hunter 30 | 30ft</h1>
<p>Asking US$19,000</p>
</body></html>`,
	}}

	o, err := New(site, fetcher, nil, nil, nil, nil, zap.NewNop())
	require.NoError(t, err)

	counters, listings, err := o.Run(context.Background(), "job-1", Config{})
	require.NoError(t, err)
	require.Equal(t, 2, counters.PagesFetched)
	require.Len(t, listings, 1)
	require.Equal(t, "Hunter 30", listings[0].Model)
	require.Equal(t, 19000, listings[0].Price)
}

func TestRunCollectsBrokerageListings(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://yw.test/boats-for-sale/type-sail/": `<html><body>
<a href="/yacht/1984-catalina-30-1234">1984 Catalina 30</a>
<a href="/boats-for-sale/type-sail/page-2/">Next</a>
</body></html>`,
		"https://yw.test/boats-for-sale/type-sail/page-2/": `<html><body></body></html>`,
		"https://yw.test/yacht/1984-catalina-30-1234": `<html><body>
<h1>1984 Catalina 30 | 30ft Newport Beach</h1>
<p>Great condition.</p>
<p>Asking US$24,900 or best offer</p>
</body></html>`,
	}}

	o, err := New(listingSite(t), fetcher, nil, nil, nil, nil, zap.NewNop())
	require.NoError(t, err)

	counters, listings, err := o.Run(context.Background(), "job-1", Config{})
	require.NoError(t, err)
	require.Equal(t, 3, counters.PagesFetched)
	require.Equal(t, 1, counters.ListingsSeen)
	require.Len(t, listings, 1)
	require.Equal(t, "Catalina 30", listings[0].Model)
	require.Equal(t, 24900, listings[0].Price)
	require.Equal(t, 1984, listings[0].Year)
	require.Equal(t, 30, listings[0].Feet)
}
