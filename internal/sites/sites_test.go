package sites

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sailscout/sailscout/internal/frontier"
)

func mustSite(t *testing.T, name string) *Site {
	t.Helper()
	cfg, ok := Defaults()[name]
	require.True(t, ok)
	s, err := New(name, cfg)
	require.NoError(t, err)
	return s
}

func TestSailboatDataAccept(t *testing.T) {
	t.Parallel()

	s := mustSite(t, "sailboatdata")

	require.True(t, s.Accept("https://sailboatdata.com/sailboat/catalina-30"))
	require.True(t, s.Accept("https://sailboatdata.com/?page_number=3"))
	require.False(t, s.Accept("https://sailboatdata.com/sailboat/catalina-30?units=metric"))
	require.False(t, s.Accept("https://other.example/sailboat/catalina-30"))
	require.False(t, s.Accept("https://sailboatdata.com/about"))
}

func TestSailboatDataSeeds(t *testing.T) {
	t.Parallel()

	s := mustSite(t, "sailboatdata")
	seeds := s.Seeds()
	require.Len(t, seeds, 181)
	require.Contains(t, seeds[0], "page_number=0")
	require.Contains(t, seeds[180], "page_number=180")
	for _, seed := range seeds {
		require.True(t, s.Accept(seed), seed)
	}
}

func TestYachtWorldAccept(t *testing.T) {
	t.Parallel()

	s := mustSite(t, "yachtworld")

	require.True(t, s.Accept("https://www.yachtworld.com/yacht/1984-catalina-30-1234"))
	require.True(t, s.Accept("https://www.yachtworld.com/boats-for-sale/type-sail/page-2/"))
	require.False(t, s.Accept("https://www.yachtworld.com/boats-for-sale/type-power/page-2/"))
	require.False(t, s.Accept("https://elsewhere.example/yacht/x"))

	require.True(t, s.IsDetail("https://www.yachtworld.com/yacht/1984-catalina-30-1234"))
	require.False(t, s.IsDetail("https://www.yachtworld.com/boats-for-sale/type-sail/page-2/"))

	require.Equal(t, []string{"https://www.yachtworld.com/boats-for-sale/type-sail/"}, s.Seeds())
}

func TestDefaultSiteSeedsAreCrawlable(t *testing.T) {
	t.Parallel()

	// every built-in site's seeds must land in the frontier, whether or not
	// they would pass the link filter (the yachtworld index root does not)
	for name := range Defaults() {
		s := mustSite(t, name)
		f := frontier.New(s.Accept)
		seeds := s.Seeds()
		require.NotEmpty(t, seeds, name)
		for _, seed := range seeds {
			require.True(t, f.Seed(seed), "%s seed %s", name, seed)
		}
		require.Equal(t, len(seeds), f.PendingLen(), name)
	}
}

func TestNewRejectsBadConfigs(t *testing.T) {
	t.Parallel()

	base := Defaults()["yachtworld"]

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.BaseURL = "" }},
		{"missing seeds", func(c *Config) { c.SeedURL = ""; c.SeedTemplate = "" }},
		{"template without placeholder", func(c *Config) { c.SeedTemplate = "https://x.example/static" }},
		{"missing detail marker", func(c *Config) { c.DetailMarker = "" }},
		{"unknown schema", func(c *Config) { c.Schema = "csv" }},
		{"unknown transport", func(c *Config) { c.Transport = "carrier-pigeon" }},
	}
	for i, tc := range cases {
		t.Run(fmt.Sprintf("%d_%s", i, tc.name), func(t *testing.T) {
			t.Parallel()
			cfg := base
			tc.mutate(&cfg)
			_, err := New("bad", cfg)
			require.Error(t, err)
		})
	}
}
