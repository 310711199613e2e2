// Package sites describes the crawl targets: their seed pages, the link
// shapes worth following, and which record schema their detail pages map to.
package sites

import (
	"fmt"
	"strings"
)

// Schema selects the normalizer for a site's detail pages.
type Schema string

// Supported record schemas.
const (
	SchemaVessel  Schema = "vessel"
	SchemaListing Schema = "listing"
)

// Transport selects the fetcher implementation for a site.
type Transport string

// Supported fetch transports.
const (
	TransportHTTP     Transport = "http"
	TransportHeadless Transport = "headless"
)

// Config is the per-site configuration block.
type Config struct {
	BaseURL          string    `mapstructure:"base_url"`
	SeedURL          string    `mapstructure:"seed_url"`
	SeedTemplate     string    `mapstructure:"seed_template"`
	PageCount        int       `mapstructure:"page_count"`
	PaginationMarker string    `mapstructure:"pagination_marker"`
	DetailMarker     string    `mapstructure:"detail_marker"`
	DenyQueryMarker  string    `mapstructure:"deny_query_marker"`
	Transport        Transport `mapstructure:"transport"`
	Schema           Schema    `mapstructure:"schema"`
}

// Site is a validated crawl target.
type Site struct {
	Name string
	cfg  Config
}

// New validates a site config and returns the Site.
func New(name string, cfg Config) (*Site, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("site %s: base_url is required", name)
	}
	if cfg.SeedURL == "" && cfg.SeedTemplate == "" {
		return nil, fmt.Errorf("site %s: seed_url or seed_template is required", name)
	}
	if cfg.SeedTemplate != "" && !strings.Contains(cfg.SeedTemplate, "%d") {
		return nil, fmt.Errorf("site %s: seed_template must contain a %%d page placeholder", name)
	}
	if cfg.DetailMarker == "" {
		return nil, fmt.Errorf("site %s: detail_marker is required", name)
	}
	switch cfg.Schema {
	case SchemaVessel, SchemaListing:
	default:
		return nil, fmt.Errorf("site %s: unknown schema %q", name, cfg.Schema)
	}
	switch cfg.Transport {
	case TransportHTTP, TransportHeadless:
	default:
		return nil, fmt.Errorf("site %s: unknown transport %q", name, cfg.Transport)
	}
	return &Site{Name: name, cfg: cfg}, nil
}

// Schema returns the record schema of the site's detail pages.
func (s *Site) Schema() Schema { return s.cfg.Schema }

// Transport returns the configured fetch transport.
func (s *Site) Transport() Transport { return s.cfg.Transport }

// Seeds returns the initial pagination URLs offered before the main loop.
func (s *Site) Seeds() []string {
	if s.cfg.SeedTemplate == "" {
		return []string{s.cfg.SeedURL}
	}
	seeds := make([]string, 0, s.cfg.PageCount)
	for i := 0; i < s.cfg.PageCount; i++ {
		seeds = append(seeds, fmt.Sprintf(s.cfg.SeedTemplate, i))
	}
	return seeds
}

// Accept is the link-acceptance predicate: same-site prefix, pagination or
// detail shape, and not carrying a known-irrelevant query marker (the unit
// toggle would otherwise re-visit every page once per unit system).
func (s *Site) Accept(url string) bool {
	if !strings.HasPrefix(url, s.cfg.BaseURL) {
		return false
	}
	if s.cfg.DenyQueryMarker != "" && strings.Contains(url, s.cfg.DenyQueryMarker) {
		return false
	}
	if strings.Contains(url, s.cfg.DetailMarker) {
		return true
	}
	return s.cfg.PaginationMarker != "" && strings.Contains(url, s.cfg.PaginationMarker)
}

// IsDetail reports whether url is a listing-detail page (to be extracted
// and persisted) rather than an index page.
func (s *Site) IsDetail(url string) bool {
	return strings.Contains(url, s.cfg.DetailMarker)
}

// sailboatdata's search pagination carries the full filter form in the
// query string; only page_number varies.
const sailboatDataSeedTemplate = "https://sailboatdata.com/?keyword&sort-select&sailboats_per_page=50" +
	"&loa_min&loa_max&lwl_min&lwl_max&hull_type&sailboat_units=all" +
	"&displacement_min&displacement_max&beam_min&beam_max&draft_max" +
	"&bal_disp_min&bal_disp_max&sa_disp_min&sa_disp_max" +
	"&disp_len_disp_min&disp_len_disp_max&comfort_ratio_min&comfort_ratio_max" +
	"&capsize_ratio_min&capsize_ratio_max&taxonomy_rig" +
	"&first_built_after&first_built_before&designer_name&builder_name" +
	"&sailboats_first_letter&page_number=%d"

// Defaults returns the built-in site definitions; config may override or
// extend them.
func Defaults() map[string]Config {
	return map[string]Config{
		"sailboatdata": {
			BaseURL:          "https://sailboatdata.com",
			SeedTemplate:     sailboatDataSeedTemplate,
			PageCount:        181,
			PaginationMarker: "page",
			DetailMarker:     "/sailboat/",
			DenyQueryMarker:  "?units",
			Transport:        TransportHeadless,
			Schema:           SchemaVessel,
		},
		"yachtworld": {
			BaseURL:          "https://www.yachtworld.com",
			SeedURL:          "https://www.yachtworld.com/boats-for-sale/type-sail/",
			PaginationMarker: "/type-sail/page",
			DetailMarker:     "/yacht/",
			Transport:        TransportHTTP,
			Schema:           SchemaListing,
		},
	}
}
