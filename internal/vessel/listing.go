package vessel

// Listing is the lightweight per-page result for brokerage sites that list
// asking prices. Unlike Record, listings are accumulated per crawl run and
// returned in the job result rather than upserted into the vessel store.
type Listing struct {
	Model string `json:"model"`
	Price int    `json:"price"`
	Year  int    `json:"year"`
	Feet  int    `json:"feet"`
	URL   string `json:"url"`
}
