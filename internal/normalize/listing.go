package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sailscout/sailscout/internal/extract"
	"github.com/sailscout/sailscout/internal/vessel"
)

// Brokerage titles look like "1984 Catalina 30 | 30ft Newport Beach";
// the price appears in a paragraph such as "US$24,900".
var (
	yearPattern  = regexp.MustCompile(`\d{4}`)
	feetPattern  = regexp.MustCompile(`\d{2,3}ft`)
	nonDigits    = regexp.MustCompile(`\D`)
	currencyMark = "US$"
)

// Listing builds the price/year/feet result for a brokerage detail page.
// Missing parts default to zero values; this variant logs every visit and
// never needs the absence distinction the vessel schema has.
func Listing(raw *extract.RawPage) vessel.Listing {
	return vessel.Listing{
		Model: listingModel(raw.Title),
		Price: listingPrice(raw.Paragraphs),
		Year:  listingYear(raw.Title),
		Feet:  listingFeet(raw.Title),
		URL:   raw.URL,
	}
}

func listingModel(title string) string {
	model, _, _ := strings.Cut(title, "|")
	model = strings.TrimSpace(model)
	// only the first 4-digit run is the year; later runs can be part of
	// the model name itself
	if loc := yearPattern.FindStringIndex(model); loc != nil {
		model = model[:loc[0]] + model[loc[1]:]
	}
	return strings.TrimSpace(model)
}

func listingPrice(paragraphs []string) int {
	for _, p := range paragraphs {
		if !strings.Contains(p, currencyMark) {
			continue
		}
		digits := nonDigits.ReplaceAllString(p, "")
		if digits == "" {
			return 0
		}
		price, err := strconv.Atoi(digits)
		if err != nil {
			return 0
		}
		return price
	}
	return 0
}

func listingYear(title string) int {
	match := yearPattern.FindString(title)
	if match == "" {
		return 0
	}
	year, _ := strconv.Atoi(match)
	return year
}

func listingFeet(title string) int {
	match := feetPattern.FindString(title)
	if match == "" {
		return 0
	}
	feet, _ := strconv.Atoi(strings.TrimSuffix(match, "ft"))
	return feet
}
