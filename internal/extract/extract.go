// Package extract pulls the semi-structured fields out of a fetched
// listing page: the heading, the two-cell spec table rows, paragraph text,
// and outbound links.
package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RawPage is the ephemeral extraction result for one document. It is
// normalized into a typed record and then discarded.
type RawPage struct {
	URL        string
	Title      string
	Fields     map[string]string
	Paragraphs []string
	Links      []string
}

// Parse extracts a RawPage from a document body. Markup the page does not
// have simply yields empty parts; only an unusable page URL is an error,
// since links could not be resolved without it.
func Parse(pageURL string, body []byte) (*RawPage, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url %q: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	page := &RawPage{
		URL:    pageURL,
		Title:  strings.TrimSpace(doc.Find("h1").First().Text()),
		Fields: make(map[string]string),
	}

	// Spec tables carry one label/value pair per row. Rows with any other
	// cell count are layout noise; duplicate labels are last-wins.
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() != 2 {
			return
		}
		label := strings.TrimSpace(cells.Eq(0).Text())
		label = strings.TrimSuffix(label, ":")
		if label == "" {
			return
		}
		page.Fields[label] = strings.TrimSpace(cells.Eq(1).Text())
	})

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			page.Paragraphs = append(page.Paragraphs, text)
		}
	})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if resolved, ok := resolveLink(base, href); ok {
			page.Links = append(page.Links, resolved)
		}
	})

	return page, nil
}

// resolveLink makes href absolute against the page URL, strips fragments,
// and drops non-HTTP schemes (mailto, ftp, javascript).
func resolveLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	u, err := base.Parse(href)
	if err != nil {
		return "", false
	}
	u.Fragment = ""
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}
