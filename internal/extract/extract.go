package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"mspro-labs/bol-lister/internal/models"
)

// ErrNotMarketplaceURL is returned when the input URL does not point at the
// configured marketplace. It is the only way an extraction call can fail
// apart from unreadable HTML; a field that cannot be located is never an
// error, just an empty value.
var ErrNotMarketplaceURL = errors.New("URL is not a marketplace product page")

// Label prefix shown in front of the brand name when the brand container
// has no link inside it.
const brandLabel = "Merk:"

// Gallery bound after dedupe.
const maxGalleryImages = 20

// Rule locates one candidate value in a document: a CSS selector plus an
// optional attribute to read instead of the node text.
type Rule struct {
	Selector string
	Attr     string
}

// Ordered fallback chains, most specific and most reliable rule first.
var (
	titleRules = []Rule{
		{Selector: `span[data-test="title"]`},
		{Selector: `h1[data-test="product-title"]`},
		{Selector: `h1`},
		{Selector: `meta[property="og:title"]`, Attr: "content"},
	}

	priceFallbackRules = []Rule{
		{Selector: `div[data-test="priceBlockPrice"] [data-test="price"]`},
		{Selector: `meta[property="product:price:amount"]`, Attr: "content"},
		{Selector: `[data-test="price"]`},
	}

	listPriceRules = []Rule{
		{Selector: `del.buy-block__list-price[data-test="list-price"]`},
		{Selector: `span[data-test="list-price"]`},
		{Selector: `div[data-test="buy-block"] del`},
	}

	descriptionRules = []Rule{
		{Selector: `div[data-test="description"].product-description`},
		{Selector: `[data-test="description"]`},
		{Selector: `section#productDescription`},
	}
)

// The current sale price is rendered as two nodes: the integer part and the
// cents as a superscript fraction.
const (
	priceIntegerSel  = `span.promo-price[data-test="price"]`
	priceFractionSel = `sup.promo-price__fraction[data-test="price-fraction"]`
)

var (
	rePriceChars = regexp.MustCompile(`[^\d,.]`)
	reNonDigit   = regexp.MustCompile(`\D`)
	reEANLabel   = regexp.MustCompile(`(?i)ean`)
	reSpaceRun   = regexp.MustCompile(`\s+`)
)

// Engine extracts a ProductRecord from rendered marketplace HTML. It holds
// no mutable state and is safe to share across goroutines.
type Engine struct {
	domainToken string
	mediaMarker string
}

// NewEngine returns an engine bound to a marketplace. domainToken is the
// substring a product URL's host must contain (e.g. "bol.com");
// mediaMarker filters gallery URLs down to the shop's own media host.
func NewEngine(domainToken, mediaMarker string) *Engine {
	return &Engine{domainToken: domainToken, mediaMarker: mediaMarker}
}

// ValidateURL checks that the URL is absolute and its host belongs to the
// marketplace. Called before any rendering is attempted.
func (e *Engine) ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || !strings.Contains(u.Host, e.domainToken) {
		return fmt.Errorf("%w: %q must be a %s URL", ErrNotMarketplaceURL, rawURL, e.domainToken)
	}
	return nil
}

// Extract runs every field extractor against the rendered document and
// assembles the record. Field extractors are independent: one coming up
// empty never aborts the others.
func (e *Engine) Extract(rawURL, html string) (models.ProductRecord, error) {
	if err := e.ValidateURL(rawURL); err != nil {
		return models.ProductRecord{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.ProductRecord{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	rec := models.ProductRecord{SourceURL: rawURL}
	rec.Title = firstMatch(doc, titleRules)
	rec.PriceText, rec.PriceValue = extractPrice(doc)
	rec.ListPriceText, rec.ListPriceVal = extractListPrice(doc)
	rec.Brand = extractBrand(doc)
	rec.EAN = extractEAN(doc)
	rec.Description = extractDescription(doc)
	rec.AllImages = e.extractGallery(doc)
	if len(rec.AllImages) > 0 {
		rec.MainImage = rec.AllImages[0]
	}
	return rec, nil
}

// firstMatch resolves an ordered fallback chain: the first rule that yields
// a non-empty, stripped result wins and later rules are never consulted.
// No match across the whole chain returns "".
func firstMatch(doc *goquery.Document, rules []Rule) string {
	for _, r := range rules {
		sel := doc.Find(r.Selector).First()
		if sel.Length() == 0 {
			continue
		}
		var v string
		if r.Attr != "" {
			v, _ = sel.Attr(r.Attr)
		} else {
			v = sel.Text()
		}
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ParsePrice coerces a raw price string to a number. The marketplace
// renders prices with a comma decimal separator. Anything that is not a
// digit, comma or period is stripped first; an empty or malformed result
// yields nil, never an error.
func ParsePrice(s string) *float64 {
	if s == "" {
		return nil
	}
	cleaned := rePriceChars.ReplaceAllString(s, "")
	if cleaned == "" {
		return nil
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// extractPrice reads the current sale price. The primary rule pairs the
// integer node with the superscript fraction node and rejoins them with a
// comma; when either node is missing it falls through to the single-node
// fallback chain. Text and numeric value are independently obtained, so a
// malformed match still surfaces its raw text.
func extractPrice(doc *goquery.Document) (string, *float64) {
	integer := doc.Find(priceIntegerSel).First()
	fraction := doc.Find(priceFractionSel).First()
	if integer.Length() > 0 && fraction.Length() > 0 {
		text := strings.TrimSpace(integer.Text()) + "," + strings.TrimSpace(fraction.Text())
		return text, ParsePrice(text)
	}

	text := firstMatch(doc, priceFallbackRules)
	if text == "" {
		return "", nil
	}
	return text, ParsePrice(text)
}

// extractListPrice reads the strikethrough reference price. Absent when no
// rule matches, which simply means the page shows no discount.
func extractListPrice(doc *goquery.Document) (string, *float64) {
	text := firstMatch(doc, listPriceRules)
	if text == "" {
		return "", nil
	}
	return text, ParsePrice(text)
}

// extractBrand prefers the link inside the brand container; failing that it
// takes the container text with the label prefix stripped.
func extractBrand(doc *goquery.Document) string {
	if link := doc.Find(`div[data-test="brand"] a`).First(); link.Length() > 0 {
		return strings.TrimSpace(link.Text())
	}
	if div := doc.Find(`div[data-test="brand"]`).First(); div.Length() > 0 {
		text := strings.TrimSpace(div.Text())
		if strings.HasPrefix(text, brandLabel) {
			text = strings.TrimSpace(text[len(brandLabel):])
		}
		return text
	}
	return ""
}

// extractEAN locates the identifier in the product specs section, which
// the marketplace renders in either of two layouts: a
// definition list (dt label, dd value) or a table (th label, td value). The
// label match is case-insensitive and may be embedded in longer text. The
// value is reduced to its digits.
func extractEAN(doc *goquery.Document) string {
	ean, found := "", false

	doc.Find("dt.specs__title").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
		if !reEANLabel.MatchString(dt.Text()) {
			return true
		}
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return true
		}
		ean = reNonDigit.ReplaceAllString(dd.Text(), "")
		found = true
		return false
	})
	if found {
		return ean
	}

	doc.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !reEANLabel.MatchString(th.Text()) {
			return true
		}
		td := th.NextAllFiltered("td").First()
		if td.Length() == 0 {
			return true
		}
		ean = reNonDigit.ReplaceAllString(td.Text(), "")
		return false
	})
	return ean
}

// extractDescription returns the stripped text of the first matching
// description container, with runs of internal whitespace collapsed so the
// result is stable across markup variants.
func extractDescription(doc *goquery.Document) string {
	return collapseSpace(firstMatch(doc, descriptionRules))
}

func collapseSpace(s string) string {
	return strings.TrimSpace(reSpaceRun.ReplaceAllString(s, " "))
}

// extractGallery collects image URLs from the filmstrip viewer, falling
// back to a full-document scan when the filmstrip yields nothing. Only
// URLs on the marketplace's own media host qualify. The result is deduped
// preserving first-seen order and capped.
func (e *Engine) extractGallery(doc *goquery.Document) []string {
	var urls []string
	collect := func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if src == "" {
			// lazy-load placeholder keeps the real URL in data-src
			src, _ = img.Attr("data-src")
		}
		if src == "" {
			return
		}
		if strings.Contains(src, e.domainToken) && strings.Contains(src, e.mediaMarker) {
			urls = append(urls, src)
		}
	}

	doc.Find(".filmstrip-viewport img").Each(collect)
	if len(urls) == 0 {
		doc.Find("img").Each(collect)
	}
	return dedupe(urls, maxGalleryImages)
}

// dedupe removes repeats preserving first-seen order, then truncates.
func dedupe(urls []string, max int) []string {
	seen := make(map[string]struct{}, len(urls))
	var out []string
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
		if len(out) == max {
			break
		}
	}
	return out
}
