package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// Selector lists for treating a page as a single product detail page.
var (
	fallbackImageSelectors = []string{
		".woocommerce-product-gallery img",
		".product-gallery img",
		".product-image img",
		"#product-image",
		"img.product",
		"main img",
	}
	fallbackPriceSelectors = []string{
		".price",
		".amount",
		"[class*='price']",
	}
	fallbackDescriptionSelectors = []string{
		".woocommerce-product-details__short-description",
		".product-description",
		".description",
		"#description",
		"[class*='description']",
	}
)

// extractSingleProduct is the last-resort strategy: the page itself is
// assumed to be one product detail page, so the record's URL is the page URL
// and at most one record is returned.
func extractSingleProduct(doc *goquery.Document, page pageContext) []*storage.Product {
	name := strings.TrimSpace(doc.Find("h1").First().Text())
	if name == "" {
		name = titleProductName(doc)
	}
	if name == "" {
		return nil
	}

	record := page.newProduct(name, firstDocText(doc, fallbackDescriptionSelectors))
	record.ProductURL = &page.URL
	record.ImageURL = optional(ResolveURL(firstDocImage(doc), page.Origin))

	if priceText := firstDocText(doc, fallbackPriceSelectors); priceText != "" {
		record.Price = &priceText
		record.PriceValue = ParsePrice(priceText)
	}

	return []*storage.Product{record}
}

// titleProductName derives a product name from the page title, keeping the
// text before the first "|" or "-" separator (sites habitually append the
// store name after one of those).
func titleProductName(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	for _, sep := range []string{"|", "-"} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	return strings.TrimSpace(title)
}

func firstDocText(doc *goquery.Document, candidates []string) string {
	for _, candidate := range candidates {
		if text := strings.TrimSpace(doc.Find(candidate).First().Text()); text != "" {
			return strings.Join(strings.Fields(text), " ")
		}
	}
	return ""
}

func firstDocImage(doc *goquery.Document) string {
	for _, candidate := range fallbackImageSelectors {
		src := firstImage(doc.Selection, []string{candidate})
		if src != "" {
			return src
		}
	}
	return ""
}
