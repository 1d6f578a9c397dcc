package catalog

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// selectorGroup describes one storefront template family: a container
// selector for product cards plus ordered candidate selectors per field.
// Groups are tried in declaration order, platform-specific templates first,
// generic class-name heuristics last.
type selectorGroup struct {
	Name      string
	Container string
	NameSel   []string
	PriceSel  []string
	ImageSel  []string
	LinkSel   []string
}

var selectorGroups = []selectorGroup{
	{
		Name:      "woocommerce",
		Container: "ul.products li.product",
		NameSel:   []string{".woocommerce-loop-product__title", "h2", "h3"},
		PriceSel:  []string{".price .amount", ".price", ".amount"},
		ImageSel:  []string{"img"},
		LinkSel:   []string{"a.woocommerce-LoopProduct-link", "a[href]"},
	},
	{
		Name:      "shopify",
		Container: ".product-card, .card--product, .grid__item .card, .product-item",
		NameSel:   []string{".card__heading", ".product-card__title", ".product-item__title", "h3", "h2", ".full-unstyled-link"},
		PriceSel:  []string{".price-item", ".price", ".money", ".product-card__price"},
		ImageSel:  []string{"img"},
		LinkSel:   []string{"a[href]"},
	},
	{
		Name:      "prestashop",
		Container: ".product-miniature, .js-product-miniature",
		NameSel:   []string{".product-title", "h3", "h2"},
		PriceSel:  []string{".price", ".product-price-and-shipping .price"},
		ImageSel:  []string{"img"},
		LinkSel:   []string{".product-title a", "a[href]"},
	},
	{
		Name:      "generic-product-class",
		Container: ".product, [class*='product-item'], [class*='product-card'], [class*='productCard']",
		NameSel:   []string{"h2", "h3", "h4", ".title", ".name", "[class*='title']", "[class*='name']"},
		PriceSel:  []string{".price", "[class*='price']", ".amount"},
		ImageSel:  []string{"img"},
		LinkSel:   []string{"a[href]"},
	},
	{
		Name:      "generic-article",
		Container: "article, .item, .card",
		NameSel:   []string{"h2", "h3", "h4", ".title", "[class*='title']"},
		PriceSel:  []string{".price", "[class*='price']"},
		ImageSel:  []string{"img"},
		LinkSel:   []string{"a[href]"},
	},
}

const defaultMaxElementsPerGroup = 50

// extractTemplates tries each selector group in order against the document.
// The earliest group that yields at least one accepted record wins; results
// are never merged across template families. maxPerGroup bounds how many
// container elements a single group may inspect.
func extractTemplates(doc *goquery.Document, page pageContext, maxPerGroup int) []*storage.Product {
	if maxPerGroup <= 0 {
		maxPerGroup = defaultMaxElementsPerGroup
	}

	var products []*storage.Product

	for _, group := range selectorGroups {
		if len(products) >= 3 {
			break
		}

		accepted := 0
		doc.Find(group.Container).EachWithBreak(func(i int, sel *goquery.Selection) bool {
			if i >= maxPerGroup {
				return false
			}
			if p := extractCard(sel, group, page); p != nil {
				products = append(products, p)
				accepted++
			}
			return true
		})

		if accepted > 0 {
			break
		}
	}

	return products
}

// extractCard pulls one product record out of a card element, or nil when
// the element fails the acceptance rules (name longer than 2 characters and
// a link distinct from the page being scanned).
func extractCard(sel *goquery.Selection, group selectorGroup, page pageContext) *storage.Product {
	name := firstText(sel, group.NameSel)
	if len(name) <= 2 {
		return nil
	}

	link := firstLink(sel, group.LinkSel)
	productURL := ResolveURL(link, page.Origin)
	if link == "" || productURL == page.URL {
		return nil
	}

	record := page.newProduct(name, "")
	record.ProductURL = &productURL
	record.ImageURL = optional(ResolveURL(firstImage(sel, group.ImageSel), page.Origin))

	if priceText := firstText(sel, group.PriceSel); priceText != "" {
		record.Price = &priceText
		record.PriceValue = ParsePrice(priceText)
	}

	return record
}

// firstText returns the trimmed text of the first candidate selector that
// matches a non-empty element.
func firstText(sel *goquery.Selection, candidates []string) string {
	for _, candidate := range candidates {
		if text := strings.TrimSpace(sel.Find(candidate).First().Text()); text != "" {
			return strings.Join(strings.Fields(text), " ")
		}
	}
	return ""
}

// firstImage returns the first usable image source, checking lazy-load
// attributes before src and skipping placeholder assets.
func firstImage(sel *goquery.Selection, candidates []string) string {
	for _, candidate := range candidates {
		found := ""
		sel.Find(candidate).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			for _, attr := range []string{"data-src", "data-lazy-src", "data-original", "src"} {
				src, ok := img.Attr(attr)
				if !ok {
					continue
				}
				src = strings.TrimSpace(src)
				lower := strings.ToLower(src)
				if src == "" || strings.Contains(lower, "placeholder") || strings.Contains(lower, "loading") {
					continue
				}
				found = src
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// firstLink returns the first navigable href, skipping anchors and
// javascript pseudo-links.
func firstLink(sel *goquery.Selection, candidates []string) string {
	for _, candidate := range candidates {
		found := ""
		sel.Find(candidate).EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, ok := a.Attr("href")
			if !ok {
				return true
			}
			href = strings.TrimSpace(href)
			if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
				return true
			}
			found = href
			return false
		})
		if found != "" {
			return found
		}
	}
	return ""
}
