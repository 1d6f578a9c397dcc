package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kaptinlin/jsonrepair"

	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// extractStructuredData walks every JSON-LD script block in the document and
// collects product records from Product and ItemList payloads. Malformed
// blocks are repaired when possible and skipped otherwise; a single bad block
// never aborts its siblings.
func extractStructuredData(doc *goquery.Document, page pageContext) []*storage.Product {
	var products []*storage.Product

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		payload, err := decodeLinkedData(sel.Text())
		if err != nil {
			return
		}
		for _, node := range productNodes(payload) {
			if p := buildStructuredProduct(node, page); p != nil {
				products = append(products, p)
			}
		}
	})

	return products
}

// decodeLinkedData parses a JSON-LD payload, falling back to jsonrepair for
// the truncated or comment-ridden blocks some storefronts emit.
func decodeLinkedData(raw string) (any, error) {
	raw = strings.TrimSpace(raw)

	var payload any
	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return payload, nil
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// productNodes flattens a decoded payload into the Product objects it
// contains, descending into top-level lists, @graph containers, and ItemList
// entries (whose elements may nest the product under an "item" key).
func productNodes(payload any) []map[string]any {
	var nodes []map[string]any

	switch value := payload.(type) {
	case []any:
		for _, element := range value {
			nodes = append(nodes, productNodes(element)...)
		}
	case map[string]any:
		switch nodeType(value) {
		case "product":
			nodes = append(nodes, value)
		case "itemlist":
			entries, _ := value["itemListElement"].([]any)
			for _, entry := range entries {
				item, ok := entry.(map[string]any)
				if !ok {
					continue
				}
				if nested, ok := item["item"].(map[string]any); ok {
					item = nested
				}
				if nodeType(item) == "product" {
					nodes = append(nodes, item)
				}
			}
		default:
			if graph, ok := value["@graph"].([]any); ok {
				for _, element := range graph {
					nodes = append(nodes, productNodes(element)...)
				}
			}
		}
	}

	return nodes
}

// nodeType lowercases the @type field, which may be a string or a list.
func nodeType(node map[string]any) string {
	switch t := node["@type"].(type) {
	case string:
		return strings.ToLower(t)
	case []any:
		for _, element := range t {
			if s, ok := element.(string); ok {
				return strings.ToLower(s)
			}
		}
	}
	return ""
}

func buildStructuredProduct(node map[string]any, page pageContext) *storage.Product {
	name := strings.TrimSpace(stringValue(node["name"]))
	if name == "" {
		return nil
	}

	productURL := strings.TrimSpace(stringValue(node["url"]))
	if productURL == "" {
		productURL = page.URL
	}

	record := page.newProduct(name, stringValue(node["description"]))
	record.ProductURL = optional(ResolveURL(productURL, page.Origin))
	record.ImageURL = optional(ResolveURL(imageValue(node["image"]), page.Origin))
	record.Category = optional(stringValue(node["category"]))
	record.Brand = optional(brandValue(node["brand"]))
	record.SKU = optional(stringValue(node["sku"]))

	if offer := firstOffer(node["offers"]); offer != nil {
		price := stringValue(offer["price"])
		currency := stringValue(offer["priceCurrency"])
		if price != "" {
			display := strings.TrimSpace(currency + " " + price)
			record.Price = &display
			if value, err := strconv.ParseFloat(price, 64); err == nil {
				record.PriceValue = &value
			}
		}
		if availability := stringValue(offer["availability"]); availability != "" {
			record.InStock = strings.Contains(strings.ToLower(availability), "instock")
		}
	}

	return record
}

// firstOffer unwraps the offers field, which schema.org allows as either an
// object or a list.
func firstOffer(offers any) map[string]any {
	switch value := offers.(type) {
	case map[string]any:
		return value
	case []any:
		for _, element := range value {
			if offer, ok := element.(map[string]any); ok {
				return offer
			}
		}
	}
	return nil
}

// stringValue renders scalar JSON values as strings; numbers keep their
// shortest decimal form so "45.9" round-trips through strconv.
func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []any:
		for _, element := range v {
			if s, ok := element.(string); ok {
				return s
			}
		}
	}
	return ""
}

// imageValue handles the three shapes schema.org permits for image fields:
// a plain URL, a list of URLs, or an ImageObject with a url key.
func imageValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []any:
		for _, element := range v {
			if s := imageValue(element); s != "" {
				return s
			}
		}
	case map[string]any:
		return stringValue(v["url"])
	}
	return ""
}

func brandValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		return stringValue(v["name"])
	}
	return ""
}
