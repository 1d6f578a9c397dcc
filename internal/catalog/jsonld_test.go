package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStructuredDataProduct(t *testing.T) {
	doc := parseDoc(t, `<html><head>
	<script type="application/ld+json">{
		"@type": "Product",
		"name": "Stivaletto rosa da bambina",
		"description": "Stivaletto in pelle con chiusura a strappo",
		"sku": "STV-001",
		"brand": {"@type": "Brand", "name": "Primigi"},
		"category": "Calzature bambina",
		"image": ["/img/stivaletto.jpg", "/img/stivaletto-2.jpg"],
		"url": "/prodotti/stivaletto-rosa",
		"offers": {"@type": "Offer", "price": "45.90", "priceCurrency": "EUR", "availability": "https://schema.org/InStock"}
	}</script>
	</head><body></body></html>`)

	products := extractStructuredData(doc, testPage())
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "Stivaletto rosa da bambina", p.Name)
	assert.Equal(t, "STV-001", *p.SKU)
	assert.Equal(t, "Primigi", *p.Brand)
	assert.Equal(t, "Calzature bambina", *p.Category)
	assert.Equal(t, "https://shop.test/img/stivaletto.jpg", *p.ImageURL)
	assert.Equal(t, "https://shop.test/prodotti/stivaletto-rosa", *p.ProductURL)
	assert.Equal(t, "EUR 45.90", *p.Price)
	assert.InDelta(t, 45.90, *p.PriceValue, 0.001)
	assert.True(t, p.InStock)

	// Classification runs on name+description during extraction.
	require.NotNil(t, p.ProductType)
	assert.Equal(t, "stivale", *p.ProductType)
	require.NotNil(t, p.Color)
	assert.Equal(t, "rosa", *p.Color)
	require.NotNil(t, p.Gender)
	assert.Equal(t, "bambina", *p.Gender)
}

func TestExtractStructuredDataItemList(t *testing.T) {
	doc := parseDoc(t, `<html><head>
	<script type="application/ld+json">{
		"@type": "ItemList",
		"itemListElement": [
			{"@type": "ListItem", "position": 1, "item": {"@type": "Product", "name": "Sandalo blu", "url": "/p/sandalo-blu"}},
			{"@type": "ListItem", "position": 2, "item": {"@type": "Product", "name": "Mocassino nero", "url": "/p/mocassino-nero"}},
			{"@type": "ListItem", "position": 3, "item": {"@type": "WebPage", "name": "Tutte le offerte"}}
		]
	}</script>
	</head><body></body></html>`)

	products := extractStructuredData(doc, testPage())
	require.Len(t, products, 2)
	assert.Equal(t, "Sandalo blu", products[0].Name)
	assert.Equal(t, "Mocassino nero", products[1].Name)
}

func TestExtractStructuredDataSkipsMalformedBlocks(t *testing.T) {
	doc := parseDoc(t, `<html><head>
	<script type="application/ld+json">this is not json at all {{{</script>
	<script type="application/ld+json">{"@type": "Product", "name": "Maglione verde", "url": "/p/maglione"}</script>
	</head><body></body></html>`)

	products := extractStructuredData(doc, testPage())
	require.Len(t, products, 1)
	assert.Equal(t, "Maglione verde", products[0].Name)
}

func TestExtractStructuredDataRepairsTrailingComma(t *testing.T) {
	doc := parseDoc(t, `<html><head>
	<script type="application/ld+json">{"@type": "Product", "name": "Borsa beige", "url": "/p/borsa",}</script>
	</head><body></body></html>`)

	products := extractStructuredData(doc, testPage())
	require.Len(t, products, 1)
	assert.Equal(t, "Borsa beige", products[0].Name)
}

func TestExtractStructuredDataAvailability(t *testing.T) {
	tests := []struct {
		name         string
		availability string
		inStock      bool
	}{
		{name: "in stock URL", availability: "https://schema.org/InStock", inStock: true},
		{name: "out of stock URL", availability: "https://schema.org/OutOfStock", inStock: false},
		{name: "bare instock", availability: "InStock", inStock: true},
		{name: "missing defaults true", availability: "", inStock: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			offer := `"offers": {"price": "10", "priceCurrency": "EUR"`
			if tt.availability != "" {
				offer += `, "availability": "` + tt.availability + `"`
			}
			offer += `}`

			doc := parseDoc(t, `<html><head><script type="application/ld+json">{"@type": "Product", "name": "Articolo", `+offer+`}</script></head><body></body></html>`)

			products := extractStructuredData(doc, testPage())
			require.Len(t, products, 1)
			assert.Equal(t, tt.inStock, products[0].InStock)
		})
	}
}

func TestExtractStructuredDataFallsBackToPageURL(t *testing.T) {
	doc := parseDoc(t, `<html><head>
	<script type="application/ld+json">{"@type": "Product", "name": "Cintura in cuoio"}</script>
	</head><body></body></html>`)

	page := testPage()
	products := extractStructuredData(doc, page)
	require.Len(t, products, 1)
	assert.Equal(t, page.URL, *products[0].ProductURL)
}
