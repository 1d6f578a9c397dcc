package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractSingleProduct(t *testing.T) {
	doc := parseDoc(t, `<html>
	<head><title>Stivaletto rosa | Calzature Rossi</title></head>
	<body>
		<h1>Stivaletto rosa da bambina</h1>
		<div class="woocommerce-product-gallery"><img src="/img/stivaletto.jpg"></div>
		<p class="price">€ 45,90</p>
		<div class="product-description">Stivaletto in pelle con suola antiscivolo.</div>
	</body></html>`)

	page := testPage()
	products := extractSingleProduct(doc, page)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "Stivaletto rosa da bambina", p.Name)
	assert.Equal(t, page.URL, *p.ProductURL)
	assert.Equal(t, "https://shop.test/img/stivaletto.jpg", *p.ImageURL)
	assert.Equal(t, "€ 45,90", *p.Price)
	assert.InDelta(t, 45.90, *p.PriceValue, 0.001)
	assert.Equal(t, "Stivaletto in pelle con suola antiscivolo.", *p.Description)
	assert.True(t, p.InStock)
}

func TestExtractSingleProductNameFromTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "pipe separator", title: "Mocassino blu | Calzature Rossi", want: "Mocassino blu"},
		{name: "dash separator", title: "Mocassino blu - Calzature Rossi", want: "Mocassino blu"},
		{name: "no separator", title: "Mocassino blu", want: "Mocassino blu"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseDoc(t, `<html><head><title>`+tt.title+`</title></head><body></body></html>`)

			products := extractSingleProduct(doc, testPage())
			require.Len(t, products, 1)
			assert.Equal(t, tt.want, products[0].Name)
		})
	}
}

func TestExtractSingleProductNoName(t *testing.T) {
	doc := parseDoc(t, `<html><head></head><body><p>pagina vuota</p></body></html>`)
	assert.Empty(t, extractSingleProduct(doc, testPage()))
}

func TestExtractSingleProductTruncatesDescription(t *testing.T) {
	long := strings.Repeat("a", 900)
	doc := parseDoc(t, `<html><body><h1>Maglione oversize</h1><div class="description">`+long+`</div></body></html>`)

	products := extractSingleProduct(doc, testPage())
	require.Len(t, products, 1)
	assert.Len(t, *products[0].Description, maxDescriptionChars)
}
