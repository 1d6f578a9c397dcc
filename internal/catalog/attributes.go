// Package catalog implements the product extraction and attribute-matching
// engine: page scanning with layered extraction strategies, semantic
// attribute classification, and the tiered query resolver used to ground the
// chat assistant in a tenant's catalog.
package catalog

import "strings"

// Attributes holds the semantic tags derived from free text. Each field is
// either one value from its vocabulary or nil. The three vocabularies are
// independent: text may match zero, one, or all of them.
type Attributes struct {
	ProductType *string
	Color       *string
	Gender      *string
}

// attributeEntry pairs a canonical label with the keyword variants that
// select it.
type attributeEntry struct {
	Label    string
	Keywords []string
}

// Vocabularies are scanned in declaration order and the first matching entry
// wins, so more specific entries must precede entries with generic keywords
// (e.g. "scarpa" catches almost any shoe mention and sits behind the boot,
// sandal and loafer entries).
var productTypeVocabulary = []attributeEntry{
	{"stivale", []string{"stival", "boot"}},
	{"sandalo", []string{"sandal"}},
	{"mocassino", []string{"mocassin", "loafer"}},
	{"ciabatta", []string{"ciabatt", "pantofol", "slipper"}},
	{"ballerina", []string{"ballerin"}},
	{"scarpa_sportiva", []string{"sneaker", "ginnastica", "running", "trainer", "scarpa", "scarpe", "shoe"}},
	{"maglione", []string{"maglion", "sweater", "pullover", "cardigan"}},
	{"maglietta", []string{"magliett", "t-shirt", "tshirt", "polo"}},
	{"camicia", []string{"camici", "shirt", "blusa"}},
	{"pantalone", []string{"pantalon", "jeans", "legging", "trouser"}},
	{"gonna", []string{"gonna", "gonne", "skirt"}},
	{"vestito", []string{"vestit", "abito", "dress"}},
	{"giacca", []string{"giacc", "giubbott", "cappott", "jacket", "coat"}},
	{"borsa", []string{"borsa", "borse", "zaino", "bag", "backpack"}},
	{"cappello", []string{"cappell", "berrett", "hat"}},
	{"cintura", []string{"cintur", "belt"}},
}

var colorVocabulary = []attributeEntry{
	{"rosa", []string{"rosa", "pink", "fucsia"}},
	{"rosso", []string{"rosso", "rossa", "rossi", "rosse", "red"}},
	{"blu", []string{"blu", "blue", "navy"}},
	{"azzurro", []string{"azzurr", "celeste"}},
	{"bianco", []string{"bianc", "white"}},
	{"nero", []string{"nero", "nera", "neri", "nere", "black"}},
	{"verde", []string{"verde", "verdi", "green"}},
	{"giallo", []string{"giall", "yellow"}},
	{"arancione", []string{"arancio", "orange"}},
	{"viola", []string{"viola", "purple", "lilla"}},
	{"marrone", []string{"marron", "brown", "cuoio"}},
	{"grigio", []string{"grigi", "grey", "gray"}},
	{"beige", []string{"beige", "panna", "crema"}},
	{"oro", []string{"dorat", "gold"}},
	{"argento", []string{"argent", "silver"}},
}

// Women's entries precede men's: "woman"/"women" contain "man"/"men" as
// substrings, so the order is load-bearing.
var genderVocabulary = []attributeEntry{
	{"bambina", []string{"bambina", "bambine", "girl"}},
	{"bambino", []string{"bambino", "bambini", "boy"}},
	{"donna", []string{"donna", "donne", "ragazza", "woman", "women", "femminile"}},
	{"uomo", []string{"uomo", "uomini", "ragazzo", "man", "men", "maschile"}},
	{"unisex", []string{"unisex"}},
}

// Classify derives semantic attributes from free text. It is a pure keyword
// heuristic: the input is lowercased and each vocabulary is scanned in order,
// stopping at the first entry with any keyword present as a substring.
// Ambiguous text simply yields the first lexical hit. Used identically on
// scraped name+description and on shopper query text.
func Classify(text string) Attributes {
	lower := strings.ToLower(text)
	return Attributes{
		ProductType: matchVocabulary(lower, productTypeVocabulary),
		Color:       matchVocabulary(lower, colorVocabulary),
		Gender:      matchVocabulary(lower, genderVocabulary),
	}
}

func matchVocabulary(lower string, vocab []attributeEntry) *string {
	for _, entry := range vocab {
		for _, keyword := range entry.Keywords {
			if strings.Contains(lower, keyword) {
				label := entry.Label
				return &label
			}
		}
	}
	return nil
}
