package chat

import (
	"strings"

	"github.com/MarcoRipari/SalesGenius/internal/storage"
)

// buildSystemPrompt assembles the grounding prompt for one reply: the shop
// persona, the knowledge excerpts, and the catalog products matched against
// the visitor's message. The no-invention rule is spelled out because an
// empty product section means the catalog genuinely has no match, and the
// assistant must say so instead of improvising.
func buildSystemPrompt(companyName, botName, knowledgeText string, products []*storage.Product) string {
	var b strings.Builder

	b.WriteString("Sei " + botName + ", l'assistente alle vendite del negozio " + companyName + ". ")
	b.WriteString("Rispondi sempre in italiano, con tono cordiale e professionale. ")
	b.WriteString("Rispondi solo a domande sul negozio e sui suoi prodotti.\n\n")

	if knowledgeText != "" {
		b.WriteString("INFORMAZIONI SUL NEGOZIO:\n")
		b.WriteString(knowledgeText)
		b.WriteString("\n\n")
	}

	if len(products) > 0 {
		b.WriteString("PRODOTTI PERTINENTI ALLA RICHIESTA:\n")
		for _, p := range products {
			b.WriteString(formatProduct(p))
		}
		b.WriteString("\nQuando suggerisci un prodotto, cita nome e prezzo e includi il link se disponibile.\n")
	} else {
		b.WriteString("Nessun prodotto del catalogo corrisponde alla richiesta. ")
		b.WriteString("Se il cliente cerca un prodotto, comunica che al momento non è disponibile: ")
		b.WriteString("non inventare mai prodotti, prezzi o disponibilità.\n")
	}

	return b.String()
}

func formatProduct(p *storage.Product) string {
	var b strings.Builder

	b.WriteString("- " + p.Name)
	if p.Price != nil {
		b.WriteString(" | " + *p.Price)
	}
	if !p.InStock {
		b.WriteString(" | non disponibile")
	}
	if p.ProductURL != nil {
		b.WriteString(" | " + *p.ProductURL)
	}
	if p.Description != nil && *p.Description != "" {
		b.WriteString("\n  " + *p.Description)
	}
	b.WriteString("\n")
	return b.String()
}
