// Package suggest turns resolved property maps into ranked completion proposals.
package suggest

import (
	"fmt"
	"strings"

	"go.lsp.dev/protocol"

	"github.com/DeusData/beanprops-mcp/internal/beancache"
)

// Proposal is one completion candidate for a property path.
type Proposal struct {
	// Replacement is the full path text that replaces the user's input.
	Replacement string `json:"replacement"`
	// Label is "<field> - <type>".
	Label     string `json:"label"`
	Field     string `json:"field"`
	Type      string `json:"type"`
	Relevance int    `json:"relevance"`
}

// Build creates proposals for fields in map order. The part of input before
// its last '.' is kept as the qualifier of every replacement; the first entry
// gets the highest relevance.
func Build(fields *beancache.PropertyMap, input string) []Proposal {
	prefix := ""
	if lastDot := strings.LastIndexByte(input, '.'); lastDot > -1 {
		prefix = input[:lastDot+1]
	}
	relevance := fields.Len()
	out := make([]Proposal, 0, relevance)
	for name, typ := range fields.All() {
		out = append(out, Proposal{
			Replacement: prefix + name,
			Label:       name + " - " + typ,
			Field:       name,
			Type:        typ,
			Relevance:   relevance,
		})
		relevance--
	}
	return out
}

// CompletionItems renders proposals as LSP completion items. When replace is
// non-nil every item carries a text edit over that range.
func CompletionItems(proposals []Proposal, replace *protocol.Range) []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(proposals))
	for i, p := range proposals {
		item := protocol.CompletionItem{
			Label:            p.Label,
			Kind:             protocol.CompletionItemKindProperty,
			Detail:           p.Type,
			FilterText:       p.Replacement,
			InsertText:       p.Replacement,
			InsertTextFormat: protocol.InsertTextFormatPlainText,
			SortText:         fmt.Sprintf("%05d", i),
			Preselect:        i == 0,
		}
		if replace != nil {
			item.TextEdit = &protocol.TextEdit{Range: *replace, NewText: p.Replacement}
		}
		items = append(items, item)
	}
	return items
}
