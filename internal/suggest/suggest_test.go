package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/protocol"

	"github.com/DeusData/beanprops-mcp/internal/beancache"
)

func fields() *beancache.PropertyMap {
	return beancache.NewPropertyMap(
		beancache.Property{Name: "name", Type: "String"},
		beancache.Property{Name: "nickname", Type: "String"},
		beancache.Property{Name: "address", Type: "shop.Address"},
	)
}

func TestBuild(t *testing.T) {
	got := Build(fields(), "order.customer.n")
	require.Len(t, got, 3)
	assert.Equal(t, Proposal{
		Replacement: "order.customer.name",
		Label:       "name - String",
		Field:       "name",
		Type:        "String",
		Relevance:   3,
	}, got[0])
	assert.Equal(t, "order.customer.address", got[2].Replacement)
	assert.Equal(t, 1, got[2].Relevance)
}

func TestBuildWithoutQualifier(t *testing.T) {
	got := Build(fields(), "na")
	require.Len(t, got, 3)
	assert.Equal(t, "name", got[0].Replacement)
	assert.Equal(t, "address - shop.Address", got[2].Label)

	assert.Empty(t, Build(nil, "x"))
}

func TestCompletionItems(t *testing.T) {
	rng := protocol.Range{
		Start: protocol.Position{Line: 3, Character: 10},
		End:   protocol.Position{Line: 3, Character: 26},
	}
	items := CompletionItems(Build(fields(), "customer."), &rng)
	require.Len(t, items, 3)

	first := items[0]
	assert.Equal(t, "name - String", first.Label)
	assert.Equal(t, protocol.CompletionItemKindProperty, first.Kind)
	assert.Equal(t, "customer.name", first.InsertText)
	assert.Equal(t, "00000", first.SortText)
	assert.True(t, first.Preselect)
	require.NotNil(t, first.TextEdit)
	assert.Equal(t, rng, first.TextEdit.Range)
	assert.Less(t, items[1].SortText, items[2].SortText)

	assert.Nil(t, CompletionItems(Build(fields(), ""), nil)[0].TextEdit)
}
