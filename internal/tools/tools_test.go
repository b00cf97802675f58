package tools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/beanprops-mcp/internal/service"
	"github.com/DeusData/beanprops-mcp/internal/store"
)

var fixture = map[string]string{
	"src/main/java/shop/Order.java": `package shop;

import java.util.List;

public class Order extends Base {
	private Customer customer;

	public Customer getCustomer() { return customer; }

	public void setCustomer(Customer customer) { this.customer = customer; }

	public List<Item> getItems() { return null; }
}
`,
	"src/main/java/shop/Base.java": `package shop;

public abstract class Base {
	public Long id;
}
`,
	"src/main/java/shop/Customer.java": `package shop;

public class Customer {
	public String name;
	public String nickname;
}
`,
	"src/main/java/shop/Item.java": `package shop;

public class Item {
	public int quantity;
}
`,
}

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	for rel, content := range fixture {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	router, err := store.NewRouterWithDir(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(router.CloseAll)
	return NewServer(service.New(router), "test"), root
}

func call(t *testing.T, handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) (string, bool) {
	t.Helper()
	raw, err := json.Marshal(args)
	require.NoError(t, err)
	res, err := handler(context.Background(), &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Arguments: raw},
	})
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text, res.IsError
}

func register(t *testing.T, s *Server, root string) {
	t.Helper()
	out, isErr := call(t, s.handleRegisterProject, map[string]any{"project": "shop", "root_path": root})
	require.False(t, isErr, out)
}

func TestRegisterAndListProjects(t *testing.T) {
	s, root := newTestServer(t)

	out, isErr := call(t, s.handleRegisterProject, map[string]any{"root_path": root})
	require.False(t, isErr, out)
	var info service.ProjectInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, filepath.Base(root), info.Name)
	assert.Equal(t, 4, info.SourceTypes)

	out, isErr = call(t, s.handleListProjects, nil)
	require.False(t, isErr)
	var projects []service.ProjectInfo
	require.NoError(t, json.Unmarshal([]byte(out), &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, root, projects[0].RootPath)
}

func TestRegisterRequiresRoot(t *testing.T) {
	s, _ := newTestServer(t)
	out, isErr := call(t, s.handleRegisterProject, map[string]any{})
	assert.True(t, isErr)
	assert.Contains(t, out, "root_path is required")
}

func TestLookupProperties(t *testing.T) {
	s, root := newTestServer(t)
	register(t, s, root)

	out, isErr := call(t, s.handleLookupProperties, map[string]any{"project": "shop", "type": "shop.Order"})
	require.False(t, isErr, out)

	var got struct {
		Ignored    bool `json:"ignored"`
		Properties struct {
			Type     string `json:"type"`
			Readable []struct {
				Name string `json:"name"`
				Type string `json:"type"`
			} `json:"readable"`
			Writable []struct {
				Name string `json:"name"`
			} `json:"writable"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Ignored)
	assert.Equal(t, "shop.Order", got.Properties.Type)
	require.Len(t, got.Properties.Readable, 3)
	assert.Equal(t, "customer", got.Properties.Readable[0].Name)
	assert.Equal(t, "items", got.Properties.Readable[1].Name)
	assert.Equal(t, "java.util.List<shop.Item>", got.Properties.Readable[1].Type)
	assert.Equal(t, "id", got.Properties.Readable[2].Name)
	require.Len(t, got.Properties.Writable, 2)
}

func TestLookupIgnoredType(t *testing.T) {
	s, root := newTestServer(t)
	register(t, s, root)

	out, isErr := call(t, s.handleLookupProperties, map[string]any{"project": "shop", "type": "java.lang.String"})
	require.False(t, isErr, out)
	assert.Contains(t, out, `"ignored": true`)
	assert.Contains(t, out, `"properties": null`)
}

func TestLookupUnknownProject(t *testing.T) {
	s, _ := newTestServer(t)
	out, isErr := call(t, s.handleLookupProperties, map[string]any{"project": "nope", "type": "shop.Order"})
	assert.True(t, isErr)
	assert.Contains(t, out, "register_project")
}

func TestLookupRequiresArgs(t *testing.T) {
	s, _ := newTestServer(t)
	out, isErr := call(t, s.handleLookupProperties, map[string]any{"project": "shop"})
	assert.True(t, isErr)
	assert.Equal(t, "type is required", out)
}

func TestResolvePath(t *testing.T) {
	s, root := newTestServer(t)
	register(t, s, root)

	out, isErr := call(t, s.handleResolvePath, map[string]any{
		"project": "shop", "type": "shop.Order", "path": "items[0].quantity",
	})
	require.False(t, isErr, out)
	var got struct {
		Matches []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"matches"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Matches, 1)
	assert.Equal(t, "quantity", got.Matches[0].Name)
	assert.Equal(t, "int", got.Matches[0].Type)

	out, isErr = call(t, s.handleResolvePath, map[string]any{
		"project": "shop", "type": "shop.Order", "path": "customer.na",
	})
	require.False(t, isErr, out)
	assert.Contains(t, out, `"matches": []`)

	_, isErr = call(t, s.handleResolvePath, map[string]any{"project": "shop", "type": "shop.Order"})
	assert.True(t, isErr)
}

func TestSuggestProperties(t *testing.T) {
	s, root := newTestServer(t)
	register(t, s, root)

	out, isErr := call(t, s.handleSuggestProperties, map[string]any{
		"project": "shop", "type": "shop.Order", "path": "customer.n",
	})
	require.False(t, isErr, out)
	var proposals []struct {
		Replacement string `json:"replacement"`
		Label       string `json:"label"`
		Relevance   int    `json:"relevance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &proposals))
	require.Len(t, proposals, 2)
	assert.Equal(t, "customer.name", proposals[0].Replacement)
	assert.Equal(t, "name - java.lang.String", proposals[0].Label)
	assert.Equal(t, 2, proposals[0].Relevance)
	assert.Equal(t, "customer.nickname", proposals[1].Replacement)

	out, isErr = call(t, s.handleSuggestProperties, map[string]any{
		"project": "shop", "type": "shop.Order", "path": "customer.n", "lsp": true,
	})
	require.False(t, isErr, out)
	var items []struct {
		Label      string `json:"label"`
		InsertText string `json:"insertText"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "customer.name", items[0].InsertText)
}

func TestInvalidateAndClearCache(t *testing.T) {
	s, root := newTestServer(t)
	register(t, s, root)

	_, isErr := call(t, s.handleLookupProperties, map[string]any{"project": "shop", "type": "shop.Order"})
	require.False(t, isErr)

	out, isErr := call(t, s.handleInvalidateType, map[string]any{"project": "shop", "type": "shop.Base"})
	require.False(t, isErr, out)
	var got struct {
		Evicted []string `json:"evicted"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"shop.Base", "shop.Order"}, got.Evicted)

	out, isErr = call(t, s.handleInvalidateType, map[string]any{"project": "shop", "type": "shop.Base"})
	require.False(t, isErr)
	assert.Contains(t, out, `"evicted": []`)

	_, isErr = call(t, s.handleWarmProject, map[string]any{"project": "shop"})
	require.False(t, isErr)
	out, isErr = call(t, s.handleClearCache, map[string]any{"project": "shop"})
	require.False(t, isErr)
	assert.Contains(t, out, `"cleared": "shop"`)
	assert.Zero(t, s.svc.Cache().Stats("shop").Entries)

	out, isErr = call(t, s.handleClearCache, nil)
	require.False(t, isErr)
	assert.Contains(t, out, `"cleared": "all"`)
}

func TestImportCatalog(t *testing.T) {
	s, root := newTestServer(t)
	register(t, s, root)

	out, isErr := call(t, s.handleImportCatalog, map[string]any{
		"project": "shop",
		"catalog": "types:\n  - name: lib.Money\n    fields:\n      - {name: amount, type: long, public: true}\n",
	})
	require.False(t, isErr, out)
	assert.Contains(t, out, "lib.Money")

	out, isErr = call(t, s.handleLookupProperties, map[string]any{"project": "shop", "type": "lib.Money"})
	require.False(t, isErr, out)
	assert.Contains(t, out, `"amount"`)

	catalogFile := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogFile, []byte("types:\n  - name: lib.Rate\n"), 0o600))
	out, isErr = call(t, s.handleImportCatalog, map[string]any{"project": "shop", "catalog_path": catalogFile})
	require.False(t, isErr, out)
	assert.Contains(t, out, "lib.Rate")

	out, isErr = call(t, s.handleImportCatalog, map[string]any{"project": "shop", "catalog": "types: [\n"})
	assert.True(t, isErr)
	assert.Contains(t, out, "invalid catalog")

	_, isErr = call(t, s.handleImportCatalog, map[string]any{"project": "shop"})
	assert.True(t, isErr)
}

func TestWarmAndCloseProject(t *testing.T) {
	s, root := newTestServer(t)
	register(t, s, root)

	out, isErr := call(t, s.handleWarmProject, map[string]any{"project": "shop"})
	require.False(t, isErr, out)
	assert.Contains(t, out, `"resolved": 4`)

	out, isErr = call(t, s.handleCloseProject, map[string]any{"project": "shop"})
	require.False(t, isErr, out)
	assert.Contains(t, out, `"closed": "shop"`)

	out, isErr = call(t, s.handleCloseProject, map[string]any{"project": "shop"})
	assert.True(t, isErr)
	assert.Contains(t, out, "unknown project")
}

func TestParseArgsInvalidJSON(t *testing.T) {
	_, err := parseArgs(&mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(`{`)}})
	assert.Error(t, err)
}
