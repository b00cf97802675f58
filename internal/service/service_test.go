package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeusData/beanprops-mcp/internal/beancache"
	"github.com/DeusData/beanprops-mcp/internal/store"
	"github.com/DeusData/beanprops-mcp/internal/suggest"
)

var shopProject = map[string]string{
	".beanprops.yaml": `catalogs: [lib/catalog.yaml]
ignored_types: [lib.Money]
`,
	"lib/catalog.yaml": `types:
  - name: lib.Entity
    fields:
      - {name: id, type: long}
    methods:
      - {name: getId, return: long, public: true}
  - name: lib.Money
    methods:
      - {name: getAmount, return: java.math.BigDecimal, public: true}
`,
	"src/main/java/shop/Order.java": `package shop;

import java.util.List;
import lib.Entity;
import lib.Money;

public class Order extends Entity {
	private Customer customer;

	public Customer getCustomer() { return customer; }

	public void setCustomer(Customer customer) { this.customer = customer; }

	public List<Item> getItems() { return null; }

	public Money getPrice() { return null; }
}
`,
	"src/main/java/shop/Customer.java": `package shop;

public class Customer {
	public String name;
	private Address address;

	public Address getAddress() { return address; }
}
`,
	"src/main/java/shop/Address.java": `package shop;

public class Address {
	public String city;
	public final String zip = "";
}
`,
	"src/main/java/shop/Item.java": `package shop;

public class Item {
	public String sku;
}
`,
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	router, err := store.NewRouterWithDir(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(router.CloseAll)

	svc := New(router, WithWarmWorkers(2))
	root := writeProject(t, shopProject)
	_, err = svc.RegisterProject(context.Background(), "shop", root)
	require.NoError(t, err)
	return svc, root
}

func TestRegisterProject(t *testing.T) {
	svc, root := newTestService(t)

	projects := svc.Projects(context.Background())
	require.Len(t, projects, 1)
	p := projects[0]
	assert.Equal(t, "shop", p.Name)
	assert.Equal(t, root, p.RootPath)
	assert.Equal(t, []string{"src/main/java"}, p.SourceRoots)
	assert.Equal(t, 4, p.SourceTypes)
	assert.Equal(t, 2, p.CatalogTypes)
}

func TestRegisterProjectRejectsBadInput(t *testing.T) {
	router, err := store.NewRouterWithDir(t.TempDir())
	require.NoError(t, err)
	defer router.CloseAll()
	svc := New(router)
	ctx := context.Background()

	_, err = svc.RegisterProject(ctx, "shop", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = svc.RegisterProject(ctx, "shop", file)
	assert.Error(t, err)

	_, err = svc.RegisterProject(ctx, "a/b", t.TempDir())
	assert.True(t, errors.Is(err, store.ErrInvalidProjectName), "got %v", err)
	assert.Empty(t, svc.Projects(ctx))
}

func TestLookupPropertiesMergesSourceAndCatalog(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	info, err := svc.LookupProperties(ctx, "shop", "shop.Order")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, []string{"customer", "items", "price", "id"}, info.Readable().Names())
	assert.Equal(t, []string{"customer", "id"}, info.Writable().Names())

	typ, ok := info.Readable().Get("items")
	require.True(t, ok)
	assert.Equal(t, "java.util.List<shop.Item>", typ)
	typ, _ = info.Readable().Get("id")
	assert.Equal(t, "long", typ)

	assert.Equal(t, []string{"shop.Order"}, svc.Cache().Subclasses("shop", "lib.Entity"))
}

func TestLookupPropertiesProjectIgnoredTypes(t *testing.T) {
	svc, _ := newTestService(t)

	info, err := svc.LookupProperties(context.Background(), "shop", "lib.Money")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestUnknownProject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.LookupProperties(ctx, "nope", "shop.Order")
	assert.True(t, errors.Is(err, ErrUnknownProject), "got %v", err)
	_, err = svc.ResolvePath(ctx, "nope", "shop.Order", "customer", true, true)
	assert.True(t, errors.Is(err, ErrUnknownProject))
	_, err = svc.Suggest(ctx, "nope", "shop.Order", "", true)
	assert.True(t, errors.Is(err, ErrUnknownProject))
	_, err = svc.OnFilesChanged(ctx, "nope", []string{"a.java"})
	assert.True(t, errors.Is(err, ErrUnknownProject))
	_, err = svc.Warm(ctx, "nope")
	assert.True(t, errors.Is(err, ErrUnknownProject))
	assert.True(t, errors.Is(svc.CloseProject("nope"), ErrUnknownProject))
}

func TestResolvePathAndSuggest(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	fields, err := svc.ResolvePath(ctx, "shop", "shop.Order", "customer.address.city", true, true)
	require.NoError(t, err)
	assert.Equal(t, []beancache.Property{{Name: "city", Type: "java.lang.String"}}, fields.Entries())

	fields, err = svc.ResolvePath(ctx, "shop", "shop.Order", "customer.address.", false, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, fields.Names())

	proposals, err := svc.Suggest(ctx, "shop", "shop.Order", "customer.a", true)
	require.NoError(t, err)
	assert.Equal(t, []suggest.Proposal{{
		Replacement: "customer.address",
		Label:       "address - shop.Address",
		Field:       "address",
		Type:        "shop.Address",
		Relevance:   1,
	}}, proposals)
}

func TestOnFilesChangedReindexes(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	fields, err := svc.ResolvePath(ctx, "shop", "shop.Order", "customer.address.", true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "zip"}, fields.Names())

	rel := "src/main/java/shop/Address.java"
	require.NoError(t, os.WriteFile(filepath.Join(root, rel), []byte(`package shop;

public class Address {
	public String city;
	public String country;
}
`), 0o600))

	evicted, err := svc.OnFilesChanged(ctx, "shop", []string{rel})
	require.NoError(t, err)
	assert.Equal(t, []string{"shop.Address"}, evicted)

	fields, err = svc.ResolvePath(ctx, "shop", "shop.Order", "customer.address.", true, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"city", "country"}, fields.Names())
}

func TestOnFilesChangedRemovedFile(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	_, err := svc.LookupProperties(ctx, "shop", "shop.Item")
	require.NoError(t, err)

	rel := "src/main/java/shop/Item.java"
	require.NoError(t, os.Remove(filepath.Join(root, rel)))
	evicted, err := svc.OnFilesChanged(ctx, "shop", []string{rel})
	require.NoError(t, err)
	assert.Equal(t, []string{"shop.Item"}, evicted)

	info, err := svc.LookupProperties(ctx, "shop", "shop.Item")
	require.NoError(t, err)
	assert.True(t, info.IsEmpty())
}

func TestOnFilesChangedAfterLookupSawTheChange(t *testing.T) {
	svc, root := newTestService(t)
	ctx := context.Background()

	rel := "src/main/java/shop/Pair.java"
	path := filepath.Join(root, rel)
	require.NoError(t, os.WriteFile(path, []byte(`package shop;

public class Pair {
	public String left;
}

class Side {
	public String a;
}
`), 0o600))
	_, err := svc.OnFilesChanged(ctx, "shop", []string{rel})
	require.NoError(t, err)

	side, err := svc.LookupProperties(ctx, "shop", "shop.Side")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, side.Readable().Names())

	require.NoError(t, os.WriteFile(path, []byte(`package shop;

public class Pair {
	public String left;
}
`), 0o600))
	// The lookup re-reads the file before the watcher reports it.
	_, err = svc.LookupProperties(ctx, "shop", "shop.Pair")
	require.NoError(t, err)

	evicted, err := svc.OnFilesChanged(ctx, "shop", []string{rel})
	require.NoError(t, err)
	assert.Equal(t, []string{"shop.Pair", "shop.Side"}, evicted)

	side, err = svc.LookupProperties(ctx, "shop", "shop.Side")
	require.NoError(t, err)
	assert.True(t, side.IsEmpty())
}

func TestImportCatalogCascadesToSubclasses(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.LookupProperties(ctx, "shop", "shop.Order")
	require.NoError(t, err)
	_, ok := svc.Cache().Peek("shop", "shop.Order")
	require.True(t, ok)

	names, err := svc.ImportCatalog(ctx, "shop", strings.NewReader(`types:
  - name: lib.Entity
    methods:
      - {name: getId, return: long, public: true}
      - {name: getVersion, return: int, public: true}
`))
	require.NoError(t, err)
	assert.Equal(t, []string{"lib.Entity"}, names)

	_, ok = svc.Cache().Peek("shop", "shop.Order")
	assert.False(t, ok, "subclass should be evicted with its superclass")

	info, err := svc.LookupProperties(ctx, "shop", "shop.Order")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "items", "price", "id", "version"}, info.Readable().Names())
}

func TestImportCatalogRejectsMalformed(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ImportCatalog(context.Background(), "shop", strings.NewReader("types:\n  - superclass: x.Y\n"))
	assert.True(t, errors.Is(err, store.ErrCatalogFormat), "got %v", err)
}

func TestOnTypeChangedAndClear(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.LookupProperties(ctx, "shop", "shop.Order")
	require.NoError(t, err)

	evicted := svc.OnTypeChanged(ctx, "shop", "lib.Entity")
	assert.Equal(t, []string{"lib.Entity", "shop.Order"}, evicted)

	_, err = svc.LookupProperties(ctx, "shop", "shop.Customer")
	require.NoError(t, err)
	svc.OnCacheCleared()
	assert.Zero(t, svc.Cache().Stats("shop").Entries)
}

func TestWarm(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Warm(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	// lib.Money is ignored for this project and never cached.
	assert.Equal(t, 5, svc.Cache().Stats("shop").Entries)
}

func TestCloseProject(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.LookupProperties(ctx, "shop", "shop.Order")
	require.NoError(t, err)
	require.NoError(t, svc.CloseProject("shop"))

	assert.Empty(t, svc.Projects(ctx))
	assert.Zero(t, svc.Cache().Stats("shop").Entries)
	_, err = svc.LookupProperties(ctx, "shop", "shop.Order")
	assert.True(t, errors.Is(err, ErrUnknownProject))
}

func TestRestoreProjects(t *testing.T) {
	dir := t.TempDir()
	root := writeProject(t, shopProject)
	ctx := context.Background()

	router, err := store.NewRouterWithDir(dir)
	require.NoError(t, err)
	_, err = New(router).RegisterProject(ctx, "shop", root)
	require.NoError(t, err)
	router.CloseAll()

	router2, err := store.NewRouterWithDir(dir)
	require.NoError(t, err)
	defer router2.CloseAll()
	svc := New(router2)
	assert.Equal(t, []string{"shop"}, svc.RestoreProjects(ctx))

	info, err := svc.LookupProperties(ctx, "shop", "shop.Order")
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "id"}, info.Writable().Names())
}
