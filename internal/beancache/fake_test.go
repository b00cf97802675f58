package beancache

import (
	"context"
	"sync"

	"github.com/DeusData/beanprops-mcp/internal/introspect"
)

// fakeIntrospector serves canned origins and counts lookups per name.
type fakeIntrospector struct {
	mu      sync.Mutex
	types   map[string]introspect.TypeOrigin
	errs    map[string]error
	lookups map[string]int
}

func newFake(origins ...introspect.TypeOrigin) *fakeIntrospector {
	f := &fakeIntrospector{
		types:   make(map[string]introspect.TypeOrigin),
		errs:    make(map[string]error),
		lookups: make(map[string]int),
	}
	for _, o := range origins {
		f.types[o.TypeName()] = o
	}
	return f
}

func (f *fakeIntrospector) FindType(_ context.Context, _, qn string) (introspect.TypeOrigin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups[qn]++
	if err := f.errs[qn]; err != nil {
		return nil, err
	}
	o, ok := f.types[qn]
	if !ok {
		return nil, introspect.ErrNotFound
	}
	return o, nil
}

func (f *fakeIntrospector) set(o introspect.TypeOrigin) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types[o.TypeName()] = o
}

func (f *fakeIntrospector) count(qn string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups[qn]
}

func getter(name, ret string) introspect.Method {
	return introspect.Method{Name: name, Return: ret, Public: true}
}

func setter(name, param string) introspect.Method {
	return introspect.Method{Name: name, Params: []string{param}, Return: introspect.Void, Public: true}
}

// shopTypes is a small domain: Order -> Customer -> Address, Order.items -> Item.
func shopTypes() []introspect.TypeOrigin {
	return []introspect.TypeOrigin{
		&introspect.Binary{
			Name: "shop.Order",
			Methods: []introspect.Method{
				getter("getCustomer", "shop.Customer"),
				getter("getItems", "java.util.List<shop.Item>"),
				setter("setCustomer", "shop.Customer"),
			},
		},
		&introspect.Binary{
			Name: "shop.Customer",
			Methods: []introspect.Method{
				getter("getName", "String"),
				getter("getNickname", "String"),
				getter("getAddress", "shop.Address"),
				setter("setName", "String"),
			},
		},
		&introspect.Binary{
			Name: "shop.Address",
			Fields: []introspect.Field{
				{Name: "city", Type: "String", Public: true},
				{Name: "zip", Type: "String"},
			},
		},
		&introspect.Binary{
			Name: "shop.Item",
			Methods: []introspect.Method{
				getter("getPrice", "java.math.BigDecimal"),
				getter("getProduct", "shop.Product"),
			},
		},
		&introspect.Binary{
			Name:    "shop.Product",
			Methods: []introspect.Method{getter("getSku", "String")},
		},
	}
}
