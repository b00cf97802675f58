package beancache

// defaultIgnoredTypes are library types that are never resolved as beans.
var defaultIgnoredTypes = []string{
	"java.lang.String",
	"java.lang.Byte",
	"java.lang.Character",
	"java.lang.Long",
	"java.lang.Short",
	"java.lang.Integer",
	"java.lang.Double",
	"java.lang.Float",
	"java.lang.Boolean",
	"java.lang.Number",
	"java.lang.Object",
	"java.lang.Class",
	"java.math.BigInteger",
	"java.math.BigDecimal",
	"java.util.Date",
	"java.util.Map",
	"java.util.HashMap",
	"java.util.List",
	"java.util.ArrayList",
	"java.util.Set",
	"java.util.HashSet",
	"java.util.Collection",
	"java.util.Iterator",
	"javax.xml.crypto.Data",
}

// primitives have no properties and no declaration to look up.
var primitives = []string{
	"boolean", "byte", "char", "short", "int", "long", "float", "double", "void",
}

// IgnoredTypes is a set of type names whose lookups short-circuit to no properties.
type IgnoredTypes map[string]struct{}

// DefaultIgnoredTypes returns the built-in set plus any extra names.
func DefaultIgnoredTypes(extra ...string) IgnoredTypes {
	set := make(IgnoredTypes, len(defaultIgnoredTypes)+len(primitives)+len(extra))
	for _, group := range [][]string{defaultIgnoredTypes, primitives, extra} {
		for _, name := range group {
			set[name] = struct{}{}
		}
	}
	return set
}

// Contains reports whether name is ignored.
func (s IgnoredTypes) Contains(name string) bool {
	_, ok := s[name]
	return ok
}
