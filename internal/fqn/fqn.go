package fqn

import (
	"path/filepath"
	"strings"

	"github.com/DeusData/beanprops-mcp/internal/lang"
)

// Normalize returns the cache key form of a qualified type name.
// Source-file names arrive with the language's source suffix ("com.x.Order.java"),
// which is stripped. Binary nested names ("com.x.Order$Line") become "."-joined.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if spec := lang.ForLanguage(lang.Java); spec != nil {
		name = strings.TrimSuffix(name, spec.SourceSuffix)
	}
	return strings.ReplaceAll(name, "$", ".")
}

// FromSourcePath returns the qualified name implied by a path relative to a source root.
// Examples:
//   - com/example/Order.java -> com.example.Order
//   - Order.java             -> Order
func FromSourcePath(relPath string) string {
	relPath = strings.TrimSuffix(relPath, filepath.Ext(relPath))
	parts := strings.Split(filepath.ToSlash(relPath), "/")
	return Join(parts...)
}

// Join joins non-empty name components with dots.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" && p != "." {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// IsNestedOf reports whether qn names a type nested (at any depth) inside parent.
func IsNestedOf(qn, parent string) bool {
	return len(qn) > len(parent)+1 && strings.HasPrefix(qn, parent) && qn[len(parent)] == '.'
}

// Simple returns the last component of a qualified name, ignoring type arguments.
func Simple(qn string) string {
	qn = Erasure(qn)
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[i+1:]
	}
	return qn
}

// Qualifier returns everything before the last component ("" for simple names).
func Qualifier(qn string) string {
	qn = Erasure(qn)
	if i := strings.LastIndexByte(qn, '.'); i >= 0 {
		return qn[:i]
	}
	return ""
}

// Erasure strips generic type arguments from a type signature.
// Array suffixes are kept: "List<Item>[]" -> "List[]".
func Erasure(sig string) string {
	sig = strings.TrimSpace(sig)
	if !strings.Contains(sig, "<") {
		return sig
	}
	var b strings.Builder
	depth := 0
	for _, r := range sig {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// TypeArgs returns the top-level generic arguments of a signature.
// "Map<String, List<Item>>" -> ["String", "List<Item>"].
func TypeArgs(sig string) []string {
	open := strings.IndexByte(sig, '<')
	if open < 0 {
		return nil
	}
	var (
		args  []string
		depth int
		start = open + 1
	)
	for i := open + 1; i < len(sig); i++ {
		switch sig[i] {
		case '<':
			depth++
		case '>':
			if depth == 0 {
				if arg := strings.TrimSpace(sig[start:i]); arg != "" {
					args = append(args, arg)
				}
				return args
			}
			depth--
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(sig[start:i]))
				start = i + 1
			}
		}
	}
	return args
}

// ElementType returns the type reached by indexing into a value of type sig.
// Arrays lose one dimension; generic containers yield their last type argument
// (the element of a List, the value of a Map). Anything else is returned erased.
func ElementType(sig string) string {
	sig = strings.TrimSpace(sig)
	if strings.HasSuffix(sig, "[]") {
		return strings.TrimSpace(strings.TrimSuffix(sig, "[]"))
	}
	if args := TypeArgs(sig); len(args) > 0 {
		return Erasure(unbound(args[len(args)-1]))
	}
	return Erasure(sig)
}

// unbound reduces a wildcard argument to its bound: "? extends Item" -> "Item".
func unbound(arg string) string {
	arg = strings.TrimSpace(arg)
	for _, prefix := range []string{"? extends ", "? super "} {
		if strings.HasPrefix(arg, prefix) {
			return strings.TrimSpace(arg[len(prefix):])
		}
	}
	if arg == "?" {
		return "java.lang.Object"
	}
	return arg
}
