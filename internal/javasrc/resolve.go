package javasrc

import (
	"strings"

	"github.com/DeusData/beanprops-mcp/internal/fqn"
	"github.com/DeusData/beanprops-mcp/internal/lang"
)

var primitiveTypes = map[string]bool{
	"boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "void": true,
}

// implicitPackage is imported into every compilation unit.
var implicitPackage = lang.ForLanguage(lang.Java).ImplicitPackages[0]

// javaLangTypes are the implicitPackage names visible without an import.
var javaLangTypes = map[string]bool{
	"Boolean": true, "Byte": true, "Character": true, "CharSequence": true,
	"Class": true, "Comparable": true, "Double": true, "Enum": true,
	"Error": true, "Exception": true, "Float": true, "Integer": true,
	"Iterable": true, "Long": true, "Number": true, "Object": true,
	"Record": true, "Runnable": true, "RuntimeException": true, "Short": true,
	"String": true, "StringBuilder": true, "Thread": true, "Throwable": true,
	"Void": true,
}

// knownTypes reports whether a qualified name is declared somewhere in the project.
type knownTypes func(qn string) bool

// scope resolves type spellings as seen from inside one declaration.
type scope struct {
	unit       *unit
	decl       *typeDecl
	typeParams map[string]bool
	known      knownTypes
}

func newScope(u *unit, td *typeDecl, known knownTypes, extraParams ...string) *scope {
	s := &scope{unit: u, decl: td, known: known, typeParams: make(map[string]bool)}
	for d := td; d != nil; d = d.outer {
		for _, p := range d.typeParams {
			s.typeParams[p] = true
		}
	}
	for _, p := range extraParams {
		s.typeParams[p] = true
	}
	return s
}

// qualify rewrites a type spelling with every simple name replaced by its
// qualified name. Unresolvable names are kept as written.
func (s *scope) qualify(spelling string) string {
	t := stripAnnotations(spelling)
	switch {
	case t == "":
		return ""
	case strings.HasSuffix(t, "[]"):
		return s.qualify(strings.TrimSuffix(t, "[]")) + "[]"
	case strings.HasSuffix(t, "..."):
		return s.qualify(strings.TrimSuffix(t, "...")) + "[]"
	case t == "?":
		return t
	case strings.HasPrefix(t, "? extends "):
		return "? extends " + s.qualify(t[len("? extends "):])
	case strings.HasPrefix(t, "? super "):
		return "? super " + s.qualify(t[len("? super "):])
	}

	if open := strings.IndexByte(t, '<'); open >= 0 {
		args := fqn.TypeArgs(t)
		qualified := make([]string, 0, len(args))
		for _, a := range args {
			qualified = append(qualified, s.qualify(a))
		}
		return s.qualifyName(strings.TrimSpace(t[:open])) + "<" + strings.Join(qualified, ", ") + ">"
	}
	return s.qualifyName(t)
}

// qualifyName resolves a possibly dotted, non-generic name.
func (s *scope) qualifyName(name string) string {
	if primitiveTypes[name] || s.typeParams[name] {
		return name
	}
	head, rest, dotted := strings.Cut(name, ".")
	resolved, ok := s.lookupSimple(head)
	if !ok {
		return name
	}
	if dotted {
		return resolved + "." + rest
	}
	return resolved
}

func (s *scope) lookupSimple(simple string) (string, bool) {
	for d := s.decl; d != nil; d = d.outer {
		if d.simple == simple {
			return d.qn, true
		}
		if qn, ok := d.nested[simple]; ok {
			return qn, true
		}
	}
	if qn, ok := s.unit.imports[simple]; ok {
		return qn, true
	}
	if s.known != nil {
		if qn := fqn.Join(s.unit.pkg, simple); s.known(qn) {
			return qn, true
		}
		for _, w := range s.unit.wildcards {
			if qn := w + "." + simple; s.known(qn) {
				return qn, true
			}
		}
	}
	if javaLangTypes[simple] {
		return implicitPackage + "." + simple, true
	}
	return "", false
}

// stripAnnotations removes type-use annotations ("@NonNull String") and
// collapses whitespace.
func stripAnnotations(t string) string {
	fields := strings.Fields(t)
	kept := fields[:0]
	for _, f := range fields {
		if strings.HasPrefix(f, "@") {
			continue
		}
		kept = append(kept, f)
	}
	out := strings.Join(kept, " ")
	out = strings.ReplaceAll(out, " [", "[")
	out = strings.ReplaceAll(out, "[ ]", "[]")
	out = strings.ReplaceAll(out, " <", "<")
	out = strings.ReplaceAll(out, "< ", "<")
	out = strings.ReplaceAll(out, " >", ">")
	return out
}
