package javasrc

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"go.trai.ch/zerr"

	"github.com/DeusData/beanprops-mcp/internal/lang"
	"github.com/DeusData/beanprops-mcp/internal/parser"
)

// unit is the declaration summary of one compilation unit. It holds raw type
// spellings; they are qualified against the index when a type is requested.
type unit struct {
	pkg       string
	imports   map[string]string // simple name -> qualified name
	wildcards []string          // on-demand imported packages
	types     []*typeDecl       // top-level and nested, in source order
}

type typeDecl struct {
	qn         string
	simple     string
	kind       string
	iface      bool
	outer      *typeDecl
	superclass string // raw spelling, "" when none
	typeParams []string
	fields     []rawField
	methods    []rawMethod
	nested     map[string]string // simple name -> qualified name of direct member types
}

type rawField struct {
	name   string
	typ    string
	public bool
	final  bool
}

type rawMethod struct {
	name       string
	params     []string
	ret        string
	public     bool
	typeParams []string
}

// parseUnit extracts package, imports, and every type declaration of a file.
func parseUnit(source []byte) (*unit, error) {
	tree, err := parser.Parse(lang.Java, source)
	if err != nil {
		return nil, zerr.Wrap(err, "parse java source")
	}
	defer tree.Close()

	spec := lang.ForLanguage(lang.Java)
	u := &unit{imports: make(map[string]string)}
	root := tree.RootNode()

	for _, child := range parser.NamedChildren(root) {
		switch kind := child.Kind(); {
		case kind == spec.PackageNodeType:
			u.pkg = packageName(child, source)
		case kind == spec.ImportNodeType:
			u.addImport(child, source)
		case spec.IsTypeNode(kind):
			u.collectType(spec, child, source, nil)
		}
	}
	return u, nil
}

func packageName(node *tree_sitter.Node, source []byte) string {
	for _, c := range parser.NamedChildren(node) {
		if c.Kind() == "scoped_identifier" || c.Kind() == "identifier" {
			return parser.NodeText(c, source)
		}
	}
	return ""
}

func (u *unit) addImport(node *tree_sitter.Node, source []byte) {
	if parser.FindChildByKind(node, "static") != nil {
		return
	}
	var name string
	for _, c := range parser.NamedChildren(node) {
		if c.Kind() == "scoped_identifier" || c.Kind() == "identifier" {
			name = parser.NodeText(c, source)
		}
	}
	if name == "" {
		return
	}
	if parser.FindChildByKind(node, "asterisk") != nil {
		u.wildcards = append(u.wildcards, name)
		return
	}
	simple := name
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		simple = name[i+1:]
	}
	u.imports[simple] = name
}

func (u *unit) collectType(spec *lang.LanguageSpec, node *tree_sitter.Node, source []byte, outer *typeDecl) {
	simple := parser.FieldText(node, "name", source)
	if simple == "" {
		return
	}
	td := &typeDecl{
		simple: simple,
		kind:   node.Kind(),
		iface:  spec.IsInterfaceNode(node.Kind()),
		outer:  outer,
		nested: make(map[string]string),
	}
	switch {
	case outer != nil:
		td.qn = outer.qn + "." + simple
		outer.nested[simple] = td.qn
	case u.pkg != "":
		td.qn = u.pkg + "." + simple
	default:
		td.qn = simple
	}
	if super := node.ChildByFieldName("superclass"); super != nil {
		if named := parser.NamedChildren(super); len(named) > 0 {
			td.superclass = parser.NodeText(named[0], source)
		}
	}
	td.typeParams = typeParameters(node, source)
	u.types = append(u.types, td)

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	members := parser.NamedChildren(body)
	if decls := parser.FindChildByKind(body, "enum_body_declarations"); decls != nil {
		members = append(members, parser.NamedChildren(decls)...)
	}
	for _, m := range members {
		switch kind := m.Kind(); {
		case contains(spec.FieldNodeTypes, kind) || (td.iface && kind == "constant_declaration"):
			td.fields = append(td.fields, fieldDecls(m, source, td.iface)...)
		case contains(spec.MethodNodeTypes, kind):
			td.methods = append(td.methods, methodDecl(m, source, td.iface))
		case spec.IsTypeNode(kind):
			u.collectType(spec, m, source, td)
		}
	}
}

func fieldDecls(node *tree_sitter.Node, source []byte, iface bool) []rawField {
	typ := parser.FieldText(node, "type", source)
	public := iface || parser.HasModifier(node, "public")
	final := iface || parser.HasModifier(node, "final")
	var out []rawField
	for _, c := range parser.NamedChildren(node) {
		if c.Kind() != "variable_declarator" {
			continue
		}
		name := parser.FieldText(c, "name", source)
		if name == "" {
			continue
		}
		t := typ
		if dims := c.ChildByFieldName("dimensions"); dims != nil {
			t += strings.Repeat("[]", strings.Count(parser.NodeText(dims, source), "["))
		}
		out = append(out, rawField{name: name, typ: t, public: public, final: final})
	}
	return out
}

func methodDecl(node *tree_sitter.Node, source []byte, iface bool) rawMethod {
	m := rawMethod{
		name:       parser.FieldText(node, "name", source),
		ret:        parser.FieldText(node, "type", source),
		typeParams: typeParameters(node, source),
	}
	m.public = parser.HasModifier(node, "public") || (iface && !parser.HasModifier(node, "private"))
	if params := node.ChildByFieldName("parameters"); params != nil {
		for _, p := range parser.NamedChildren(params) {
			switch p.Kind() {
			case "formal_parameter":
				m.params = append(m.params, parser.FieldText(p, "type", source))
			case "spread_parameter":
				m.params = append(m.params, spreadType(p, source)+"[]")
			}
		}
	}
	return m
}

// spreadType returns the element type of a varargs parameter.
func spreadType(node *tree_sitter.Node, source []byte) string {
	for _, c := range parser.NamedChildren(node) {
		switch c.Kind() {
		case "modifiers", "variable_declarator", "annotation", "marker_annotation":
			continue
		}
		return parser.NodeText(c, source)
	}
	return "java.lang.Object"
}

func typeParameters(node *tree_sitter.Node, source []byte) []string {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		return nil
	}
	var names []string
	for _, p := range parser.NamedChildren(tp) {
		if p.Kind() != "type_parameter" {
			continue
		}
		for _, c := range parser.NamedChildren(p) {
			if c.Kind() == "type_identifier" || c.Kind() == "identifier" {
				names = append(names, parser.NodeText(c, source))
				break
			}
		}
	}
	return names
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
