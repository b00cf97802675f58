// Command java_decls prints what the source index sees in Java files: the
// tree-sitter AST (-ast) or the declarations as a type catalog document that
// import-catalog accepts.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"

	"github.com/DeusData/beanprops-mcp/internal/introspect"
	"github.com/DeusData/beanprops-mcp/internal/javasrc"
	"github.com/DeusData/beanprops-mcp/internal/lang"
	"github.com/DeusData/beanprops-mcp/internal/parser"
	"github.com/DeusData/beanprops-mcp/internal/store"
)

func printAST(w io.Writer, node *tree_sitter.Node, source []byte, indent int) {
	if node == nil {
		return
	}
	parentKind := "nil"
	if node.Parent() != nil {
		parentKind = node.Parent().Kind()
	}
	text := string(source[node.StartByte():node.EndByte()])
	if len(text) > 60 {
		text = text[:60] + "..."
	}
	fmt.Fprintf(w, "%s%s (parent=%s) %q\n", strings.Repeat("  ", indent), node.Kind(), parentKind, text)
	for i := uint(0); i < node.ChildCount(); i++ {
		printAST(w, node.Child(i), source, indent+1)
	}
}

// catalogBuilder collects visited declarations into a catalog entry.
type catalogBuilder struct {
	t *store.CatalogType
}

func (b catalogBuilder) VisitField(f introspect.Field)   { b.t.Fields = append(b.t.Fields, f) }
func (b catalogBuilder) VisitMethod(m introspect.Method) { b.t.Methods = append(b.t.Methods, m) }

// catalogOf describes a file as binary catalog entries. Catalog methods carry
// no fluent flag, so fluent setters are not marked.
func catalogOf(source []byte) (*store.Catalog, error) {
	origins, err := javasrc.Describe(source, false)
	if err != nil {
		return nil, err
	}
	c := &store.Catalog{}
	for _, o := range origins {
		t := store.CatalogType{Name: o.Name, Superclass: o.Superclass}
		if err := o.VisitDeclarations(catalogBuilder{t: &t}); err != nil {
			return nil, err
		}
		c.Types = append(c.Types, t)
	}
	return c, nil
}

func run(w io.Writer, files []string, ast bool) error {
	c := &store.Catalog{}
	for _, path := range files {
		source, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if ast {
			tree, err := parser.Parse(lang.Java, source)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "=== %s ===\n", path)
			printAST(w, tree.RootNode(), source, 0)
			tree.Close()
			continue
		}
		fc, err := catalogOf(source)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "describe"), "path", path)
		}
		c.Types = append(c.Types, fc.Types...)
	}
	if ast {
		return nil
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

func main() {
	ast := flag.Bool("ast", false, "print the syntax tree instead of declarations")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: java_decls [-ast] FILE.java...")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(os.Stdout, flag.Args(), *ast); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
