package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	"go.trai.ch/zerr"

	"github.com/DeusData/beanprops-mcp/internal/lang"
)

var (
	languagesOnce sync.Once
	languages     map[lang.Language]*tree_sitter.Language
	parserPools   map[lang.Language]*sync.Pool
)

func initLanguages() {
	languagesOnce.Do(func() {
		languages = map[lang.Language]*tree_sitter.Language{
			lang.Java: tree_sitter.NewLanguage(tree_sitter_java.Language()),
		}

		parserPools = make(map[lang.Language]*sync.Pool, len(languages))
		for l, tsLang := range languages {
			parserPools[l] = &sync.Pool{
				New: func() any {
					p := tree_sitter.NewParser()
					if err := p.SetLanguage(tsLang); err != nil {
						panic(fmt.Sprintf("set language: %v", err))
					}
					return p
				},
			}
		}
	})
}

// GetLanguage returns the tree-sitter Language for a lang.Language.
func GetLanguage(l lang.Language) (*tree_sitter.Language, error) {
	initLanguages()
	tsLang, ok := languages[l]
	if !ok {
		return nil, zerr.With(zerr.New("unsupported language"), "language", string(l))
	}
	return tsLang, nil
}

// Parse parses source code into a tree-sitter AST Tree.
// The caller must call tree.Close() when done.
// Parsers are pooled per language via sync.Pool to avoid per-file allocation.
func Parse(l lang.Language, source []byte) (*tree_sitter.Tree, error) {
	initLanguages()

	pool, ok := parserPools[l]
	if !ok {
		return nil, zerr.With(zerr.New("unsupported language"), "language", string(l))
	}

	p, _ := pool.Get().(*tree_sitter.Parser)
	if p == nil {
		return nil, zerr.With(zerr.New("failed to get parser"), "language", string(l))
	}
	tree := p.Parse(source, nil)
	pool.Put(p)

	if tree == nil {
		return nil, zerr.With(zerr.New("parse failed"), "language", string(l))
	}

	return tree, nil
}

// WalkFunc is called for each node during AST traversal.
// Return false to skip children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST in depth-first order.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the text content of a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// FieldText returns the text of the named field child, or "" if absent.
func FieldText(node *tree_sitter.Node, field string, source []byte) string {
	child := node.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return NodeText(child, source)
}

// FindChildByKind returns the first direct child of the given kind.
func FindChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// NamedChildren returns the named children of node in order.
func NamedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	n := node.NamedChildCount()
	out := make([]*tree_sitter.Node, 0, n)
	for i := uint(0); i < n; i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

// HasModifier reports whether a declaration's modifiers list contains the keyword.
func HasModifier(node *tree_sitter.Node, keyword string) bool {
	mods := node.ChildByFieldName("modifiers")
	if mods == nil {
		mods = FindChildByKind(node, "modifiers")
	}
	if mods == nil {
		return false
	}
	for i := uint(0); i < mods.ChildCount(); i++ {
		child := mods.Child(i)
		if child != nil && child.Kind() == keyword {
			return true
		}
	}
	return false
}
