// Package introspect defines the contract between the property resolver and
// whatever can describe a type: a binary catalog or a source-file parser.
package introspect

import (
	"context"
	"errors"

	"go.trai.ch/zerr"
)

// Void is the return type signature of methods without a result.
const Void = "void"

var (
	// ErrNotFound reports a lookup miss. It is never an error for callers of the cache.
	ErrNotFound = zerr.New("type not found")
	// ErrIntrospection reports a model-access failure while describing a type.
	ErrIntrospection = zerr.New("introspection failed")
)

// Field is one declared field of a type.
type Field struct {
	Name   string `json:"name" yaml:"name"`
	Type   string `json:"type" yaml:"type"`
	Public bool   `json:"public" yaml:"public"`
	Final  bool   `json:"final" yaml:"final"`
}

// Method is one declared method of a type.
type Method struct {
	Name   string   `json:"name" yaml:"name"`
	Params []string `json:"params,omitempty" yaml:"params,omitempty"`
	Return string   `json:"return" yaml:"return"`
	Public bool     `json:"public" yaml:"public"`
	// Fluent marks a setter that returns its declaring type. Only source
	// visitors set it.
	Fluent bool `json:"fluent,omitempty" yaml:"-"`
}

// IsVoid reports whether the method returns nothing.
func (m Method) IsVoid() bool {
	return m.Return == "" || m.Return == Void
}

// TypeOrigin describes where a type's declarations come from.
// It is implemented only by *Binary and *Source.
type TypeOrigin interface {
	TypeName() string
	SuperclassName() string
	isTypeOrigin()
}

// Binary is a precompiled type whose members are listed directly.
type Binary struct {
	Name       string
	Superclass string
	Fields     []Field
	Methods    []Method
}

func (b *Binary) TypeName() string       { return b.Name }
func (b *Binary) SuperclassName() string { return b.Superclass }
func (*Binary) isTypeOrigin()            {}

// DeclarationVisitor receives the declarations of a source type in order.
type DeclarationVisitor interface {
	VisitField(Field)
	VisitMethod(Method)
}

// Source is a type declared in a parseable source file. Its members are
// discovered by walking the syntax tree, which may be slow.
type Source struct {
	Name       string
	Superclass string
	// Visit walks the declarations. It may fail part way, after some
	// declarations have already been delivered.
	Visit func(DeclarationVisitor) error
}

func (s *Source) TypeName() string       { return s.Name }
func (s *Source) SuperclassName() string { return s.Superclass }
func (*Source) isTypeOrigin()            {}

// VisitDeclarations delivers every field and method declaration to v.
func (s *Source) VisitDeclarations(v DeclarationVisitor) error {
	if s.Visit == nil {
		return nil
	}
	return s.Visit(v)
}

// Introspector resolves a qualified type name within a project.
// A nil origin with a nil error, or ErrNotFound, means the type is unknown.
type Introspector interface {
	FindType(ctx context.Context, project, qualifiedName string) (TypeOrigin, error)
}

// IntrospectorFunc adapts a function to Introspector.
type IntrospectorFunc func(ctx context.Context, project, qualifiedName string) (TypeOrigin, error)

func (f IntrospectorFunc) FindType(ctx context.Context, project, qualifiedName string) (TypeOrigin, error) {
	return f(ctx, project, qualifiedName)
}

// Failed marks cause as an introspection failure for the named type.
func Failed(qualifiedName string, cause error) error {
	msg := "unknown cause"
	if cause != nil {
		msg = cause.Error()
	}
	return zerr.With(zerr.Wrap(ErrIntrospection, msg), "type", qualifiedName)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Chain asks each introspector in turn; the first one that knows the type wins.
type Chain []Introspector

func (c Chain) FindType(ctx context.Context, project, qualifiedName string) (TypeOrigin, error) {
	var firstErr error
	for _, in := range c {
		if in == nil {
			continue
		}
		origin, err := in.FindType(ctx, project, qualifiedName)
		if err != nil {
			if !IsNotFound(err) && firstErr == nil {
				firstErr = err
			}
			continue
		}
		if origin != nil {
			return origin, nil
		}
	}
	return nil, firstErr
}
