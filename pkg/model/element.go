// Package model defines the data types exchanged between the crumb engine and
// its host compiler: declared elements, their annotations, and the metadata
// records published on their behalf.
//
// The engine never interprets annotation contents. Qualifier and marker flags
// are resolved by the host when it exports the element set, so every type here
// is plain data with no reflection and no host-compiler dependency.
package model

import "strings"

// Kind classifies a declared element.
type Kind string

// Element kinds understood by the engine. The set mirrors what host compilers
// surface; unknown kinds pass through untouched.
const (
	KindClass     Kind = "class"
	KindInterface Kind = "interface"
	KindEnum      Kind = "enum"
	KindObject    Kind = "object"
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Annotation is one annotation instance found on a declared element.
//
// The boolean flags describe the annotation's own declaration: Qualifier means
// the declaration carries the qualifier marker, ProducerMarker/ConsumerMarker
// mean it is itself a producer or consumer marker annotation. The host export
// flattens these onto the instance so the engine needs no access to the
// annotation declarations.
type Annotation struct {
	// Type is the fully qualified name of the annotation type.
	Type string

	// Values holds the annotation's attribute values, passed through opaquely.
	Values map[string]string

	Qualifier      bool
	ProducerMarker bool
	ConsumerMarker bool
}

// DeclaredElement is an opaque handle to a type being processed in the current
// build pass. Implementations adapt whatever host compiler or static-analysis
// API supplies the elements.
type DeclaredElement interface {
	// QualifiedName returns the element's fully qualified name.
	QualifiedName() string

	// Package returns the enclosing package.
	Package() string

	// Kind returns the element kind.
	Kind() Kind

	// Annotations returns the annotations attached directly to the element,
	// in declaration order.
	Annotations() []Annotation
}

// Element is the concrete DeclaredElement used by the host export and by
// tests.
type Element struct {
	name        string
	pkg         string
	kind        Kind
	annotations []Annotation
}

// NewElement creates an element with the given qualified name and kind. The
// enclosing package is derived from the qualified name (everything before the
// last dot).
func NewElement(qualifiedName string, kind Kind, annotations ...Annotation) *Element {
	pkg := ""
	if i := strings.LastIndex(qualifiedName, "."); i >= 0 {
		pkg = qualifiedName[:i]
	}
	return &Element{
		name:        qualifiedName,
		pkg:         pkg,
		kind:        kind,
		annotations: annotations,
	}
}

// QualifiedName returns the element's fully qualified name.
func (e *Element) QualifiedName() string { return e.name }

// Package returns the enclosing package.
func (e *Element) Package() string { return e.pkg }

// Kind returns the element kind.
func (e *Element) Kind() Kind { return e.kind }

// Annotations returns the element's annotations in declaration order.
func (e *Element) Annotations() []Annotation { return e.annotations }

// Ensure Element implements DeclaredElement.
var _ DeclaredElement = (*Element)(nil)
