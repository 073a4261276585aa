// Package extension defines the contracts producer and consumer extensions
// implement to take part in a build pass.
//
// Extensions are stateless per build: they are instantiated once per pass and
// may cache across elements within that pass, but must not assume
// process-wide persistence across builds. Invocation order across extensions
// for one element is unspecified.
package extension

import "github.com/uber/crumb/pkg/model"

// Extension is the common surface of producers and consumers.
type Extension interface {
	// Key uniquely identifies the extension. Metadata published by a
	// producer is delivered to the consumers sharing its key.
	Key() string
}

// Producer emits metadata for elements it applies to.
type Producer interface {
	Extension

	// SupportedProducerAnnotations returns the annotation types this
	// producer reacts to. The host restricts which elements it surfaces to
	// the pass based on the union across all extensions, and the default
	// applicability test matches against this set.
	SupportedProducerAnnotations() []string

	// Produce returns the metadata to publish for the element. Qualifiers
	// are passed through opaquely. An error is fatal for the element.
	Produce(el model.DeclaredElement, qualifiers []model.Annotation) (model.Metadata, error)

	// ProducerIncrementalType declares how this producer's output depends
	// on the co-compiled element set.
	ProducerIncrementalType() IncrementalType
}

// Consumer reads the aggregated metadata published under its key.
type Consumer interface {
	Extension

	// SupportedConsumerAnnotations returns the annotation types this
	// consumer reacts to.
	SupportedConsumerAnnotations() []string

	// Consume performs the extension's side effects (typically downstream
	// code generation) given the pass-wide metadata visible under its key.
	// The set may be empty and implementations must handle that gracefully.
	// An error is fatal for the element.
	Consume(el model.DeclaredElement, qualifiers []model.Annotation, metadata *model.MetadataSet) error

	// ConsumerIncrementalType declares how this consumer's output depends
	// on the co-compiled element set.
	ConsumerIncrementalType() IncrementalType
}

// ProducerMatcher is implemented by producers that override the default
// applicability test (any supported annotation present on the element).
type ProducerMatcher interface {
	// MatchesProducer reports whether the producer applies to the element.
	MatchesProducer(el model.DeclaredElement, qualifiers []model.Annotation) bool
}

// ConsumerMatcher is the consumer analogue of ProducerMatcher.
type ConsumerMatcher interface {
	// MatchesConsumer reports whether the consumer applies to the element.
	MatchesConsumer(el model.DeclaredElement, qualifiers []model.Annotation) bool
}

// Base supplies the contract defaults: a fixed key, no supported annotations
// and unknown incremental behaviour. Concrete extensions embed it and
// override what they need.
type Base struct {
	name string
}

// NewBase creates a Base carrying the extension key.
func NewBase(name string) Base {
	return Base{name: name}
}

// Key returns the extension key.
func (b Base) Key() string { return b.name }

// SupportedProducerAnnotations returns no annotations by default.
func (b Base) SupportedProducerAnnotations() []string { return nil }

// SupportedConsumerAnnotations returns no annotations by default.
func (b Base) SupportedConsumerAnnotations() []string { return nil }

// ProducerIncrementalType opts out of incrementality guarantees by default.
func (b Base) ProducerIncrementalType() IncrementalType { return Unknown }

// ConsumerIncrementalType opts out of incrementality guarantees by default.
func (b Base) ConsumerIncrementalType() IncrementalType { return Unknown }
