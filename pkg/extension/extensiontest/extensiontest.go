// Package extensiontest provides configurable extension doubles for tests.
//
// The doubles record every invocation so tests can assert exactly which
// elements an extension saw and what metadata was delivered to it.
package extensiontest

import (
	"github.com/uber/crumb/pkg/extension"
	"github.com/uber/crumb/pkg/model"
)

// Producer is a configurable producer extension. The zero value is unusable;
// set at least Name.
type Producer struct {
	Name        string
	Annotations []string
	Incremental extension.IncrementalType

	// ProduceFunc overrides the default payload. The default publishes
	// {"path": element qualified name}.
	ProduceFunc func(el model.DeclaredElement, qualifiers []model.Annotation) (model.Metadata, error)

	// MatchFunc, when set, overrides the default applicability test.
	MatchFunc func(el model.DeclaredElement, qualifiers []model.Annotation) bool

	// Produced records the qualified names of elements produced, in order.
	Produced []string
}

// Key returns the configured name.
func (p *Producer) Key() string { return p.Name }

// SupportedProducerAnnotations returns the configured annotation types.
func (p *Producer) SupportedProducerAnnotations() []string { return p.Annotations }

// Produce records the call and returns the configured payload.
func (p *Producer) Produce(el model.DeclaredElement, qualifiers []model.Annotation) (model.Metadata, error) {
	p.Produced = append(p.Produced, el.QualifiedName())
	if p.ProduceFunc != nil {
		return p.ProduceFunc(el, qualifiers)
	}
	return model.Metadata{"path": el.QualifiedName()}, nil
}

// ProducerIncrementalType returns the configured classification.
func (p *Producer) ProducerIncrementalType() extension.IncrementalType { return p.Incremental }

// MatchesProducer implements extension.ProducerMatcher. MatchFunc wins when
// set; with annotations configured the double applies the same
// supported-annotations test real extensions get by default; a bare double
// matches every element.
func (p *Producer) MatchesProducer(el model.DeclaredElement, qualifiers []model.Annotation) bool {
	if p.MatchFunc != nil {
		return p.MatchFunc(el, qualifiers)
	}
	if len(p.Annotations) == 0 {
		return true
	}
	return carriesAny(el, p.Annotations)
}

// Consumer is a configurable consumer extension. The zero value is unusable;
// set at least Name.
type Consumer struct {
	Name        string
	Annotations []string
	Incremental extension.IncrementalType

	// ConsumeFunc, when set, is called after the invocation is recorded.
	ConsumeFunc func(el model.DeclaredElement, qualifiers []model.Annotation, metadata *model.MetadataSet) error

	// MatchFunc, when set, overrides the default applicability test.
	MatchFunc func(el model.DeclaredElement, qualifiers []model.Annotation) bool

	// Seen maps consumed element names to the metadata set each received.
	Seen map[string]*model.MetadataSet
}

// Key returns the configured name.
func (c *Consumer) Key() string { return c.Name }

// SupportedConsumerAnnotations returns the configured annotation types.
func (c *Consumer) SupportedConsumerAnnotations() []string { return c.Annotations }

// Consume records the delivered metadata set per element.
func (c *Consumer) Consume(el model.DeclaredElement, qualifiers []model.Annotation, metadata *model.MetadataSet) error {
	if c.Seen == nil {
		c.Seen = make(map[string]*model.MetadataSet)
	}
	c.Seen[el.QualifiedName()] = metadata
	if c.ConsumeFunc != nil {
		return c.ConsumeFunc(el, qualifiers, metadata)
	}
	return nil
}

// ConsumerIncrementalType returns the configured classification.
func (c *Consumer) ConsumerIncrementalType() extension.IncrementalType { return c.Incremental }

// MatchesConsumer implements extension.ConsumerMatcher with the same
// semantics as Producer.MatchesProducer.
func (c *Consumer) MatchesConsumer(el model.DeclaredElement, qualifiers []model.Annotation) bool {
	if c.MatchFunc != nil {
		return c.MatchFunc(el, qualifiers)
	}
	if len(c.Annotations) == 0 {
		return true
	}
	return carriesAny(el, c.Annotations)
}

func carriesAny(el model.DeclaredElement, types []string) bool {
	for _, a := range el.Annotations() {
		for _, t := range types {
			if a.Type == t {
				return true
			}
		}
	}
	return false
}

// Ensure the doubles satisfy the extension contracts.
var (
	_ extension.Producer        = (*Producer)(nil)
	_ extension.ProducerMatcher = (*Producer)(nil)
	_ extension.Consumer        = (*Consumer)(nil)
	_ extension.ConsumerMatcher = (*Consumer)(nil)
)
