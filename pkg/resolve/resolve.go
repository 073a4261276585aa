// Package resolve computes which extensions apply to which declared elements.
//
// For each element it extracts the qualifying annotations, evaluates every
// extension's applicability predicate and de-duplicates by (element,
// extension key) so an element carrying several marker annotations mapped to
// the same extension is processed exactly once.
package resolve

import (
	"github.com/uber/crumb/pkg/extension"
	"github.com/uber/crumb/pkg/model"
)

// Qualifiers returns the annotations on el that are passed opaquely to
// extensions: those whose declaration carries the qualifier marker, plus the
// producer and consumer marker annotations themselves. Extensions do not need
// to care which rule admitted an annotation.
func Qualifiers(el model.DeclaredElement) []model.Annotation {
	var out []model.Annotation
	for _, a := range el.Annotations() {
		if a.Qualifier || a.ProducerMarker || a.ConsumerMarker {
			out = append(out, a)
		}
	}
	return out
}

// ApplicableProducers returns the producers applying to el, in registration
// order, de-duplicated by extension key. A producer implementing
// extension.ProducerMatcher decides for itself; otherwise it applies iff the
// element carries any of its supported annotations.
func ApplicableProducers(el model.DeclaredElement, qualifiers []model.Annotation, producers []extension.Producer) []extension.Producer {
	var out []extension.Producer
	seen := make(map[string]bool)
	for _, p := range producers {
		if seen[p.Key()] {
			continue
		}
		if producerApplies(p, el, qualifiers) {
			seen[p.Key()] = true
			out = append(out, p)
		}
	}
	return out
}

// ApplicableConsumers is the consumer analogue of ApplicableProducers.
func ApplicableConsumers(el model.DeclaredElement, qualifiers []model.Annotation, consumers []extension.Consumer) []extension.Consumer {
	var out []extension.Consumer
	seen := make(map[string]bool)
	for _, c := range consumers {
		if seen[c.Key()] {
			continue
		}
		if consumerApplies(c, el, qualifiers) {
			seen[c.Key()] = true
			out = append(out, c)
		}
	}
	return out
}

// ProducerElements returns the elements that take part in the producing half
// of the pass: those carrying a producer-marker annotation, or an annotation
// type claimed by any registered producer.
func ProducerElements(elements []model.DeclaredElement, producers []extension.Producer) []model.DeclaredElement {
	claimed := claimedTypes(len(producers), func(i int) []string {
		return producers[i].SupportedProducerAnnotations()
	})
	var out []model.DeclaredElement
	for _, el := range elements {
		if marked(el, claimed, func(a model.Annotation) bool { return a.ProducerMarker }) {
			out = append(out, el)
		}
	}
	return out
}

// ConsumerElements is the consumer analogue of ProducerElements.
func ConsumerElements(elements []model.DeclaredElement, consumers []extension.Consumer) []model.DeclaredElement {
	claimed := claimedTypes(len(consumers), func(i int) []string {
		return consumers[i].SupportedConsumerAnnotations()
	})
	var out []model.DeclaredElement
	for _, el := range elements {
		if marked(el, claimed, func(a model.Annotation) bool { return a.ConsumerMarker }) {
			out = append(out, el)
		}
	}
	return out
}

func producerApplies(p extension.Producer, el model.DeclaredElement, qualifiers []model.Annotation) bool {
	if m, ok := p.(extension.ProducerMatcher); ok {
		return m.MatchesProducer(el, qualifiers)
	}
	return carriesAny(el, p.SupportedProducerAnnotations())
}

func consumerApplies(c extension.Consumer, el model.DeclaredElement, qualifiers []model.Annotation) bool {
	if m, ok := c.(extension.ConsumerMatcher); ok {
		return m.MatchesConsumer(el, qualifiers)
	}
	return carriesAny(el, c.SupportedConsumerAnnotations())
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

func claimedTypes(n int, supported func(i int) []string) map[string]bool {
	claimed := make(map[string]bool)
	for i := 0; i < n; i++ {
		for _, t := range supported(i) {
			claimed[t] = true
		}
	}
	return claimed
}

func marked(el model.DeclaredElement, claimed map[string]bool, isMarker func(model.Annotation) bool) bool {
	for _, a := range el.Annotations() {
		if isMarker(a) || claimed[a.Type] {
			return true
		}
	}
	return false
}
