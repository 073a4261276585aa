package cli

import (
	"os"

	"github.com/BurntSushi/toml"

	"github.com/uber/crumb/pkg/errors"
	"github.com/uber/crumb/pkg/model"
)

// elementExport is the TOML schema the host compiler writes to describe the
// annotated elements of one compilation.
type elementExport struct {
	Elements []exportedElement `toml:"element"`
}

type exportedElement struct {
	Name        string               `toml:"name"`
	Kind        string               `toml:"kind"`
	Annotations []exportedAnnotation `toml:"annotation"`
}

type exportedAnnotation struct {
	Type           string            `toml:"type"`
	Values         map[string]string `toml:"values"`
	Qualifier      bool              `toml:"qualifier"`
	ProducerMarker bool              `toml:"producer_marker"`
	ConsumerMarker bool              `toml:"consumer_marker"`
}

// loadElements reads a host element export and converts it to the model types
// the pass runner consumes.
func loadElements(path string) ([]model.DeclaredElement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidElements, err, "reading element export %s", path)
	}

	var export elementExport
	if err := toml.Unmarshal(data, &export); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidElements, err, "parsing element export %s", path)
	}

	elements := make([]model.DeclaredElement, 0, len(export.Elements))
	for i, e := range export.Elements {
		if e.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidElements, "element %d has no name", i)
		}
		kind := model.Kind(e.Kind)
		if kind == "" {
			// Hosts that only surface classes omit the field.
			kind = model.KindClass
		}

		annotations := make([]model.Annotation, len(e.Annotations))
		for j, a := range e.Annotations {
			if a.Type == "" {
				return nil, errors.New(errors.ErrCodeInvalidElements,
					"element %s: annotation %d has no type", e.Name, j)
			}
			annotations[j] = model.Annotation{
				Type:           a.Type,
				Values:         a.Values,
				Qualifier:      a.Qualifier,
				ProducerMarker: a.ProducerMarker,
				ConsumerMarker: a.ConsumerMarker,
			}
		}
		elements = append(elements, model.NewElement(e.Name, kind, annotations...))
	}
	return elements, nil
}
