package pass

import (
	"context"
	"strings"

	"github.com/uber/crumb/pkg/diag"
	"github.com/uber/crumb/pkg/errors"
	"github.com/uber/crumb/pkg/extension"
	"github.com/uber/crumb/pkg/index"
	"github.com/uber/crumb/pkg/model"
	"github.com/uber/crumb/pkg/observability"
	"github.com/uber/crumb/pkg/registry"
	"github.com/uber/crumb/pkg/resolve"
	"github.com/uber/crumb/pkg/wire"
)

// produce runs the production half of the pass and returns the in-memory
// records so the consumer half can see them before any storage round trip.
func (r *Runner) produce(ctx context.Context, elements []model.DeclaredElement, set registry.Set) []model.Record {
	// No producers registered at all is an empty pass, not a per-element
	// configuration mismatch.
	if len(set.Producers) == 0 {
		return nil
	}
	producerEls := resolve.ProducerElements(elements, set.Producers)

	var produced []model.Record
	for _, el := range producerEls {
		observability.Pass().OnProduceStart(ctx, el.QualifiedName())
		rec, err := r.produceOne(ctx, el, producerEls, set)
		observability.Pass().OnProduceComplete(ctx, el.QualifiedName(), len(rec.Extras), err)
		if err == nil {
			produced = append(produced, rec)
		}
	}
	return produced
}

// produceOne builds, encodes and persists the record for one element.
// Failures are reported as diagnostics and returned; an error means no
// record was made for the element, while the rest of the pass continues.
func (r *Runner) produceOne(ctx context.Context, el model.DeclaredElement, producerEls []model.DeclaredElement, set registry.Set) (model.Record, error) {
	name := el.QualifiedName()
	qualifiers := resolve.Qualifiers(el)

	applicable := resolve.ApplicableProducers(el, qualifiers, set.Producers)
	if len(applicable) == 0 {
		// A marked element nobody claims is a configuration error. Name
		// everything involved so the user can see the mismatch.
		err := errors.New(errors.ErrCodeNoApplicableExtension,
			"no producer extension applicable to %s (producer elements: %s; registered extensions: %s)",
			name, elementNames(producerEls), keysOrNone(set.Keys()))
		diag.Errorf(r.Reporter, errors.ErrCodeNoApplicableExtension, name, "%s", err.Message)
		return model.Record{}, err
	}

	extras := make([]model.Extra, 0, len(applicable))
	for _, p := range applicable {
		metadata, err := safeProduce(p, el, qualifiers)
		if err != nil {
			diag.Errorf(r.Reporter, errors.GetCodeOr(err, errors.ErrCodeInternal), name,
				"producer %s failed for %s: %v", p.Key(), name, err)
			return model.Record{}, err
		}
		extras = append(extras, model.Extra{Key: p.Key(), Metadata: metadata})
	}

	record := model.Record{Name: name, Extras: extras}
	blob, err := wire.EncodeCompressed(record)
	if err != nil {
		diag.Errorf(r.Reporter, errors.GetCodeOr(err, errors.ErrCodeInternal), name,
			"encoding record for %s: %v", name, err)
		return model.Record{}, err
	}

	tag := index.WriteTag{
		Origin:      name,
		Elements:    []string{name},
		Incremental: producerClassification(applicable).String(),
	}
	handle, err := r.Store.Put(ctx, tag, blob)
	if err != nil {
		diag.Errorf(r.Reporter, errors.ErrCodeStoreFailed, name,
			"persisting record for %s: %v", name, err)
		return model.Record{}, err
	}
	if err := handle.Close(); err != nil {
		diag.Errorf(r.Reporter, errors.ErrCodeStoreFailed, name,
			"finalizing record for %s: %v", name, err)
		return model.Record{}, err
	}
	observability.Index().OnPut(ctx, name, len(blob))

	r.Logger.Debug("produced record",
		"element", name,
		"extras", len(extras),
		"entry", handle.Name)
	return record, nil
}

// safeProduce invokes the producer, converting a panic into an error so a
// misbehaving extension yields a diagnostic tied to the element instead of
// tearing down the host.
func safeProduce(p extension.Producer, el model.DeclaredElement, qualifiers []model.Annotation) (metadata model.Metadata, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New(errors.ErrCodeExtensionPanic,
				"producer %s panicked on %s: %v", p.Key(), el.QualifiedName(), rec)
		}
	}()
	return p.Produce(el, qualifiers)
}

// producerClassification folds the classifications of the producers that
// contributed to one record.
func producerClassification(producers []extension.Producer) extension.IncrementalType {
	types := make([]extension.IncrementalType, len(producers))
	for i, p := range producers {
		types[i] = p.ProducerIncrementalType()
	}
	return extension.Loosest(types...)
}

func elementNames(elements []model.DeclaredElement) string {
	if len(elements) == 0 {
		return "none"
	}
	names := make([]string, len(elements))
	for i, el := range elements {
		names[i] = el.QualifiedName()
	}
	return strings.Join(names, ", ")
}

func keysOrNone(keys []string) string {
	if len(keys) == 0 {
		return "none"
	}
	return strings.Join(keys, ", ")
}
