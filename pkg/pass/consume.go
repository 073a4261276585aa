package pass

import (
	"context"

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

// consume runs the consumption half of the pass: load every visible record,
// merge in the records produced this pass, regroup by extension key and
// dispatch to the applicable consumers. It returns the number of records
// seen and the number of consumer invocations made.
func (r *Runner) consume(ctx context.Context, elements []model.DeclaredElement, set registry.Set, produced []model.Record) (records, dispatches int) {
	consumerEls := resolve.ConsumerElements(elements, set.Consumers)
	if len(set.Consumers) == 0 || len(consumerEls) == 0 {
		return 0, 0
	}

	// Same-pass records first: a consumer compiled together with a producer
	// must see its metadata even with no prior artifact anywhere.
	visible := append([]model.Record(nil), produced...)
	visible = append(visible, r.loadStored(ctx)...)

	if len(visible) == 0 {
		diag.Warnf(r.Reporter, errors.ErrCodeNotFound, "",
			"no producer metadata found anywhere in the build graph; consumers run with empty metadata")
	}
	grouped := model.GroupByKey(visible)

	for _, el := range consumerEls {
		qualifiers := resolve.Qualifiers(el)
		for _, c := range resolve.ApplicableConsumers(el, qualifiers, set.Consumers) {
			metadata := grouped[c.Key()]
			if metadata == nil {
				metadata = model.NewMetadataSet()
			}

			observability.Pass().OnConsumeStart(ctx, el.QualifiedName(), c.Key())
			err := safeConsume(c, el, qualifiers, metadata)
			observability.Pass().OnConsumeComplete(ctx, el.QualifiedName(), c.Key(), metadata.Len(), err)
			if err != nil {
				diag.Errorf(r.Reporter, errors.GetCodeOr(err, errors.ErrCodeInternal), el.QualifiedName(),
					"consumer %s failed for %s: %v", c.Key(), el.QualifiedName(), err)
				continue
			}
			dispatches++

			r.Logger.Debug("dispatched consumer",
				"element", el.QualifiedName(),
				"extension", c.Key(),
				"metadata", metadata.Len())
		}
	}
	return len(visible), dispatches
}

// loadStored decodes every blob visible through the runner's sources. A blob
// that fails to decode is a hard diagnostic, not silently dropped data; the
// remaining blobs are still used.
func (r *Runner) loadStored(ctx context.Context) []model.Record {
	blobs := r.collectBlobs(ctx)
	observability.Index().OnLoad(ctx, len(blobs))

	var records []model.Record
	for _, b := range blobs {
		rec, err := wire.DecodeCompressed(b.Data)
		if err != nil {
			diag.Errorf(r.Reporter, errors.ErrCodeDecodeFailed, "",
				"cannot decode record %s from %s: %v", b.Name, b.Source, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

func (r *Runner) collectBlobs(ctx context.Context) []index.Blob {
	var blobs []index.Blob
	if r.Sources != nil {
		found, err := r.Sources.Load(ctx)
		if err != nil {
			diag.Warnf(r.Reporter, errors.ErrCodeStoreFailed, "",
				"loading records from the build graph: %v", err)
		}
		blobs = append(blobs, found...)
	}
	return blobs
}

// safeConsume invokes the consumer, converting a panic into an error tied to
// the element.
func safeConsume(c extension.Consumer, el model.DeclaredElement, qualifiers []model.Annotation, metadata *model.MetadataSet) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New(errors.ErrCodeExtensionPanic,
				"consumer %s panicked on %s: %v", c.Key(), el.QualifiedName(), rec)
		}
	}()
	return c.Consume(el, qualifiers, metadata)
}
