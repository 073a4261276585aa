package pass

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/uber/crumb/pkg/diag"
	"github.com/uber/crumb/pkg/errors"
	"github.com/uber/crumb/pkg/extension"
	"github.com/uber/crumb/pkg/extension/extensiontest"
	"github.com/uber/crumb/pkg/index"
	"github.com/uber/crumb/pkg/model"
	"github.com/uber/crumb/pkg/registry"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{Level: log.FatalLevel})
}

func producerElement(name string) model.DeclaredElement {
	return model.NewElement(name, model.KindClass,
		model.Annotation{Type: "com.uber.crumb.ProducesMetadata", ProducerMarker: true})
}

func consumerElement(name string) model.DeclaredElement {
	return model.NewElement(name, model.KindClass,
		model.Annotation{Type: "com.uber.crumb.ConsumesMetadata", ConsumerMarker: true})
}

type erroringRegistry struct{}

func (erroringRegistry) Discover(context.Context) (registry.Set, error) {
	return registry.Set{}, errors.New(errors.ErrCodeDiscoveryFailed, "manifest dir unreadable")
}

func TestExecuteLocalPassVisibility(t *testing.T) {
	// A producer and a consumer compiled in the same pass exchange metadata
	// with zero prior artifacts and without a warning about missing data.
	producer := &extensiontest.Producer{Name: "plugins"}
	consumer := &extensiontest.Consumer{Name: "plugins"}
	store := index.NewMemoryStore()
	bag := diag.NewBag()

	runner := NewRunner(registry.Static(
		[]extension.Producer{producer},
		[]extension.Consumer{consumer},
	), store, nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("com.uber.app.PluginImpl"),
		consumerElement("com.uber.app.PluginHost"),
	}})
	require.NoError(t, err)

	require.Len(t, result.Produced, 1)
	require.Equal(t, "com.uber.app.PluginImpl", result.Produced[0].Name)
	require.Equal(t, 1, result.RecordsSeen)
	require.Equal(t, 1, result.Dispatches)
	require.Equal(t, 1, store.Len())
	require.False(t, bag.HasWarnings())

	seen := consumer.Seen["com.uber.app.PluginHost"]
	require.NotNil(t, seen)
	require.Equal(t, 1, seen.Len())
	require.Equal(t, "com.uber.app.PluginImpl", seen.Items()[0]["path"])
}

func TestExecutePathMetadataScenario(t *testing.T) {
	// A path-publishing extension: pkg.Foo produces {"path": "pkg.Foo"},
	// stored under the extension's key, and pkg.Bar receives exactly that
	// one metadata map.
	producer := &extensiontest.Producer{Name: "E"}
	consumer := &extensiontest.Consumer{Name: "E"}
	store := index.NewMemoryStore()

	runner := NewRunner(registry.Static(
		[]extension.Producer{producer},
		[]extension.Consumer{consumer},
	), store, nil, nil, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("pkg.Foo"),
		consumerElement("pkg.Bar"),
	}})
	require.NoError(t, err)

	want := model.Record{
		Name:   "pkg.Foo",
		Extras: []model.Extra{{Key: "E", Metadata: model.Metadata{"path": "pkg.Foo"}}},
	}
	require.Len(t, result.Produced, 1)
	require.True(t, want.Equal(result.Produced[0]))

	seen := consumer.Seen["pkg.Bar"]
	require.NotNil(t, seen)
	require.True(t, model.NewMetadataSet(model.Metadata{"path": "pkg.Foo"}).Equal(seen))
}

func TestExecuteCrossPassVisibility(t *testing.T) {
	// Pass one persists records; pass two in a different runner sees them
	// through its sources.
	producer := &extensiontest.Producer{Name: "plugins"}
	store := index.NewMemoryStore()

	first := NewRunner(registry.Static([]extension.Producer{producer}, nil),
		store, nil, nil, quietLogger())
	_, err := first.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("com.uber.app.PluginImpl"),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())

	consumer := &extensiontest.Consumer{Name: "plugins"}
	second := NewRunner(registry.Static(nil, []extension.Consumer{consumer}),
		nil, store, nil, quietLogger())
	result, err := second.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		consumerElement("com.uber.app.PluginHost"),
	}})
	require.NoError(t, err)

	require.Equal(t, 1, result.RecordsSeen)
	seen := consumer.Seen["com.uber.app.PluginHost"]
	require.NotNil(t, seen)
	require.Equal(t, "com.uber.app.PluginImpl", seen.Items()[0]["path"])
}

func TestExecuteDeduplicatesIdenticalMetadata(t *testing.T) {
	// The same element produced across two passes yields one metadata entry
	// on the consumer side, not two.
	producer := &extensiontest.Producer{Name: "plugins"}
	store := index.NewMemoryStore()
	reg := registry.Static([]extension.Producer{producer}, nil)

	for i := 0; i < 2; i++ {
		runner := NewRunner(reg, store, nil, nil, quietLogger())
		_, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
			producerElement("com.uber.app.PluginImpl"),
		}})
		require.NoError(t, err)
	}
	require.Equal(t, 2, store.Len())

	consumer := &extensiontest.Consumer{Name: "plugins"}
	runner := NewRunner(registry.Static(nil, []extension.Consumer{consumer}),
		nil, store, nil, quietLogger())
	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		consumerElement("com.uber.app.PluginHost"),
	}})
	require.NoError(t, err)

	require.Equal(t, 2, result.RecordsSeen)
	require.Equal(t, 1, consumer.Seen["com.uber.app.PluginHost"].Len())
}

func TestExecuteNoApplicableProducerIsConfigError(t *testing.T) {
	// A producer-marked element no registered extension claims fails that
	// element with an error diagnostic; the rest of the pass continues.
	picky := &extensiontest.Producer{
		Name: "plugins",
		MatchFunc: func(el model.DeclaredElement, _ []model.Annotation) bool {
			return el.QualifiedName() == "com.uber.app.Claimed"
		},
	}
	bag := diag.NewBag()
	runner := NewRunner(registry.Static([]extension.Producer{picky}, nil),
		index.NewMemoryStore(), nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("com.uber.app.Orphan"),
		producerElement("com.uber.app.Claimed"),
	}})
	require.NoError(t, err)

	require.Len(t, result.Produced, 1)
	require.Equal(t, "com.uber.app.Claimed", result.Produced[0].Name)
	require.True(t, bag.HasErrors())
	errs := bag.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, errors.ErrCodeNoApplicableExtension, errs[0].Code)
	require.Equal(t, "com.uber.app.Orphan", errs[0].Element)
}

func TestExecuteUnclaimedConsumerElementIsSkipped(t *testing.T) {
	// Unlike producers, a consumer-marked element nobody claims is simply
	// skipped.
	picky := &extensiontest.Consumer{Name: "plugins", Annotations: []string{"com.uber.Other"}}
	bag := diag.NewBag()
	runner := NewRunner(registry.Static(nil, []extension.Consumer{picky}),
		nil, nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		model.NewElement("com.uber.app.Host", model.KindClass,
			model.Annotation{Type: "com.uber.Unrelated", ConsumerMarker: true}),
	}})
	require.NoError(t, err)

	require.Zero(t, result.Dispatches)
	require.False(t, bag.HasErrors())
	require.Empty(t, picky.Seen)
}

func TestExecuteNoMetadataAnywhereWarns(t *testing.T) {
	// A consumer element with zero records visible still gets dispatched,
	// with an empty set and a warning.
	consumer := &extensiontest.Consumer{Name: "plugins"}
	bag := diag.NewBag()
	runner := NewRunner(registry.Static(nil, []extension.Consumer{consumer}),
		nil, nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		consumerElement("com.uber.app.PluginHost"),
	}})
	require.NoError(t, err)

	require.Zero(t, result.RecordsSeen)
	require.Equal(t, 1, result.Dispatches)
	require.True(t, bag.HasWarnings())
	require.False(t, bag.HasErrors())

	seen := consumer.Seen["com.uber.app.PluginHost"]
	require.NotNil(t, seen)
	require.Zero(t, seen.Len())
}

func TestExecuteCorruptBlobIsDiagnosedAndSkipped(t *testing.T) {
	producer := &extensiontest.Producer{Name: "plugins"}
	store := index.NewMemoryStore()
	first := NewRunner(registry.Static([]extension.Producer{producer}, nil),
		store, nil, nil, quietLogger())
	_, err := first.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("com.uber.app.PluginImpl"),
	}})
	require.NoError(t, err)

	handle, err := store.Put(context.Background(), index.WriteTag{Origin: "broken"}, []byte("not a record"))
	require.NoError(t, err)
	require.NoError(t, handle.Close())

	consumer := &extensiontest.Consumer{Name: "plugins"}
	bag := diag.NewBag()
	second := NewRunner(registry.Static(nil, []extension.Consumer{consumer}),
		nil, store, bag, quietLogger())
	result, err := second.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		consumerElement("com.uber.app.PluginHost"),
	}})
	require.NoError(t, err)

	// The intact record still reaches the consumer.
	require.Equal(t, 1, result.RecordsSeen)
	require.Equal(t, 1, consumer.Seen["com.uber.app.PluginHost"].Len())

	errs := bag.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, errors.ErrCodeDecodeFailed, errs[0].Code)
}

func TestExecuteEmptyRegistry(t *testing.T) {
	// Marked elements with no extensions at all: the pass completes with
	// zero writes, zero dispatches and zero diagnostics.
	store := index.NewMemoryStore()
	bag := diag.NewBag()
	runner := NewRunner(nil, store, nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("com.uber.app.PluginImpl"),
		consumerElement("com.uber.app.PluginHost"),
	}})
	require.NoError(t, err)

	require.Empty(t, result.Produced)
	require.Zero(t, result.Dispatches)
	require.Zero(t, store.Len())
	require.Zero(t, bag.Len())
	require.Equal(t, extension.Isolating, result.Incremental)
}

func TestExecuteDiscoveryFailureDegradesToEmpty(t *testing.T) {
	bag := diag.NewBag()
	runner := NewRunner(erroringRegistry{}, nil, nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("com.uber.app.PluginImpl"),
	}})
	require.NoError(t, err)

	require.Empty(t, result.Produced)
	require.Zero(t, result.Dispatches)
	require.True(t, bag.HasWarnings())
	require.False(t, bag.HasErrors())
	require.Equal(t, errors.ErrCodeDiscoveryFailed, bag.Items()[0].Code)
}

func TestExecuteProducerPanicBecomesDiagnostic(t *testing.T) {
	producer := &extensiontest.Producer{
		Name: "plugins",
		ProduceFunc: func(model.DeclaredElement, []model.Annotation) (model.Metadata, error) {
			panic("boom")
		},
	}
	bag := diag.NewBag()
	runner := NewRunner(registry.Static([]extension.Producer{producer}, nil),
		index.NewMemoryStore(), nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		producerElement("com.uber.app.PluginImpl"),
	}})
	require.NoError(t, err)

	require.Empty(t, result.Produced)
	errs := bag.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, errors.ErrCodeExtensionPanic, errs[0].Code)
}

func TestExecuteConsumerErrorIsDiagnosed(t *testing.T) {
	consumer := &extensiontest.Consumer{
		Name: "plugins",
		ConsumeFunc: func(model.DeclaredElement, []model.Annotation, *model.MetadataSet) error {
			return fmt.Errorf("cannot generate code")
		},
	}
	bag := diag.NewBag()
	runner := NewRunner(registry.Static(nil, []extension.Consumer{consumer}),
		nil, nil, bag, quietLogger())

	result, err := runner.Execute(context.Background(), Options{Elements: []model.DeclaredElement{
		consumerElement("com.uber.app.PluginHost"),
	}})
	require.NoError(t, err)

	require.Zero(t, result.Dispatches)
	require.True(t, bag.HasErrors())
}

func TestExecuteClassification(t *testing.T) {
	tests := []struct {
		name string
		set  registry.Set
		want extension.IncrementalType
	}{
		{
			name: "empty set is isolating",
			set:  registry.Set{},
			want: extension.Isolating,
		},
		{
			name: "all isolating stays isolating",
			set: registry.Set{
				Producers: []extension.Producer{&extensiontest.Producer{Name: "a", Incremental: extension.Isolating}},
				Consumers: []extension.Consumer{&extensiontest.Consumer{Name: "b", Incremental: extension.Isolating}},
			},
			want: extension.Isolating,
		},
		{
			name: "one aggregating loosens the pass",
			set: registry.Set{
				Producers: []extension.Producer{&extensiontest.Producer{Name: "a", Incremental: extension.Isolating}},
				Consumers: []extension.Consumer{&extensiontest.Consumer{Name: "b", Incremental: extension.Aggregating}},
			},
			want: extension.Aggregating,
		},
		{
			name: "unknown wins over everything",
			set: registry.Set{
				Producers: []extension.Producer{
					&extensiontest.Producer{Name: "a", Incremental: extension.Aggregating},
					&extensiontest.Producer{Name: "c", Incremental: extension.Unknown},
				},
			},
			want: extension.Unknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classify(tt.set))
		})
	}
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, (&Options{}).Validate())
	require.NoError(t, (&Options{Elements: []model.DeclaredElement{producerElement("a.B")}}).Validate())

	err := (&Options{Elements: []model.DeclaredElement{nil}}).Validate()
	require.Error(t, err)
	require.Equal(t, errors.ErrCodeInvalidElements, errors.GetCode(err))

	_, err = NewRunner(nil, nil, nil, nil, quietLogger()).
		Execute(context.Background(), Options{Elements: []model.DeclaredElement{nil}})
	require.Error(t, err)
}
