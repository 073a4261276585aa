package diag

import (
	"testing"

	"github.com/uber/crumb/pkg/errors"
)

func TestBagCollects(t *testing.T) {
	bag := NewBag()

	Warnf(bag, errors.ErrCodeDiscoveryFailed, "", "discovery failed, continuing with no extensions")
	if bag.HasErrors() {
		t.Error("bag with only a warning should not report errors")
	}
	if !bag.HasWarnings() {
		t.Error("bag should report warnings")
	}

	Errorf(bag, errors.ErrCodeNoApplicableExtension, "pkg.Foo", "no applicable extension")
	if !bag.HasErrors() {
		t.Error("bag should report errors after Errorf")
	}
	if bag.Len() != 2 {
		t.Errorf("Len = %d, want 2", bag.Len())
	}

	errs := bag.Errors()
	if len(errs) != 1 || errs[0].Element != "pkg.Foo" {
		t.Errorf("Errors() = %+v, want one error for pkg.Foo", errs)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewBag(), NewBag()
	m := Multi{a, nil, b}

	Infof(m, errors.ErrCodeInternal, "", "hello")
	if a.Len() != 1 || b.Len() != 1 {
		t.Errorf("fan-out lengths = %d, %d, want 1, 1", a.Len(), b.Len())
	}
}

func TestMerge(t *testing.T) {
	a, b := NewBag(), NewBag()
	Errorf(a, errors.ErrCodeDecodeFailed, "", "bad blob")
	Warnf(b, errors.ErrCodeStoreFailed, "", "skipped archive")

	a.Merge(b)
	if a.Len() != 2 {
		t.Errorf("merged Len = %d, want 2", a.Len())
	}
	a.Merge(nil)
	if a.Len() != 2 {
		t.Error("merging nil should be a no-op")
	}
}

func TestNilReporterIsSafe(t *testing.T) {
	// Must not panic.
	Errorf(nil, errors.ErrCodeInternal, "", "dropped")
}

func TestSeverityString(t *testing.T) {
	cases := map[Severity]string{
		SevInfo:      "INFO",
		SevWarning:   "WARNING",
		SevError:     "ERROR",
		Severity(99): "UNKNOWN",
	}
	for sev, want := range cases {
		if got := sev.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", sev, got, want)
		}
	}
}
