package diag

// Bag collects diagnostics in emission order. It implements Reporter so it
// can be handed directly to the orchestrators, and the CLI inspects it after
// the pass to decide the exit status.
type Bag struct {
	items []Diagnostic
}

// NewBag creates an empty bag.
func NewBag() *Bag {
	return &Bag{}
}

// Report appends the diagnostic to the bag.
func (b *Bag) Report(d Diagnostic) {
	b.items = append(b.items, d)
}

// Len returns the number of collected diagnostics.
func (b *Bag) Len() int { return len(b.items) }

// Items returns the collected diagnostics in emission order. The returned
// slice shares backing storage with the bag and must not be modified.
func (b *Bag) Items() []Diagnostic { return b.items }

// HasErrors reports whether at least one error diagnostic was collected.
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

// HasWarnings reports whether at least one warning or error was collected.
func (b *Bag) HasWarnings() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevWarning {
			return true
		}
	}
	return false
}

// Errors returns only the error diagnostics.
func (b *Bag) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Severity >= SevError {
			out = append(out, d)
		}
	}
	return out
}

// Merge appends all diagnostics from the other bag.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.items = append(b.items, other.items...)
}
