package extension

// IncrementalType classifies how an extension's output depends on the set of
// co-compiled elements. The host build system uses the pass-wide value to
// decide whether it can skip full recompilation.
type IncrementalType int

// Classification values, ordered from most to least incremental-friendly.
const (
	// Isolating output depends only on the single element being processed
	// and that element's own dependencies.
	Isolating IncrementalType = iota

	// Aggregating output may depend on the full set of co-compiled
	// elements.
	Aggregating

	// Unknown opts out of incrementality guarantees entirely. Undeclared
	// extensions default to Unknown.
	Unknown
)

// String returns the classification name as reported to the host.
func (t IncrementalType) String() string {
	switch t {
	case Isolating:
		return "isolating"
	case Aggregating:
		return "aggregating"
	default:
		return "unknown"
	}
}

// Loosest returns the least incremental-friendly classification among the
// given values: a single Unknown makes the result Unknown, otherwise one
// Aggregating makes it Aggregating. With no values it returns Isolating,
// since nothing constrains incrementality.
func Loosest(types ...IncrementalType) IncrementalType {
	result := Isolating
	for _, t := range types {
		if t > result {
			result = t
		}
	}
	return result
}
