package model

import (
	"sort"
	"strconv"
	"strings"
)

// Metadata is the unordered key-value payload produced by one producer
// extension for one element. Extensions are responsible for keeping it small.
type Metadata map[string]string

// Clone returns a copy of the metadata map. Cloning nil returns nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether two metadata maps hold the same entries.
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// fingerprint returns a canonical string form of the map, used for
// set-membership checks. Keys are sorted so the result is order-independent,
// and every key and value is length-prefixed so the encoding is injective
// for arbitrary byte content.
func (m Metadata) fingerprint() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteString(strconv.Itoa(len(m[k])))
		b.WriteByte(':')
		b.WriteString(m[k])
	}
	return b.String()
}

// Extra is one keyed metadata entry inside a Record: the producing extension's
// key together with the metadata it emitted.
type Extra struct {
	Key      string
	Metadata Metadata
}

// fingerprint returns a canonical string form of the entry. The key is
// length-prefixed like the metadata fields, keeping the whole encoding
// injective.
func (e Extra) fingerprint() string {
	return strconv.Itoa(len(e.Key)) + ":" + e.Key + e.Metadata.fingerprint()
}

// Record is the serializable unit of published metadata for one producing
// element. It is immutable once built: one Record is created per producing
// element per build pass and never mutated afterwards.
type Record struct {
	// Name is the producing element's qualified name.
	Name string

	// Extras holds one entry per producer extension that ran for the element.
	Extras []Extra
}

// Equal reports structural equality: names equal and extras equal when
// compared as multisets of (key, metadata) pairs. Extras order is
// insignificant, and duplicate keys — legal in decoded foreign records,
// which never went through applicability dedup — compare symmetrically.
func (r Record) Equal(other Record) bool {
	if r.Name != other.Name || len(r.Extras) != len(other.Extras) {
		return false
	}
	counts := make(map[string]int, len(other.Extras))
	for _, e := range other.Extras {
		counts[e.fingerprint()]++
	}
	for _, e := range r.Extras {
		fp := e.fingerprint()
		if counts[fp] == 0 {
			return false
		}
		counts[fp]--
	}
	return true
}

// MetadataSet is the aggregate, build-pass-wide view handed to one consumer
// extension: the union of one extension key's Metadata across every visible
// Record. Structurally identical maps collapse to a single member.
type MetadataSet struct {
	items []Metadata
	seen  map[string]bool
}

// NewMetadataSet creates a set holding the given metadata maps, deduplicated
// structurally.
func NewMetadataSet(items ...Metadata) *MetadataSet {
	s := &MetadataSet{seen: make(map[string]bool)}
	for _, m := range items {
		s.Add(m)
	}
	return s
}

// Add inserts m unless a structurally identical map is already present.
// It reports whether the set grew.
func (s *MetadataSet) Add(m Metadata) bool {
	fp := m.fingerprint()
	if s.seen[fp] {
		return false
	}
	s.seen[fp] = true
	s.items = append(s.items, m)
	return true
}

// Len returns the number of distinct metadata maps in the set.
func (s *MetadataSet) Len() int { return len(s.items) }

// Items returns the set members in insertion order. The returned slice shares
// backing storage with the set and must not be modified.
func (s *MetadataSet) Items() []Metadata { return s.items }

// Equal reports whether both sets hold the same members, regardless of
// insertion order.
func (s *MetadataSet) Equal(other *MetadataSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for fp := range s.seen {
		if !other.seen[fp] {
			return false
		}
	}
	return true
}

// GroupByKey regroups records for consumption: every record's extras are
// flattened and collected per extension key into a MetadataSet. The result is
// identical regardless of the iteration order of records (set semantics).
func GroupByKey(records []Record) map[string]*MetadataSet {
	grouped := make(map[string]*MetadataSet)
	for _, r := range records {
		for _, e := range r.Extras {
			set, ok := grouped[e.Key]
			if !ok {
				set = NewMetadataSet()
				grouped[e.Key] = set
			}
			set.Add(e.Metadata)
		}
	}
	return grouped
}
