package model

import "testing"

func TestRecordEqualIgnoresExtrasOrder(t *testing.T) {
	a := Record{
		Name: "pkg.Foo",
		Extras: []Extra{
			{Key: "E1", Metadata: Metadata{"path": "pkg.Foo"}},
			{Key: "E2", Metadata: Metadata{"kind": "class"}},
		},
	}
	b := Record{
		Name: "pkg.Foo",
		Extras: []Extra{
			{Key: "E2", Metadata: Metadata{"kind": "class"}},
			{Key: "E1", Metadata: Metadata{"path": "pkg.Foo"}},
		},
	}
	if !a.Equal(b) {
		t.Error("records with reordered extras should be equal")
	}

	c := b
	c.Extras = []Extra{
		{Key: "E2", Metadata: Metadata{"kind": "enum"}},
		{Key: "E1", Metadata: Metadata{"path": "pkg.Foo"}},
	}
	if a.Equal(c) {
		t.Error("records with different metadata should not be equal")
	}
}

func TestMetadataSetDeduplicates(t *testing.T) {
	s := NewMetadataSet()
	if !s.Add(Metadata{"path": "pkg.Foo"}) {
		t.Error("first Add should grow the set")
	}
	if s.Add(Metadata{"path": "pkg.Foo"}) {
		t.Error("structurally identical map should not grow the set")
	}
	if !s.Add(Metadata{"path": "pkg.Bar"}) {
		t.Error("distinct map should grow the set")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestMetadataSetDistinguishesSeparatorBytes(t *testing.T) {
	// Values may carry arbitrary bytes; structurally distinct maps whose
	// concatenated content happens to line up must still count as two
	// members.
	s := NewMetadataSet(Metadata{"k": "v\x01k2\x00v2"})
	if !s.Add(Metadata{"k": "v", "k2": "v2"}) {
		t.Error("distinct metadata map should grow the set")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	if !NewMetadataSet(Metadata{"ab": "c"}).Add(Metadata{"a": "bc"}) {
		t.Error("maps differing only in key/value split should be distinct")
	}
}

func TestRecordEqualDuplicateKeysSymmetric(t *testing.T) {
	// Decoded foreign records never went through applicability dedup and may
	// repeat an extension key; equality must stay symmetric for them.
	a := Record{
		Name: "pkg.Foo",
		Extras: []Extra{
			{Key: "E", Metadata: Metadata{"path": "pkg.Foo"}},
			{Key: "E", Metadata: Metadata{"path": "pkg.Bar"}},
		},
	}
	b := Record{
		Name: "pkg.Foo",
		Extras: []Extra{
			{Key: "E", Metadata: Metadata{"path": "pkg.Bar"}},
			{Key: "E", Metadata: Metadata{"path": "pkg.Bar"}},
		},
	}
	if a.Equal(b) || b.Equal(a) {
		t.Error("records with different duplicate-key extras should be unequal both ways")
	}

	c := Record{
		Name: "pkg.Foo",
		Extras: []Extra{
			{Key: "E", Metadata: Metadata{"path": "pkg.Bar"}},
			{Key: "E", Metadata: Metadata{"path": "pkg.Foo"}},
		},
	}
	if !a.Equal(c) || !c.Equal(a) {
		t.Error("records with the same duplicate-key extras should be equal both ways")
	}
}

func TestMetadataSetEqualIgnoresOrder(t *testing.T) {
	a := NewMetadataSet(Metadata{"x": "1"}, Metadata{"y": "2"})
	b := NewMetadataSet(Metadata{"y": "2"}, Metadata{"x": "1"})
	if !a.Equal(b) {
		t.Error("sets with same members should be equal regardless of order")
	}
	c := NewMetadataSet(Metadata{"x": "1"})
	if a.Equal(c) {
		t.Error("sets of different size should not be equal")
	}
}

func TestGroupByKeyDeterminism(t *testing.T) {
	records := []Record{
		{Name: "a.A", Extras: []Extra{{Key: "E", Metadata: Metadata{"path": "a.A"}}}},
		{Name: "b.B", Extras: []Extra{
			{Key: "E", Metadata: Metadata{"path": "b.B"}},
			{Key: "F", Metadata: Metadata{"flag": "on"}},
		}},
		{Name: "c.C", Extras: []Extra{{Key: "E", Metadata: Metadata{"path": "a.A"}}}},
	}
	reversed := []Record{records[2], records[1], records[0]}

	g1 := GroupByKey(records)
	g2 := GroupByKey(reversed)

	if len(g1) != 2 || len(g2) != 2 {
		t.Fatalf("expected 2 keys, got %d and %d", len(g1), len(g2))
	}
	for key, set := range g1 {
		if !set.Equal(g2[key]) {
			t.Errorf("grouping for %q differs between iteration orders", key)
		}
	}
	// Duplicate payloads collapse: a.A appears twice under E.
	if g1["E"].Len() != 2 {
		t.Errorf("E set size = %d, want 2", g1["E"].Len())
	}
}

func TestNewElementDerivesPackage(t *testing.T) {
	el := NewElement("com.uber.lib1.Lib1Model", KindClass)
	if el.Package() != "com.uber.lib1" {
		t.Errorf("Package = %q, want com.uber.lib1", el.Package())
	}
	if NewElement("TopLevel", KindObject).Package() != "" {
		t.Error("top-level element should have empty package")
	}
}
