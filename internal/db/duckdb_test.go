package db

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := New(filepath.Join(t.TempDir(), "db.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestUpsertCrate(t *testing.T) {
	d := testDB(t)

	c1, err := d.UpsertCrate("serde", "1.0.0", 9)
	if err != nil {
		t.Fatal(err)
	}
	if c1.ID == 0 {
		t.Fatal("expected non-zero crate id")
	}
	if c1.FormatVersion != 9 {
		t.Errorf("format version = %d, want 9", c1.FormatVersion)
	}

	c2, err := d.UpsertCrate("serde", "1.0.0", 9)
	if err != nil {
		t.Fatal(err)
	}
	if c2.ID != c1.ID {
		t.Errorf("second upsert created new row: %d vs %d", c2.ID, c1.ID)
	}

	other, err := d.UpsertCrate("serde", "1.0.1", 9)
	if err != nil {
		t.Fatal(err)
	}
	if other.ID == c1.ID {
		t.Error("different version shares a row")
	}
}

func TestGetLatestCrate(t *testing.T) {
	d := testDB(t)

	old, _ := d.UpsertCrate("tokio", "1.0.0", 9)
	cur, _ := d.UpsertCrate("tokio", "1.35.0", 9)

	if err := d.MarkCrateIndexed(old.ID); err != nil {
		t.Fatal(err)
	}
	if err := d.MarkCrateIndexed(cur.ID); err != nil {
		t.Fatal(err)
	}

	got, err := d.GetLatestCrate("tokio")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("no latest crate")
	}
	if got.IndexedAt == nil {
		t.Error("indexed_at not set")
	}

	if missing, _ := d.GetLatestCrate("nope"); missing != nil {
		t.Errorf("GetLatestCrate(nope) = %+v, want nil", missing)
	}
}

func TestItemRoundTrip(t *testing.T) {
	d := testDB(t)
	c, _ := d.UpsertCrate("serde", "1.0.0", 9)

	item := &Item{
		CrateID:       c.ID,
		RustdocID:     "0:5",
		Name:          "Serialize",
		Path:          "serde::Serialize",
		Kind:          "trait",
		Summary:       "A data structure that can be serialized.",
		Signature:     "pub trait Serialize",
		ContentHash:   "abc123",
		DocLinks:      `{"Serializer":"rsdoc://serde/1.0.0/serde::Serializer"}`,
		FragmentNames: `["required-methods"]`,
	}
	if err := d.InsertItem(item); err != nil {
		t.Fatal(err)
	}
	if item.ID == 0 {
		t.Fatal("insert did not backfill id")
	}

	got, err := d.GetItemByPath(c.ID, "serde::Serialize")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("item not found by path")
	}
	if got.Signature != item.Signature || got.Summary != item.Summary {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	byID, err := d.GetItemByRustdocID(c.ID, "0:5")
	if err != nil {
		t.Fatal(err)
	}
	if byID == nil || byID.ID != item.ID {
		t.Errorf("lookup by rustdoc id = %+v, want id %d", byID, item.ID)
	}

	n, err := d.CountItems(c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}

	if err := d.DeleteItemsByCrate(c.ID); err != nil {
		t.Fatal(err)
	}
	if n, _ := d.CountItems(c.ID); n != 0 {
		t.Errorf("count after delete = %d, want 0", n)
	}
}

func TestSearchItems(t *testing.T) {
	d := testDB(t)
	c, _ := d.UpsertCrate("serde", "1.0.0", 9)

	for _, it := range []Item{
		{CrateID: c.ID, RustdocID: "0:1", Name: "Serialize", Path: "serde::Serialize", Kind: "trait"},
		{CrateID: c.ID, RustdocID: "0:2", Name: "Deserialize", Path: "serde::Deserialize", Kind: "trait"},
		{CrateID: c.ID, RustdocID: "0:3", Name: "forward_to_deserialize_any", Path: "serde::forward_to_deserialize_any", Kind: "macro"},
	} {
		it := it
		if err := d.InsertItem(&it); err != nil {
			t.Fatal(err)
		}
	}

	got, err := d.SearchItems("deserialize", []int{c.ID}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	// Shorter names sort first.
	if got[0].Name != "Deserialize" {
		t.Errorf("first result = %q, want Deserialize", got[0].Name)
	}

	none, err := d.SearchItems("tokio", nil, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("got %d results for unrelated query", len(none))
	}
}

func TestListItemsByKind(t *testing.T) {
	d := testDB(t)
	c, _ := d.UpsertCrate("serde", "1.0.0", 9)

	for _, it := range []Item{
		{CrateID: c.ID, RustdocID: "0:1", Name: "Serialize", Path: "serde::Serialize", Kind: "trait"},
		{CrateID: c.ID, RustdocID: "0:2", Name: "ser", Path: "serde::ser", Kind: "module"},
	} {
		it := it
		if err := d.InsertItem(&it); err != nil {
			t.Fatal(err)
		}
	}

	traits, err := d.ListItemsByKind(c.ID, "trait")
	if err != nil {
		t.Fatal(err)
	}
	if len(traits) != 1 || traits[0].Name != "Serialize" {
		t.Errorf("traits = %+v, want one Serialize", traits)
	}
}

func TestResolveReexport(t *testing.T) {
	d := testDB(t)
	c, _ := d.UpsertCrate("tokio", "1.35.0", 9)

	if err := d.InsertReexport(c.ID, "tokio::sync::Mutex", "tokio-sync", "tokio_sync::Mutex"); err != nil {
		t.Fatal(err)
	}
	if err := d.InsertReexport(c.ID, "tokio::prelude", "tokio-core", "tokio_core::prelude"); err != nil {
		t.Fatal(err)
	}

	// Exact match.
	crate, path, ok := d.ResolveReexport(c.ID, "tokio::sync::Mutex")
	if !ok || crate != "tokio-sync" || path != "tokio_sync::Mutex" {
		t.Errorf("exact resolve = %q %q %v", crate, path, ok)
	}

	// Prefix match extends the suffix.
	crate, path, ok = d.ResolveReexport(c.ID, "tokio::prelude::Future")
	if !ok || crate != "tokio-core" || path != "tokio_core::prelude::Future" {
		t.Errorf("prefix resolve = %q %q %v", crate, path, ok)
	}

	if _, _, ok := d.ResolveReexport(c.ID, "tokio::time"); ok {
		t.Error("resolved a path with no re-export")
	}

	if err := d.DeleteReexportsByCrate(c.ID); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := d.ResolveReexport(c.ID, "tokio::sync::Mutex"); ok {
		t.Error("resolve succeeded after delete")
	}
}
