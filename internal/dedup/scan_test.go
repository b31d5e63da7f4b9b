package dedup

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanFindsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "%PDF same content")
	writeFile(t, filepath.Join(dir, "b.pdf"), "%PDF same content")
	writeFile(t, filepath.Join(dir, "c.pdf"), "%PDF other content")
	writeFile(t, filepath.Join(dir, "notes.txt"), "%PDF same content")

	duplicates, err := Scan(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(duplicates) != 1 {
		t.Fatalf("got %d duplicates, want 1: %+v", len(duplicates), duplicates)
	}
	// Lexically first path is canonical.
	if filepath.Base(duplicates[0].Canonical) != "a.pdf" || filepath.Base(duplicates[0].Path) != "b.pdf" {
		t.Errorf("duplicate = %+v", duplicates[0])
	}
}

func TestScanSkipsReservedDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "%PDF same content")
	writeFile(t, filepath.Join(dir, "duplicates", "a.pdf"), "%PDF same content")
	writeFile(t, filepath.Join(dir, "quarantine", "b.pdf"), "%PDF same content")

	duplicates, err := Scan(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(duplicates) != 0 {
		t.Errorf("got %d duplicates, want 0 (reserved dirs skipped)", len(duplicates))
	}
}

func TestApplyMovesWithUniqueNames(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "duplicates")
	writeFile(t, filepath.Join(dir, "x", "bill.pdf"), "%PDF one")
	writeFile(t, filepath.Join(dir, "y", "bill.pdf"), "%PDF two")
	writeFile(t, filepath.Join(dest, "bill.pdf"), "%PDF occupied")

	duplicates := []Duplicate{
		{Path: filepath.Join(dir, "x", "bill.pdf"), Canonical: "k1", Hash: "h1"},
		{Path: filepath.Join(dir, "y", "bill.pdf"), Canonical: "k2", Hash: "h2"},
	}
	if err := Apply(duplicates, dest); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"bill.pdf", "bill__2.pdf", "bill__3.pdf"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("expected %s in destination: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "x", "bill.pdf")); !os.IsNotExist(err) {
		t.Error("source file not moved")
	}
}

func TestIndexPersistsAcrossScans(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "orig.pdf"), "%PDF persisted")

	indexPath := filepath.Join(t.TempDir(), "hashes.db")
	index, err := OpenIndex(indexPath)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Scan(dir, index); err != nil {
		t.Fatal(err)
	}
	if err := index.Close(); err != nil {
		t.Fatal(err)
	}

	// The original is filed away; a re-download with a new name appears.
	if err := os.Remove(filepath.Join(dir, "orig.pdf")); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "redownload.pdf"), "%PDF persisted")

	index, err = OpenIndex(indexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()

	duplicates, err := Scan(dir, index)
	if err != nil {
		t.Fatal(err)
	}
	if len(duplicates) != 1 {
		t.Fatalf("got %d duplicates, want 1 via persistent index", len(duplicates))
	}
	if filepath.Base(duplicates[0].Canonical) != "orig.pdf" {
		t.Errorf("canonical = %q, want orig.pdf", duplicates[0].Canonical)
	}
}

func TestIndexSeenRoundTrip(t *testing.T) {
	index, err := OpenIndex(filepath.Join(t.TempDir(), "idx.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer index.Close()

	if entry, err := index.Seen("deadbeef"); err != nil || entry != nil {
		t.Fatalf("Seen(new) = (%v, %v), want (nil, nil)", entry, err)
	}
	if err := index.Record("deadbeef", "/tmp/a.pdf"); err != nil {
		t.Fatal(err)
	}
	// A second Record must not displace the first-seen path.
	if err := index.Record("deadbeef", "/tmp/b.pdf"); err != nil {
		t.Fatal(err)
	}
	entry, err := index.Seen("deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.Path != "/tmp/a.pdf" {
		t.Errorf("entry = %+v, want first-seen path", entry)
	}
}
