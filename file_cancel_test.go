package itunesdb_test

import (
	"context"
	"testing"

	"github.com/simonhull/itunesdb"
)

// TestOpenMany_Cancellation verifies that a cancelled context stops the batch
func TestOpenMany_Cancellation(t *testing.T) {
	path := writeDatabase(t, encodeSample(t))
	paths := []string{path, path, path, path, path}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dbs, err := itunesdb.OpenMany(ctx, paths...)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if dbs != nil {
		t.Error("expected nil databases on error")
	}
}

// TestOpenMany_PartialFailure verifies that one bad path fails the batch
func TestOpenMany_PartialFailure(t *testing.T) {
	path := writeDatabase(t, encodeSample(t))

	dbs, err := itunesdb.OpenMany(context.Background(), path, "/nonexistent/iTunesDB", path)
	if err == nil {
		t.Fatal("expected error from nonexistent file")
	}
	if dbs != nil {
		t.Error("expected nil databases on partial failure")
	}
}

func TestOpenMany_Order(t *testing.T) {
	first := writeDatabase(t, encodeSample(t))
	empty, err := itunesdb.Encode(&itunesdb.Library{})
	if err != nil {
		t.Fatal(err)
	}
	second := writeDatabase(t, empty)

	dbs, err := itunesdb.OpenManyWith(context.Background(), []string{first, second, first},
		[]itunesdb.Option{itunesdb.WithStrictParsing()})
	if err != nil {
		t.Fatalf("OpenManyWith failed: %v", err)
	}
	if len(dbs) != 3 {
		t.Fatalf("expected 3 databases, got %d", len(dbs))
	}
	counts := []int{2, 0, 2}
	for i, db := range dbs {
		if got := len(db.Library.Songs); got != counts[i] {
			t.Errorf("database %d: expected %d songs, got %d", i, counts[i], got)
		}
	}
}

func TestOpenMany_NoPaths(t *testing.T) {
	dbs, err := itunesdb.OpenMany(context.Background())
	if err != nil || dbs != nil {
		t.Errorf("expected nil, nil; got %v, %v", dbs, err)
	}
}
