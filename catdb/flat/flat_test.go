package flat

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rotblauer/gneiss/params"
)

func TestFlat(t *testing.T) {
	root := NewFlatWithRoot(t.TempDir())
	ride := root.ForRide("abc123")
	if ride.Exists() {
		t.Fatal("ride dir should not exist yet")
	}
	if ride.Path() != filepath.Join(root.Path(), params.RidesDir, "abc123") {
		t.Errorf("unexpected path %s", ride.Path())
	}

	data := []byte(`{"type":"FeatureCollection","features":[]}`)
	if err := ride.WriteGZ(params.EnrichedGZFileName, data); err != nil {
		t.Fatal(err)
	}
	// Writes replace rather than append.
	if err := ride.WriteGZ(params.EnrichedGZFileName, data); err != nil {
		t.Fatal(err)
	}
	got, err := ride.ReadGZ(params.EnrichedGZFileName)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(data) {
		t.Errorf("expected %s, got %s", data, got)
	}

	if err := ride.WriteFile(params.SummaryFileName, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(ride.Path(), params.SummaryFileName+".tmp")); !os.IsNotExist(err) {
		t.Error("temp file left behind")
	}
	if b, err := ride.ReadFile(params.SummaryFileName); err != nil || string(b) != "{}" {
		t.Errorf("unexpected summary %s %v", b, err)
	}

	if err := root.ForRide("000first").WriteFile(params.SummaryFileName, []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	ids, err := root.Rides()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids, []string{"000first", "abc123"}) {
		t.Errorf("unexpected rides %v", ids)
	}
}

func TestFlat_NotFound(t *testing.T) {
	root := NewFlatWithRoot(t.TempDir())
	if ids, err := root.Rides(); err != nil || len(ids) != 0 {
		t.Errorf("expected no rides, got %v %v", ids, err)
	}
	if _, err := root.ForRide("nope").ReadGZ(params.EnrichedGZFileName); !errors.Is(err, ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}
	if _, err := root.ForRide("nope").ReadFile(params.SummaryFileName); !errors.Is(err, ErrRideNotFound) {
		t.Errorf("expected ErrRideNotFound, got %v", err)
	}
}

func TestGZFileWriter_TruncatesUnderLock(t *testing.T) {
	ride := NewFlatWithRoot(t.TempDir()).ForRide("abc123")
	long := []byte(strings.Repeat("sandstone, shale, limestone; ", 200))
	if err := ride.WriteGZ(params.EnrichedGZFileName, long); err != nil {
		t.Fatal(err)
	}

	w, err := ride.NamedGZWriter(params.EnrichedGZFileName, nil)
	if err != nil {
		t.Fatal(err)
	}
	// Opening for write leaves the old contents readable.
	if got, err := ride.ReadGZ(params.EnrichedGZFileName); err != nil || string(got) != string(long) {
		t.Fatalf("expected previous contents before the first write, got %d bytes, %v", len(got), err)
	}
	if _, err := w.Write([]byte("granite")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	got, err := ride.ReadGZ(params.EnrichedGZFileName)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "granite" {
		t.Errorf("expected granite, got %q", got)
	}

	// Closing without a write still replaces the file.
	w, err = ride.NamedGZWriter(params.EnrichedGZFileName, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if got, err := ride.ReadGZ(params.EnrichedGZFileName); err != nil || len(got) != 0 {
		t.Errorf("expected empty contents, got %q %v", got, err)
	}
}
