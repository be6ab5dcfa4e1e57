package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"

	"github.com/chazu/voronize/pkg/grid"
)

func TestWriteRead(t *testing.T) {
	f := grid.NewField(grid.NewShape(3, 4, 5), r3.Vector{X: 0.5, Y: 0.5, Z: 0.25})
	for i := range f.Data {
		f.Data[i] = float32(i) - 30
	}
	box := r3.Vector{X: 12, Y: 8, Z: 4}
	path := filepath.Join(t.TempDir(), "cache", "part.vox.zst")

	if err := Write(path, "part.stl", f, box); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, gotBox, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if diff := cmp.Diff(f, got); diff != "" {
		t.Errorf("field mismatch (-want +got):\n%s", diff)
	}
	if gotBox != box {
		t.Errorf("box = %v, want %v", gotBox, box)
	}
}

func TestReadMissing(t *testing.T) {
	if _, _, err := Read(filepath.Join(t.TempDir(), "none.vox.zst")); err == nil {
		t.Error("expected error")
	}
}

func TestKeyTracksInputs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.stl")
	if err := os.WriteFile(path, []byte("solid a"), 0o644); err != nil {
		t.Fatal(err)
	}
	k1, err := Key(path, 100, 2)
	if err != nil {
		t.Fatalf("Key: %v", err)
	}
	k2, _ := Key(path, 120, 2)
	if k1 == k2 {
		t.Error("key ignores resolution")
	}
	if err := os.WriteFile(path, []byte("solid b"), 0o644); err != nil {
		t.Fatal(err)
	}
	k3, _ := Key(path, 100, 2)
	if k1 == k3 {
		t.Error("key ignores file contents")
	}
	if again, _ := Key(path, 100, 2); again != k3 {
		t.Error("key is not stable")
	}
}
