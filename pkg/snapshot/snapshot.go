// Package snapshot stores voxel fields on disk as zstd-compressed gob
// streams so expensive inputs (voxelized meshes) can be reused between
// runs.
package snapshot

import (
	"bufio"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/geo/r3"
	"github.com/klauspost/compress/zstd"

	"github.com/chazu/voronize/pkg/grid"
)

// Version is bumped whenever the on-disk layout changes.
const Version = 1

// Header is written as a JSON line ahead of the gob payload so a file can
// be identified without decoding it.
type Header struct {
	Version int       `json:"version"`
	Source  string    `json:"source"`
	Shape   [3]int    `json:"shape"`
	Scale   r3.Vector `json:"scale"`
}

// FieldV1 is the gob payload.
type FieldV1 struct {
	Header Header
	Box    r3.Vector
	Data   []float32
}

// Write stores f under path, creating parent directories as needed.
func Write(path, source string, f *grid.Field, box r3.Vector) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	snap := FieldV1{
		Header: Header{
			Version: Version,
			Source:  source,
			Shape:   [3]int{f.Shape.Nx, f.Shape.Ny, f.Shape.Nz},
			Scale:   f.Scale,
		},
		Box:  box,
		Data: f.Data,
	}
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(append(hb, '\n')); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return out.Close()
}

// Read loads a field written by Write.
func Read(path string) (*grid.Field, r3.Vector, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	defer in.Close()

	dec, err := zstd.NewReader(in)
	if err != nil {
		return nil, r3.Vector{}, err
	}
	defer dec.Close()
	br := bufio.NewReaderSize(dec, 256*1024)

	// The header line is repeated inside the gob payload.
	if _, err := br.ReadBytes('\n'); err != nil {
		return nil, r3.Vector{}, fmt.Errorf("read header: %w", err)
	}
	var snap FieldV1
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return nil, r3.Vector{}, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return nil, r3.Vector{}, fmt.Errorf("snapshot version %d, want %d", snap.Header.Version, Version)
	}
	s := snap.Header.Shape
	shape := grid.NewShape(s[0], s[1], s[2])
	if len(snap.Data) != shape.Len() {
		return nil, r3.Vector{}, fmt.Errorf("snapshot holds %d values for shape %s", len(snap.Data), shape)
	}
	return &grid.Field{Shape: shape, Scale: snap.Header.Scale, Data: snap.Data}, snap.Box, nil
}

// Key names the snapshot of a voxelized input. It changes whenever the
// input file contents or the rasterization parameters change.
func Key(inputPath string, res, buffer int) (string, error) {
	b, err := os.ReadFile(inputPath)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(b)
	fmt.Fprintf(h, "|res=%d|buffer=%d|v=%d", res, buffer, Version)
	base := filepath.Base(inputPath)
	return fmt.Sprintf("%s-%s.vox.zst", base, hex.EncodeToString(h.Sum(nil))[:16]), nil
}
