// Network file header validation.

package xqnnue

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hailam/xqplay/xqnnue/features"
)

// Errors reported while validating a network file header.
var (
	ErrVersionMismatch = errors.New("network version mismatch")
	ErrHashMismatch    = errors.New("feature transformer hash mismatch")
)

// Header is the leading part of a network file: file version, network hash,
// free-form description and the hash of the feature transformer section,
// which is where the feature set identifies itself.
type Header struct {
	Version         uint32
	Hash            uint32
	Description     string
	TransformerHash uint32
}

// FeatureTransformerHash returns the hash a network with the given number of
// accumulator outputs per perspective must carry for this feature set.
func FeatureTransformerHash(halfDims int) uint32 {
	return features.HashValue ^ uint32(halfDims*2)
}

// ReadHeader reads the network file header and checks the file version.
func ReadHeader(r io.Reader) (*Header, error) {
	h := &Header{}

	version, err := ReadLittleEndian[uint32](r)
	if err != nil {
		return nil, fmt.Errorf("failed to read version: %w", err)
	}
	if version != Version {
		return nil, fmt.Errorf("%w: expected %08x, got %08x", ErrVersionMismatch, Version, version)
	}
	h.Version = version

	if h.Hash, err = ReadLittleEndian[uint32](r); err != nil {
		return nil, fmt.Errorf("failed to read hash: %w", err)
	}

	descSize, err := ReadLittleEndian[uint32](r)
	if err != nil {
		return nil, fmt.Errorf("failed to read description size: %w", err)
	}
	if descSize > MaxDescriptionSize {
		return nil, fmt.Errorf("description size %d exceeds %d", descSize, MaxDescriptionSize)
	}
	desc := make([]byte, descSize)
	if _, err := io.ReadFull(r, desc); err != nil {
		return nil, fmt.Errorf("failed to read description: %w", err)
	}
	h.Description = string(desc)

	if h.TransformerHash, err = ReadLittleEndian[uint32](r); err != nil {
		return nil, fmt.Errorf("failed to read transformer hash: %w", err)
	}

	return h, nil
}

// WriteHeader writes a network file header.
func WriteHeader(w io.Writer, h *Header) error {
	if err := WriteLittleEndian(w, h.Version); err != nil {
		return err
	}
	if err := WriteLittleEndian(w, h.Hash); err != nil {
		return err
	}
	if err := WriteLittleEndian(w, uint32(len(h.Description))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, h.Description); err != nil {
		return err
	}
	return WriteLittleEndian(w, h.TransformerHash)
}

// CheckCompatibility reads a header and verifies that the feature
// transformer section was built for this feature set with halfDims outputs.
func CheckCompatibility(r io.Reader, halfDims int) (*Header, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if want := FeatureTransformerHash(halfDims); h.TransformerHash != want {
		return h, fmt.Errorf("%w: expected %08x (%s, %d outputs), got %08x",
			ErrHashMismatch, want, features.Name, halfDims, h.TransformerHash)
	}
	return h, nil
}

// CheckFile opens a network file and runs CheckCompatibility on it.
func CheckFile(filename string, halfDims int) (*Header, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return CheckCompatibility(f, halfDims)
}
