package xqnnue

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hailam/xqplay/xqnnue/features"
)

func testHeader(halfDims int) *Header {
	return &Header{
		Version:         Version,
		Hash:            0x3c103e72,
		Description:     "KP_hm test network",
		TransformerHash: FeatureTransformerHash(halfDims),
	}
}

func TestFeatureTransformerHash(t *testing.T) {
	if got := FeatureTransformerHash(0); got != features.HashValue {
		t.Errorf("FeatureTransformerHash(0) = %08x, want %08x", got, features.HashValue)
	}
	if FeatureTransformerHash(512) == FeatureTransformerHash(1024) {
		t.Error("different widths share a transformer hash")
	}
}

func TestHeaderRoundTrip(t *testing.T) {
	want := testHeader(512)
	var buf bytes.Buffer
	if err := WriteHeader(&buf, want); err != nil {
		t.Fatalf("WriteHeader: %v", err)
	}
	if buf.Len() != 16+len(want.Description) {
		t.Errorf("header is %d bytes, want %d", buf.Len(), 16+len(want.Description))
	}

	got, err := CheckCompatibility(&buf, 512)
	if err != nil {
		t.Fatalf("CheckCompatibility: %v", err)
	}
	if *got != *want {
		t.Errorf("header = %+v, want %+v", got, want)
	}
}

func TestCheckCompatibilityErrors(t *testing.T) {
	t.Run("hash", func(t *testing.T) {
		var buf bytes.Buffer
		WriteHeader(&buf, testHeader(256))
		if _, err := CheckCompatibility(&buf, 512); !errors.Is(err, ErrHashMismatch) {
			t.Errorf("err = %v, want ErrHashMismatch", err)
		}
	})

	t.Run("version", func(t *testing.T) {
		h := testHeader(512)
		h.Version++
		var buf bytes.Buffer
		WriteHeader(&buf, h)
		if _, err := CheckCompatibility(&buf, 512); !errors.Is(err, ErrVersionMismatch) {
			t.Errorf("err = %v, want ErrVersionMismatch", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		var buf bytes.Buffer
		WriteHeader(&buf, testHeader(512))
		data := buf.Bytes()[:buf.Len()-2]
		_, err := CheckCompatibility(bytes.NewReader(data), 512)
		if err == nil || errors.Is(err, ErrHashMismatch) {
			t.Errorf("err = %v, want read error", err)
		}
	})

	t.Run("oversized description", func(t *testing.T) {
		var buf bytes.Buffer
		WriteLittleEndian(&buf, Version)
		WriteLittleEndian(&buf, uint32(0))
		WriteLittleEndian(&buf, uint32(MaxDescriptionSize+1))
		if _, err := ReadHeader(&buf); err == nil {
			t.Error("oversized description accepted")
		}
	})
}

func TestCheckFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kp_hm.nnue")
	var buf bytes.Buffer
	if err := WriteHeader(&buf, testHeader(1024)); err != nil {
		t.Fatal(err)
	}
	buf.Write(make([]byte, 64)) // parameters follow the header
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := CheckFile(path, 1024)
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	if h.Description != "KP_hm test network" {
		t.Errorf("Description = %q", h.Description)
	}

	if _, err := CheckFile(filepath.Join(t.TempDir(), "missing.nnue"), 1024); err == nil {
		t.Error("missing file accepted")
	}
}
