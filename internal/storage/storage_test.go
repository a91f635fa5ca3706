package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
)

func openTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const startFEN = "rnbakabnr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/9/RNBAKABNR w - - 0 1"

func TestSamples(t *testing.T) {
	s := openTestStorage(t)
	runID := uuid.New()

	want := &Sample{
		FEN:      startFEN,
		Bucket:   10,
		Mirrored: false,
		Indices:  []int{10800, 10808, 11000},
		RunID:    runID,
	}

	t.Run("Missing", func(t *testing.T) {
		if _, err := s.GetSample(startFEN); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetSample error = %v, want ErrNotFound", err)
		}
	})

	t.Run("PutGet", func(t *testing.T) {
		if err := s.PutSample(want); err != nil {
			t.Fatalf("PutSample: %v", err)
		}
		got, err := s.GetSample(startFEN)
		if err != nil {
			t.Fatalf("GetSample: %v", err)
		}
		if got.FEN != want.FEN || got.Bucket != want.Bucket || got.RunID != runID {
			t.Errorf("GetSample = %+v, want %+v", got, want)
		}
		if !slices.Equal(got.Indices, want.Indices) {
			t.Errorf("Indices = %v, want %v", got.Indices, want.Indices)
		}
	})

	t.Run("Batch", func(t *testing.T) {
		batch := []Sample{
			{FEN: "4k4/9/9/9/9/9/9/9/9/4K4 w - - 0 1", Bucket: 10},
			{FEN: "3k5/9/9/9/9/9/9/9/9/5K3 w - - 0 1", Bucket: 64 | 20, Mirrored: true},
			*want, // overwrite, not a new sample
		}
		if err := s.PutSamples(batch); err != nil {
			t.Fatalf("PutSamples: %v", err)
		}
		n, err := s.CountSamples()
		if err != nil {
			t.Fatalf("CountSamples: %v", err)
		}
		if n != 3 {
			t.Errorf("CountSamples = %d, want 3", n)
		}
		got, err := s.GetSample(batch[1].FEN)
		if err != nil {
			t.Fatalf("GetSample: %v", err)
		}
		if !got.Mirrored {
			t.Error("Mirrored flag lost")
		}
	})
}

func TestSampleKey(t *testing.T) {
	a, b := SampleKey(startFEN), SampleKey(startFEN+" ")
	if len(a) != len(prefixSample)+8 {
		t.Errorf("key length = %d", len(a))
	}
	if string(a) == string(b) {
		t.Error("different FENs share a key")
	}
	if string(a) != string(SampleKey(startFEN)) {
		t.Error("SampleKey is not deterministic")
	}
}

func TestRuns(t *testing.T) {
	s := openTestStorage(t)

	first, err := s.BeginRun("KP_hm", 0xd17b100)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	time.Sleep(time.Millisecond)
	second, err := s.BeginRun("KP_hm", 0xd17b100)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("runs share an ID")
	}
	if err := s.FinishRun(first, 42); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, err := s.GetRun(first.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Count != 42 || got.Finished.IsZero() {
		t.Errorf("GetRun = %+v, want finished run with 42 samples", got)
	}
	if _, err := s.GetRun(uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun error = %v, want ErrNotFound", err)
	}

	runs, err := s.Runs()
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Runs = %d, want 2", len(runs))
	}
	if runs[0].ID != first.ID {
		t.Error("runs are not ordered by start time")
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.PutSample(&Sample{FEN: startFEN, Indices: []int{1}}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.GetSample(startFEN); err != nil {
		t.Errorf("sample lost across reopen: %v", err)
	}
}

func TestDataPaths(t *testing.T) {
	if runtime.GOOS == "linux" {
		t.Setenv("XDG_DATA_HOME", t.TempDir())
	}

	dataDir, err := GetDataDir()
	if err != nil {
		t.Fatalf("GetDataDir failed: %v", err)
	}
	if filepath.Base(dataDir) != appName {
		t.Errorf("data dir %s does not end in %s", dataDir, appName)
	}
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		t.Errorf("Data directory was not created: %s", dataDir)
	}

	dbDir, err := GetDatabaseDir()
	if err != nil {
		t.Fatalf("GetDatabaseDir failed: %v", err)
	}
	if filepath.Dir(dbDir) != dataDir {
		t.Errorf("database dir %s is not under %s", dbDir, dataDir)
	}
}
