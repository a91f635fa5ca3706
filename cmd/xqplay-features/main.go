package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/hailam/xqplay/internal/board"
	"github.com/hailam/xqplay/internal/dataset"
	"github.com/hailam/xqplay/internal/nnue"
	"github.com/hailam/xqplay/internal/storage"
	"github.com/hailam/xqplay/xqnnue"
	"github.com/hailam/xqplay/xqnnue/features"
)

var (
	fenFlag    = flag.String("fen", board.StartFEN, "position to extract features from")
	movesFlag  = flag.String("moves", "", "space separated ICCS moves replayed from -fen")
	inputFlag  = flag.String("input", "", "file of FEN lines to extract into the sample store")
	dbFlag     = flag.String("db", "", "sample store directory (default $XQPLAY_DB or the data directory)")
	noStore    = flag.Bool("nostore", false, "extract -input without writing samples")
	runsFlag   = flag.Bool("runs", false, "list extraction runs in the sample store")
	threads    = flag.Int("threads", runtime.NumCPU(), "extraction workers")
	netFlag    = flag.String("net", "", "network file to check for compatibility")
	halfDims   = flag.Int("halfdims", 1024, "feature transformer outputs per perspective")
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to file")
)

func main() {
	flag.Parse()

	// Start CPU profiling if requested (via flag or environment variable)
	profilePath := *cpuprofile
	if profilePath == "" {
		profilePath = os.Getenv("CPUPROFILE")
	}
	if profilePath != "" {
		f, err := os.Create(profilePath)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
		log.Printf("CPU profiling enabled, writing to %s", profilePath)
	}

	if err := run(); err != nil {
		log.Printf("error: %v", err)
		pprof.StopCPUProfile()
		os.Exit(1)
	}
}

func run() error {
	if *netFlag != "" {
		if err := checkNetwork(*netFlag); err != nil {
			return err
		}
	}

	switch {
	case *runsFlag:
		return listRuns()
	case *inputFlag != "":
		return extractFile(*inputFlag)
	case *movesFlag != "":
		return replay(*fenFlag, strings.Fields(*movesFlag))
	default:
		return show(*fenFlag)
	}
}

// checkNetwork validates a network header, looking the file up in the
// standard locations when it is not a path.
func checkNetwork(name string) error {
	path, err := findNetwork(name)
	if err != nil {
		return err
	}
	h, err := xqnnue.CheckFile(path, *halfDims)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("network %s compatible with %s: %q", path, features.Name, h.Description)
	return nil
}

func findNetwork(name string) (string, error) {
	if fileExists(name) {
		return name, nil
	}
	searchPaths := []string{"./nnue", "."}
	if dir, err := storage.GetNNUEDir(); err == nil {
		searchPaths = append([]string{dir}, searchPaths...)
	}
	for _, dir := range searchPaths {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("network %s: %w", name, os.ErrNotExist)
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func openStore() (*storage.Storage, error) {
	dir := *dbFlag
	if dir == "" {
		dir = os.Getenv("XQPLAY_DB")
	}
	if dir == "" {
		return storage.NewStorage()
	}
	return storage.Open(dir)
}

func show(fen string) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	bucket, active := nnue.ActiveFeatures(pos)
	fmt.Print(pos)
	fmt.Printf("bucket %d mirrored %v\n", features.BucketIndex(bucket), features.IsMirrored(bucket))
	fmt.Printf("%d active features: %v\n", active.Size, active.Slice())
	return nil
}

func replay(fen string, moves []string) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	tr := nnue.NewTracker(pos)

	for _, s := range moves {
		m, err := board.ParseMove(s)
		if err != nil {
			return err
		}
		bucket := tr.Active().Bucket
		if err := tr.MakeMove(m); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}

		removed, added, refresh := nnue.ChangedFeatures(bucket, tr.LastUndo())
		if refresh {
			fmt.Printf("%s: king moved, refresh to bucket %d\n", s, tr.Active().Bucket)
		} else {
			fmt.Printf("%s: -%v +%v\n", s, removed.Slice(), added.Slice())
		}
		if err := tr.Verify(); err != nil {
			return err
		}
	}

	stats := tr.Stats()
	fmt.Printf("%d moves, %d refreshes, %d incremental updates\n", tr.Ply(), stats.Refreshes, stats.Updates)
	return nil
}

func extractFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	e := &dataset.Extractor{Threads: *threads}
	var run *storage.Run
	if !*noStore {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		run, err = store.BeginRun(features.Name, xqnnue.FeatureTransformerHash(*halfDims))
		if err != nil {
			return err
		}
		e.Store = store
		e.RunID = run.ID
		defer func() {
			if err := store.FinishRun(run, run.Count); err != nil {
				log.Printf("finish run %s: %v", run.ID, err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := e.Run(ctx, f)
	if run != nil {
		run.Count = stats.Extracted
	}
	log.Printf("read %d, extracted %d, skipped %d", stats.Read, stats.Extracted, stats.Skipped)
	return err
}

func listRuns() error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "running"
		if !r.Finished.IsZero() {
			status = r.Finished.Sub(r.Started).Round(time.Millisecond).String()
		}
		fmt.Printf("%s %s %08x %d samples (%s)\n", r.ID, r.Feature, r.Hash, r.Count, status)
	}
	n, err := store.CountSamples()
	if err != nil {
		return err
	}
	fmt.Printf("%d samples stored\n", n)
	return nil
}
