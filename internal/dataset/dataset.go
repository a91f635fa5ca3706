// Package dataset extracts KP_hm features from files of positions and
// stores them as training samples.
package dataset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hailam/xqplay/internal/board"
	"github.com/hailam/xqplay/internal/nnue"
	"github.com/hailam/xqplay/internal/storage"
	"github.com/hailam/xqplay/xqnnue/features"
)

// DefaultBatchSize is the number of samples written per store batch.
const DefaultBatchSize = 256

// Stats summarizes one extraction.
type Stats struct {
	Read      int // non-empty, non-comment lines
	Extracted int
	Skipped   int // lines that failed to parse or verify
}

type line struct {
	num  int
	text string
}

// Extractor runs the extraction pipeline: one reader, Threads workers and
// one merger that owns the store.
type Extractor struct {
	Threads   int
	BatchSize int
	Store     *storage.Storage // nil: extract and count only
	RunID     uuid.UUID
}

// Extract parses a FEN and returns its feature sample.
func Extract(fen string) (storage.Sample, error) {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return storage.Sample{}, err
	}

	bucket, active := nnue.ActiveFeatures(pos)
	if want := pos.PieceCount() - 2; active.Size != want {
		return storage.Sample{}, fmt.Errorf("%d active features for %d non-king pieces", active.Size, want)
	}
	for _, idx := range active.Slice() {
		if idx < 0 || idx >= features.Dimensions {
			return storage.Sample{}, fmt.Errorf("feature index %d out of range", idx)
		}
	}

	return storage.Sample{
		FEN:      pos.ToFEN(),
		Bucket:   bucket,
		Mirrored: features.IsMirrored(bucket),
		Indices:  append([]int(nil), active.Slice()...),
	}, nil
}

// parseLine returns the position part of an input line, "" for blank
// lines and comments. Anything after ';' is an annotation.
func parseLine(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return ""
	}
	return s
}

// Run extracts every position read from r.
func (e *Extractor) Run(ctx context.Context, r io.Reader) (Stats, error) {
	log.Println("extraction started")
	defer log.Println("extraction finished")

	threads := max(e.Threads, 1)
	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var read, skipped atomic.Int64
	extracted := 0

	g, ctx := errgroup.WithContext(ctx)

	var lines = make(chan line, 128)
	var results = make(chan storage.Sample, 128)

	g.Go(func() error {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		num := 0
		for scanner.Scan() {
			num++
			text := parseLine(scanner.Text())
			if text == "" {
				continue
			}
			read.Add(1)
			select {
			case lines <- line{num, text}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return scanner.Err()
	})

	g.Go(func() error {
		batch := make([]storage.Sample, 0, batchSize)
		flush := func() error {
			if len(batch) == 0 || e.Store == nil {
				batch = batch[:0]
				return nil
			}
			if err := e.Store.PutSamples(batch); err != nil {
				return fmt.Errorf("store samples: %w", err)
			}
			batch = batch[:0]
			return nil
		}
		for sample := range results {
			sample.RunID = e.RunID
			batch = append(batch, sample)
			extracted++
			if len(batch) == batchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		return flush()
	})

	var wg = &sync.WaitGroup{}
	for i := 0; i < threads; i++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for l := range lines {
				sample, err := Extract(l.text)
				if err != nil {
					log.Printf("line %d: skipped: %v", l.num, err)
					skipped.Add(1)
					continue
				}
				select {
				case results <- sample:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	err := g.Wait()
	return Stats{
		Read:      int(read.Load()),
		Extracted: extracted,
		Skipped:   int(skipped.Load()),
	}, err
}
