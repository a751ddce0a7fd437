package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kozaktomas/photo-culler/internal/fingerprint"
	"github.com/schollz/progressbar/v3"
)

// photoExts contains the image extensions the scanner picks up. Formats must
// be decodable by the fingerprint package (jpeg, png, gif, bmp).
var photoExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
}

// Embedder computes a semantic embedding vector for an image. The detector
// sidecar implements it; a nil Embedder disables the embedding signal.
type Embedder interface {
	ComputeEmbedding(ctx context.Context, imageData []byte) ([]float32, error)
}

// ScanOptions configures a directory scan.
type ScanOptions struct {
	Embedder    Embedder // nil = skip embeddings
	Store       *Store   // nil = no caching
	Concurrency int      // workers, defaults to 4
	Progress    bool     // render a progress bar
}

// ScanResult holds the scanned records plus per-file errors. A file error
// never aborts the scan; the affected photo either carries fewer signals or,
// for unreadable files, is skipped entirely.
type ScanResult struct {
	Records []PhotoRecord
	Errors  []error
}

// Scan walks dir for photos and builds a PhotoRecord per decodable file.
// Records are returned in deterministic path order.
func Scan(ctx context.Context, dir string, opts ScanOptions) (*ScanResult, error) {
	files, err := listPhotos(dir)
	if err != nil {
		return nil, err
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	var bar *progressbar.ProgressBar
	if opts.Progress {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription(fmt.Sprintf("Scanning photos (%d workers)", concurrency)),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("photos"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}

	type fileResult struct {
		index  int
		record *PhotoRecord
		err    error
	}

	resultsChan := make(chan fileResult, len(files))
	semaphore := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i := range files {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if ctx.Err() != nil {
				resultsChan <- fileResult{index: idx, err: ctx.Err()}
				return
			}

			rec, err := scanFile(ctx, path, opts)
			resultsChan <- fileResult{index: idx, record: rec, err: err}
			if bar != nil {
				bar.Add(1)
			}
		}(i, files[i])
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	ordered := make([]*fileResult, len(files))
	for r := range resultsChan {
		r := r
		ordered[r.index] = &r
	}
	if bar != nil {
		fmt.Println() // New line after progress bar
	}

	result := &ScanResult{}
	for _, r := range ordered {
		if r == nil {
			continue
		}
		if r.err != nil {
			result.Errors = append(result.Errors, r.err)
		}
		if r.record != nil {
			result.Records = append(result.Records, *r.record)
		}
	}
	return result, nil
}

// scanFile builds a record for one file. Missing signals are recorded as
// absent; only an unreadable or undecodable file yields a nil record.
func scanFile(ctx context.Context, path string, opts ScanOptions) (*PhotoRecord, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	modTime := info.ModTime().UnixMilli()

	if opts.Store != nil {
		cached, hit, err := opts.Store.Get(path, modTime)
		if err == nil && hit {
			return cached, nil
		}
		// A corrupt cache row is not fatal; recompute below.
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rec := PhotoRecord{Path: path}

	hashes, err := fingerprint.Compute(data)
	if err != nil {
		// Not decodable as an image; skip the file entirely.
		return nil, fmt.Errorf("failed to fingerprint %s: %w", path, err)
	}
	rec.Hash = hashes.PHash

	if ct := CaptureTime(data); ct != nil {
		rec.CaptureTime = ct
	} else {
		// Fall back to file modification time.
		rec.CaptureTime = &modTime
	}

	var embedErr error
	if opts.Embedder != nil {
		emb, err := opts.Embedder.ComputeEmbedding(ctx, data)
		if err != nil {
			// Embedding provider failure leaves the signal absent.
			embedErr = fmt.Errorf("embedding failed for %s: %w", path, err)
		} else {
			rec.Embedding = emb
		}
	}

	if opts.Store != nil {
		if err := opts.Store.Put(rec, modTime); err != nil {
			return &rec, err
		}
	}
	return &rec, embedErr
}

// listPhotos collects photo paths under dir in sorted order.
func listPhotos(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if photoExts[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
