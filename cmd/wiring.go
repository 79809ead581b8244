package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/kozaktomas/face-search/internal/config"
	"github.com/kozaktomas/face-search/internal/database"
	"github.com/kozaktomas/face-search/internal/extractor"
	"github.com/kozaktomas/face-search/internal/gallery"
	"github.com/kozaktomas/face-search/internal/source"
	"github.com/schollz/progressbar/v3"
)

// newLogger returns a stderr logger honoring --verbosity.
func newLogger() logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(log.New(os.Stderr, "", log.LstdFlags)).WithName("face-search")
}

// loadConfig loads and validates configuration from the environment.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newExtractor(cfg *config.Config) *extractor.Client {
	return extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Timeout(), cfg.Extractor.MaxImageSize)
}

// newSource picks the bucket source when MINIO_BUCKET is set, otherwise the dataset directory.
func newSource(cfg *config.Config) (gallery.Source, error) {
	if !cfg.Bucket.Enabled() {
		return source.NewDir(cfg.Gallery.DatasetDir), nil
	}
	client, err := source.NewMinIOClient(&cfg.Bucket)
	if err != nil {
		return nil, err
	}
	return source.NewBucket(client, cfg.Bucket.Bucket, cfg.Bucket.Prefix), nil
}

// openStore wires source, extractor and persistence backend into a gallery store.
// The returned backend must be closed by the caller.
func openStore(
	ctx context.Context, cfg *config.Config, logger logr.Logger, ext extractor.Extractor, progress gallery.Progress,
) (*gallery.Store, database.Backend, error) {
	src, err := newSource(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open reference image source: %w", err)
	}

	backend, err := database.Open(ctx, cfg.Gallery.Store, cfg, logger.WithName("database"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open gallery store: %w", err)
	}

	store, err := gallery.NewStore(gallery.Options{
		Source:     src,
		Extractor:  ext,
		Persister:  backend,
		Extensions: cfg.Gallery.Extensions,
		Workers:    cfg.Gallery.Workers,
		Logger:     logger.WithName("gallery"),
		Progress:   progress,
	})
	if err != nil {
		backend.Close()
		return nil, nil, err
	}
	return store, backend, nil
}

// barProgress reports gallery build progress on a terminal progress bar.
type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Computing embeddings"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

// Step is safe for concurrent use; progressbar serializes Add internally.
func (p *barProgress) Step() {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
}

// outputJSON writes data to stdout as indented JSON.
func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
