package gallery

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/kozaktomas/face-search/internal/constants"
	"github.com/kozaktomas/face-search/internal/extractor"
)

// Progress receives build progress. Step is called once per candidate image and may be
// called from several goroutines; implementations must be safe for that.
type Progress interface {
	Start(total int)
	Step()
}

// Options configures a Store.
type Options struct {
	Source     Source
	Extractor  extractor.Extractor
	Persister  Persister
	Extensions []string // defaults to DefaultExtensions
	Workers    int      // parallel extractions, defaults to constants.DefaultGalleryWorkers
	Logger     logr.Logger
	Progress   Progress // optional
}

// Store materializes the gallery once per process and holds it as an immutable snapshot.
// Readers call Snapshot without locking; Reload swaps in a freshly built gallery.
type Store struct {
	source     Source
	extractor  extractor.Extractor
	persister  Persister
	extensions []string
	workers    int
	log        logr.Logger
	progress   Progress

	current  atomic.Pointer[Gallery]
	reloadMu sync.Mutex
}

// NewStore creates a store. Nothing is loaded until Load is called.
func NewStore(opts Options) (*Store, error) {
	if opts.Source == nil {
		return nil, errors.New("gallery source is required")
	}
	if opts.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if opts.Persister == nil {
		return nil, errors.New("gallery persister is required")
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions
	}
	if opts.Workers <= 0 {
		opts.Workers = constants.DefaultGalleryWorkers
	}
	return &Store{
		source:     opts.Source,
		extractor:  opts.Extractor,
		persister:  opts.Persister,
		extensions: opts.Extensions,
		workers:    opts.Workers,
		log:        opts.Logger,
		progress:   opts.Progress,
	}, nil
}

// Snapshot returns the current gallery, or an empty one before the first Load.
func (s *Store) Snapshot() *Gallery {
	if g := s.current.Load(); g != nil {
		return g
	}
	return Empty()
}

// Load materializes the gallery: from the persisted copy when it is present and valid,
// otherwise from the reference image source, persisting a non-empty result.
// Per-image failures, a missing source, a corrupt persisted copy and save failures are
// all recovered and described in the report. Only context cancellation is returned.
func (s *Store) Load(ctx context.Context) (*Gallery, *Report, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()
	return s.load(ctx)
}

// Reload rebuilds the gallery and atomically replaces the snapshot. With force the
// persisted copy is discarded first so the source is scanned again.
func (s *Store) Reload(ctx context.Context, force bool) (*Gallery, *Report, error) {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	if force {
		if err := s.persister.Discard(ctx); err != nil {
			s.log.Error(err, "failed to discard persisted gallery", "store", s.persister.Location())
		}
	}
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) (*Gallery, *Report, error) {
	start := time.Now()
	report := &Report{Store: s.persister.Location(), Source: s.source.Location()}

	g, ok := s.loadPersisted(ctx, report)
	if !ok {
		var err error
		g, err = s.build(ctx, report)
		if err != nil {
			return nil, report, err
		}
		if !g.IsEmpty() {
			s.save(ctx, g, report)
		}
	}

	report.Identities = g.Len()
	report.Duration = time.Since(start)
	report.Log(s.log)

	s.current.Store(g)
	return g, report, nil
}

// loadPersisted returns the persisted gallery if one exists and decodes. A corrupt copy is
// discarded; any other failure leaves it in place to be overwritten by the rebuild.
func (s *Store) loadPersisted(ctx context.Context, report *Report) (*Gallery, bool) {
	exists, err := s.persister.Exists(ctx)
	if err != nil {
		s.log.Error(err, "failed to check persisted gallery, rebuilding", "store", s.persister.Location())
		return nil, false
	}
	if !exists {
		return nil, false
	}

	g, err := s.persister.Load(ctx)
	switch {
	case errors.Is(err, ErrCorruptData):
		s.log.Error(err, "persisted gallery is corrupt, discarding and rebuilding", "store", s.persister.Location())
		if derr := s.persister.Discard(ctx); derr != nil {
			s.log.Error(derr, "failed to discard corrupt gallery", "store", s.persister.Location())
		}
		report.Discarded = true
		return nil, false
	case err != nil:
		s.log.Error(err, "failed to load persisted gallery, rebuilding", "store", s.persister.Location())
		return nil, false
	case g.IsEmpty():
		return nil, false
	}

	report.FromStore = true
	return g, true
}

func (s *Store) save(ctx context.Context, g *Gallery, report *Report) {
	if err := s.persister.Save(ctx, g); err != nil {
		s.log.Error(err, "failed to save gallery, it will be rebuilt on next start", "store", s.persister.Location())
		report.SaveError = err.Error()
		return
	}
	report.Saved = true
}

// itemResult is the per-candidate result collected by the workers.
type itemResult struct {
	item      SourceItem
	name      string
	embedding []float32
	kind      OutcomeKind
	err       error
}

func (s *Store) build(ctx context.Context, report *Report) (*Gallery, error) {
	items, err := s.source.List(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrSourceMissing) {
			s.log.Error(err, "reference image source does not exist, gallery will be empty", "source", s.source.Location())
		} else {
			s.log.Error(err, "failed to list reference images, gallery will be empty", "source", s.source.Location())
		}
		report.SourceError = err.Error()
		return Empty(), nil
	}

	candidates := make([]SourceItem, 0, len(items))
	for _, item := range items {
		if IsCandidate(item.Filename, s.extensions) {
			candidates = append(candidates, item)
		}
	}
	slices.SortFunc(candidates, func(a, b SourceItem) int {
		if c := strings.Compare(a.Filename, b.Filename); c != 0 {
			return c
		}
		return strings.Compare(a.Key, b.Key)
	})
	report.Candidates = len(candidates)

	results := s.extractAll(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("gallery build interrupted: %w", err)
	}

	return s.assemble(results, report), nil
}

// extractAll runs the extractor over all candidates with bounded concurrency.
// Results keep the candidate order.
func (s *Store) extractAll(ctx context.Context, candidates []SourceItem) []itemResult {
	if s.progress != nil {
		s.progress.Start(len(candidates))
	}

	results := make([]itemResult, len(candidates))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, item := range candidates {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return results
		}
		wg.Add(1)
		go func(i int, item SourceItem) {
			defer wg.Done()
			defer func() { <-sem }()

			results[i] = s.extractOne(ctx, item)
			if s.progress != nil {
				s.progress.Step()
			}
		}(i, item)
	}

	wg.Wait()
	return results
}

func (s *Store) extractOne(ctx context.Context, item SourceItem) itemResult {
	res := itemResult{item: item, name: IdentityName(item.Filename)}

	data, err := s.source.Read(ctx, item)
	if err != nil {
		res.kind, res.err = OutcomeReadFailed, err
		return res
	}

	emb, err := s.extractor.Extract(ctx, data)
	switch {
	case errors.Is(err, extractor.ErrNoFaceDetected):
		res.kind, res.err = OutcomeNoFace, err
	case err != nil:
		res.kind, res.err = OutcomeExtractionFailed, err
	case !validEmbedding(emb):
		res.kind, res.err = OutcomeInvalidEmbedding, errors.New("embedding is empty or has non-finite values")
	default:
		res.kind, res.embedding = OutcomeEmbedded, emb
	}
	return res
}

// assemble inserts embedded results in filename order. A later file with the same
// identity name replaces the earlier one and the overwrite is recorded.
func (s *Store) assemble(results []itemResult, report *Report) *Gallery {
	var entries []Entry
	index := make(map[string]int)
	winners := make(map[string]string)
	dim := 0

	for _, res := range results {
		if res.kind == OutcomeEmbedded {
			if dim == 0 {
				dim = len(res.embedding)
			} else if len(res.embedding) != dim {
				res.kind = OutcomeInvalidEmbedding
				res.err = fmt.Errorf("embedding has %d dimensions, gallery has %d", len(res.embedding), dim)
			}
		}

		outcome := Outcome{Filename: res.item.Filename, Name: res.name, Kind: res.kind}
		if res.err != nil {
			outcome.Error = res.err.Error()
		}
		report.Outcomes = append(report.Outcomes, outcome)

		if res.kind != OutcomeEmbedded {
			continue
		}
		if i, dup := index[res.name]; dup {
			report.Overwrites = append(report.Overwrites, Overwrite{
				Name:     res.name,
				Previous: winners[res.name],
				Winner:   res.item.Filename,
			})
			entries[i].Embedding = res.embedding
		} else {
			index[res.name] = len(entries)
			entries = append(entries, Entry{Name: res.name, Embedding: res.embedding})
		}
		winners[res.name] = res.item.Filename
	}

	return New(entries)
}

func validEmbedding(emb []float32) bool {
	if len(emb) == 0 {
		return false
	}
	for _, v := range emb {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return false
		}
	}
	return true
}
