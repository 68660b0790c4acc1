package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/poiesic/fixit/core"
	"github.com/poiesic/fixit/ingestion"
	"github.com/poiesic/fixit/storage"
)

// Corpus names the scraped JSON corpus files. An empty path skips that
// file's collections.
type Corpus struct {
	// PartsPath feeds parts_refrigerator and parts_dishwasher.
	PartsPath string
	// BlogsPath feeds blogs_articles.
	BlogsPath string
	// RepairsPath feeds repair_symptoms.
	RepairsPath string
}

// SeedOptions holds optional parameters for a seeding run.
type SeedOptions struct {
	// Reset drops each collection before loading it, forcing every document
	// to be stored and embedded again.
	Reset bool
}

// Stats aggregates per-collection ingestion outcomes for one seeding run.
type Stats struct {
	Collections map[core.Collection]ingestion.IngestStats
}

// Total sums the per-collection stats.
func (s *Stats) Total() ingestion.IngestStats {
	var total ingestion.IngestStats
	for _, st := range s.Collections {
		total.Stored += st.Stored
		total.Skipped += st.Skipped
		total.Dropped += st.Dropped
	}
	return total
}

// Seeder loads corpus files into the document store through the ingestion
// pipeline.
type Seeder struct {
	pipeline  *ingestion.Pipeline
	documents storage.DocumentRepository
	logger    *slog.Logger
}

// Option configures a Seeder.
type Option func(*Seeder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Seeder) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSeeder creates a seeder over the given pipeline. The document
// repository serves collection resets.
func NewSeeder(pipeline *ingestion.Pipeline, documents storage.DocumentRepository, opts ...Option) (*Seeder, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}

	s := &Seeder{
		pipeline:  pipeline,
		documents: documents,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "seeder")

	return s, nil
}

// Seed loads the named corpus files, each collection concurrently. It
// returns once every document is stored and keyword-searchable; embeddings
// continue on the pipeline's worker pool — call the pipeline's Wait to block
// for them.
func (s *Seeder) Seed(ctx context.Context, corpus Corpus, opts *SeedOptions) (*Stats, error) {
	if opts == nil {
		opts = &SeedOptions{}
	}
	if corpus.PartsPath == "" && corpus.BlogsPath == "" && corpus.RepairsPath == "" {
		return nil, ErrNoCorpus
	}

	stats := &Stats{Collections: make(map[core.Collection]ingestion.IngestStats, 4)}
	var mu sync.Mutex
	record := func(collection core.Collection, st ingestion.IngestStats) {
		mu.Lock()
		stats.Collections[collection] = st
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	if corpus.PartsPath != "" {
		parts, err := loadDocuments[Part](corpus.PartsPath)
		if err != nil {
			return nil, fmt.Errorf("parts corpus: %w", err)
		}
		for _, split := range partsSplits {
			g.Go(func() error {
				sources := partSources(s.logger, parts, split.appliance)
				st, err := s.seedCollection(gctx, split.collection, sources, nil, opts.Reset)
				if err != nil {
					return err
				}
				record(split.collection, st)
				return nil
			})
		}
	}

	if corpus.BlogsPath != "" {
		blogs, err := loadDocuments[Blog](corpus.BlogsPath)
		if err != nil {
			return nil, fmt.Errorf("blogs corpus: %w", err)
		}
		g.Go(func() error {
			ingestOpts := &ingestion.IngestOptions{Policy: ingestion.LongFormPolicy()}
			st, err := s.seedCollection(gctx, core.CollectionBlogArticles, blogSources(blogs), ingestOpts, opts.Reset)
			if err != nil {
				return err
			}
			record(core.CollectionBlogArticles, st)
			return nil
		})
	}

	if corpus.RepairsPath != "" {
		repairs, err := loadDocuments[Repair](corpus.RepairsPath)
		if err != nil {
			return nil, fmt.Errorf("repairs corpus: %w", err)
		}
		g.Go(func() error {
			st, err := s.seedCollection(gctx, core.CollectionRepairSymptoms, repairSources(repairs), nil, opts.Reset)
			if err != nil {
				return err
			}
			record(core.CollectionRepairSymptoms, st)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := stats.Total()
	s.logger.Info("corpus seeded",
		"collections", len(stats.Collections),
		"stored", total.Stored,
		"skipped", total.Skipped,
		"dropped", total.Dropped)

	return stats, nil
}

func (s *Seeder) seedCollection(ctx context.Context, collection core.Collection, sources []ingestion.Source, opts *ingestion.IngestOptions, reset bool) (ingestion.IngestStats, error) {
	if reset {
		deleted, err := s.documents.DeleteCollection(ctx, collection)
		if err != nil {
			return ingestion.IngestStats{}, fmt.Errorf("reset %s: %w", collection, err)
		}
		s.logger.Info("collection reset", "collection", collection, "deleted", deleted)
	}

	st, err := s.pipeline.Ingest(ctx, collection, sources, opts)
	if err != nil {
		return st, fmt.Errorf("seed %s: %w", collection, err)
	}

	s.logger.Info("collection seeded",
		"collection", collection,
		"stored", st.Stored,
		"skipped", st.Skipped,
		"dropped", st.Dropped)

	return st, nil
}

// partsSplits routes catalog entries to their per-appliance collection.
var partsSplits = []struct {
	appliance  string
	collection core.Collection
}{
	{"refrigerator", core.CollectionPartsRefrigerator},
	{"dishwasher", core.CollectionPartsDishwasher},
}

// corpusFile is the envelope every scraped corpus file shares.
type corpusFile[T any] struct {
	Documents []T `json:"documents"`
}

func loadDocuments[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file corpusFile[T]
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return file.Documents, nil
}

// lower canonicalizes a filterable attribute.
func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// canon canonicalizes a multiword filterable attribute to snake_case,
// "In Stock" → "in_stock".
func canon(s string) string {
	return strings.ReplaceAll(lower(s), " ", "_")
}

// setIf stores non-empty metadata values; absent keys read as empty anyway.
func setIf(meta core.Metadata, key, value string) {
	if value != "" {
		meta[key] = value
	}
}

// joinSentences assembles document text from the non-empty fragments, in the
// ". "-joined shape the rest of the corpus uses.
func joinSentences(elems []string) string {
	kept := make([]string, 0, len(elems))
	for _, e := range elems {
		if e != "" {
			kept = append(kept, e)
		}
	}
	return strings.Join(kept, ". ")
}
