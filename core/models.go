package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint is a content hash for a document's text.
// It is used to detect unchanged documents across reseeds so they are not
// re-embedded.
type Fingerprint uint64

// FingerprintFromContent generates a deterministic fingerprint from text
// content using BLAKE2b hashing. Identical content produces identical
// fingerprints.
func FingerprintFromContent(text string) Fingerprint {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return Fingerprint(binary.LittleEndian.Uint64(sum))
}

// Collection names a logical group of documents within the corpus.
type Collection string

const (
	// CollectionPartsRefrigerator holds the refrigerator parts catalog.
	CollectionPartsRefrigerator Collection = "parts_refrigerator"
	// CollectionPartsDishwasher holds the dishwasher parts catalog.
	CollectionPartsDishwasher Collection = "parts_dishwasher"
	// CollectionRepairSymptoms holds symptom descriptions, part diagnoses,
	// and repair guides.
	CollectionRepairSymptoms Collection = "repair_symptoms"
	// CollectionBlogArticles holds chunked long-form article content.
	CollectionBlogArticles Collection = "blogs_articles"
)

// DefaultCollections returns the collections the engine manages out of the box.
func DefaultCollections() []Collection {
	return []Collection{
		CollectionPartsRefrigerator,
		CollectionPartsDishwasher,
		CollectionRepairSymptoms,
		CollectionBlogArticles,
	}
}

// Metadata is an opaque set of string attributes attached to documents and
// search candidates. The retrieval core never interprets its contents; callers
// build typed views over the fields they understand.
type Metadata map[string]string

// Clone returns a copy of the metadata map. A nil map clones to nil.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Bool reports whether the value stored under key is the string "true".
func (m Metadata) Bool(key string) bool {
	return m[key] == "true"
}

// Filter is an equality match over metadata fields.
type Filter map[string]string

// Matches reports whether every filter field equals the corresponding
// metadata value. An empty or nil filter matches everything.
func (m Metadata) Matches(filter Filter) bool {
	for k, want := range filter {
		if m[k] != want {
			return false
		}
	}
	return true
}

// Document is a stored unit of corpus text, embeddable and lexically
// indexable. Parts catalog entries are one document each; long-form sources
// are stored one document per chunk.
type Document struct {
	Id          string
	Collection  Collection
	Text        string
	Vector      []float32 // embedding, populated by the ingestion pipeline
	Metadata    Metadata
	Fingerprint Fingerprint // content hash of Text at ingestion time
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// Indexed returns the lexical scorer's view of the document.
func (d *Document) Indexed() IndexedDocument {
	return IndexedDocument{Id: d.Id, Text: d.Text, Metadata: d.Metadata}
}

// IndexedDocument is a lexical index entry: the searchable text plus the
// opaque metadata carried through to candidates.
type IndexedDocument struct {
	Id       string
	Text     string
	Metadata Metadata
}

// ScoredCandidate is a single-path retrieval result before merging.
// Score is method-specific: a raw BM25 weight on the keyword path, or a
// similarity in [0,1] on the vector path.
type ScoredCandidate struct {
	Id       string
	Score    float64
	Metadata Metadata
}

// Origin tags which retrieval path (or paths) produced a merged result.
type Origin string

const (
	// OriginVector marks results found only by vector search.
	OriginVector Origin = "vector"
	// OriginKeyword marks results found only by the lexical scorer.
	OriginKeyword Origin = "keyword"
	// OriginBoth marks results found by both paths.
	OriginBoth Origin = "both"
)

// HybridResult is a merged, final-ranked search hit. All three scores are in
// [0,1]; a score is 0 when the corresponding path did not return the document.
type HybridResult struct {
	Id           string
	VectorScore  float64
	KeywordScore float64
	HybridScore  float64
	Origin       Origin
	Metadata     Metadata
}

// SimilarityMatch pairs a stored document with its cosine distance to a query
// vector. Distance is in [0,2]; smaller is closer.
type SimilarityMatch struct {
	Document *Document
	Distance float64
}

// Checkpoint records pipeline progress for resumable processing.
type Checkpoint struct {
	ProcessorType   string
	LastProcessedId string
	UpdatedAt       time.Time
}
