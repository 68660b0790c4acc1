package ingestion

import "github.com/poiesic/fixit/chunk"

// MinLongFormTokens is the size floor for article-length sources. Long-form
// text below this estimate carries too little signal to retrieve and is
// dropped at ingestion.
const MinLongFormTokens = 50

// ChunkPolicy controls how source text is split into documents before
// storage. The zero value stores each source as a single document, which is
// how catalog entries are ingested.
type ChunkPolicy struct {
	// Split enables sentence-bounded chunking. Each chunk becomes its own
	// document with chunk_number and total_chunks metadata.
	Split bool

	// MaxTokens is the per-chunk token budget. Zero means
	// chunk.DefaultMaxTokens.
	MaxTokens int

	// OverlapTokens is the trailing context carried between consecutive
	// chunks. Zero disables overlap.
	OverlapTokens int

	// MinTokens drops sources whose estimated token count falls below it.
	// Zero disables the floor.
	MinTokens int
}

// LongFormPolicy returns the standard policy for article-length sources:
// sentence-bounded chunks at the default token budget and overlap, dropping
// sources under MinLongFormTokens.
func LongFormPolicy() ChunkPolicy {
	return ChunkPolicy{
		Split:         true,
		MaxTokens:     chunk.DefaultMaxTokens,
		OverlapTokens: chunk.DefaultOverlapTokens,
		MinTokens:     MinLongFormTokens,
	}
}

// normalized fills in the default budget for a splitting policy.
func (cp ChunkPolicy) normalized() ChunkPolicy {
	if cp.Split && cp.MaxTokens == 0 {
		cp.MaxTokens = chunk.DefaultMaxTokens
	}
	return cp
}
