package badger

import (
	"fmt"

	"github.com/poiesic/fixit/core"
)

// Key prefixes for different data types. Collection names never contain
// a colon, so the document id is everything after the second separator.
const (
	documentPrefix    = "doc"
	fingerprintPrefix = "fpr"
	checkpointPrefix  = "chk"
)

// makeDocumentKey generates the primary key for a document.
// Format: doc:<collection>:<id>
func makeDocumentKey(collection core.Collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", documentPrefix, collection, id))
}

// makeDocumentPrefix generates the key prefix covering every document in
// a collection.
func makeDocumentPrefix(collection core.Collection) []byte {
	return []byte(fmt.Sprintf("%s:%s:", documentPrefix, collection))
}

// makeFingerprintKey generates a key for the fingerprint index.
// Format: fpr:<collection>:<id>
func makeFingerprintKey(collection core.Collection, id string) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s", fingerprintPrefix, collection, id))
}

// makeFingerprintPrefix generates the fingerprint index prefix for a
// collection.
func makeFingerprintPrefix(collection core.Collection) []byte {
	return []byte(fmt.Sprintf("%s:%s:", fingerprintPrefix, collection))
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(fmt.Sprintf("%s:%s", checkpointPrefix, processorType))
}

// idFromKey extracts the document id from a prefixed key.
func idFromKey(key, prefix []byte) string {
	return string(key[len(prefix):])
}
