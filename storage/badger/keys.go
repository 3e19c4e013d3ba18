package badger

import (
	"encoding/binary"
)

// Key prefixes for different data types
const (
	metadataKey       = "meta:build"
	documentPrefix    = "doc:"
	nodePrefix        = "node:"
	nodeOrdinalPrefix = "nodeord:"
	edgePrefix        = "edge:"
)

// makeOrdinalKey generates a key for the ordinal-th record under prefix.
// Format: prefix + 8 byte ordinal, BigEndian so lexicographic order matches
// insertion order.
func makeOrdinalKey(prefix string, ordinal int) []byte {
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(ordinal))
	return buf
}

// makeNodeKey generates the primary key of a node by id.
func makeNodeKey(id string) []byte {
	return []byte(nodePrefix + id)
}

func makeDocumentKey(ordinal int) []byte {
	return makeOrdinalKey(documentPrefix, ordinal)
}

func makeNodeOrdinalKey(ordinal int) []byte {
	return makeOrdinalKey(nodeOrdinalPrefix, ordinal)
}

func makeEdgeKey(ordinal int) []byte {
	return makeOrdinalKey(edgePrefix, ordinal)
}
