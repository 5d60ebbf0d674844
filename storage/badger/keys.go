package badger

import (
	"encoding/binary"

	"github.com/poiesic/sitedex/core"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix = "sitechk"
	pageURLPrefix     = "siteurl"
)

// makeChunkKey generates a key for a chunk by its natural key (url, index).
// Format: prefix:urlhash:index with the hash and index written BigEndian so
// lexicographic iteration yields a page's chunks in index order.
func makeChunkKey(url string, index int) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 12 // 8 bytes for url hash + 4 bytes for index
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(url)))
	offset += 8
	binary.BigEndian.PutUint32(buf[offset:], uint32(index))
	return buf
}

// makePageChunkPrefix generates the key prefix shared by all chunks of a page.
// Format: prefix:urlhash
func makePageChunkPrefix(url string) []byte {
	prefix := chunkRecordPrefix + ":"
	prefixBytes := []byte(prefix)
	prefixSize := len(prefixBytes)
	totalSize := prefixSize + 8 // 8 bytes for url hash
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], uint64(core.IDFromContent(url)))
	return buf
}

// makePageURLKey generates a catalog key recording that a page was ingested
// under a source tag. The value holds the full URL.
// Format: prefix:source:url
func makePageURLKey(source, url string) []byte {
	return []byte(pageURLPrefix + ":" + source + ":" + url)
}

// makePageURLPrefix generates a partial catalog key for listing the pages of
// one source, or of all sources when source is empty.
func makePageURLPrefix(source string) []byte {
	if source == "" {
		return []byte(pageURLPrefix + ":")
	}
	return []byte(pageURLPrefix + ":" + source + ":")
}
