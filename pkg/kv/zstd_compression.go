package kv

import (
	"encoding/json"
	"time"

	"anukritich/nivaran/pkg/directions"

	"github.com/DataDog/zstd"
)

// CachedRoute is what actually sits in pebble: the provider response plus the
// time it was stored, so readers can apply their own TTL.
type CachedRoute struct {
	Route    *directions.Route `json:"route"`
	StoredAt time.Time         `json:"stored_at"`
}

func Encode(entry CachedRoute) ([]byte, error) {
	return json.Marshal(entry)
}

func Decode(bb []byte) (CachedRoute, error) {
	var entry CachedRoute
	err := json.Unmarshal(bb, &entry)
	return entry, err
}

func Compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return []byte{}, err
	}
	return bbCompressed, nil
}

func Decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return []byte{}, err
	}

	return bb, nil
}
