package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"time"
)

// Version is the content tag of a stored body.
type Version string

// VersionOf returns the version tag of a serialized body.
func VersionOf(body []byte) Version {
	return Version(fmt.Sprintf("%08x", crc32.ChecksumIEEE(body)))
}

// Record is the persisted envelope around one entity.
type Record[T any] struct {
	Object  T
	Created time.Time
	Updated time.Time
	Version Version
}

// timeLayout is how Created and Updated are stored.
const timeLayout = time.RFC3339Nano

// encodeBody serializes an entity for storage.
// HTML escaping is disabled so bodies stay byte-stable across encoders.
func encodeBody(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// decodeBody parses a stored body. Any failure, including a literal null,
// is a data format integrity error.
func decodeBody[T any](data []byte) (T, error) {
	var zero T
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return zero, fmt.Errorf("%w: null or empty body", ErrDataFormatIntegrity)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrDataFormatIntegrity, err)
	}
	return v, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: timestamp %q: %v", ErrDataFormatIntegrity, s, err)
	}
	return t, nil
}
