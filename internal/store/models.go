package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound indicates the requested schema does not exist in the library.
var ErrNotFound = errors.New("schema not found")

// ErrLocked indicates another process holds the library lock.
var ErrLocked = errors.New("schema library is locked by another process")

// SavedSchema is one library entry: the schema document plus its metadata.
type SavedSchema struct {
	ID          int64
	Name        string
	Description string
	Version     string
	Authors     []string
	Tags        []string
	Document    json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}
