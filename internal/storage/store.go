package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	NotFoundErr     = errors.New("not found")
	CouldNotLoadErr = errors.New("could not load")
)

// Key is the storage key for a run artifact.
type Key struct {
	Run   string `json:"run"`
	Label string `json:"label"`
}

// Path returns the file name for the key.
func (k Key) Path() string {
	if k.Run == "" {
		return strings.ToLower(k.Label)
	}
	return fmt.Sprintf("%s_%s", k.Run, strings.ToLower(k.Label))
}

// Persistence stores and loads values by key.
type Persistence interface {
	Store(k Key, value interface{}) error
	Load(k Key, value interface{}) error
}
