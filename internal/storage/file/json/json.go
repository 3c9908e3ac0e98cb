package json

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/drakos74/gravity/internal/storage"
)

const extension = ".json"

// Save saves the given json struct into the given path with the provided filename.
func Save(filePath string, fileName string, value interface{}) error {
	// check if filepath exists
	info, err := os.Stat(filePath)
	if err != nil {
		err := os.MkdirAll(filePath, os.ModePerm)
		if err != nil {
			return fmt.Errorf("could not make dir: %s: %w", filePath, err)
		}
	} else if !info.IsDir() {
		return fmt.Errorf("path given is not a directory: %s", filePath)
	}

	p := filepath.Join(filePath, fileName)
	f, err := os.Create(p)
	if err != nil {
		return fmt.Errorf("could not create file '%s': %w", p, err)
	}
	defer f.Close()

	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode '%s': %w", p, err)
	}

	_, err = f.Write(b)
	if err != nil {
		return fmt.Errorf("could not write to file '%s': %w", p, err)
	}

	return nil
}

// Load loads the payload from the given filePath and fileName.
func Load(filePath string, fileName string, value interface{}) error {

	p := filepath.Join(filePath, fileName)

	data, err := ioutil.ReadFile(p)
	if err != nil {
		return fmt.Errorf("could not read file '%s' %s: %w", p, err.Error(), storage.NotFoundErr)
	}

	err = json.Unmarshal(data, value)
	if err != nil {
		return fmt.Errorf("could not decode '%s': %s: %w", p, err.Error(), storage.CouldNotLoadErr)
	}

	return nil
}

// FileStorage is a json file backed storage under a root directory.
type FileStorage struct {
	root string
}

// NewFileStorage creates a new file storage under the given directory.
func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

// Store encodes the value into the file of the key.
func (s *FileStorage) Store(k storage.Key, value interface{}) error {
	return Save(s.root, k.Path()+extension, value)
}

// Load decodes the file of the key into the value.
func (s *FileStorage) Load(k storage.Key, value interface{}) error {
	return Load(s.root, k.Path()+extension, value)
}
