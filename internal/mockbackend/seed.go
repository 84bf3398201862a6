package mockbackend

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Seed is an initial catalog loaded into a Store. Identifiers in the file
// are ignored; records are numbered in file order.
type Seed struct {
	Books   []Book   `yaml:"books"`
	Members []Member `yaml:"members"`
}

// LoadSeed reads a YAML seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed %s: %w", path, err)
	}
	return &seed, nil
}

// Apply inserts every seed record through the store's normal validation.
func (s *Seed) Apply(store *Store) error {
	for i, b := range s.Books {
		if _, err := store.CreateBook(b); err != nil {
			return fmt.Errorf("seed book %d: %w", i, err)
		}
	}
	for i, m := range s.Members {
		if _, err := store.CreateMember(m); err != nil {
			return fmt.Errorf("seed member %d: %w", i, err)
		}
	}
	return nil
}
