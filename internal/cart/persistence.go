package cart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/camila-duarte/galleria/internal/domain"
)

// storageKey matches the key the browser storefront used for its local
// storage payload, so an exported cart file is directly portable.
const storageKey = "galleria-cart"

// Persistence stores the serialized item list. Implementations must treat
// a missing payload as an empty cart, not an error.
type Persistence interface {
	Load() ([]domain.CartItem, error)
	Save(items []domain.CartItem) error
}

// FileStore keeps the cart in a single JSON file. It is the local-storage
// analog for a single-device deployment.
type FileStore struct {
	path string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{path: dir + "/" + storageKey + ".json"}
}

func (f *FileStore) Load() ([]domain.CartItem, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart file: %w", err)
	}

	var items []domain.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode cart file: %w", err)
	}
	return items, nil
}

func (f *FileStore) Save(items []domain.CartItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("write cart file: %w", err)
	}
	return nil
}
