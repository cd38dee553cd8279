// Package config reads the stores file. A <name>.local.<ext> file next to
// it overrides individual stores by id and may add new ones.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"shopify-catalog/internal/types"
)

// LocalPath returns the override path for name: stores.json5 -> stores.local.json5.
func LocalPath(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + ".local" + ext
}

// ReadConfig reads a json5 file into T. A missing file yields an error
// satisfying os.IsNotExist.
func ReadConfig[T any](name string) (T, error) {
	var out T
	data, err := os.ReadFile(name)
	if err != nil {
		return out, err
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return out, nil
}

// LoadStores reads the stores file and applies local overrides. Override
// fields that are set replace the base store's values; stores with an
// unknown id are appended in file order.
func LoadStores(name string) ([]types.StoreConfig, error) {
	base, err := ReadConfig[types.StoresFile](name)
	baseMissing := os.IsNotExist(err)
	if err != nil && !baseMissing {
		return nil, err
	}

	local, err := ReadConfig[types.StoresFile](LocalPath(name))
	localMissing := os.IsNotExist(err)
	if err != nil && !localMissing {
		return nil, err
	}
	if baseMissing && localMissing {
		return nil, fmt.Errorf("stores file %s: %w", name, os.ErrNotExist)
	}

	stores := base.Stores
	index := make(map[string]int, len(stores))
	for i, s := range stores {
		if s.ID == "" {
			return nil, fmt.Errorf("stores file %s: store %d has no id", name, i)
		}
		if _, dup := index[s.ID]; dup {
			return nil, fmt.Errorf("stores file %s: duplicate store id %s", name, s.ID)
		}
		index[s.ID] = i
	}

	for _, override := range local.Stores {
		i, ok := index[override.ID]
		if !ok {
			if override.ID == "" {
				return nil, fmt.Errorf("stores file %s: override without id", LocalPath(name))
			}
			index[override.ID] = len(stores)
			stores = append(stores, override)
			continue
		}
		if err := mergo.Merge(&stores[i], override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge override for %s: %w", override.ID, err)
		}
	}
	return stores, nil
}
