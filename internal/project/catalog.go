package project

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/piwi3910/StowPlan/internal/model"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

//go:embed data/containers.json
var defaultContainers []byte

// ErrContainerNotFound is returned when a container ID is not in the catalog.
var ErrContainerNotFound = errors.New("container not found")

// Catalog holds the known container definitions keyed by ID. It loads lazily
// on first use and is safe for concurrent use. An empty path selects the
// built-in definitions.
type Catalog struct {
	path string

	mu         sync.Mutex
	containers map[string]model.Container
	order      []string
}

func NewCatalog(path string) *Catalog {
	return &Catalog{path: path}
}

// Path returns the definition file, or "" for the built-in catalog.
func (c *Catalog) Path() string {
	return c.path
}

// Get returns the container with the given ID.
func (c *Catalog) Get(id string) (model.Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(); err != nil {
		return model.Container{}, err
	}
	ct, ok := c.containers[id]
	if !ok {
		return model.Container{}, fmt.Errorf("%w: %q", ErrContainerNotFound, id)
	}
	return ct, nil
}

// All returns every container in definition order.
func (c *Catalog) All() ([]model.Container, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	out := make([]model.Container, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.containers[id])
	}
	return out, nil
}

// IDs returns the sorted container IDs.
func (c *Catalog) IDs() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureLoaded(); err != nil {
		return nil, err
	}
	ids := append([]string(nil), c.order...)
	sort.Strings(ids)
	return ids, nil
}

// Reload reads the definitions again. On failure the previous definitions
// are kept.
func (c *Catalog) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load()
}

// Invalidate drops the cached definitions; the next lookup reloads them.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.containers = nil
	c.order = nil
}

func (c *Catalog) ensureLoaded() error {
	if c.containers != nil {
		return nil
	}
	return c.load()
}

func (c *Catalog) load() error {
	data := defaultContainers
	format := ".json"
	if c.path != "" {
		raw, err := os.ReadFile(c.path)
		if err != nil {
			return fmt.Errorf("failed to read container catalog: %w", err)
		}
		data = raw
		format = strings.ToLower(filepath.Ext(c.path))
	}
	list, err := ParseCatalog(data, format)
	if err != nil {
		return err
	}

	containers := make(map[string]model.Container, len(list))
	order := make([]string, 0, len(list))
	for _, ct := range list {
		if _, dup := containers[ct.ID]; !dup {
			order = append(order, ct.ID)
		}
		containers[ct.ID] = ct
	}
	c.containers = containers
	c.order = order
	return nil
}

// ParseCatalog decodes a list of container definitions. format is a file
// extension: ".yaml" and ".yml" are read as YAML, anything else as JSON with
// optional comments and trailing commas.
func ParseCatalog(data []byte, format string) ([]model.Container, error) {
	var list []model.Container
	switch format {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("%w: container catalog: %v", ErrFormat, err)
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &list); err != nil {
			return nil, fmt.Errorf("%w: container catalog: %v", ErrFormat, err)
		}
	}
	for i, ct := range list {
		if ct.ID == "" {
			return nil, fmt.Errorf("%w: container %d has no id", ErrFormat, i+1)
		}
		if err := ct.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFormat, err)
		}
	}
	return list, nil
}
