// Package models holds the read-only catalog of image models the service can
// forward prompts to.
package models

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var builtinCatalog []byte

// ErrUnknownModel matches any UnknownModelError.
var ErrUnknownModel = errors.New("unknown model")

// UnknownModelError carries the key that did not match any descriptor.
type UnknownModelError struct {
	Key string
}

func (e *UnknownModelError) Error() string {
	return "Unknown model: " + e.Key
}

func (e *UnknownModelError) Is(target error) bool {
	return target == ErrUnknownModel
}

// Descriptor describes one upstream model and the defaults sent with it.
type Descriptor struct {
	Key       string            `yaml:"key" json:"key"`
	Label     string            `yaml:"label" json:"label"`
	Upstream  string            `yaml:"upstream" json:"-"`
	Strengths string            `yaml:"strengths" json:"strengths"`
	Defaults  map[string]any    `yaml:"defaults" json:"defaults"`
	Params    map[string]string `yaml:"params" json:"-"`
}

// Field returns the upstream input name for a logical parameter such as
// "steps" or "width". Unmapped parameters keep their logical name.
func (d Descriptor) Field(name string) string {
	if mapped, ok := d.Params[name]; ok && mapped != "" {
		return mapped
	}
	return name
}

// DefaultInt returns an integer default, if the model declares one.
func (d Descriptor) DefaultInt(name string) (int, bool) {
	switch v := d.Defaults[d.Field(name)].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

type catalogFile struct {
	Default string       `yaml:"default"`
	Models  []Descriptor `yaml:"models"`
}

// Catalog is built once at startup and never mutated afterwards, so it is
// safe to share between requests.
type Catalog struct {
	byKey      map[string]Descriptor
	order      []string
	defaultKey string
}

// Builtin returns the catalog embedded in the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtinCatalog)
}

// LoadFile reads a catalog from a YAML file, falling back to the builtin one
// when path is empty.
func LoadFile(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin()
	}
	data, err := os.ReadFile(os.ExpandEnv(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and checks a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse model catalog: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, errors.New("model catalog is empty")
	}

	catalog := &Catalog{
		byKey: make(map[string]Descriptor, len(file.Models)),
		order: make([]string, 0, len(file.Models)),
	}
	for i, d := range file.Models {
		if d.Key == "" || d.Label == "" || d.Upstream == "" {
			return nil, fmt.Errorf("model #%d: key, label and upstream are required", i)
		}
		if _, dup := catalog.byKey[d.Key]; dup {
			return nil, fmt.Errorf("model %q declared twice", d.Key)
		}
		if d.Defaults == nil {
			d.Defaults = map[string]any{}
		}
		catalog.byKey[d.Key] = d
		catalog.order = append(catalog.order, d.Key)
	}

	catalog.defaultKey = lo.Ternary(file.Default != "", file.Default, catalog.order[0])
	if _, ok := catalog.byKey[catalog.defaultKey]; !ok {
		return nil, fmt.Errorf("default model %q is not in the catalog", catalog.defaultKey)
	}
	return catalog, nil
}

// Lookup finds the descriptor whose key matches exactly. The returned
// Defaults map is a copy the caller may modify.
func (c *Catalog) Lookup(key string) (Descriptor, error) {
	d, ok := c.byKey[key]
	if !ok {
		return Descriptor{}, &UnknownModelError{Key: key}
	}
	d.Defaults = lo.Assign(d.Defaults)
	return d, nil
}

// List returns the descriptors in catalog order.
func (c *Catalog) List() []Descriptor {
	return lo.Map(c.order, func(key string, _ int) Descriptor {
		d, _ := c.Lookup(key)
		return d
	})
}

// DefaultKey returns the key of the model the form preselects.
func (c *Catalog) DefaultKey() string {
	return c.defaultKey
}
