// Package platform holds the catalog of supported target boards.
package platform

import (
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Framework identifiers.
const (
	FrameworkArduino = "arduino"
	FrameworkESPIDF  = "esp-idf"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

//go:embed schema.json
var entrySchema string

// ErrUnknownPlatform is matched by errors returned from Lookup for unknown names.
var ErrUnknownPlatform = errors.New("unknown platform")

// UnknownError reports an unrecognised platform name and the accepted ones.
type UnknownError struct {
	Name  string
	Valid []string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown platform %q (available: %s)", e.Name, strings.Join(e.Valid, ", "))
}

// Is makes errors.Is(err, ErrUnknownPlatform) true.
func (e *UnknownError) Is(target error) bool {
	return target == ErrUnknownPlatform
}

// Peripheral is an on-board device.
type Peripheral struct {
	Key         string         `yaml:"key"         json:"-"`
	Name        string         `yaml:"name"        json:"name"`
	Description string         `yaml:"description" json:"description"`
	Interface   string         `yaml:"interface"   json:"interface"`
	Pins        map[string]int `yaml:"pins"        json:"pins"`
	Notes       string         `yaml:"notes"       json:"notes"`
}

// Note is a named piece of guidance.
type Note struct {
	Name string `yaml:"name"`
	Text string `yaml:"text"`
}

// Platform is an immutable catalog entry.
type Platform struct {
	ID               string            `yaml:"id"`
	Name             string            `yaml:"name"`
	Aliases          []string          `yaml:"aliases"`
	Framework        string            `yaml:"framework"`
	FrameworkVersion string            `yaml:"framework_version"`
	MCU              string            `yaml:"mcu"`
	Description      string            `yaml:"description"`
	CoreVoltage      string            `yaml:"core_voltage"`
	ClockSpeed       string            `yaml:"clock_speed"`
	RAM              string            `yaml:"ram"`
	Flash            string            `yaml:"flash"`
	Target           string            `yaml:"target"`
	FQBN             string            `yaml:"fqbn"`
	PIOBoard         string            `yaml:"pio_board"`
	Peripherals      []Peripheral      `yaml:"peripherals"`
	GPIOMapping      map[string]string `yaml:"gpio_mapping"`
	Interfaces       []string          `yaml:"interfaces"`
	Connectivity     []string          `yaml:"connectivity"`
	BestPractices    []Note            `yaml:"best_practices"`
	Headers          []Note            `yaml:"headers"`
	CompileTime      []Note            `yaml:"compile_time"`
}

// IsESPIDF reports whether the platform targets ESP-IDF.
func (p *Platform) IsESPIDF() bool { return p.Framework == FrameworkESPIDF }

// IsArduino reports whether the platform targets the Arduino framework.
func (p *Platform) IsArduino() bool { return p.Framework == FrameworkArduino }

// GPIOUsages returns the gpio mapping keys in sorted order.
func (p *Platform) GPIOUsages() []string {
	keys := make([]string, 0, len(p.GPIOMapping))
	for k := range p.GPIOMapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type catalog struct {
	byName map[string]*Platform
	all    []*Platform
}

var loadCatalog = sync.OnceValues(func() (*catalog, error) {
	return load(catalogFS)
})

func load(fsys embed.FS) (*catalog, error) {
	entries, err := fsys.ReadDir("catalog")
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(entrySchema))
	if err != nil {
		return nil, fmt.Errorf("compile catalog schema: %w", err)
	}

	c := &catalog{byName: map[string]*Platform{}}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		file := path.Join("catalog", entry.Name())
		data, err := fsys.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		if err := validateEntry(schema, data); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		var p Platform
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", file, err)
		}
		for _, name := range append([]string{p.ID}, p.Aliases...) {
			key := normalize(name)
			if _, dup := c.byName[key]; dup {
				return nil, fmt.Errorf("%s: duplicate platform name %q", file, name)
			}
			c.byName[key] = &p
		}
		c.all = append(c.all, &p)
	}
	sort.Slice(c.all, func(i, j int) bool { return c.all[i].ID < c.all[j].ID })
	return c, nil
}

func validateEntry(schema *gojsonschema.Schema, data []byte) error {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if result.Valid() {
		return nil
	}
	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	sort.Strings(errs)
	return fmt.Errorf("catalog entry invalid: %s", strings.Join(errs, "; "))
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup resolves a canonical identifier or alias, ignoring case and surrounding space.
func Lookup(name string) (*Platform, error) {
	c, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	if p, ok := c.byName[normalize(name)]; ok {
		return p, nil
	}
	return nil, &UnknownError{Name: name, Valid: Names()}
}

// Names returns every accepted identifier, aliases included, sorted.
func Names() []string {
	c, err := loadCatalog()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the catalog entries ordered by identifier.
func All() ([]*Platform, error) {
	c, err := loadCatalog()
	if err != nil {
		return nil, err
	}
	return append([]*Platform(nil), c.all...), nil
}

// IDs returns the canonical identifiers, sorted.
func IDs() []string {
	all, err := All()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	return ids
}
