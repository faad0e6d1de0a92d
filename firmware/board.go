package firmware

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Board describes one supported device board: where its stock firmware is
// published and how OTA download links for it are recognised.
type Board struct {
	Name string `yaml:"name"`
	// DownloadPage is the vendor page scraped for firmware links.
	DownloadPage string `yaml:"download-page"`
	// LinkMarker is the substring identifying this board's OTA links on the
	// download page, e.g. "NEBULA_ota".
	LinkMarker string `yaml:"link-marker"`
}

// Catalog maps a lowercase board key to its Board definition.
type Catalog map[string]Board

//go:embed boards.yaml
var defaultCatalogYAML []byte

// DefaultCatalog returns the built-in board catalog.
func DefaultCatalog() (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(defaultCatalogYAML, &c); err != nil {
		return nil, fmt.Errorf("built-in board catalog is invalid: %w", err)
	}
	return c, nil
}

// LoadCatalog reads a board catalog from a YAML file. An empty path falls
// back to the built-in catalog.
func LoadCatalog(path string) (Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unable to parse board catalog %s: %w", path, err)
	}
	return c, nil
}

// Board looks up a board by its catalog key or its Name field.
func (c Catalog) Board(name string) (Board, error) {
	if b, ok := c[name]; ok {
		return b, nil
	}
	for _, b := range c {
		if b.Name == name {
			return b, nil
		}
	}
	return Board{}, fmt.Errorf("unknown board %q (known: %v)", name, c.Names())
}

// Names returns the sorted catalog keys.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
