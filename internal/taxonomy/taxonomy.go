// Package taxonomy loads the driver vocabulary from a YAML file and keeps the
// store seeded as the file changes.
package taxonomy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/cdm/internal/core"
)

// Load reads a taxonomy file.
func Load(path string) (core.DriverCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.DriverCatalog{}, fmt.Errorf("read taxonomy: %w", err)
	}
	return Parse(data)
}

// Parse decodes a taxonomy document of the form
//
//	sectors: [Retail, Finance]
//	domains: [Sales]
//	countries: [US]
//	clarifiers: [Net]
//
// Names are trimmed; blanks and case-insensitive duplicates are dropped.
// Unknown top-level keys are rejected.
func Parse(data []byte) (core.DriverCatalog, error) {
	var catalog core.DriverCatalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&catalog); err != nil && !errors.Is(err, io.EOF) {
		return core.DriverCatalog{}, fmt.Errorf("parse taxonomy: %w", err)
	}

	catalog.Sectors = clean(catalog.Sectors)
	catalog.Domains = clean(catalog.Domains)
	catalog.Countries = clean(catalog.Countries)
	catalog.Clarifiers = clean(catalog.Clarifiers)

	for _, names := range [][]string{catalog.Sectors, catalog.Domains, catalog.Countries, catalog.Clarifiers} {
		for _, name := range names {
			if strings.ContainsAny(name, ",+") {
				return core.DriverCatalog{}, fmt.Errorf("parse taxonomy: driver name %q contains a separator", name)
			}
		}
	}
	return catalog, nil
}

func clean(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
