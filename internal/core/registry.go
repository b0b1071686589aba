package core

import (
	"fmt"
	"slices"
	"strings"
	"sync"
)

var (
	registry   = make(map[Kind]EntityDefinition)
	registryMu sync.RWMutex
)

// EntityInfo contains display information about an entity kind.
type EntityInfo struct {
	Kind    Kind     `json:"kind"`
	Label   string   `json:"label"`   // Display name: "Objects"
	Columns []string `json:"columns"` // Grid column names in display order
}

// EntityDefinition is everything the grid, bulk edit and upload need to know
// about one entity kind.
type EntityDefinition struct {
	Info       EntityInfo
	FieldSpecs []FieldSpec
	New        func() Record // blank record used by uploads
}

// Spec returns the field spec for a column, matched case-insensitively.
func (d EntityDefinition) Spec(column string) (FieldSpec, bool) {
	for _, spec := range d.FieldSpecs {
		if strings.EqualFold(spec.Name, column) {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// SetField writes value to column after checking the spec and normalizing.
func (d EntityDefinition) SetField(rec Record, column, value string) error {
	if k := rec.RecordKind(); k != d.Info.Kind {
		return fmt.Errorf("%w: %s record passed to %s", ErrUnknownKind, k, d.Info.Kind)
	}
	spec, ok := d.Spec(column)
	if !ok {
		return unknownColumn(d.Info.Kind, column)
	}
	if spec.ReadOnly {
		return readOnlyColumn(d.Info.Kind, spec.Name)
	}
	value = strings.TrimSpace(value)
	if spec.Normalizer != nil {
		value = spec.Normalizer(value)
	}
	return rec.SetCell(spec.Name, value)
}

// Register adds an entity definition to the registry.
// Panics if the kind is already registered.
func Register(def EntityDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Info.Kind]; exists {
		panic(fmt.Sprintf("entity kind already registered: %s", def.Info.Kind))
	}

	if len(def.Info.Columns) == 0 {
		def.Info.Columns = make([]string, len(def.FieldSpecs))
		for i, spec := range def.FieldSpecs {
			def.Info.Columns[i] = spec.Name
		}
	}

	registry[def.Info.Kind] = def
}

// Get returns the definition of a kind.
func Get(kind Kind) (EntityDefinition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[kind]
	return def, ok
}

// All returns all registered definitions in the order of Kinds.
func All() []EntityDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]EntityDefinition, 0, len(registry))
	for _, k := range Kinds {
		if def, ok := registry[k]; ok {
			result = append(result, def)
		}
	}
	return result
}

// mustDefinition is for kinds registered by this package.
func mustDefinition(kind Kind) EntityDefinition {
	def, ok := Get(kind)
	if !ok {
		panic(fmt.Sprintf("entity kind not registered: %s", kind))
	}
	return def
}

// definition resolves a kind or reports ErrUnknownKind.
func definition(kind Kind) (EntityDefinition, error) {
	def, ok := Get(kind)
	if !ok {
		return EntityDefinition{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return def, nil
}

// categoricalColumns lists columns eligible for default order levels.
func (d EntityDefinition) categoricalColumns() []string {
	var cols []string
	for _, spec := range d.FieldSpecs {
		if spec.Categorical {
			cols = append(cols, spec.Name)
		}
	}
	return slices.Clip(cols)
}
