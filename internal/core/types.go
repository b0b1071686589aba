package core

import (
	"fmt"
	"strings"
	"time"
)

// Kind names an editable entity type. The value doubles as the URL segment.
type Kind string

const (
	KindDrivers   Kind = "drivers"
	KindObjects   Kind = "objects"
	KindVariables Kind = "variables"
	KindLists     Kind = "lists"
)

// Kinds lists every entity kind in display order.
var Kinds = []Kind{KindDrivers, KindObjects, KindVariables, KindLists}

// ParseKind validates a kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// DriverCategory is one of the four driver string segments.
type DriverCategory string

const (
	CategorySector    DriverCategory = "sector"
	CategoryDomain    DriverCategory = "domain"
	CategoryCountry   DriverCategory = "country"
	CategoryClarifier DriverCategory = "clarifier"
)

// DriverCategories lists categories in driver string segment order.
var DriverCategories = []DriverCategory{CategorySector, CategoryDomain, CategoryCountry, CategoryClarifier}

var categoryNames = map[string]DriverCategory{
	"sector":     CategorySector,
	"sectors":    CategorySector,
	"domain":     CategoryDomain,
	"domains":    CategoryDomain,
	"country":    CategoryCountry,
	"countries":  CategoryCountry,
	"clarifier":  CategoryClarifier,
	"clarifiers": CategoryClarifier,
}

// ParseDriverCategory accepts singular or plural, any case.
func ParseDriverCategory(s string) (DriverCategory, error) {
	if c, ok := categoryNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return "", fmt.Errorf("invalid driver category %q", s)
}

// RelationshipType classifies an edge between two objects.
type RelationshipType string

const (
	RelationshipBlood      RelationshipType = "Blood"
	RelationshipIntraTable RelationshipType = "Intra-Table"
	RelationshipInterTable RelationshipType = "Inter-Table"
)

// RelationshipTypes lists the valid relationship types.
var RelationshipTypes = []RelationshipType{RelationshipBlood, RelationshipIntraTable, RelationshipInterTable}

// ParseRelationshipType is lenient about case, spaces and hyphens.
func ParseRelationshipType(s string) (RelationshipType, error) {
	norm := strings.NewReplacer(" ", "", "-", "", "_", "").Replace(strings.ToLower(s))
	for _, t := range RelationshipTypes {
		if strings.ReplaceAll(strings.ToLower(string(t)), "-", "") == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid relationship type %q", s)
}

// Driver is one vocabulary entry of a driver category.
type Driver struct {
	ID          string         `json:"id"`
	Category    DriverCategory `json:"category"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	SortOrder   int            `json:"sortOrder"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// AppendSortOrder places a new driver after the last one in its category.
// On update it keeps the stored position.
const AppendSortOrder = -1

// Relationship is a typed edge from the owning object to another object.
type Relationship struct {
	ID          string           `json:"id"`
	Type        RelationshipType `json:"type"`
	ObjectID    string           `json:"objectId"`
	Description string           `json:"description,omitempty"`
}

// Variant is a named sub-instance of an object.
type Variant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Object is a canonical data model object.
type Object struct {
	ID            string         `json:"id"`
	Being         string         `json:"being"`
	Avatar        string         `json:"avatar"`
	Object        string         `json:"object"`
	Driver        string         `json:"driver"`
	Identifier    string         `json:"identifier"`
	Relationships []Relationship `json:"relationships"`
	Variants      []Variant      `json:"variants"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Variable is a data point belonging to zero or more objects.
type Variable struct {
	ID                  string    `json:"id"`
	Part                string    `json:"part"`
	Section             string    `json:"section"`
	Group               string    `json:"group"`
	Variable            string    `json:"variable"`
	Format              string    `json:"format"`
	Driver              string    `json:"driver"`
	ObjectRelationships []string  `json:"objectRelationships"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// ListTier nests another list at a tier level.
type ListTier struct {
	Tier   int    `json:"tier"`
	ListID string `json:"listId"`
}

// ListValue is one entry of a list.
type ListValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// List is an enumerated value set, optionally tiered over other lists.
type List struct {
	ID        string      `json:"id"`
	Set       string      `json:"set"`
	Grouping  string      `json:"grouping"`
	List      string      `json:"list"`
	Tiers     []ListTier  `json:"tiers"`
	Values    []ListValue `json:"values"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// FieldType represents the data type of a grid column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldNumeric
	FieldList // ';'-separated collection rendered as text
)

// FieldSpec describes one column of an entity grid.
type FieldSpec struct {
	Name        string              // Column header name
	Type        FieldType           // Data type, drives filter operators
	Required    bool                // Value must be non-empty on save and present in uploads
	ReadOnly    bool                // Derived column; rejected by SetCell, upload and bulk edit
	Categorical bool                // Eligible for a default order level
	EnumValues  []string            // Valid values for FieldEnum
	Normalizer  func(string) string // Optional transformation before SetCell
}

// FilterOperator represents a comparison operator for column filters.
type FilterOperator string

const (
	OpContains   FilterOperator = "contains"
	OpEquals     FilterOperator = "eq"
	OpStartsWith FilterOperator = "starts"
	OpEndsWith   FilterOperator = "ends"
	OpGreaterEq  FilterOperator = "gte"
	OpLessEq     FilterOperator = "lte"
	OpGreater    FilterOperator = "gt"
	OpLess       FilterOperator = "lt"
	OpIn         FilterOperator = "in"
)

// ColumnFilter represents a single filter condition on a column.
type ColumnFilter struct {
	Column   string         `json:"column"`
	Operator FilterOperator `json:"op"`
	Value    string         `json:"value"`
	Values   []string       `json:"values,omitempty"` // candidates for OpIn
}

// InValueSeparator separates OpIn candidates in a single query value.
// Commas cannot be used since driver strings contain them.
const InValueSeparator = "|"

// SplitInValues splits a query value into OpIn candidates.
func SplitInValues(s string) []string {
	var out []string
	for _, v := range strings.Split(s, InValueSeparator) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// SortSpec represents a single sort column and direction.
type SortSpec struct {
	Column string `json:"column"`
	Dir    string `json:"dir"` // "asc" or "desc"
}

// SortMode selects how a view is ordered.
type SortMode string

const (
	SortByColumn  SortMode = "column"  // first sort spec only
	SortCustom    SortMode = "custom"  // multi-level sort specs
	SortByDefault SortMode = "default" // persisted default order
)

// ParseSortMode defaults to SortByColumn for unknown input.
func ParseSortMode(s string) SortMode {
	switch SortMode(strings.ToLower(s)) {
	case SortCustom:
		return SortCustom
	case SortByDefault:
		return SortByDefault
	default:
		return SortByColumn
	}
}
