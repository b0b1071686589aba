package core

import (
	"strings"
)

func init() {
	registerDrivers()
	registerObjects()
	registerVariables()
	registerLists()
}

func registerDrivers() {
	Register(EntityDefinition{
		Info: EntityInfo{Kind: KindDrivers, Label: "Drivers"},
		FieldSpecs: []FieldSpec{
			{Name: "ID", Type: FieldText, ReadOnly: true},
			{Name: "Category", Type: FieldEnum, Required: true, Categorical: true,
				EnumValues: []string{"sector", "domain", "country", "clarifier"}, Normalizer: normalizeCategory},
			{Name: "Name", Type: FieldText, Required: true, Normalizer: collapseSpaces},
			{Name: "Description", Type: FieldText},
			{Name: "Order", Type: FieldNumeric},
		},
		New: func() Record { return &Driver{SortOrder: AppendSortOrder} },
	})
}

func registerObjects() {
	Register(EntityDefinition{
		Info: EntityInfo{Kind: KindObjects, Label: "Objects"},
		FieldSpecs: []FieldSpec{
			{Name: "ID", Type: FieldText, ReadOnly: true},
			{Name: "Being", Type: FieldText, Categorical: true, Normalizer: collapseSpaces},
			{Name: "Avatar", Type: FieldText, Categorical: true, Normalizer: collapseSpaces},
			{Name: "Object", Type: FieldText, Required: true, Normalizer: collapseSpaces},
			{Name: "Driver", Type: FieldText, Categorical: true},
			{Name: "Identifier", Type: FieldText},
			{Name: "Relationships", Type: FieldList, ReadOnly: true},
			{Name: "Variants", Type: FieldList},
		},
		New: func() Record { return &Object{} },
	})
}

func registerVariables() {
	Register(EntityDefinition{
		Info: EntityInfo{Kind: KindVariables, Label: "Variables"},
		FieldSpecs: []FieldSpec{
			{Name: "ID", Type: FieldText, ReadOnly: true},
			{Name: "Part", Type: FieldText, Categorical: true, Normalizer: collapseSpaces},
			{Name: "Section", Type: FieldText, Categorical: true, Normalizer: collapseSpaces},
			{Name: "Group", Type: FieldText, Categorical: true, Normalizer: collapseSpaces},
			{Name: "Variable", Type: FieldText, Required: true, Normalizer: collapseSpaces},
			{Name: "Format", Type: FieldText, Categorical: true},
			{Name: "Driver", Type: FieldText, Categorical: true},
			{Name: "Objects", Type: FieldList},
		},
		New: func() Record { return &Variable{} },
	})
}

func registerLists() {
	Register(EntityDefinition{
		Info: EntityInfo{Kind: KindLists, Label: "Lists"},
		FieldSpecs: []FieldSpec{
			{Name: "ID", Type: FieldText, ReadOnly: true},
			{Name: "Set", Type: FieldText, Categorical: true, Normalizer: collapseSpaces},
			{Name: "Grouping", Type: FieldText, Categorical: true, Normalizer: collapseSpaces},
			{Name: "List", Type: FieldText, Required: true, Normalizer: collapseSpaces},
			{Name: "Tiers", Type: FieldList, ReadOnly: true},
			{Name: "Values", Type: FieldList},
		},
		New: func() Record { return &List{} },
	})
}

// collapseSpaces trims and reduces internal whitespace runs to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeCategory maps "Sectors" to "sector"; unknown input is returned lowercased.
func normalizeCategory(s string) string {
	if c, err := ParseDriverCategory(s); err == nil {
		return string(c)
	}
	return strings.ToLower(s)
}
