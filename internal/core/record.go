package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is the grid view of an entity. Column names match the FieldSpecs of
// the entity's definition and are compared case-insensitively.
type Record interface {
	RecordID() string
	RecordKind() Kind
	Cell(column string) string
	SetCell(column, value string) error
}

// listSeparator joins collection cells such as Variants and Values.
const listSeparator = ";"

func joinList(values []string) string {
	return strings.Join(values, listSeparator+" ")
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, listSeparator) {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func unknownColumn(kind Kind, column string) error {
	return fmt.Errorf("%w: %s has no column %q", ErrUnknownColumn, kind, column)
}

func readOnlyColumn(kind Kind, column string) error {
	return fmt.Errorf("%w: %s.%s", ErrReadOnlyColumn, kind, column)
}

func (d *Driver) RecordID() string { return d.ID }
func (d *Driver) RecordKind() Kind { return KindDrivers }

func (d *Driver) Cell(column string) string {
	switch strings.ToLower(column) {
	case "id":
		return d.ID
	case "category":
		return string(d.Category)
	case "name":
		return d.Name
	case "description":
		return d.Description
	case "order":
		return strconv.Itoa(d.SortOrder)
	}
	return ""
}

func (d *Driver) SetCell(column, value string) error {
	switch strings.ToLower(column) {
	case "id":
		return readOnlyColumn(KindDrivers, column)
	case "category":
		d.Category = DriverCategory(value)
	case "name":
		d.Name = value
	case "description":
		d.Description = value
	case "order":
		if strings.TrimSpace(value) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return ValidationErrors{{Field: "Order", Value: value, Message: "invalid number"}}
		}
		d.SortOrder = n
	default:
		return unknownColumn(KindDrivers, column)
	}
	return nil
}

func (o *Object) RecordID() string { return o.ID }
func (o *Object) RecordKind() Kind { return KindObjects }

func (o *Object) Cell(column string) string {
	switch strings.ToLower(column) {
	case "id":
		return o.ID
	case "being":
		return o.Being
	case "avatar":
		return o.Avatar
	case "object":
		return o.Object
	case "driver":
		return o.Driver
	case "identifier":
		return o.Identifier
	case "relationships":
		parts := make([]string, len(o.Relationships))
		for i, r := range o.Relationships {
			parts[i] = string(r.Type) + ":" + r.ObjectID
		}
		return joinList(parts)
	case "variants":
		names := make([]string, len(o.Variants))
		for i, v := range o.Variants {
			names[i] = v.Name
		}
		return joinList(names)
	}
	return ""
}

func (o *Object) SetCell(column, value string) error {
	switch strings.ToLower(column) {
	case "id", "relationships":
		return readOnlyColumn(KindObjects, column)
	case "being":
		o.Being = value
	case "avatar":
		o.Avatar = value
	case "object":
		o.Object = value
	case "driver":
		o.Driver = value
	case "identifier":
		o.Identifier = value
	case "variants":
		o.Variants = mergeVariants(o.Variants, splitList(value))
	default:
		return unknownColumn(KindObjects, column)
	}
	return nil
}

// mergeVariants keeps ids and descriptions of variants whose names survive.
func mergeVariants(existing []Variant, names []string) []Variant {
	out := make([]Variant, 0, len(names))
	for _, name := range names {
		v := Variant{Name: name}
		for _, e := range existing {
			if strings.EqualFold(e.Name, name) {
				v = e
				v.Name = name
				break
			}
		}
		out = append(out, v)
	}
	return out
}

func (v *Variable) RecordID() string { return v.ID }
func (v *Variable) RecordKind() Kind { return KindVariables }

func (v *Variable) Cell(column string) string {
	switch strings.ToLower(column) {
	case "id":
		return v.ID
	case "part":
		return v.Part
	case "section":
		return v.Section
	case "group":
		return v.Group
	case "variable":
		return v.Variable
	case "format":
		return v.Format
	case "driver":
		return v.Driver
	case "objects":
		return joinList(v.ObjectRelationships)
	}
	return ""
}

func (v *Variable) SetCell(column, value string) error {
	switch strings.ToLower(column) {
	case "id":
		return readOnlyColumn(KindVariables, column)
	case "part":
		v.Part = value
	case "section":
		v.Section = value
	case "group":
		v.Group = value
	case "variable":
		v.Variable = value
	case "format":
		v.Format = value
	case "driver":
		v.Driver = value
	case "objects":
		v.ObjectRelationships = splitList(value)
	default:
		return unknownColumn(KindVariables, column)
	}
	return nil
}

func (l *List) RecordID() string { return l.ID }
func (l *List) RecordKind() Kind { return KindLists }

func (l *List) Cell(column string) string {
	switch strings.ToLower(column) {
	case "id":
		return l.ID
	case "set":
		return l.Set
	case "grouping":
		return l.Grouping
	case "list":
		return l.List
	case "tiers":
		parts := make([]string, len(l.Tiers))
		for i, t := range l.Tiers {
			parts[i] = strconv.Itoa(t.Tier) + ":" + t.ListID
		}
		return joinList(parts)
	case "values":
		values := make([]string, len(l.Values))
		for i, lv := range l.Values {
			values[i] = lv.Value
		}
		return joinList(values)
	}
	return ""
}

func (l *List) SetCell(column, value string) error {
	switch strings.ToLower(column) {
	case "id", "tiers":
		return readOnlyColumn(KindLists, column)
	case "set":
		l.Set = value
	case "grouping":
		l.Grouping = value
	case "list":
		l.List = value
	case "values":
		values := splitList(value)
		merged := make([]ListValue, 0, len(values))
		for _, val := range values {
			lv := ListValue{Value: val}
			for _, e := range l.Values {
				if strings.EqualFold(e.Value, val) {
					lv.ID = e.ID
					break
				}
			}
			merged = append(merged, lv)
		}
		l.Values = merged
	default:
		return unknownColumn(KindLists, column)
	}
	return nil
}
