package core

// validation.go checks entities before they are persisted.
//
// Field-level rules come from the registered FieldSpecs (required values,
// enum membership). Structural rules that need other entities, such as
// relationship targets and list tier cycles, are checked against a snapshot
// of the store loaded by the service.

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// ValidationErrors collects every problem found with one entity.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationErrors) add(field, value, format string, args ...any) {
	*e = append(*e, ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, args...)})
}

// err returns nil when no problems were collected.
func (e ValidationErrors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// validateFields applies the definition's field specs to a record.
func validateFields(def EntityDefinition, rec Record) ValidationErrors {
	var errs ValidationErrors
	for _, spec := range def.FieldSpecs {
		if spec.ReadOnly {
			continue
		}
		val := rec.Cell(spec.Name)
		if spec.Normalizer != nil && spec.Type != FieldList {
			if norm := spec.Normalizer(val); norm != val {
				if err := rec.SetCell(spec.Name, norm); err != nil {
					errs.add(spec.Name, val, "%v", err)
					continue
				}
				val = norm
			}
		}
		if spec.Required && strings.TrimSpace(val) == "" {
			errs.add(spec.Name, val, "required field is empty")
			continue
		}
		if spec.Type == FieldEnum && val != "" && !containsFold(spec.EnumValues, val) {
			errs.add(spec.Name, val, "invalid enum value, allowed: %s", strings.Join(spec.EnumValues, ", "))
		}
		if spec.Type == FieldNumeric && val != "" {
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				errs.add(spec.Name, val, "invalid number")
			}
		}
	}
	return errs
}

// snapshot holds the entities structural validation needs.
type snapshot struct {
	drivers   map[string]Driver
	objects   map[string]Object
	variables map[string]Variable
	lists     map[string]List
	catalog   DriverCatalog
}

func (s *snapshot) validateObject(o *Object) ValidationErrors {
	errs := validateFields(mustDefinition(KindObjects), o)
	errs = append(errs, s.validateDriver(&o.Driver)...)

	seen := make(map[string]bool)
	for i, rel := range o.Relationships {
		field := fmt.Sprintf("relationships[%d]", i)
		t, err := ParseRelationshipType(string(rel.Type))
		if err != nil {
			errs.add(field+".type", string(rel.Type), "must be one of Blood, Intra-Table, Inter-Table")
			continue
		}
		o.Relationships[i].Type = t
		switch {
		case rel.ObjectID == "":
			errs.add(field+".objectId", "", "target object is required")
			continue
		case rel.ObjectID == o.ID:
			errs.add(field+".objectId", rel.ObjectID, "an object cannot relate to itself")
			continue
		}
		if _, ok := s.objects[rel.ObjectID]; !ok {
			errs.add(field+".objectId", rel.ObjectID, "target object does not exist")
			continue
		}
		key := string(t) + "|" + rel.ObjectID
		if seen[key] {
			errs.add(field, rel.ObjectID, "duplicate %s relationship", t)
		}
		seen[key] = true
	}

	names := make(map[string]bool)
	for i, v := range o.Variants {
		field := fmt.Sprintf("variants[%d].name", i)
		name := strings.TrimSpace(v.Name)
		if name == "" {
			errs.add(field, v.Name, "variant name is required")
			continue
		}
		o.Variants[i].Name = name
		if names[strings.ToLower(name)] {
			errs.add(field, name, "duplicate variant name")
		}
		names[strings.ToLower(name)] = true
	}
	return errs
}

func (s *snapshot) validateVariable(v *Variable) ValidationErrors {
	errs := validateFields(mustDefinition(KindVariables), v)
	errs = append(errs, s.validateDriver(&v.Driver)...)

	seen := make(map[string]bool)
	var links []string
	for i, id := range v.ObjectRelationships {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := s.objects[id]; !ok {
			errs.add(fmt.Sprintf("objectRelationships[%d]", i), id, "object does not exist")
			continue
		}
		links = append(links, id)
	}
	v.ObjectRelationships = links
	return errs
}

func (s *snapshot) validateList(l *List) ValidationErrors {
	errs := validateFields(mustDefinition(KindLists), l)

	values := make(map[string]bool)
	for i, lv := range l.Values {
		val := strings.TrimSpace(lv.Value)
		field := fmt.Sprintf("values[%d]", i)
		if val == "" {
			errs.add(field, lv.Value, "list value is required")
			continue
		}
		l.Values[i].Value = val
		if values[strings.ToLower(val)] {
			errs.add(field, val, "duplicate list value")
		}
		values[strings.ToLower(val)] = true
	}

	tiers := make(map[int]bool)
	for i, t := range l.Tiers {
		field := fmt.Sprintf("tiers[%d]", i)
		if t.Tier < 1 {
			errs.add(field+".tier", strconv.Itoa(t.Tier), "tier must be at least 1")
		} else if tiers[t.Tier] {
			errs.add(field+".tier", strconv.Itoa(t.Tier), "duplicate tier")
		}
		tiers[t.Tier] = true
		if t.ListID == l.ID {
			errs.add(field+".listId", t.ListID, "a list cannot be its own tier")
			continue
		}
		if _, ok := s.lists[t.ListID]; !ok {
			errs.add(field+".listId", t.ListID, "tier list does not exist")
		}
	}
	if len(errs) == 0 && s.tierCycle(l) {
		errs.add("tiers", "", "tiers form a cycle")
	}
	return errs
}

// tierCycle reports whether l is reachable from its own tiers.
func (s *snapshot) tierCycle(l *List) bool {
	visited := make(map[string]bool)
	var walk func(id string) bool
	walk = func(id string) bool {
		if id == l.ID {
			return true
		}
		if visited[id] {
			return false
		}
		visited[id] = true
		for _, t := range s.lists[id].Tiers {
			if walk(t.ListID) {
				return true
			}
		}
		return false
	}
	for _, t := range l.Tiers {
		if walk(t.ListID) {
			return true
		}
	}
	return false
}

// validateDriver canonicalizes a driver string in place.
func (s *snapshot) validateDriver(driver *string) ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(*driver) == "" {
		*driver = ""
		return nil
	}
	sel, err := ParseDriverString(*driver)
	if err != nil {
		errs.add("Driver", *driver, "%v", err)
		return errs
	}
	if err := s.catalog.Validate(sel); err != nil {
		errs.add("Driver", *driver, "%v", err)
		return errs
	}
	*driver = s.catalog.Canonicalize(sel).String()
	return nil
}

// validateDriverEntity checks a driver against its category siblings.
func validateDriverEntity(d *Driver, siblings []Driver) ValidationErrors {
	var errs ValidationErrors
	cat, err := ParseDriverCategory(string(d.Category))
	if err != nil {
		errs.add("Category", string(d.Category), "must be one of sector, domain, country, clarifier")
		return errs
	}
	d.Category = cat
	d.Name = strings.TrimSpace(d.Name)
	errs = append(errs, validateFields(mustDefinition(KindDrivers), d)...)
	if strings.ContainsAny(d.Name, segmentSeparator+valueSeparator) {
		errs.add("Name", d.Name, "must not contain %q or %q", segmentSeparator, valueSeparator)
	}
	if strings.EqualFold(d.Name, DriverAll) {
		errs.add("Name", d.Name, "%s is reserved", DriverAll)
	}
	for _, sib := range siblings {
		if sib.ID != d.ID && sib.Category == d.Category && strings.EqualFold(sib.Name, d.Name) {
			errs.add("Name", d.Name, "a %s named %q already exists", d.Category, sib.Name)
		}
	}
	return errs
}

func containsFold(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}
