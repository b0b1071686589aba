package core

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func objectRecords(objs ...Object) []Record {
	recs := make([]Record, len(objs))
	for i := range objs {
		o := objs[i]
		recs[i] = &o
	}
	return recs
}

func rowIDs(v ViewResult) []string {
	ids := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		ids[i] = r.ID
	}
	return ids
}

func sampleObjects() []Record {
	return objectRecords(
		Object{ID: "1", Being: "Party", Object: "Customer", Identifier: "C-10"},
		Object{ID: "2", Being: "Party", Object: "Supplier", Identifier: "S-2"},
		Object{ID: "3", Being: "Thing", Object: "Product"},
		Object{ID: "4", Being: "", Object: "Account"},
		Object{ID: "5", Being: "Event", Object: "Order"},
	)
}

func TestBuildViewFilters(t *testing.T) {
	def := mustDefinition(KindObjects)

	tests := []struct {
		name    string
		req     ViewRequest
		wantIDs []string
	}{
		{
			name:    "search is case-insensitive across cells",
			req:     ViewRequest{Search: "c-1"},
			wantIDs: []string{"1"},
		},
		{
			name:    "eq ignores case",
			req:     ViewRequest{Filters: []ColumnFilter{{Column: "being", Operator: OpEquals, Value: "PARTY"}}},
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "in list",
			req:     ViewRequest{Filters: []ColumnFilter{{Column: "Being", Operator: OpIn, Value: "thing | event"}}},
			wantIDs: []string{"5", "3"},
		},
		{
			name: "filters combine with AND",
			req: ViewRequest{Filters: []ColumnFilter{
				{Column: "Being", Operator: OpStartsWith, Value: "par"},
				{Column: "Object", Operator: OpEndsWith, Value: "MER"},
			}},
			wantIDs: []string{"1"},
		},
		{
			name:    "ordering operator on text column is dropped",
			req:     ViewRequest{Filters: []ColumnFilter{{Column: "Being", Operator: OpGreater, Value: "a"}}},
			wantIDs: []string{"5", "1", "2", "3", "4"},
		},
		{
			name:    "unknown column is dropped",
			req:     ViewRequest{Filters: []ColumnFilter{{Column: "Colour", Operator: OpEquals, Value: "red"}}},
			wantIDs: []string{"5", "1", "2", "3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildView(def, sampleObjects(), tt.req, nil)
			if diff := cmp.Diff(tt.wantIDs, rowIDs(got)); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildViewSorting(t *testing.T) {
	def := mustDefinition(KindObjects)

	tests := []struct {
		name      string
		req       ViewRequest
		wantIDs   []string
		wantSorts []SortSpec
	}{
		{
			name:      "fallback is first data column, empty last",
			req:       ViewRequest{},
			wantIDs:   []string{"5", "1", "2", "3", "4"},
			wantSorts: []SortSpec{{Column: "Being", Dir: "asc"}},
		},
		{
			name:      "descending keeps empty last",
			req:       ViewRequest{Sorts: []SortSpec{{Column: "being", Dir: "desc"}}},
			wantIDs:   []string{"3", "1", "2", "5", "4"},
			wantSorts: []SortSpec{{Column: "Being", Dir: "desc"}},
		},
		{
			name: "column mode uses only the first level",
			req: ViewRequest{Mode: SortByColumn, Sorts: []SortSpec{
				{Column: "Being", Dir: "asc"}, {Column: "Object", Dir: "desc"},
			}},
			wantIDs:   []string{"5", "1", "2", "3", "4"},
			wantSorts: []SortSpec{{Column: "Being", Dir: "asc"}},
		},
		{
			name: "custom mode applies every level",
			req: ViewRequest{Mode: SortCustom, Sorts: []SortSpec{
				{Column: "Being", Dir: "asc"}, {Column: "Object", Dir: "desc"},
			}},
			wantIDs:   []string{"5", "2", "1", "3", "4"},
			wantSorts: []SortSpec{{Column: "Being", Dir: "asc"}, {Column: "Object", Dir: "desc"}},
		},
		{
			name: "unknown and duplicate sort columns dropped",
			req: ViewRequest{Mode: SortCustom, Sorts: []SortSpec{
				{Column: "Nope"}, {Column: "Object"}, {Column: "object", Dir: "desc"},
			}},
			wantIDs:   []string{"4", "1", "5", "3", "2"},
			wantSorts: []SortSpec{{Column: "Object", Dir: "asc"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildView(def, sampleObjects(), tt.req, nil)
			if diff := cmp.Diff(tt.wantIDs, rowIDs(got)); diff != "" {
				t.Errorf("rows mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantSorts, got.Sorts); diff != "" {
				t.Errorf("sorts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuildViewSortLevelCap(t *testing.T) {
	def := mustDefinition(KindObjects)
	var sorts []SortSpec
	for _, col := range []string{"Being", "Avatar", "Object", "Driver", "Identifier", "Variants", "ID"} {
		sorts = append(sorts, SortSpec{Column: col})
	}
	got := BuildView(def, sampleObjects(), ViewRequest{Mode: SortCustom, Sorts: sorts}, nil)
	if len(got.Sorts) != MaxSortLevels {
		t.Errorf("applied %d levels, want %d", len(got.Sorts), MaxSortLevels)
	}
}

func TestBuildViewNumericComparison(t *testing.T) {
	def := mustDefinition(KindDrivers)
	recs := []Record{
		&Driver{ID: "a", Category: CategorySector, Name: "A", SortOrder: 10},
		&Driver{ID: "b", Category: CategorySector, Name: "B", SortOrder: 9},
		&Driver{ID: "c", Category: CategorySector, Name: "C", SortOrder: 100},
	}

	got := BuildView(def, recs, ViewRequest{Sorts: []SortSpec{{Column: "Order"}}}, nil)
	if diff := cmp.Diff([]string{"b", "a", "c"}, rowIDs(got)); diff != "" {
		t.Errorf("numeric sort (-want +got):\n%s", diff)
	}

	got = BuildView(def, recs, ViewRequest{Filters: []ColumnFilter{{Column: "Order", Operator: OpGreaterEq, Value: "10"}}}, nil)
	if got.TotalRows != 2 {
		t.Errorf("Order >= 10 matched %d rows, want 2", got.TotalRows)
	}
}

func TestBuildViewPaging(t *testing.T) {
	def := mustDefinition(KindObjects)
	var objs []Object
	for i := 0; i < 120; i++ {
		objs = append(objs, Object{ID: fmt.Sprintf("%03d", i), Object: fmt.Sprintf("Obj %03d", i)})
	}

	tests := []struct {
		name         string
		req          ViewRequest
		wantPage     int
		wantPageSize int
		wantRows     int
		wantPages    int
	}{
		{"defaults", ViewRequest{}, 1, DefaultPageSize, 50, 3},
		{"last page partial", ViewRequest{Page: 3}, 3, 50, 20, 3},
		{"page clamped to last", ViewRequest{Page: 99}, 3, 50, 20, 3},
		{"page below one", ViewRequest{Page: -4}, 1, 50, 50, 3},
		{"page size capped", ViewRequest{PageSize: 10000}, 1, MaxPageSize, 120, 1},
		{"configured cap above default", ViewRequest{PageSize: 800, MaxPageSize: 1000}, 1, 800, 120, 1},
		{"configured cap below request", ViewRequest{PageSize: 10000, MaxPageSize: 20}, 1, 20, 20, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildView(def, objectRecords(objs...), tt.req, nil)
			if got.Page != tt.wantPage || got.PageSize != tt.wantPageSize || len(got.Rows) != tt.wantRows || got.TotalPages != tt.wantPages {
				t.Errorf("page=%d size=%d rows=%d pages=%d", got.Page, got.PageSize, len(got.Rows), got.TotalPages)
			}
		})
	}

	empty := BuildView(def, nil, ViewRequest{Page: 5}, nil)
	if empty.TotalPages != 1 || empty.Page != 1 || len(empty.Rows) != 0 {
		t.Errorf("empty view = %+v", empty)
	}
}

func TestDefaultOrderView(t *testing.T) {
	def := mustDefinition(KindObjects)
	order := &DefaultOrder{Kind: KindObjects, Levels: []DefaultOrderLevel{
		{Column: "Being", Values: []string{"Thing", "party"}},
		{Column: "Object", Values: []string{"Supplier"}},
	}}

	got := BuildView(def, sampleObjects(), ViewRequest{Mode: SortByDefault}, order)
	// Thing, then Party (Supplier ranked before Customer), then unlisted Event, then empty.
	if diff := cmp.Diff([]string{"3", "2", "1", "5", "4"}, rowIDs(got)); diff != "" {
		t.Errorf("default order (-want +got):\n%s", diff)
	}
	if got.Sorts != nil {
		t.Errorf("default order should not report column sorts, got %v", got.Sorts)
	}

	// Without a stored order default mode falls back to column sort.
	got = BuildView(def, sampleObjects(), ViewRequest{Mode: SortByDefault}, nil)
	if diff := cmp.Diff([]string{"5", "1", "2", "3", "4"}, rowIDs(got)); diff != "" {
		t.Errorf("fallback (-want +got):\n%s", diff)
	}
}

func TestNormalizeDefaultOrder(t *testing.T) {
	def := mustDefinition(KindObjects)

	tests := []struct {
		name    string
		levels  []DefaultOrderLevel
		want    []DefaultOrderLevel
		wantErr bool
	}{
		{
			name:   "canonical column name and trimmed values",
			levels: []DefaultOrderLevel{{Column: "being", Values: []string{" Party ", "Thing"}}},
			want:   []DefaultOrderLevel{{Column: "Being", Values: []string{"Party", "Thing"}}},
		},
		{name: "ID rejected", levels: []DefaultOrderLevel{{Column: "ID", Values: []string{"x"}}}, wantErr: true},
		{name: "unknown column", levels: []DefaultOrderLevel{{Column: "Colour", Values: []string{"x"}}}, wantErr: true},
		{
			name: "duplicate column",
			levels: []DefaultOrderLevel{
				{Column: "Being", Values: []string{"a"}},
				{Column: "BEING", Values: []string{"b"}},
			},
			wantErr: true,
		},
		{name: "empty value", levels: []DefaultOrderLevel{{Column: "Being", Values: []string{"a", " "}}}, wantErr: true},
		{name: "duplicate value", levels: []DefaultOrderLevel{{Column: "Being", Values: []string{"a", "A"}}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeDefaultOrder(def, tt.levels)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderCandidates(t *testing.T) {
	order := &DefaultOrder{Levels: []DefaultOrderLevel{{Column: "Being", Values: []string{"Thing"}}}}
	got := orderCandidates(order, "Being", sampleObjects())
	if diff := cmp.Diff([]string{"Thing", "Event", "Party"}, got); diff != "" {
		t.Errorf("candidates (-want +got):\n%s", diff)
	}
}

func TestMatchFilterOperators(t *testing.T) {
	tests := []struct {
		cell string
		op   FilterOperator
		val  string
		want bool
	}{
		{"Customer", OpContains, "TOM", true},
		{"10", OpGreater, "9", true},
		{"10", OpLess, "9", false},
		{"abc", OpLessEq, "ABD", true},
		{"", OpLess, "5", false},
		{"5", OpEquals, "5.0", true},
		{"x", OpIn, "a|X", true},
		{"a, b", OpIn, "a, b|c", true},
		{"a", OpIn, "a, b", false},
		{"x", FilterOperator("nope"), "x", false},
	}
	for _, tt := range tests {
		if got := matchFilter(tt.cell, ColumnFilter{Operator: tt.op, Value: tt.val}); got != tt.want {
			t.Errorf("matchFilter(%q %s %q) = %v, want %v", tt.cell, tt.op, tt.val, got, tt.want)
		}
	}
}

func TestBuildViewDriverInFilter(t *testing.T) {
	def := mustDefinition(KindObjects)
	recs := objectRecords(
		Object{ID: "1", Object: "A", Driver: "Retail, ALL, ALL, ALL"},
		Object{ID: "2", Object: "B", Driver: "Finance, Sales, ALL, ALL"},
		Object{ID: "3", Object: "C", Driver: "Energy, ALL, ALL, ALL"},
	)

	tests := []struct {
		name   string
		filter ColumnFilter
		want   []string
	}{
		{
			name:   "eq on driver string",
			filter: ColumnFilter{Column: "Driver", Operator: OpEquals, Value: "retail, all, all, all"},
			want:   []string{"1"},
		},
		{
			name:   "in with explicit values",
			filter: ColumnFilter{Column: "Driver", Operator: OpIn, Values: []string{"Retail, ALL, ALL, ALL", "Finance, Sales, ALL, ALL"}},
			want:   []string{"1", "2"},
		},
		{
			name:   "in with separated value",
			filter: ColumnFilter{Column: "Driver", Operator: OpIn, Value: "Energy, ALL, ALL, ALL | Retail, ALL, ALL, ALL"},
			want:   []string{"1", "3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildView(def, recs, ViewRequest{Filters: []ColumnFilter{tt.filter}}, nil)
			if diff := cmp.Diff(tt.want, rowIDs(got)); diff != "" {
				t.Errorf("rows (-want +got):\n%s", diff)
			}
		})
	}
}
