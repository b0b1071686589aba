package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIsEmptyRow(t *testing.T) {
	tests := []struct {
		name string
		row  []string
		want bool
	}{
		{
			name: "empty slice",
			row:  []string{},
			want: true,
		},
		{
			name: "single empty string",
			row:  []string{""},
			want: true,
		},
		{
			name: "multiple empty strings",
			row:  []string{"", "", ""},
			want: true,
		},
		{
			name: "whitespace only cells",
			row:  []string{"   ", "\t", "  \t  "},
			want: true,
		},
		{
			name: "newlines only",
			row:  []string{"\n", "\r\n", "\r"},
			want: true,
		},
		{
			name: "single non-empty cell",
			row:  []string{"data"},
			want: false,
		},
		{
			name: "non-empty with empties",
			row:  []string{"", "data", ""},
			want: false,
		},
		{
			name: "non-empty last cell",
			row:  []string{"", "", "data"},
			want: false,
		},
		{
			name: "non-empty first cell",
			row:  []string{"data", "", ""},
			want: false,
		},
		{
			name: "all non-empty",
			row:  []string{"a", "b", "c"},
			want: false,
		},
		{
			name: "whitespace and data",
			row:  []string{"   ", "data", "\t"},
			want: false,
		},
		{
			name: "single space is not data",
			row:  []string{" "},
			want: true,
		},
		{
			name: "number zero is data",
			row:  []string{"0"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isEmptyRow(tt.row)
			if got != tt.want {
				t.Errorf("isEmptyRow(%v) = %v, want %v", tt.row, got, tt.want)
			}
		})
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{`="00123"`, "00123"},
		{`=""`, ""},
		{"=SUM(A1)", "=SUM(A1)"},
		{`"quoted"`, `"quoted"`},
	}
	for _, tt := range tests {
		if got := cleanCell(tt.in); got != tt.want {
			t.Errorf("cleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseUploadHeader(t *testing.T) {
	def := mustDefinition(KindObjects)

	h, err := parseUploadHeader(def, []string{"object", " ID ", "being"})
	if err != nil {
		t.Fatalf("parseUploadHeader: %v", err)
	}
	if h.idPos != 1 {
		t.Errorf("idPos = %d, want 1", h.idPos)
	}
	if diff := cmp.Diff([]string{"Object", "ID", "Being"}, h.columns); diff != "" {
		t.Errorf("columns (-want +got):\n%s", diff)
	}

	tests := []struct {
		name       string
		fields     []string
		wantFields int
	}{
		{"unknown column", []string{"Object", "Colour"}, 1},
		{"duplicate column", []string{"Object", "OBJECT"}, 1},
		{"read-only column", []string{"Object", "Relationships"}, 1},
		{"missing required and unknown", []string{"Colour"}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseUploadHeader(def, tt.fields)
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("error = %v, want ValidationErrors", err)
			}
			if len(verrs) != tt.wantFields {
				t.Errorf("got %d errors, want %d: %v", len(verrs), tt.wantFields, verrs)
			}
		})
	}
}

func TestDefinitionSetField(t *testing.T) {
	def := mustDefinition(KindDrivers)
	tests := []struct {
		name    string
		rec     Record
		column  string
		value   string
		wantErr error
	}{
		{"normalized", &Driver{}, "category", " Sectors ", nil},
		{"empty order keeps position", &Driver{SortOrder: AppendSortOrder}, "Order", "", nil},
		{"wrong kind", &Object{}, "Name", "Retail", ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := def.SetField(tt.rec, tt.column, tt.value)
			if tt.wantErr == nil && err != nil {
				t.Fatalf("SetField: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("SetField = %v, want %v", err, tt.wantErr)
			}
		})
	}

	d := &Driver{SortOrder: AppendSortOrder}
	if err := def.SetField(d, "Order", ""); err != nil {
		t.Fatal(err)
	}
	if d.SortOrder != AppendSortOrder {
		t.Errorf("SortOrder = %d, want %d", d.SortOrder, AppendSortOrder)
	}
}
