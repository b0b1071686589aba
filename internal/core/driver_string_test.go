package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDriverString(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    DriverSelection
		wantErr bool
	}{
		{name: "empty", input: "", want: DriverSelection{}},
		{name: "blank", input: "   ", want: DriverSelection{}},
		{name: "all segments ALL", input: "ALL, ALL, ALL, ALL", want: DriverSelection{}},
		{
			name:  "full",
			input: "Retail+Finance, Sales, US, Net",
			want: DriverSelection{
				Sectors:    []string{"Retail", "Finance"},
				Domains:    []string{"Sales"},
				Countries:  []string{"US"},
				Clarifiers: []string{"Net"},
			},
		},
		{
			name:  "missing trailing segments",
			input: "Retail",
			want:  DriverSelection{Sectors: []string{"Retail"}},
		},
		{
			name:  "lowercase all and empty segment",
			input: "all, , DE",
			want:  DriverSelection{Countries: []string{"DE"}},
		},
		{
			name:  "trims and drops duplicates keeping first",
			input: " Retail + retail +  + Finance ,Sales",
			want:  DriverSelection{Sectors: []string{"Retail", "Finance"}, Domains: []string{"Sales"}},
		},
		{name: "too many segments", input: "a, b, c, d, e", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDriverString(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDriverString(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseDriverString(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestDriverSelectionString(t *testing.T) {
	tests := []struct {
		sel  DriverSelection
		want string
	}{
		{DriverSelection{}, "ALL, ALL, ALL, ALL"},
		{DriverSelection{Domains: []string{"Sales", "Ops"}}, "ALL, Sales+Ops, ALL, ALL"},
		{DriverSelection{Sectors: []string{"Retail"}, Clarifiers: []string{"Net"}}, "Retail, ALL, ALL, Net"},
	}

	for _, tt := range tests {
		if got := tt.sel.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		back, err := ParseDriverString(tt.sel.String())
		if err != nil {
			t.Fatalf("round trip: %v", err)
		}
		if diff := cmp.Diff(tt.sel, back); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestDriverCatalog(t *testing.T) {
	drivers := []Driver{
		{ID: "3", Category: CategorySector, Name: "Finance", SortOrder: 1},
		{ID: "1", Category: CategorySector, Name: "Retail", SortOrder: 0},
		{ID: "2", Category: CategoryDomain, Name: "Sales", SortOrder: 0},
		{ID: "4", Category: CategoryCountry, Name: "US", SortOrder: 0},
	}
	catalog := NewDriverCatalog(drivers)

	if diff := cmp.Diff([]string{"Retail", "Finance"}, catalog.Sectors); diff != "" {
		t.Errorf("sectors (-want +got):\n%s", diff)
	}

	sel, _ := ParseDriverString("finance+RETAIL, sales")
	if err := catalog.Validate(sel); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	canon := catalog.Canonicalize(sel)
	if got := canon.String(); got != "Retail+Finance, Sales, ALL, ALL" {
		t.Errorf("Canonicalize() = %q", got)
	}

	unknown, _ := ParseDriverString("Retail, Marketing, FR")
	if err := catalog.Validate(unknown); err == nil {
		t.Error("Validate() accepted unknown names")
	}
}

func TestDriverSelectionRename(t *testing.T) {
	sel := DriverSelection{Sectors: []string{"Retail", "Finance"}}

	renamed, ok := sel.Rename(CategorySector, "retail", "Commerce")
	if !ok {
		t.Fatal("Rename() reported no change")
	}
	if diff := cmp.Diff([]string{"Commerce", "Finance"}, renamed.Sectors); diff != "" {
		t.Errorf("renamed (-want +got):\n%s", diff)
	}
	if sel.Sectors[0] != "Retail" {
		t.Error("Rename() modified the original selection")
	}

	if _, ok := sel.Rename(CategoryDomain, "Retail", "X"); ok {
		t.Error("Rename() matched across categories")
	}
	if !sel.Uses(CategorySector, "FINANCE") {
		t.Error("Uses() should be case-insensitive")
	}
}

func TestParseDriverCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    DriverCategory
		wantErr bool
	}{
		{in: "sector", want: CategorySector},
		{in: "Sectors", want: CategorySector},
		{in: " DOMAIN ", want: CategoryDomain},
		{in: "countries", want: CategoryCountry},
		{in: "Country", want: CategoryCountry},
		{in: "clarifiers", want: CategoryClarifier},
		{in: "countrie", wantErr: true},
		{in: "region", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDriverCategory(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDriverCategory(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDriverCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
