package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"wrapped not found", fmt.Errorf("get object: %w", ErrNotFound), "ENT001"},
		{"conflict", fmt.Errorf("%w: objects %q already exists", ErrConflict, "x"), "ENT002"},
		{"in use", fmt.Errorf("%w: list is tier 1", ErrInUse), "ENT003"},
		{"unknown kind", fmt.Errorf("%w: %q", ErrUnknownKind, "widgets"), "ENT004"},
		{"read-only column", readOnlyColumn(KindObjects, "Relationships"), "ENT006"},
		{"bulk rejected", fmt.Errorf("%w: 1 of 2 failed", ErrBulkRejected), "BULK001"},
		{"too many uploads", ErrTooManyUploads, "UPL002"},
		{"file too large", ErrFileTooLarge, "FILE001"},
		{"deadline", fmt.Errorf("upload: %w", context.DeadlineExceeded), "UPL005"},
		{"duplicate key from postgres", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"missing column beats required field", ValidationErrors{{Field: "header", Value: "Object", Message: "missing required column"}}, "VAL004"},
		{"required field", ValidationErrors{{Field: "Object", Message: "required field is empty"}}, "VAL003"},
		{"unknown driver name", ValidationErrors{{Field: "Driver", Message: `unknown sector "Mining"`}}, "VAL007"},
		{"other validation", ValidationErrors{{Field: "variants[1].name", Message: "duplicate variant name"}}, "VAL000"},
		{"unmatched", errors.New("something odd"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrTooManyUploads)
	want := "System is busy processing other uploads (Code: UPL002). Please wait a moment and try again"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("nil should not be user facing")
	}
	if !IsUserFacing(ErrInUse) {
		t.Error("ErrInUse should be user facing")
	}
	if IsUserFacing(errors.New("boom")) {
		t.Error("unmatched error should not be user facing")
	}
}
