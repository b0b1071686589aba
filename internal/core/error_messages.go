package core

// error_messages.go maps errors to user-facing messages with support codes.
//
// Sentinel errors are matched first with errors.Is. Errors from the store
// and the CSV reader carry no sentinel, so they are matched by substring
// (case-insensitive, first match wins).
//
//	ENT001-ENT006  entity lookups and references
//	VAL000-VAL007  validation
//	BULK001        bulk operations
//	DB001-DB007    database
//	FILE001-FILE006 uploaded files
//	UPL002-UPL005  upload processing
//	RATE001        throttling
//	ERR000         fallback; check the logs for the technical error

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

type sentinelMessage struct {
	target error
	msg    UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrNotFound, UserMessage{"The record no longer exists", "Refresh the grid and try again", "ENT001"}},
	{ErrConflict, UserMessage{"A record with this ID already exists", "Leave the ID empty to create a new record", "ENT002"}},
	{ErrInUse, UserMessage{"The record is still referenced", "Remove the references first", "ENT003"}},
	{ErrUnknownKind, UserMessage{"Unknown entity type", "Use drivers, objects, variables or lists", "ENT004"}},
	{ErrUnknownColumn, UserMessage{"Unknown column", "Check the column names of this grid", "ENT005"}},
	{ErrReadOnlyColumn, UserMessage{"This column cannot be edited", "Edit the record in the detail panel instead", "ENT006"}},
	{ErrBulkRejected, UserMessage{"Some records could not be changed; nothing was saved", "Review the listed failures and try again", "BULK001"}},
	{ErrFileTooLarge, UserMessage{"File exceeds the maximum upload size", "Split the file into smaller chunks", "FILE001"}},
	{ErrTooManyRows, UserMessage{"File has too many rows", "Split the file into smaller chunks", "FILE006"}},
	{ErrTooManyUploads, UserMessage{"System is busy processing other uploads", "Please wait a moment and try again", "UPL002"}},
	{context.Canceled, UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{context.DeadlineExceeded, UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},
}

// validationMessage covers ValidationErrors that match no more specific pattern.
var validationMessage = UserMessage{
	Message: "Some values are not valid",
	Action:  "Correct the highlighted fields",
	Code:    "VAL000",
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. More specific patterns come first.
var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A record with this ID already exists", "Refresh the grid and try again", "DB001"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Refresh the grid and try again", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Please try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	{"invalid number", UserMessage{"Invalid number format detected", "Use plain digits, optionally with a decimal point", "VAL002"}},
	{"missing required column", UserMessage{"Required column is missing from CSV", "Check that all required columns are present in your file", "VAL004"}},
	{"required field", UserMessage{"Required field is empty", "Ensure all required columns have values", "VAL003"}},
	{"unknown column", UserMessage{"Unknown column in CSV header", "Use the column names shown in the grid", "VAL005"}},
	{"invalid enum", UserMessage{"Value is not in the allowed list", "Check the allowed values for this field", "VAL006"}},
	{"driver string", UserMessage{"Driver string is malformed", "Use up to four segments: sector, domain, country, clarifier", "VAL007"}},
	{"unknown sector", UserMessage{"Driver names must exist", "Add the driver on the Drivers tab first", "VAL007"}},
	{"unknown domain", UserMessage{"Driver names must exist", "Add the driver on the Drivers tab first", "VAL007"}},
	{"unknown country", UserMessage{"Driver names must exist", "Add the driver on the Drivers tab first", "VAL007"}},
	{"unknown clarifier", UserMessage{"Driver names must exist", "Add the driver on the Drivers tab first", "VAL007"}},

	{"invalid csv", UserMessage{"File is not a valid CSV", "Ensure file is comma-separated with consistent quoting", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE004"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a CSV file with a header and data rows", "FILE005"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
//	msg := MapError(fmt.Errorf("save: %w", ErrInUse))
//	// msg.Code == "ENT003"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.target) {
			return sm.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return validationMessage
	}
	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
