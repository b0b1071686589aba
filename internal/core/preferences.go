package core

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultClientID is used when a request carries no client id.
const DefaultClientID = "default"

// MaxPreferenceSize is the largest accepted preference value in bytes.
const MaxPreferenceSize = 64 << 10

var preferenceKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]{1,128}$`)

// NormalizeClientID trims id and falls back to DefaultClientID.
func NormalizeClientID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" || !preferenceKeyPattern.MatchString(id) {
		return DefaultClientID
	}
	return id
}

func validatePreferenceKey(key string) error {
	if !preferenceKeyPattern.MatchString(key) {
		return ValidationErrors{{Field: "key", Value: key, Message: "must be 1-128 characters of letters, digits, '_', '.', ':' or '-'"}}
	}
	return nil
}

// Preferences returns every stored preference of a client.
func (s *Service) Preferences(ctx context.Context, clientID string) (map[string]json.RawMessage, error) {
	prefs, err := s.store.ListPreferences(ctx, NormalizeClientID(clientID))
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		prefs = map[string]json.RawMessage{}
	}
	return prefs, nil
}

// Preference returns one value or ErrNotFound.
func (s *Service) Preference(ctx context.Context, clientID, key string) (json.RawMessage, error) {
	if err := validatePreferenceKey(key); err != nil {
		return nil, err
	}
	prefs, err := s.store.ListPreferences(ctx, NormalizeClientID(clientID))
	if err != nil {
		return nil, err
	}
	v, ok := prefs[key]
	if !ok {
		return nil, fmt.Errorf("%w: preference %q", ErrNotFound, key)
	}
	return v, nil
}

// SetPreference stores a JSON value under key.
func (s *Service) SetPreference(ctx context.Context, clientID, key string, value json.RawMessage) error {
	if err := validatePreferenceKey(key); err != nil {
		return err
	}
	if len(value) > MaxPreferenceSize {
		return ValidationErrors{{Field: "value", Message: fmt.Sprintf("value exceeds %d bytes", MaxPreferenceSize)}}
	}
	if !json.Valid(value) {
		return ValidationErrors{{Field: "value", Message: "value is not valid JSON"}}
	}
	return s.store.SavePreference(ctx, NormalizeClientID(clientID), key, value)
}

// DeletePreference removes key. Removing a missing key is not an error.
func (s *Service) DeletePreference(ctx context.Context, clientID, key string) error {
	if err := validatePreferenceKey(key); err != nil {
		return err
	}
	return s.store.DeletePreference(ctx, NormalizeClientID(clientID), key)
}
