package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when neither a file nor an inline value holds the secret.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes how to load a secret value.
type Source struct {
	// Name is used in error messages.
	Name string
	// Value is an inline secret, usually from the environment.
	Value string
	// File points to a file with the secret. It takes precedence over Value.
	File string
}

// Load resolves the secret from src and returns it trimmed.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty: %w", name, file, ErrNotConfigured)
		}
		return secret, nil
	}

	secret := strings.TrimSpace(src.Value)
	if secret == "" {
		return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}

	return secret, nil
}
