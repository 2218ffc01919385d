package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrMissingCredentials = errors.New("missing credentials")

// ReadCredentials returns the whitespace-trimmed bearer token stored in path.
func ReadCredentials(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not found", ErrMissingCredentials, path)
		}
		return "", fmt.Errorf("read credentials: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingCredentials, path)
	}
	return token, nil
}
