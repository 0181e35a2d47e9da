package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

func tokenFilePath(dataDir string) string {
	return filepath.Join(dataDir, "token")
}

// GetAPIToken reads the server's bearer token from the data directory.
func GetAPIToken(dataDir string) (string, error) {
	data, err := os.ReadFile(tokenFilePath(dataDir))
	if err != nil {
		return "", fmt.Errorf("reading API token: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("API token file %s is empty", tokenFilePath(dataDir))
	}
	return token, nil
}

// EnsureAPIToken returns the server's bearer token, generating and
// persisting one on first use.
func EnsureAPIToken(dataDir string) (string, error) {
	if token, err := GetAPIToken(dataDir); err == nil {
		return token, nil
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	token := uuid.NewString()
	if err := os.WriteFile(tokenFilePath(dataDir), []byte(token+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing API token: %w", err)
	}
	return token, nil
}
