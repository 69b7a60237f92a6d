package utils

import (
	"fmt"
	"os"
	"strings"
)

// ReadSecret reads a secret from the standard Docker Secrets path.
func ReadSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		// No env var fallback, behavior stays consistent across services.
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
