package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// ErrEnvFileExists is returned when the target .env file is already present
var ErrEnvFileExists = errors.New(".env file already exists")

const envHeader = `# Address lookup configuration
# Replace DB_PASSWORD before starting the server; the placeholder is rejected.
`

// templateValues are the keys written to a fresh .env file
func templateValues() map[string]string {
	return map[string]string{
		"PORT":              "5000",
		"LOG_LEVEL":         "info",
		"LOG_PRETTY":        "true",
		"DB_DRIVER":         "postgres",
		"DB_HOST":           "localhost",
		"DB_PORT":           "5432",
		"DB_NAME":           "postgres",
		"DB_USER":           "postgres",
		"DB_PASSWORD":       PasswordPlaceholder,
		"DB_SSLMODE":        "disable",
		"ADDRESS_TABLE":     "team_cool_and_gang.pinellas_fl",
		"RATE_LIMITER_TYPE": "memory",
		"RATE_LIMIT":        "10",
		"RATE_LIMIT_WINDOW": "1",
	}
}

// WriteEnvTemplate writes a .env template with placeholder credentials
// It never overwrites an existing file
func WriteEnvTemplate(path string) error {
	body, err := godotenv.Marshal(templateValues())
	if err != nil {
		return fmt.Errorf("failed to render env template: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrEnvFileExists
		}
		return fmt.Errorf("failed to create env file: %w", err)
	}
	defer file.Close()

	if _, err := file.WriteString(envHeader + body + "\n"); err != nil {
		return fmt.Errorf("failed to write env file: %w", err)
	}
	return nil
}
