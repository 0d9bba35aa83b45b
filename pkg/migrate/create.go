package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pressly/goose/v3"
)

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

// CreateSQLMigration scaffolds a timestamped goose SQL migration in dir and
// returns its path.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := sanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	pattern := filepath.Join(dir, "*_"+safe+".sql")
	if existing, _ := filepath.Glob(pattern); len(existing) > 0 {
		return "", fmt.Errorf("migration already exists: %s", existing[0])
	}

	goose.SetSequential(false)
	if err := goose.Create(nil, dir, safe, "sql"); err != nil {
		return "", fmt.Errorf("create migration %q: %w", safe, err)
	}

	created, err := filepath.Glob(pattern)
	if err != nil || len(created) == 0 {
		return "", fmt.Errorf("locate created migration %q", safe)
	}
	return created[len(created)-1], nil
}

func sanitizeName(name string) string {
	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	return strings.Trim(safe, "_")
}
