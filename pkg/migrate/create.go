package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// CreateSQLMigration writes an empty goose migration named
// <version>_<slug>.sql into dir and returns its path. The version is the
// current UTC timestamp, raised past the newest migration already in dir so
// a skewed clock never reorders history.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	slug := migrationSlug(name)
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	latest, err := latestVersion(dir)
	if err != nil {
		return "", err
	}
	version := nextVersion(time.Now(), latest)

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, slug))
	if err := os.WriteFile(path, []byte(migrationTemplate(slug)), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, nil
}

func migrationSlug(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_")
	return strings.Trim(slug, "_")
}

// nextVersion returns now as a version, or latest+1 when now is not newer.
func nextVersion(now time.Time, latest int64) int64 {
	version, _ := strconv.ParseInt(now.UTC().Format(versionLayout), 10, 64)
	if version <= latest {
		return latest + 1
	}
	return version
}

func latestVersion(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read dir %q: %w", dir, err)
	}
	var latest int64
	for _, e := range entries {
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		v, err := ParseVersion(m[1])
		if err != nil {
			return 0, err
		}
		if v > latest {
			latest = v
		}
	}
	return latest, nil
}

func migrationTemplate(slug string) string {
	return fmt.Sprintf(`-- %s
-- Postgres dialect. SQLite dev and test schemas come from AutoMigrate, so
-- mirror any table or column change in pkg/db/models.

-- +goose Up
-- +goose StatementBegin
SELECT 'up: %s';
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
SELECT 'down: %s';
-- +goose StatementEnd
`, slug, slug, slug)
}
