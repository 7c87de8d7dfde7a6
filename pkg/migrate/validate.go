package migrate

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

const (
	annotationUp             = "-- +goose Up"
	annotationDown           = "-- +goose Down"
	annotationStatementBegin = "-- +goose StatementBegin"
	annotationStatementEnd   = "-- +goose StatementEnd"
)

// ValidateDir checks every .sql file in dir and returns all problems found:
// filename shape, unique versions, an Up section followed by a non-empty Down
// section, and balanced StatementBegin/StatementEnd blocks.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %q: %w", dir, err)
	}

	var errs error
	versions := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(name)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: expected <YYYYMMDDHHMMSS>_<name>.sql", name))
			continue
		}
		if prev, ok := versions[m[1]]; ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: version %s already used by %s", name, m[1], prev))
		}
		versions[m[1]] = name

		errs = multierr.Append(errs, checkMigrationFile(filepath.Join(dir, name)))
	}
	return errs
}

func checkMigrationFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	name := filepath.Base(path)
	var (
		errs          error
		sawUp, inDown bool
		downBody      bool
		openBlocks    int
	)
	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == annotationUp:
			if sawUp {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: second Up section", name, line))
			}
			sawUp = true
		case text == annotationDown:
			if !sawUp {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: Down section before Up", name, line))
			}
			inDown = true
		case text == annotationStatementBegin:
			openBlocks++
		case text == annotationStatementEnd:
			openBlocks--
			if openBlocks < 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s:%d: StatementEnd without StatementBegin", name, line))
				openBlocks = 0
			}
		case inDown && text != "" && !strings.HasPrefix(text, "--"):
			downBody = true
		}
	}
	if err := scanner.Err(); err != nil {
		return multierr.Append(errs, fmt.Errorf("read %q: %w", path, err))
	}

	if !sawUp {
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, annotationUp))
	}
	if !inDown {
		errs = multierr.Append(errs, fmt.Errorf("%s: missing %q", name, annotationDown))
	} else if !downBody {
		errs = multierr.Append(errs, fmt.Errorf("%s: Down section has no statements", name))
	}
	if openBlocks != 0 {
		errs = multierr.Append(errs, fmt.Errorf("%s: unclosed StatementBegin", name))
	}
	return errs
}
