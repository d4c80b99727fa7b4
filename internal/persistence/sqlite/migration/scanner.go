package migration

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
)

// Pattern matches {version}_{description}.sql with a numeric version.
var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

// Scan reads every migration file in dir of fsys and returns them ordered by version.
func Scan(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, newMigrationError("", dir, "read directory", err)
	}

	migrations := make([]Migration, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		match := fileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, newMigrationError("", entry.Name(), "validate filename", ErrInvalidMigrationFile)
		}
		version := match[1]
		if previous, ok := seen[version]; ok {
			return nil, newMigrationError(version, entry.Name(), "validate version",
				fmt.Errorf("%w: also used by %s", ErrDuplicateVersion, previous))
		}
		seen[version] = entry.Name()

		filePath := path.Join(dir, entry.Name())
		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, newMigrationError(version, filePath, "read file", err)
		}
		sum := sha256.Sum256(content)

		migrations = append(migrations, Migration{
			Version:     version,
			Description: match[2],
			SQL:         string(content),
			FilePath:    filePath,
			Checksum:    hex.EncodeToString(sum[:]),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		a, _ := strconv.Atoi(migrations[i].Version)
		b, _ := strconv.Atoi(migrations[j].Version)
		return a < b
	})
	return migrations, nil
}
