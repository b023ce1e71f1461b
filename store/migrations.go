package store

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RunMigrations executes every .sql file in dir in lexicographic filename
// order, per spec.md §6. A single file's failure is logged as a warning
// and does not abort startup or the remaining migrations — migrations are
// expected to be idempotent (duplicate-object errors on restart are
// normal, per S7).
func RunMigrations(db *sql.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("sql directory %s not found: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, name := range files {
		path := filepath.Join(dir, name)
		sqlBytes, err := os.ReadFile(path)
		if err != nil {
			log.Printf("⚠️  migration %s unreadable (may be incomplete): %v", name, err)
			continue
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			log.Printf("⚠️  migration %s failed (may be incomplete): %v", name, err)
		}
	}

	log.Printf("✅ executed %d migrations", len(files))
	return nil
}
