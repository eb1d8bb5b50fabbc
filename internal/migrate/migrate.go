// Package migrate applies sequential schema migrations to decoded config
// documents, upgrading from one version to the next.
//
// Migrations work on a [Document], the generic map a TOML or YAML decoder
// produces, so the same upgrade applies to either file format.
package migrate

import (
	"fmt"
	"log/slog"
	"sort"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Document is a decoded config file: nested maps, slices and scalars.
type Document map[string]any

// Version returns the document's "version" field, or 1 if the field is
// missing, zero, or not a number. Files from before versioning count as 1.
func (d Document) Version() int {
	var v int
	switch n := d["version"].(type) {
	case int:
		v = n
	case int64:
		v = int(n)
	case float64:
		v = int(n)
	}
	if v <= 0 {
		return 1
	}
	return v
}

// Migration represents a schema migration that upgrades a document from the
// prior version to [Migration.Version].
type Migration struct {
	// Version is the schema version this migration produces.
	Version int
	// Description is a short human-readable label for log output.
	Description string
	// Upgrade transforms doc in place.
	Upgrade func(doc Document) error
}

// ///////////////////////////////////////////////
// Public API
// ///////////////////////////////////////////////

// Run applies migrations sequentially where fromVersion < m.Version and
// stamps doc with each version reached. It returns the final version and
// any error; on error doc holds the last successful version's content.
func Run(doc Document, fromVersion int, migrations []Migration) (int, error) {
	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	version := fromVersion
	for _, m := range sorted {
		if version < m.Version {
			slog.Info("applying migration", "version", m.Version, "description", m.Description)
			if err := m.Upgrade(doc); err != nil {
				return version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
			}
			version = m.Version
			doc["version"] = version
		}
	}
	return version, nil
}

// NeedsMigration reports whether a document at fileVersion would have any
// migrations applied given the currentVersion and registered migrations.
func NeedsMigration(fileVersion, currentVersion int, migrations []Migration) bool {
	if fileVersion != currentVersion {
		return true
	}
	for _, m := range migrations {
		if fileVersion < m.Version {
			return true
		}
	}
	return false
}
