package migrate

import "fmt"

// Registry holds the version and migrations for a single schema target.
type Registry struct {
	// CurrentVersion is the latest schema version that this registry targets.
	CurrentVersion int
	// Migrations is the ordered list of versioned upgrades. Exported so
	// tests can override the migration list for a given registry instance.
	Migrations []Migration
}

// Register appends a migration to the registry. It panics if a migration
// with the same version is already registered, preventing silent conflicts.
func (r *Registry) Register(m Migration) {
	for _, existing := range r.Migrations {
		if existing.Version == m.Version {
			panic(fmt.Sprintf("migrate: duplicate migration version %d (description: %q)", m.Version, m.Description))
		}
	}
	r.Migrations = append(r.Migrations, m)
}

// NeedsMigration reports whether a document at fileVersion would have any
// migrations applied.
func (r *Registry) NeedsMigration(fileVersion int) bool {
	return NeedsMigration(fileVersion, r.CurrentVersion, r.Migrations)
}

// Run applies registered migrations sequentially where fromVersion < m.Version.
func (r *Registry) Run(doc Document, fromVersion int) (int, error) {
	return Run(doc, fromVersion, r.Migrations)
}

// Config is the migration registry for nerdpaper config files. Version 1 is
// the flat layout of the first release; the config package registers the
// upgrade to the sectioned layout.
var Config = &Registry{CurrentVersion: 2}
