package db

import (
	"fmt"
	"io"
)

const migrateUsage = `Usage: gripmon -db <path> migrate <action>

Actions:
  up      apply all pending migrations
  down    roll back the most recent migration
  status  print the schema version and dirty flag
`

// RunMigrateCommand handles the 'migrate' subcommand against the database at
// dbPath, reporting to w. The schema is only touched by the up and down
// actions.
func RunMigrateCommand(w io.Writer, args []string, dbPath string) error {
	if len(args) < 1 {
		fmt.Fprint(w, migrateUsage)
		return fmt.Errorf("migrate action is required")
	}
	action := args[0]
	if action == "help" {
		fmt.Fprint(w, migrateUsage)
		return nil
	}
	if dbPath == "" {
		return fmt.Errorf("migrate needs a database path")
	}

	database, err := OpenDB(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	migrations := MigrationsFS()
	switch action {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
	case "status":
	default:
		fmt.Fprint(w, migrateUsage)
		return fmt.Errorf("unknown migrate action %q", action)
	}

	version, dirty, err := database.MigrateVersion(migrations)
	if err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	fmt.Fprintf(w, "version %d (dirty: %v)\n", version, dirty)
	if dirty {
		fmt.Fprintln(w, "a migration failed part way; inspect the database before running up again")
	}
	return nil
}
