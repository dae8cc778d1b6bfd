package main

import (
	"fmt"

	"github.com/actionit/actionit/src/config"
)

// MigrateCmd applies or inspects database migrations. Opening the store
// already applies pending migrations, so `up` is mostly useful to prepare a
// fresh database path without issuing any chat command.
type MigrateCmd struct {
	Up     MigrateUpCmd     `cmd:"" default:"1" help:"Apply pending migrations"`
	Status MigrateStatusCmd `cmd:"" help:"Show applied migration versions"`
}

type MigrateUpCmd struct{}

func (c *MigrateUpCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	fmt.Println("database is up to date")
	return nil
}

type MigrateStatusCmd struct{}

func (c *MigrateStatusCmd) Run(cli *CLI) error {
	env, err := setupEnv(cli)
	if err != nil {
		return err
	}
	defer env.Close()

	rows, err := env.store.DB().Query(
		"SELECT version, applied_at FROM schema_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	dbPath := env.cfg.Storage.DatabasePath
	if dbPath == "" {
		dbPath = config.GetDefaultStoragePaths().DatabasePath
	}
	fmt.Println("database:", dbPath)

	for rows.Next() {
		var version int
		var appliedAt string
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return fmt.Errorf("failed to scan migration row: %w", err)
		}
		fmt.Printf("  %03d  applied %s\n", version, appliedAt)
	}
	return rows.Err()
}
