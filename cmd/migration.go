package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AzielCF/az-ravena/core/config"
	"github.com/AzielCF/az-ravena/infrastructure/storage/jsonstore"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy the JSON data files into the SQL store",
	Long: `Copies groups, pending joins and load reports from the JSON files under the
data path into the sqlite or postgres store selected with --storage-driver.`,
	RunE: runMigration,
}

// MigrationResult counts the records copied by MigrateStore.
type MigrationResult struct {
	Groups       int
	PendingJoins int
	Reports      int
}

func runMigration(cmd *cobra.Command, _ []string) error {
	cfg := config.Global
	if cfg.Database.StorageDriver == "json" || cfg.Database.StorageDriver == "" {
		cfg.Database.StorageDriver = "sqlite"
	}

	source, err := jsonstore.New(cfg.Paths.Data)
	if err != nil {
		return err
	}
	target, closeTarget, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeTarget()

	logrus.Infof("[MIGRATION] Copying %s into the %s store...", source.Dir(), cfg.Database.StorageDriver)
	result, err := MigrateStore(cmd.Context(), source, target)
	if err != nil {
		return err
	}
	logrus.Infof("[MIGRATION] Done: %d groups, %d pending joins, %d load reports", result.Groups, result.PendingJoins, result.Reports)
	return nil
}

// MigrateStore copies every record of from into to. Records already in to
// are overwritten.
func MigrateStore(ctx context.Context, from, to store) (MigrationResult, error) {
	var result MigrationResult
	if ctx == nil {
		ctx = context.Background()
	}

	groups, err := from.GetGroups(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read groups: %w", err)
	}
	for _, g := range groups {
		if err := to.SaveGroup(ctx, g); err != nil {
			return result, fmt.Errorf("failed to save group %s: %w", g.ID, err)
		}
		result.Groups++
	}

	joins, err := from.GetPendingJoins(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read pending joins: %w", err)
	}
	for _, j := range joins {
		if err := to.SavePendingJoin(ctx, j); err != nil {
			return result, fmt.Errorf("failed to save pending join %s: %w", j.Code, err)
		}
		result.PendingJoins++
	}

	reports, err := from.GetReports(ctx, time.Time{}, nil)
	if err != nil {
		return result, fmt.Errorf("failed to read load reports: %w", err)
	}
	for _, r := range reports {
		if err := to.SaveReport(ctx, r); err != nil {
			return result, fmt.Errorf("failed to save load report of %s: %w", r.BotID, err)
		}
		result.Reports++
	}
	return result, nil
}
