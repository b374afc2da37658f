package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"school-sos-go/internal/app"
	"school-sos-go/internal/config"
	"school-sos-go/internal/db"
	classesdomain "school-sos-go/internal/domain/classes"
	staffdomain "school-sos-go/internal/domain/staff"
	"school-sos-go/pkg/logger"
)

func newRootCommand(log logger.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:          "schoolctl",
		Short:        "Operator tasks for the school-sos service",
		SilenceUsage: true,
	}
	root.AddCommand(
		newCreateOwnerCommand(log),
		newReconcileCommand(log),
		newBackfillSlugsCommand(log),
		newMigrateCommand(log),
	)
	return root
}

// withCore opens the database and services for one command run. Schema
// changes are left to the migrate command.
func withCore(log logger.Logger, fn func(core *app.Core) error) error {
	cfg, err := config.Load(log)
	if err != nil {
		return err
	}
	cfg.DB.AutoMigrate = false

	core, err := app.NewCore(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			log.Error("schoolctl: close failed", "err", err)
		}
	}()
	return fn(core)
}

func newCreateOwnerCommand(log logger.Logger) *cobra.Command {
	var input staffdomain.NewStaff
	cmd := &cobra.Command{
		Use:   "create-owner",
		Short: "Create a platform owner account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(log, func(core *app.Core) error {
				owner, err := core.Services.Staff.CreateOwner(cmd.Context(), input)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "owner created: %s <%s>\n", owner.ID, owner.Email)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVar(&input.Email, "email", "", "login email")
	cmd.Flags().StringVar(&input.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&input.Phone, "phone", "", "phone number")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newReconcileCommand(log logger.Logger) *cobra.Command {
	var opts classesdomain.RunOptions
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Repair class and teacher references",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(log, func(core *app.Core) error {
				report, err := core.Services.Reconciler.RunUnchecked(cmd.Context(), opts)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().StringVar(&opts.TenantID, "school", "", "limit the run to one school id")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report without repairing")
	return cmd
}

func newBackfillSlugsCommand(log logger.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-slugs",
		Short: "Assign public slugs to students that have none",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCore(log, func(core *app.Core) error {
				report, err := core.Services.Students.BackfillSlugsUnchecked(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), report)
			})
		},
	}
}

func newMigrateCommand(log logger.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(log, func(conn *gorm.DB) error {
				return db.Migrate(conn, log)
			})
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be positive")
			}
			return withDB(log, func(conn *gorm.DB) error {
				return db.MigrateDown(conn, steps)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(log, func(conn *gorm.DB) error {
				current, dirty, err := db.MigrationVersion(conn)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "version %d dirty=%t\n", current, dirty)
				return err
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
