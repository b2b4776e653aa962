package cli

import (
	"log/slog"
	"os"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"formgrid/internal/app"
	internaldb "formgrid/internal/db"
	"formgrid/internal/repository"
)

func newMigrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := internaldb.Open(dbPath, "rwc", 1)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := internaldb.RunMigrations(db); err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "formgrid.sqlite", "Path to the SQLite database")
	return cmd
}

func newSeedCmd() *cobra.Command {
	var (
		dbPath   string
		seedFile string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Apply a YAML seed file (resources, roles, users, pull jobs)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := internaldb.Open(dbPath, "rwc", 1)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := internaldb.RunMigrations(db); err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			return app.ApplySeedFile(cmd.Context(), seedFile, app.SeedRepos{
				Resources: repository.NewResourceRepo(db),
				Forms:     repository.NewFormRepo(db),
				Roles:     repository.NewRoleRepo(db),
				Users:     repository.NewUserRepo(db),
				PullJobs:  repository.NewPullJobRepo(db),
			}, logger)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "formgrid.sqlite", "Path to the SQLite database")
	cmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "Path to the YAML seed file")
	return cmd
}
