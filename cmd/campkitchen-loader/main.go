package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"campkitchen/category"
	"campkitchen/config"
	"campkitchen/migrations"
	"campkitchen/store"
	"campkitchen/units"
)

func exitErr(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// app is shared by all commands. Tests set repo up front; otherwise the
// database from the environment is opened and migrated before each command.
type app struct {
	cfg         config.Config
	db          *sqlx.DB
	repo        store.Repository
	units       *units.Table
	categorizer *category.Categorizer
	log         *logrus.Logger
}

func (a *app) open(cmd *cobra.Command, _ []string) error {
	if a.repo != nil {
		return nil
	}

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	cfg.ConfigureLogging()
	a.cfg = cfg

	a.units, a.categorizer, err = cfg.Tables()
	if err != nil {
		return err
	}

	a.db, err = store.Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}

	err = migrations.Migrate(a.db.DB, cfg.DBDriver)
	if err != nil {
		return err
	}

	a.repo = store.NewSQLStore(a.db, a.log)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

// execute runs root and closes the database afterwards, also when the
// command failed.
func execute(ctx context.Context, a *app, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "campkitchen-loader",
		Short: "Import, export and plan camp kitchen recipes",
		Long: `Loads recipes into the camp kitchen database and produces exports and
shopping lists from the command line.

The database is taken from DB_DRIVER, POSTGRES_DSN and SQLITE_PATH; a .env
file in the working directory is read first.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.open,
	}

	root.AddCommand(
		newMigrateCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newShoppingListCmd(a),
		newSeedCmd(a),
	)
	return root
}

func main() {
	a := &app{log: logrus.StandardLogger()}

	root := newRootCmd(a)
	root.SetOut(os.Stdout)

	if err := execute(context.Background(), a, root); err != nil {
		exitErr(err)
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// open has already migrated
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", a.cfg.DBDriver)
			return nil
		},
	}
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
