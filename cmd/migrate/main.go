// Command migrate aplica el esquema embebido con goose.
package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"

	"github.com/jhoicas/backoffice-api/migrations"
	"github.com/jhoicas/backoffice-api/pkg/config"
	"github.com/jhoicas/backoffice-api/pkg/logger"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var dsn string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Migraciones del esquema PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", "", "connection string (por defecto DATABASE_URL / DB_*)")

	run := func(fn func(db *sql.DB) error) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := open(dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(db)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Aplica todas las migraciones pendientes",
			RunE:  run(func(db *sql.DB) error { return goose.Up(db, ".") }),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Revierte la última migración",
			RunE:  run(func(db *sql.DB) error { return goose.Down(db, ".") }),
		},
		&cobra.Command{
			Use:   "redo",
			Short: "Revierte y vuelve a aplicar la última migración",
			RunE:  run(func(db *sql.DB) error { return goose.Redo(db, ".") }),
		},
		&cobra.Command{
			Use:   "status",
			Short: "Muestra el estado de cada migración",
			RunE:  run(func(db *sql.DB) error { return goose.Status(db, ".") }),
		},
	)
	return root
}

// open carga .env (si existe), resuelve el DSN y prepara goose con las migraciones embebidas.
func open(dsn string) (*sql.DB, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "migrate"})

	if dsn == "" {
		dsn = cfg.DB.ConnectionString()
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("abrir conexión: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("db", cfg.DB.DBName).Msg("conectado, ejecutando goose")
	return db, nil
}
