package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/yourusername/quizmaster-api/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Управление миграциями базы данных quizmaster-api",
	// Ошибки печатаем сами в main
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Применить все новые миграции",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			return printVersion(cmd, m)
		})
	},
}

var downCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Откатить миграции (по умолчанию одну)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid steps %q", args[0])
			}
			steps = n
		}
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			return printVersion(cmd, m)
		})
	},
}

// forceCmd снимает флаг dirty после неудачной миграции
var forceCmd = &cobra.Command{
	Use:   "force <version>",
	Short: "Принудительно установить версию схемы",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			if err := m.Force(version); err != nil {
				return err
			}
			return printVersion(cmd, m)
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Показать текущую версию схемы",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(cmd, func(m *migrate.Migrate) error {
			return printVersion(cmd, m)
		})
	},
}

func init() {
	rootCmd.PersistentFlags().String("dsn", "", "Строка подключения к PostgreSQL (по умолчанию DATABASE_URL или config)")
	rootCmd.PersistentFlags().String("config", "config/config.yaml", "Путь к файлу конфигурации")
	rootCmd.PersistentFlags().String("dir", "", "Каталог с миграциями (по умолчанию database.migrations_dir)")

	rootCmd.AddCommand(upCmd, downCmd, forceCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

// resolveTarget возвращает DSN и каталог миграций: флаг, затем DATABASE_URL, затем конфигурация
func resolveTarget(cmd *cobra.Command) (dsn, dir string, err error) {
	dsn, _ = cmd.Flags().GetString("dsn")
	dir, _ = cmd.Flags().GetString("dir")
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn != "" {
		if dir == "" {
			dir = "migrations"
		}
		return dsn, dir, nil
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return "", "", err
	}
	dsn = cfg.Database.PostgresConnectionString()
	if dir == "" {
		dir = cfg.Database.MigrationsDir
	}
	return dsn, dir, nil
}

func withMigrator(cmd *cobra.Command, fn func(m *migrate.Migrate) error) error {
	dsn, dir, err := resolveTarget(cmd)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("database is unreachable: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return err
	}
	return fn(m)
}

func printVersion(cmd *cobra.Command, m *migrate.Migrate) error {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		cmd.Println("Миграции не применялись")
		return nil
	}
	if err != nil {
		return err
	}
	cmd.Printf("Версия схемы: %d (dirty: %t)\n", version, dirty)
	return nil
}
