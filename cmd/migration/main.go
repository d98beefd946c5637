package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"github.com/riskibarqy/courtsync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/courtsync/internal/platform/logging"
)

// migrator is the part of *migrate.Migrate the commands drive.
type migrator interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Migrate(version uint) error
}

type command struct {
	name    string
	steps   int
	version int
	target  uint
}

func main() {
	_ = godotenv.Load()
	logger := logging.NewJSON(logging.LevelInfo).Named("migration")
	defer func() { _ = logger.Sync() }()

	cmd, err := parseCommand(os.Args[1:])
	if err != nil {
		printUsage()
		logger.Error("invalid command", "error", err)
		os.Exit(2)
	}

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		logger.Error("DB_URL is required")
		os.Exit(1)
	}

	migrationsDir, err := resolveMigrationsDir()
	if err != nil {
		logger.Error("resolve migrations dir", "error", err)
		os.Exit(1)
	}

	sourceURL := "file://" + filepath.ToSlash(migrationsDir)
	m, err := migrate.New(sourceURL, postgres.NormalizeURL(dbURL, disablePreparedBinary()))
	if err != nil {
		logger.Error("create migrator", "error", err)
		os.Exit(1)
	}

	result, err := run(cmd, m)
	closeMigrator(m, logger)
	if err != nil {
		logger.Error("migration failed", "command", cmd.name, "error", err)
		os.Exit(1)
	}
	logger.Info(result, "command", cmd.name, "source", sourceURL)
}

func parseCommand(args []string) (command, error) {
	if len(args) == 0 {
		return command{}, fmt.Errorf("missing command")
	}

	cmd := command{name: strings.ToLower(strings.TrimSpace(args[0]))}
	rest := args[1:]
	var err error
	switch cmd.name {
	case "up", "version":
	case "down":
		cmd.steps, err = parseSteps(rest)
	case "force":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("force requires a version argument")
		}
		cmd.version, err = parseVersion(rest[0])
	case "goto", "migrate":
		if len(rest) == 0 {
			return command{}, fmt.Errorf("%s requires a target version argument", cmd.name)
		}
		cmd.name = "goto"
		cmd.target, err = parseTarget(rest[0])
	default:
		return command{}, fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil {
		return command{}, err
	}
	return cmd, nil
}

// run executes cmd and returns a one-line summary of what changed.
func run(cmd command, m migrator) (string, error) {
	switch cmd.name {
	case "up":
		if err := ignoreNoChange(m.Up()); err != nil {
			return "", err
		}
		return "migrations applied", nil
	case "down":
		if err := ignoreNoChange(m.Steps(-cmd.steps)); err != nil {
			return "", err
		}
		return fmt.Sprintf("rolled back %d migration(s)", cmd.steps), nil
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return "version: none dirty: false", nil
		}
		if err != nil {
			return "", fmt.Errorf("read version: %w", err)
		}
		return fmt.Sprintf("version: %d dirty: %t", version, dirty), nil
	case "force":
		if err := m.Force(cmd.version); err != nil {
			return "", fmt.Errorf("force version %d: %w", cmd.version, err)
		}
		return fmt.Sprintf("forced version to %d", cmd.version), nil
	case "goto":
		if err := ignoreNoChange(m.Migrate(cmd.target)); err != nil {
			return "", err
		}
		return fmt.Sprintf("migrated to version %d", cmd.target), nil
	default:
		return "", fmt.Errorf("unknown command %q", cmd.name)
	}
}

func ignoreNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	return err
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}

	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, fmt.Errorf("down steps must be > 0")
	}

	return steps, nil
}

func parseVersion(raw string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("version must be >= 0")
	}

	return value, nil
}

func parseTarget(raw string) (uint, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid target version %q: %w", raw, err)
	}
	return uint(value), nil
}

func closeMigrator(m *migrate.Migrate, logger *logging.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("close migration source", "error", srcErr)
	}
	if dbErr != nil {
		logger.Warn("close migration db", "error", dbErr)
	}
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
		"./db/migrations",
		"/app/db/migrations",
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}

	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}

// disablePreparedBinary mirrors DB_DISABLE_PREPARED_BINARY_RESULT in the
// service config, including its default.
func disablePreparedBinary() bool {
	raw := strings.TrimSpace(os.Getenv("DB_DISABLE_PREPARED_BINARY_RESULT"))
	if raw == "" {
		return true
	}
	value, err := strconv.ParseBool(raw)
	return err != nil || value
}

func printUsage() {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down [n]|version|force <v>|goto <v>>\n", name)
	fmt.Fprintf(os.Stderr, "  %s up\n", name)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", name)
	fmt.Fprintf(os.Stderr, "  %s force 2\n", name)
}
