// Command gradectl is the operator CLI of the gradebook: it seeds demo data, prints student
// reports and issues bearer tokens for local testing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gradebook-api/internal/bootstrap"
	"github.com/noah-isme/gradebook-api/internal/config"
	"github.com/noah-isme/gradebook-api/internal/database"
	"github.com/noah-isme/gradebook-api/internal/middleware"
	"github.com/noah-isme/gradebook-api/internal/service"
)

const usage = `usage: gradectl <command> [flags]

commands:
  seed                      load demo users, subjects, activities and grades
  report -student N         print every subject summary of student N
  token -user N -role R     issue a bearer token for user N with role R
`

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		color.Red("gradectl: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "token":
		return runToken(cfg, args[1:], out)
	case "seed", "report":
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}

	db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: color.NoColor}).
		Level(zerolog.WarnLevel).With().Timestamp().Logger()
	services := bootstrap.NewServices(bootstrap.Options{Config: cfg, DB: db, Logger: logger})

	if args[0] == "seed" {
		return runSeed(ctx, services.Seed, out)
	}
	return runReport(ctx, services.Summaries, args[1:], out)
}

func runSeed(ctx context.Context, seeder service.SeedService, out io.Writer) error {
	report, err := seeder.SeedDemo(ctx)
	if errors.Is(err, service.ErrAlreadySeeded) {
		color.New(color.FgYellow).Fprintln(out, "database already holds demo data, nothing to do")
		return nil
	}
	if err != nil {
		return err
	}

	renderSeedReport(out, report)
	return nil
}

func runReport(ctx context.Context, summaries service.SummaryService, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	studentID := fs.Uint("student", 0, "student user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *studentID == 0 {
		return errors.New("report requires -student")
	}

	report, err := summaries.StudentReport(ctx, service.SystemActor, *studentID)
	if err != nil {
		return err
	}

	renderStudentReport(out, report)
	return nil
}

func runToken(cfg config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	userID := fs.Uint("user", 0, "user id placed in the sub claim")
	role := fs.String("role", "", "admin, teacher or student")
	ttl := fs.Duration("ttl", 12*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *userID == 0 || *role == "" {
		return errors.New("token requires -user and -role")
	}

	token, err := middleware.SignToken(cfg.JWTSecret, *userID, *role, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, token)
	return nil
}
