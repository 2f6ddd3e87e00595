// main.go - Admin control tool for Courselytics
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courselytics/internal"
	"courselytics/internal/analytics"
	"courselytics/internal/seeder"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&AggregateCommand{},
	&MigrateCommand{},
	&SeedCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Warning: Cleanup error: %v", err)
		}
	}()

	if err := cmd.Execute(ctx, app, args); err != nil {
		log.Fatalf("Command failed: %v", err)
	}

	log.Printf("Command %s completed successfully", cmd.Name())
}

func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", nil
	}
	return args[0], args[1:]
}

func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func showUsageAndExit() {
	fmt.Println("Usage: courselyticsctl <command> [arguments]")
	fmt.Println()
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-12s %s\n", cmd.Name(), cmd.Description())
	}
	os.Exit(1)
}

// AggregateCommand runs daily aggregation for one date
type AggregateCommand struct{}

func (c *AggregateCommand) Name() string {
	return "aggregate"
}

func (c *AggregateCommand) Description() string {
	return "Runs daily aggregation (default: yesterday; -date YYYY-MM-DD for a specific day)"
}

func (c *AggregateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("aggregate", flag.ContinueOnError)
	dateArg := fs.String("date", "", "date to aggregate, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	target := time.Now().AddDate(0, 0, -1)
	if *dateArg != "" {
		parsed, err := time.Parse("2006-01-02", *dateArg)
		if err != nil {
			return fmt.Errorf("invalid -date %q, expected YYYY-MM-DD: %w", *dateArg, err)
		}
		target = parsed
	}

	summary, err := analytics.AggregateDay(ctx, app.DBManager.GetConnection(), app.Logger, target)
	if err != nil {
		return err
	}

	log.Printf("Aggregated %s: %d page views, %d visitors, bounce rate %.1f%%",
		summary.Date.Format("2006-01-02"),
		summary.TotalPageViews,
		summary.UniqueVisitors,
		summary.BounceRate)
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string {
	return "migrate"
}

func (c *MigrateCommand) Description() string {
	return "Runs database migrations"
}

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	return app.DBManager.MigrateDatabase()
}

// SeedCommand fills the database with development traffic
type SeedCommand struct{}

func (c *SeedCommand) Name() string {
	return "seed"
}

func (c *SeedCommand) Description() string {
	return "Seeds randomized sessions and page views for development"
}

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	sessions := fs.Int("sessions", 200, "number of sessions to create")
	days := fs.Int("days", 30, "number of past days to spread traffic over")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app.Config.IsProduction() {
		return fmt.Errorf("refusing to seed a production database")
	}

	if err := app.DBManager.MigrateDatabase(); err != nil {
		return err
	}

	s := seeder.NewSeeder(app.DBManager.GetConnection(), app.Logger, *sessions, *days)
	return s.Seed(ctx)
}

// StatusCommand prints row counts for the core tables
type StatusCommand struct{}

func (c *StatusCommand) Name() string {
	return "status"
}

func (c *StatusCommand) Description() string {
	return "Shows page view, session and summary counts"
}

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	db := app.DBManager.GetConnection()

	var pageViews, sessions, summaries int64
	if err := db.Model(&analytics.PageView{}).Count(&pageViews).Error; err != nil {
		return err
	}
	if err := db.Model(&analytics.UserSession{}).Count(&sessions).Error; err != nil {
		return err
	}
	if err := db.Model(&analytics.DailySummary{}).Count(&summaries).Error; err != nil {
		return err
	}

	fmt.Printf("Environment:     %s\n", app.Config.Environment)
	fmt.Printf("Database:        %s\n", app.Config.GetDatabasePath())
	fmt.Printf("Page views:      %d\n", pageViews)
	fmt.Printf("User sessions:   %d\n", sessions)
	fmt.Printf("Daily summaries: %d\n", summaries)
	return nil
}

// HelpCommand prints usage
type HelpCommand struct{}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "Shows this help message"
}

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fmt.Println("Usage: courselyticsctl <command> [arguments]")
	fmt.Println()
	fmt.Println("Available commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-12s %s\n", cmd.Name(), cmd.Description())
	}
	return nil
}
