// Command guardian-server runs the guardian HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/guardian/internal/app"
	"github.com/MrEthical07/guardian/permission"
)

func main() {
	var (
		configPath    = flag.String("config", "", "path to the YAML config file (default: $GUARDIAN_CONFIG or ./config.yaml)")
		seed          = flag.Bool("seed", false, "create the default roles and the admin account on start")
		adminEmail    = flag.String("admin-email", os.Getenv("GUARDIAN_ADMIN_EMAIL"), "admin account email used by -seed")
		adminPassword = flag.String("admin-password", os.Getenv("GUARDIAN_ADMIN_PASSWORD"), "admin account password used by -seed")
		seedPosts     = flag.Int("seed-posts", 0, "sample posts written by the admin when -seed finds none")
	)
	flag.Parse()

	if err := run(*configPath, *seed, *adminEmail, *adminPassword, *seedPosts); err != nil {
		fmt.Fprintf(os.Stderr, "guardian-server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, seed bool, adminEmail, adminPassword string, posts int) error {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := app.NewLogger(cfg.Log, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if seed {
		if adminEmail != "" && adminPassword == "" {
			return fmt.Errorf("-admin-password is required with -admin-email")
		}
		err := a.Seed(ctx, app.SeedOptions{
			Catalog:       permission.DefaultRoleCatalog(),
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
			Posts:         posts,
		})
		if err != nil {
			return err
		}
	}

	return a.Run(ctx)
}
