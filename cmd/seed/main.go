package main

import (
	"context"
	"flag"
	"os"

	"quickcourt/internal/config"
	"quickcourt/internal/db"
	"quickcourt/internal/logger"
	"quickcourt/internal/seed"
	"quickcourt/internal/user"
	"quickcourt/internal/venue"
)

func main() {
	file := flag.String("file", "seed/venues.yaml", "venues seed file")
	adminName := flag.String("admin-name", "Admin", "bootstrap admin display name")
	adminEmail := flag.String("admin-email", os.Getenv("ADMIN_EMAIL"), "bootstrap admin email")
	adminPassword := flag.String("admin-password", os.Getenv("ADMIN_PASSWORD"), "bootstrap admin password")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()

	if *adminEmail != "" {
		created, err := seed.EnsureAdmin(ctx, user.NewRepository(database), seed.Admin{
			Name:     *adminName,
			Email:    *adminEmail,
			Password: *adminPassword,
		})
		if err != nil {
			logger.Fatal("Failed to seed admin", "error", err)
		}
		logger.Info("Admin account", "email", *adminEmail, "created", created)
	}

	f, err := os.Open(*file)
	if err != nil {
		logger.Fatal("Failed to open seed file", "file", *file, "error", err)
	}
	defer f.Close()

	parsed, err := seed.Parse(f)
	if err != nil {
		logger.Fatal("Invalid seed file", "file", *file, "error", err)
	}

	n, err := seed.Venues(ctx, venue.NewRepository(database), parsed)
	if err != nil {
		logger.Fatal("Failed to seed venues", "error", err)
	}
	logger.Info("Seeding finished", "venues_created", n)
}
