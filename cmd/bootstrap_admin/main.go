package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"roboclub/clubhouse/internal/api"
	"roboclub/clubhouse/internal/config"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/db"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/models/dtos/requests"

	"github.com/joho/godotenv"
)

// bootstrap_admin creates the first admin account. Afterwards admins are
// managed from the admin API.
func main() {
	_ = godotenv.Load()

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	name := flag.String("name", envOr("ADMIN_NAME", "Club Admin"), "display name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("email and password are required (flags or ADMIN_EMAIL / ADMIN_PASSWORD)")
	}

	cfg := config.Load()
	// The command never serves requests, so nothing needs Redis.
	cfg.SessionBackend = "memory"
	cfg.CacheBackend = "memory"

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logging.Close()

	gdb, err := db.InitPostgresORM(cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	sqlxDB, err := db.SQLXFromGorm(gdb, "postgres")
	if err != nil {
		log.Fatalf("open sqlx: %v", err)
	}

	deps, err := api.InitDependencies(cfg, api.Infra{Gorm: gdb, SQLX: sqlxDB}, nil)
	if err != nil {
		log.Fatalf("init dependencies: %v", err)
	}
	defer deps.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	profile, err := deps.Services.Members.CreateMember(ctx, requests.CreateMemberRequest{
		Email:    *email,
		Password: *password,
		Name:     *name,
	})
	if err != nil {
		log.Fatalf("create member: %v", err)
	}
	if err := deps.Services.Roles.Assign(ctx, profile.ID, string(constants.RoleAdmin)); err != nil {
		log.Fatalf("assign admin: %v", err)
	}

	fmt.Println("Admin created:", profile.ID, profile.Email)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
