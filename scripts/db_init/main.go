package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	dbfs "github.com/garnizeh/intake/db"
	"github.com/garnizeh/intake/internal/config"
	"github.com/garnizeh/intake/internal/db"
	"github.com/garnizeh/intake/internal/repository/sqlite"
	"github.com/garnizeh/intake/internal/validation"
	"github.com/garnizeh/intake/pkg/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	configPath := flag.String("config", "", "Path to config YAML file")
	adminName := flag.String("admin-name", "Administrator", "Name of the staff account to create")
	adminEmail := flag.String("admin-email", "", "Create a staff account with this email")
	adminPassword := flag.String("admin-password", "", "Password for the staff account")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	database, err := db.New(ctx, cfg.DatabasePath, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(ctx, database, dbfs.Migrations, dbfs.SeedFiles); err != nil {
		fmt.Fprintf(os.Stderr, "Migration runner error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Database initialized successfully.")

	if *adminEmail == "" {
		return
	}
	if err := createStaff(ctx, sqlite.New(database, nil), *adminName, *adminEmail, *adminPassword); err != nil {
		fmt.Fprintf(os.Stderr, "Staff account error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Staff account %s created.\n", *adminEmail)
}

func createStaff(ctx context.Context, repo *sqlite.SQLiteRepo, name, email, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	u := &models.User{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		UpdatedAt: time.Now(),
	}
	if err := validation.Struct(u); err != nil {
		return err
	}
	existing, err := repo.GetUserByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("a user with email %s already exists", u.Email)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)
	return repo.CreateUser(ctx, u)
}
