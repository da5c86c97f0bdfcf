package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/shopme-store/shopme-backend/internal/catalog"
	"github.com/shopme-store/shopme-backend/internal/domain"
)

var productsData = []domain.Product{
	{ID: 1, Img: "/uploads/women/women.png", Title: "Women Ethnic", Rating: 5.0, Price: 2500, AosDelay: "0"},
	{ID: 2, Img: "/uploads/women/women2.jpg", Title: "Women Western", Rating: 4.5, Price: 3200, AosDelay: "200"},
	{ID: 3, Img: "/uploads/women/women3.jpg", Title: "Goggles", Rating: 4.7, Price: 1200, AosDelay: "400"},
	{ID: 4, Img: "/uploads/women/women4.jpg", Title: "Printed T-Shirt", Rating: 4.4, Price: 1800, AosDelay: "600"},
	{ID: 5, Img: "/uploads/women/women2.jpg", Title: "Fashion T-Shirt", Rating: 4.5, Price: 2000, AosDelay: "800"},
}

var topProductsData = []domain.Product{
	{ID: 1, Img: "/uploads/shirt/shirt.png", Title: "Casual Wear", Rating: 5.0, Price: 2500, Description: "Cotton Linen Shirt MN-CS-SS24-044", AosDelay: "0"},
	{ID: 2, Img: "/uploads/shirt/shirt2.png", Title: "Printed Shirt", Rating: 4.5, Price: 3200, Description: "Printed Shirt MN-PS-SS24-045", AosDelay: "200"},
	{ID: 3, Img: "/uploads/shirt/shirt3.png", Title: "Women Shirt", Rating: 4.7, Price: 1200, Description: "Printed Shirt WM-PS-SS24-046", AosDelay: "400"},
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	adminEmail := flag.String("admin-email", "", "email for the initial admin account")
	adminPassword := flag.String("admin-password", "", "password for the initial admin account")
	flag.Parse()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if *adminEmail != "" {
		if *adminPassword == "" {
			logger.Error("-admin-password is required when -admin-email is set")
			os.Exit(1)
		}
		if err := seedAdmin(ctx, db, *adminEmail, *adminPassword); err != nil {
			logger.Error("failed to seed admin", "error", err)
			os.Exit(1)
		}
		logger.Info("admin account ready", "email", *adminEmail)
	}

	if err := seedCatalog(ctx, catalog.NewProductRepository(db), productsData, logger); err != nil {
		logger.Error("failed to seed products", "error", err)
		os.Exit(1)
	}

	if err := seedCatalog(ctx, catalog.NewTopProductRepository(db), topProductsData, logger); err != nil {
		logger.Error("failed to seed top products", "error", err)
		os.Exit(1)
	}

	logger.Info("seeding complete")
}

// seedAdmin creates the admin identity unless one with this email
// already exists.
func seedAdmin(ctx context.Context, db *sql.DB, email, password string) error {
	var exists bool
	err := db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND role = $2)
	`, email, domain.RoleAdmin).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.New().String(), "Admin", email, string(hash), domain.RoleAdmin, time.Now().UTC())

	return err
}

func seedCatalog(ctx context.Context, repo *catalog.Repository, data []domain.Product, logger *slog.Logger) error {
	for _, product := range data {
		existing, err := repo.GetByID(ctx, product.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		if err := repo.Create(ctx, &product); err != nil {
			return err
		}
		logger.Info("seeded catalog item", "id", product.ID, "title", product.Title)
	}

	return nil
}
