package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tiendabot/tiendabot-api/models"
)

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// NewTestDB opens an in-memory sqlite database with every model migrated.
// Each call returns an isolated database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Merchant{},
		&models.Client{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Promotion{},
		&models.Message{},
	))

	return db
}

// SeedStorefront creates a merchant, one registered client and a small
// catalog, returning them for use in integration scenarios.
func SeedStorefront(t *testing.T, db *gorm.DB) (*models.Merchant, *models.Client, []models.Product) {
	t.Helper()

	merchant := models.Merchant{Name: "Almacén Don Julio", Phone: "5491140000000"}
	require.NoError(t, db.Create(&merchant).Error)

	client := models.Client{
		MerchantID: merchant.ID,
		Phone:      "5491140000001",
		FullName:   "Marta López",
		DNI:        "28456789",
		Address:    "Av. Rivadavia 1234",
	}
	require.NoError(t, db.Create(&client).Error)

	products := []models.Product{
		{MerchantID: merchant.ID, Name: "Coca Cola 1.5L", Price: 1500, Quantity: 10, Categories: "bebidas"},
		{MerchantID: merchant.ID, Name: "Pan Francés", Price: 800, Quantity: 20, Categories: "panificados"},
		{MerchantID: merchant.ID, Name: "Yerba Taragüi 1kg", Price: 4500, Quantity: 1, Categories: "almacen"},
	}
	for i := range products {
		require.NoError(t, db.Create(&products[i]).Error)
	}

	return &merchant, &client, products
}

// PrintEnvironmentInfo prints the current test environment configuration.
// Useful for debugging test environment issues.
func PrintEnvironmentInfo() {
	fmt.Printf("Test Environment Info:\n")
	fmt.Printf("  GO_ENV: %s\n", os.Getenv("GO_ENV"))
	fmt.Printf("  DATABASE_URL: %s\n", maskDatabaseURL(os.Getenv("DATABASE_URL")))
	fmt.Printf("  PORT: %s\n", os.Getenv("PORT"))
}

// maskDatabaseURL masks sensitive parts of the database URL for safe printing
func maskDatabaseURL(url string) string {
	if url == "" {
		return "(not set)"
	}
	// Simple masking - just show if it contains "test"
	if len(url) > 20 {
		return url[:20] + "..." + (map[bool]string{true: " [contains 'test']", false: " [WARNING: may not be test DB]"})[containsTest(url)]
	}
	return url
}

func containsTest(s string) bool {
	return len(s) > 0 && (s[len(s)-5:] == "_test" || s[len(s)-4:] == "test")
}
