package database

import (
	"log"
	"strings"
	"time"

	"canteen-backend/internal/config"
	"canteen-backend/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the cloud MySQL connection and syncs the schema. The
// managed cluster occasionally takes a few seconds to accept
// connections after a deploy, hence the bounded retry loop.
func Connect() {
	dsn := config.AppConfig.Server.DBDSN

	var err error
	for i := 0; i < 5; i++ {
		DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		log.Printf("Failed to connect to database. Retrying in 2 seconds... (%d/5)", i+1)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		log.Fatal("Failed to connect to database after 5 attempts:", err)
	}
	log.Println("Connected to MySQL")

	err = DB.AutoMigrate(
		&models.Tenant{},
		&models.TenantSettings{},
		&models.User{},
		&models.RoleList{},
		&models.PageAccessList{},
		&models.Category{},
		&models.KioskType{},
		&models.Product{},
		&models.MonthlyStock{},
		&models.QRList{},
		&models.Order{},
		&models.GatewayConfig{},
		&models.CounterDevice{},
		&models.ChatMessage{},
	)
	if err != nil {
		log.Fatal("Schema migration failed:", err)
	}
	log.Println("Database schema synced")
}

// IsDuplicateKey reports whether err is a unique-index violation. The
// per-tenant singleton documents rely on this: concurrent upserts race
// on the tenantId unique index and the loser retries after a re-read.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") ||
		strings.Contains(msg, "Error 1062") ||
		strings.Contains(msg, "duplicate key")
}
