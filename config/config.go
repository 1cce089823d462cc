package config

import (
	"fmt"
	"log"

	"github.com/caarlos0/env/v11"

	"github.com/ptnhung/ffgroups-server/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Config is parsed from the environment once at startup.
type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"ffgroups"`

	JWTSecret string `env:"JWT_SECRET"`

	// Shopify Admin API (customer directory). Empty shop domain disables
	// the external linkage entirely.
	ShopifyShopDomain  string `env:"SHOPIFY_SHOP_DOMAIN"`
	ShopifyAccessToken string `env:"SHOPIFY_ACCESS_TOKEN"`

	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM" envDefault:"no-reply@ffgroups.app"`

	DefaultMerchantID string `env:"DEFAULT_MERCHANT_ID" envDefault:"default"`
	DefaultMaxMembers int    `env:"DEFAULT_MAX_MEMBERS" envDefault:"20"`
	InviteExpiryDays  int    `env:"INVITE_EXPIRY_DAYS" envDefault:"7"`
	PortalBaseURL     string `env:"PORTAL_BASE_URL" envDefault:"http://localhost:5173"`
}

var (
	DB  *gorm.DB
	App Config
)

// Load parses the environment into App.
func Load() error {
	return env.Parse(&App)
}

// ConnectDB opens PostgreSQL, migrates the schema and seeds the default
// merchant settings row.
func ConnectDB() {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		App.DBHost, App.DBUser, App.DBPassword, App.DBName, App.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.MerchantSettings{},
		&models.Group{},
		&models.GroupMember{},
		&models.GroupInvitation{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	// Seed the fallback merchant row so max-member resolution always has a
	// merchant default to land on.
	seed := models.MerchantSettings{
		MerchantID:        App.DefaultMerchantID,
		DefaultMaxMembers: App.DefaultMaxMembers,
		InviteExpiryDays:  App.InviteExpiryDays,
	}
	if err := db.Where(models.MerchantSettings{MerchantID: App.DefaultMerchantID}).
		FirstOrCreate(&seed).Error; err != nil {
		log.Fatalf("failed to seed merchant settings: %v", err)
	}

	DB = db
	log.Println("Connected to PostgreSQL & migrated successfully")
}
