package config

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aldenvr/stagepass/internal/models"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string

	PaymentProvider       string
	PaymentBaseURL        string
	PaymentClientID       string
	PaymentSecretKey      string
	PaymentCallbackSecret string

	ReservationTTL time.Duration
	SweepInterval  time.Duration
}

func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_NAME", "stagepass")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("PAYMENT_PROVIDER", "doku")
	viper.SetDefault("PAYMENT_BASE_URL", "https://api-sandbox.doku.com")
	viper.SetDefault("RESERVATION_TTL", "15m")
	viper.SetDefault("SWEEP_INTERVAL", "1m")

	ttl, err := time.ParseDuration(viper.GetString("RESERVATION_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid RESERVATION_TTL: %w", err)
	}
	sweep, err := time.ParseDuration(viper.GetString("SWEEP_INTERVAL"))
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_INTERVAL: %w", err)
	}

	return &Config{
		Port:                  viper.GetString("PORT"),
		DBHost:                viper.GetString("DB_HOST"),
		DBPort:                viper.GetString("DB_PORT"),
		DBUser:                viper.GetString("DB_USER"),
		DBPassword:            viper.GetString("DB_PASSWORD"),
		DBName:                viper.GetString("DB_NAME"),
		RedisAddr:             viper.GetString("REDIS_ADDR"),
		RedisPassword:         viper.GetString("REDIS_PASSWORD"),
		JWTSecret:             viper.GetString("JWT_SECRET"),
		PaymentProvider:       viper.GetString("PAYMENT_PROVIDER"),
		PaymentBaseURL:        viper.GetString("PAYMENT_BASE_URL"),
		PaymentClientID:       viper.GetString("PAYMENT_CLIENT_ID"),
		PaymentSecretKey:      viper.GetString("PAYMENT_SECRET_KEY"),
		PaymentCallbackSecret: viper.GetString("PAYMENT_CALLBACK_SECRET"),
		ReservationTTL:        ttl,
		SweepInterval:         sweep,
	}, nil
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	// TranslateError turns driver duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the payment event log relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.Role{},
		&models.User{},
		&models.Event{},
		&models.TicketType{},
		&models.Product{},
		&models.ProductVariant{},
		&models.Order{},
		&models.OrderLineItem{},
		&models.PaymentEvent{},
		&models.TicketInstance{},
	)
	if err != nil {
		return nil, err
	}

	seedRoles(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: "organizer"},
		{Name: "attendee"},
		{Name: "admin"},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}

func InitRedis(cfg *Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}
