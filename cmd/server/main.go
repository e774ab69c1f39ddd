package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"alumniportal/internal/config"
	"alumniportal/internal/model"
	"alumniportal/internal/server"
	"alumniportal/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	if cfg.AppEnv == "development" {
		if err := seedAdminUser(db); err != nil {
			log.Fatalf("failed to seed admin user: %v", err)
		}
	}

	redisClient := connectRedis(cfg)

	srv := server.NewServer(db, redisClient, cfg)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Request{},
		&model.Resource{},
		&model.Notification{},
		&model.Conversation{},
		&model.Message{},
	); err != nil {
		return err
	}

	// At most one pending request per (requester, target, kind). Decided
	// requests accumulate as history, so the uniqueness is partial.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_pending_triple
		ON requests (requester_id, target_id, kind) WHERE status = 'pending'`).Error
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("REDIS_URL not set, rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("invalid REDIS_URL, rate limiting disabled: %v", err)
		return nil
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Printf("redis unreachable, rate limiting disabled: %v", err)
		return nil
	}

	return client
}

func seedAdminUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "admin@alumniportal.local").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		Email:        "admin@alumniportal.local",
		PasswordHash: string(hash),
		FullName:     "Portal Admin",
		Role:         model.RoleAdmin,
		Status:       model.UserActive,
	}

	return db.Create(&admin).Error
}
