package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aman-churiwal/blog-api/internal/auth"
	"github.com/aman-churiwal/blog-api/internal/config"
	"github.com/aman-churiwal/blog-api/internal/models"
	"github.com/aman-churiwal/blog-api/internal/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Seeder creates the first tier and, when configured, the first superuser.
type Seeder struct {
	db *storage.Postgres
}

func NewSeeder(db *storage.Postgres) *Seeder {
	return &Seeder{db: db}
}

func (s *Seeder) Run(ctx context.Context, admin config.AdminConfig) error {
	return s.db.Transaction(ctx, func(tx *gorm.DB) error {
		var tier models.Tier
		result := tx.Where(models.Tier{Name: admin.TierName}).FirstOrCreate(&tier)
		if result.Error != nil {
			return fmt.Errorf("seed tier %q: %w", admin.TierName, result.Error)
		}
		if result.RowsAffected > 0 {
			log.Info().Str("tier", tier.Name).Msg("tier created")
		} else {
			log.Info().Str("tier", tier.Name).Msg("tier already exists")
		}

		if !admin.Enabled() {
			return nil
		}

		var existing models.User
		err := tx.Where("username = ? OR email = ?", admin.Username, admin.Email).First(&existing).Error
		if err == nil {
			log.Info().Str("username", existing.Username).Msg("admin user already exists")
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hashed, err := auth.HashPassword(admin.Password)
		if err != nil {
			return err
		}

		user := models.User{
			Name:           admin.Name,
			Username:       admin.Username,
			Email:          admin.Email,
			HashedPassword: hashed,
			IsSuperuser:    true,
			TierID:         &tier.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return fmt.Errorf("seed admin %q: %w", admin.Username, err)
		}

		log.Info().Str("username", user.Username).Msg("admin user created")
		return nil
	})
}
