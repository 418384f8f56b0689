package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/lmring/lmring/internal/domain"
	"github.com/lmring/lmring/internal/observability"
	"github.com/lmring/lmring/internal/security"
)

type SeedReport struct {
	CreatedAdmin  bool `json:"created_admin"`
	PromotedAdmin bool `json:"promoted_admin"`
	SetPassword   bool `json:"set_password"`
	Noop          bool `json:"noop"`
}

func Seed(db *gorm.DB, adminEmail, adminPassword string) error {
	_, err := SeedSync(db, adminEmail, adminPassword)
	return err
}

// SeedSync makes sure the bootstrap administrator exists, is active and holds
// the admin role. A password is only written when the account has no local
// credential yet. Running it twice is a no-op.
func SeedSync(db *gorm.DB, adminEmail, adminPassword string) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}
	email := strings.TrimSpace(strings.ToLower(adminEmail))
	if email == "" {
		report.Noop = true
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "skipped")
		return report, nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var u domain.User
		err := tx.Where("email = ?", email).First(&u).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = domain.User{Email: email, Role: domain.RoleAdmin, Status: domain.StatusActive}
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("create bootstrap admin: %w", err)
			}
			report.CreatedAdmin = true
		case err != nil:
			return err
		case u.Role != domain.RoleAdmin || u.Status != domain.StatusActive:
			if err := tx.Model(&u).Updates(map[string]any{"role": domain.RoleAdmin, "status": domain.StatusActive}).Error; err != nil {
				return fmt.Errorf("promote bootstrap admin: %w", err)
			}
			report.PromotedAdmin = true
		}

		if adminPassword == "" {
			return nil
		}
		var count int64
		if err := tx.Model(&domain.LocalCredential{}).Where("user_id = ?", u.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
		hash, err := security.HashPassword(adminPassword)
		if err != nil {
			return fmt.Errorf("hash bootstrap password: %w", err)
		}
		if err := tx.Create(&domain.LocalCredential{UserID: u.ID, PasswordHash: hash}).Error; err != nil {
			return fmt.Errorf("store bootstrap password: %w", err)
		}
		report.SetPassword = true
		return nil
	})
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, err
	}

	report.Noop = !report.CreatedAdmin && !report.PromotedAdmin && !report.SetPassword
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}
