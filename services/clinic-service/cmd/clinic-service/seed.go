package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/md-rashed-zaman/clinicbook/libs/auth"
	"github.com/md-rashed-zaman/clinicbook/libs/config"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/model"
	"github.com/md-rashed-zaman/clinicbook/services/clinic-service/internal/storage"
)

// seedAdmin creates the bootstrap admin from ADMIN_EMAIL / ADMIN_PASSWORD.
// Admins cannot self-register, so this is the only way to get the first one.
func seedAdmin(ctx context.Context, profiles *storage.ProfileRepository, logger *slog.Logger) error {
	email := strings.ToLower(config.String("ADMIN_EMAIL", ""))
	password := config.String("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		return nil
	}

	if _, err := profiles.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !storage.IsNotFound(err) {
		return fmt.Errorf("lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	tx, err := profiles.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	user := model.User{
		FirstName:    config.String("ADMIN_FIRST_NAME", "Clinic"),
		LastName:     config.String("ADMIN_LAST_NAME", "Admin"),
		Email:        email,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := profiles.CreateUser(ctx, tx, &user); err != nil {
		if storage.IsUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Info("admin user seeded", "user_id", user.ID, "email", email)
	return nil
}
