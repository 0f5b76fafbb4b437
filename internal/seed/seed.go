// Package seed creates the default user roster for development databases.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"promanage/internal/auth"
	"promanage/internal/models"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password123"

// UserUpserter stores a user unless one with the same email exists.
type UserUpserter interface {
	UpsertUser(ctx context.Context, u models.User) (models.User, error)
}

type account struct {
	username, email, name string
	role                  models.Role
}

var roster = []account{
	{"pm.azharrajput", "pm1@company.com", "Azhar Rajput", models.RolePM},
	{"pm.aqsarathore", "pm2@company.com", "Aqsa Rathore", models.RolePM},
	{"pm.muhammadhuzafa", "pm3@company.com", "Muhammad Huzafa", models.RolePM},
	{"tl.mustufa", "tl1@company.com", "Mustufa", models.RoleTL},
	{"tl.ali", "tl2@company.com", "Ali", models.RoleTL},
	{"exec.muhammadmarij", "exec1@company.com", "Muhammad Marij", models.RoleExecutive},
	{"exec.tahaanwar", "exec2@company.com", "Taha Anwar", models.RoleExecutive},
	{"exec.khizerkhan", "exec3@company.com", "Khizer Khan", models.RoleExecutive},
	{"exec.babarkhan", "exec4@company.com", "Babar Khan", models.RoleExecutive},
	{"prod.abubakarsiddiqui", "prod1@company.com", "Abubakar Siddiqui", models.RoleProduction},
	{"prod.arshanhasan", "prod2@company.com", "Arshan Hasan", models.RoleProduction},
	{"prod.syedtaha", "prod3@company.com", "Syed Taha", models.RoleProduction},
	{"prod.syedmuslim", "prod4@company.com", "Syed Muslim", models.RoleProduction},
	{"prod.syedrayyan", "prod5@company.com", "Syed Rayyan", models.RoleProduction},
	{"prod.tahiranwar", "prod6@company.com", "Tahir Anwar", models.RoleProduction},
	{"prod.muhammadbinsaud", "prod7@company.com", "Muhammad Bin Saud", models.RoleProduction},
	{"prod.qasimrizvi", "prod8@company.com", "Qasim Rizvi", models.RoleProduction},
	{"prod.syedakbar", "prod9@company.com", "Syed Akbar", models.RoleProduction},
	{"prod.anaskhan", "prod10@company.com", "Anas Khan", models.RoleProduction},
	{"prod.shakeebkhan", "prod11@company.com", "Shakeeb Khan", models.RoleProduction},
}

// Users upserts the roster and returns how many accounts were created.
// Existing accounts, matched by email, are left untouched so a re-run never
// resets a changed password.
func Users(ctx context.Context, store UserUpserter, logger *slog.Logger) (int, error) {
	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, a := range roster {
		id := uuid.NewString()
		u, err := store.UpsertUser(ctx, models.User{
			ID:       id,
			Username: a.username,
			Email:    a.email,
			Password: hash,
			Role:     a.role,
			Name:     a.name,
		})
		if err != nil {
			return 0, fmt.Errorf("seed %s: %w", a.email, err)
		}
		if u.ID == id {
			created++
			logger.Debug("seeded user", slog.String("email", u.Email), slog.String("role", string(u.Role)))
		}
	}
	logger.Info("user roster ready", slog.Int("created", created), slog.Int("existing", len(roster)-created))
	return created, nil
}
