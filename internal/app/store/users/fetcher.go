// internal/app/store/users/fetcher.go
package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/status"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Fetcher reloads the signed-in user on every request, so role changes and
// disabled accounts take effect without waiting for the cookie to expire.
type Fetcher struct {
	store  *Store
	logger *zap.Logger
}

func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{store: New(db), logger: logger}
}

// FetchUser returns nil for a malformed id, a missing or disabled user, or
// a failed lookup. Lookup failures are logged; the visitor is treated as
// signed out.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), f.logger, "fetch session user")
	defer cancel()

	u, err := f.store.GetByID(ctx, oid)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil
	case err != nil:
		f.logger.Warn("session user lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	case normalize.Status(u.Status) == status.Disabled:
		return nil
	}
	return sessionUser(u)
}

func sessionUser(u *models.User) *auth.SessionUser {
	su := &auth.SessionUser{
		ID:   u.ID.Hex(),
		Name: u.FullName,
		Role: normalize.Role(u.Role),
	}
	if u.LoginID != nil {
		su.LoginID = *u.LoginID
	}
	return su
}
