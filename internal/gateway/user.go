package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"healthsync/internal/model"

	"github.com/pkg/errors"
)

func (g Gateway) UserFindByID(ctx context.Context, id string) (model.UserProfile, error) {
	var rows []model.UserProfile
	query := url.Values{"id": {"eq." + id}, "limit": {"1"}}.Encode()
	if err := g.selectRows(ctx, TableUsers, query, &rows); err != nil {
		return model.UserProfile{}, errors.Wrapf(err, "error finding user with ID: %s", id)
	}
	if len(rows) == 0 {
		return model.UserProfile{}, ErrRowNotFound
	}
	return rows[0], nil
}

// UserFindByEmail matches case-insensitively; emails are stored
// lower-cased and the lookup lower-cases its input to match.
func (g Gateway) UserFindByEmail(ctx context.Context, email string) (model.UserProfile, error) {
	var rows []model.UserProfile
	query := url.Values{"email": {"eq." + strings.ToLower(email)}, "limit": {"1"}}.Encode()
	if err := g.selectRows(ctx, TableUsers, query, &rows); err != nil {
		return model.UserProfile{}, errors.Wrapf(err, "error finding user with email: %s", email)
	}
	if len(rows) == 0 {
		return model.UserProfile{}, ErrRowNotFound
	}
	return rows[0], nil
}

func (g Gateway) UserInsert(ctx context.Context, p model.UserProfile) (model.UserProfile, error) {
	p.Email = strings.ToLower(p.Email)
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	var rows []model.UserProfile
	err := g.writeRows(ctx, http.MethodPost, TableUsers, "", "return=representation", p, &rows)
	if err != nil {
		return model.UserProfile{}, errors.Wrapf(err, "error inserting user with email: %s", p.Email)
	}
	if len(rows) == 0 {
		return model.UserProfile{}, errors.Errorf("no row returned when inserting user with email: %s", p.Email)
	}
	return rows[0], nil
}

func (g Gateway) UserUpdate(ctx context.Context, id string, u model.ProfileUpdate) error {
	query := url.Values{"id": {"eq." + id}}.Encode()
	err := g.writeRows(ctx, http.MethodPatch, TableUsers, query, "", u, nil)
	return errors.Wrapf(err, "error updating user with ID: %s", id)
}
