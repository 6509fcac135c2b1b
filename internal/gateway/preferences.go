package gateway

import (
	"context"
	"net/http"
	"net/url"

	"healthsync/internal/model"

	"github.com/pkg/errors"
)

func (g Gateway) PreferencesFind(ctx context.Context, userID string) (model.UserPreferences, error) {
	var rows []model.UserPreferences
	query := url.Values{"user_id": {"eq." + userID}, "limit": {"1"}}.Encode()
	if err := g.selectRows(ctx, TableUserPreferences, query, &rows); err != nil {
		return model.UserPreferences{}, errors.Wrapf(err, "error finding preferences for UserID: %s", userID)
	}
	if len(rows) == 0 {
		return model.UserPreferences{}, ErrRowNotFound
	}
	return rows[0], nil
}

// PreferencesUpsert writes the full preferences row. The remote row is
// replaced wholesale; the field-by-field notification merge happens in
// the store before this call, against its confirmed local copy.
func (g Gateway) PreferencesUpsert(ctx context.Context, p model.UserPreferences) error {
	err := g.writeRows(ctx, http.MethodPost, TableUserPreferences, "on_conflict=user_id",
		"resolution=merge-duplicates", p, nil)
	return errors.Wrapf(err, "error upserting preferences for UserID: %s", p.UserID)
}
