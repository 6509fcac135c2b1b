package gateway

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"healthsync/internal/model"

	"github.com/pkg/errors"
)

func (g Gateway) HealthDataFind(ctx context.Context, userID string) (model.HealthData, error) {
	var rows []model.HealthData
	query := url.Values{"user_id": {"eq." + userID}, "limit": {"1"}}.Encode()
	if err := g.selectRows(ctx, TableHealthDataCache, query, &rows); err != nil {
		return model.HealthData{}, errors.Wrapf(err, "error finding health data for UserID: %s", userID)
	}
	if len(rows) == 0 {
		return model.HealthData{}, ErrRowNotFound
	}
	return rows[0], nil
}

// HealthDataUpsert writes the one cache row per user. The table is a
// true cache, upserted in place, never appended.
func (g Gateway) HealthDataUpsert(ctx context.Context, h model.HealthData) error {
	h.LastUpdated = time.Now()
	err := g.writeRows(ctx, http.MethodPost, TableHealthDataCache, "on_conflict=user_id",
		"resolution=merge-duplicates", h, nil)
	return errors.Wrapf(err, "error upserting health data for UserID: %s", h.UserID)
}

func (g Gateway) TerraConnectionsFind(ctx context.Context, userID string) ([]model.TerraConnection, error) {
	var rows []model.TerraConnection
	query := url.Values{"user_id": {"eq." + userID}}.Encode()
	if err := g.selectRows(ctx, TableTerraConnections, query, &rows); err != nil {
		return nil, errors.Wrapf(err, "error finding terra connections for UserID: %s", userID)
	}
	return rows, nil
}

func (g Gateway) TerraConnectionUpsert(ctx context.Context, c model.TerraConnection) error {
	if c.ConnectedAt.IsZero() {
		c.ConnectedAt = time.Now()
	}
	err := g.writeRows(ctx, http.MethodPost, TableTerraConnections, "on_conflict=user_id,provider",
		"resolution=merge-duplicates", c, nil)
	return errors.Wrapf(err, "error upserting terra connection for UserID: %s, provider: %s", c.UserID, c.Provider)
}
