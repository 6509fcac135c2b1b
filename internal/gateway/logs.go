package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"healthsync/internal/model"

	"github.com/pkg/errors"
)

func recentQuery(userID string, orderColumn string) string {
	return url.Values{
		"user_id": {"eq." + userID},
		"order":   {orderColumn + ".desc"},
		"limit":   {strconv.Itoa(model.LogHistoryLimit)},
	}.Encode()
}

func (g Gateway) MedicationLogsFind(ctx context.Context, userID string) ([]model.MedicationLog, error) {
	var rows []model.MedicationLog
	if err := g.selectRows(ctx, TableMedicationLogs, recentQuery(userID, "taken_at"), &rows); err != nil {
		return nil, errors.Wrapf(err, "error finding medication logs for UserID: %s", userID)
	}
	return rows, nil
}

func (g Gateway) MedicationLogInsert(ctx context.Context, l model.MedicationLog) (model.MedicationLog, error) {
	var rows []model.MedicationLog
	err := g.writeRows(ctx, http.MethodPost, TableMedicationLogs, "", "return=representation", l, &rows)
	if err != nil {
		return model.MedicationLog{}, errors.Wrapf(err, "error inserting medication log for UserID: %s", l.UserID)
	}
	if len(rows) == 0 {
		return model.MedicationLog{}, errors.Errorf("no row returned when inserting medication log for UserID: %s", l.UserID)
	}
	return rows[0], nil
}

func (g Gateway) SymptomLogsFind(ctx context.Context, userID string) ([]model.SymptomLog, error) {
	var rows []model.SymptomLog
	if err := g.selectRows(ctx, TableSymptomLogs, recentQuery(userID, "logged_at"), &rows); err != nil {
		return nil, errors.Wrapf(err, "error finding symptom logs for UserID: %s", userID)
	}
	return rows, nil
}

func (g Gateway) SymptomLogInsert(ctx context.Context, l model.SymptomLog) (model.SymptomLog, error) {
	var rows []model.SymptomLog
	err := g.writeRows(ctx, http.MethodPost, TableSymptomLogs, "", "return=representation", l, &rows)
	if err != nil {
		return model.SymptomLog{}, errors.Wrapf(err, "error inserting symptom log for UserID: %s", l.UserID)
	}
	if len(rows) == 0 {
		return model.SymptomLog{}, errors.Errorf("no row returned when inserting symptom log for UserID: %s", l.UserID)
	}
	return rows[0], nil
}

func (g Gateway) FoodLogsFind(ctx context.Context, userID string) ([]model.FoodLog, error) {
	var rows []model.FoodLog
	if err := g.selectRows(ctx, TableFoodLogsCache, recentQuery(userID, "logged_at"), &rows); err != nil {
		return nil, errors.Wrapf(err, "error finding food logs for UserID: %s", userID)
	}
	return rows, nil
}

func (g Gateway) FoodLogInsert(ctx context.Context, l model.FoodLog) (model.FoodLog, error) {
	var rows []model.FoodLog
	err := g.writeRows(ctx, http.MethodPost, TableFoodLogsCache, "", "return=representation", l, &rows)
	if err != nil {
		return model.FoodLog{}, errors.Wrapf(err, "error inserting food log for UserID: %s", l.UserID)
	}
	if len(rows) == 0 {
		return model.FoodLog{}, errors.Errorf("no row returned when inserting food log for UserID: %s", l.UserID)
	}
	return rows[0], nil
}
