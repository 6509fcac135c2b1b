package store

import (
	"context"
	"time"

	"healthsync/internal/client"
	"healthsync/internal/model"

	"github.com/pkg/errors"
)

// Wearables is the slice of the Terra adapter the store consumes for
// its external health-data hook.
type Wearables interface {
	TerraDailyGet(terraUserID string, start time.Time, end time.Time, useCache bool) (client.TerraDailyResponse, error)
	TerraBodyGet(terraUserID string, start time.Time, end time.Time) (client.TerraBodyResponse, error)
	TerraSleepGet(terraUserID string, start time.Time, end time.Time) (client.TerraSleepResponse, error)
}

// SyncWearables pulls today's data for every connected wearable and
// writes it through to the health snapshot. Each connection syncs
// independently; one provider failing does not stop the others.
func (s *Store) SyncWearables(ctx context.Context) error {
	if s.Wearables == nil {
		return nil
	}
	userID := s.profileID()
	if userID == "" {
		return nil
	}

	conns, err := s.Gateway.TerraConnectionsFind(ctx, userID)
	if err != nil {
		return errors.Wrapf(err, "error finding wearable connections for UserID: %s", userID)
	}
	if len(conns) == 0 {
		return nil
	}

	dayStart := time.Now().Truncate(24 * time.Hour)
	var firstErr error
	for _, conn := range conns {
		if err := s.syncWearable(ctx, conn, dayStart); err != nil {
			s.Logger.Errorf("SyncWearables: error syncing provider: %s for UserID: %s, err: %v",
				conn.Provider, userID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *Store) syncWearable(ctx context.Context, conn model.TerraConnection, dayStart time.Time) error {
	daily, err := s.Wearables.TerraDailyGet(conn.TerraUserID, dayStart, dayStart, true)
	if err != nil {
		return errors.Wrapf(err, "error pulling daily data for TerraUserID: %s", conn.TerraUserID)
	}

	update := model.HealthDataUpdate{}
	for _, d := range daily.Data {
		steps := d.DistanceData.Steps
		distanceKM := d.DistanceData.DistanceMetres / 1000
		calories := int(d.CaloriesData.TotalBurnedCalories)
		activeMinutes := int(d.ActiveDurationsData.ActivitySeconds / 60)
		update.Steps = &steps
		update.DistanceKM = &distanceKM
		update.Calories = &calories
		update.ActiveMinutes = &activeMinutes
		if hr := int(d.HeartRateData.Summary.AvgHRBPM); hr > 0 {
			update.HeartRate = &hr
		}
	}

	sleep, err := s.Wearables.TerraSleepGet(conn.TerraUserID, dayStart, dayStart)
	if err != nil {
		s.Logger.Errorf("syncWearable: error pulling sleep data for TerraUserID: %s, err: %v", conn.TerraUserID, err)
	} else {
		for _, d := range sleep.Data {
			hours := d.SleepDurationsData.Asleep.DurationAsleepStateSeconds / 3600
			update.SleepHours = &hours
		}
	}

	body, err := s.Wearables.TerraBodyGet(conn.TerraUserID, dayStart, dayStart)
	if err != nil {
		s.Logger.Errorf("syncWearable: error pulling body data for TerraUserID: %s, err: %v", conn.TerraUserID, err)
	} else {
		for _, d := range body.Data {
			for _, m := range d.MeasurementsData.Measurements {
				if m.WeightKG > 0 {
					w := m.WeightKG
					update.WeightKG = &w
				}
				if m.BPSystolicMMHG > 0 && m.BPDiastolicMMHG > 0 {
					sys, dia := int(m.BPSystolicMMHG), int(m.BPDiastolicMMHG)
					update.BPSystolic = &sys
					update.BPDiastolic = &dia
				}
			}
		}
	}

	return s.UpdateHealthData(ctx, update)
}
