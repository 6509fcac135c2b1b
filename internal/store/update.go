package store

import (
	"context"
	"time"

	"healthsync/internal/misc"
	"healthsync/internal/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// UpdateUserProfile issues the remote write first and merges the
// partial into local state only once the write is confirmed, so a
// rejected write can never leave the UI showing unconfirmed data.
func (s *Store) UpdateUserProfile(ctx context.Context, u model.ProfileUpdate) error {
	userID := s.profileID()
	if userID == "" {
		return ErrNoProfile
	}
	tid := uuid.NewString()
	s.Logger.Debugf("UpdateUserProfile: UserID: %s, TraceID: %s", userID, tid)

	if err := s.Gateway.UserUpdate(ctx, userID, u); err != nil {
		s.Logger.Errorf("UpdateUserProfile: remote write rejected for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		return errors.Wrapf(err, "error updating profile for UserID: %s", userID)
	}
	s.commit(func(st *State) {
		if st.UserProfile != nil {
			st.UserProfile.ApplyUpdate(u)
			st.UserProfile.UpdatedAt = time.Now()
		}
	})
	return nil
}

// UpdatePreferences deep-merges the notifications sub-object toggle by
// toggle, so one switch cannot silently reset its siblings. The merged
// row is written remotely before the local state changes.
func (s *Store) UpdatePreferences(ctx context.Context, u model.PreferencesUpdate) error {
	userID := s.sessionUserID()
	if userID == "" {
		return ErrNoProfile
	}
	tid := uuid.NewString()
	s.Logger.Debugf("UpdatePreferences: UserID: %s, TraceID: %s", userID, tid)

	s.mu.Lock()
	merged := s.state.Preferences
	s.mu.Unlock()
	merged.UserID = userID
	merged.ApplyUpdate(u)

	if err := s.Gateway.PreferencesUpsert(ctx, merged); err != nil {
		s.Logger.Errorf("UpdatePreferences: remote write rejected for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		return errors.Wrapf(err, "error updating preferences for UserID: %s", userID)
	}
	s.commit(func(st *State) {
		st.Preferences = merged
	})
	return nil
}

// UpdateHealthData upserts the remote cache row first, then merges the
// partial into the local snapshot.
func (s *Store) UpdateHealthData(ctx context.Context, u model.HealthDataUpdate) error {
	userID := s.profileID()
	if userID == "" {
		return ErrNoProfile
	}
	tid := uuid.NewString()
	s.Logger.Debugf("UpdateHealthData: UserID: %s, TraceID: %s", userID, tid)

	s.mu.Lock()
	merged := s.state.HealthData
	s.mu.Unlock()
	merged.UserID = userID
	merged.ApplyUpdate(u)

	if err := s.Gateway.HealthDataUpsert(ctx, merged); err != nil {
		s.Logger.Errorf("UpdateHealthData: remote write rejected for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		return errors.Wrapf(err, "error updating health data for UserID: %s", userID)
	}
	s.commit(func(st *State) {
		st.HealthData = merged
	})
	return nil
}

// LogMedication appends a medication entry remotely and prepends the
// confirmed row to the local collection, keeping it capped.
func (s *Store) LogMedication(ctx context.Context, l model.MedicationLog) error {
	userID := s.profileID()
	if userID == "" {
		return ErrNoProfile
	}
	l.UserID = userID
	if l.TakenAt.IsZero() {
		l.TakenAt = time.Now()
	}

	inserted, err := s.Gateway.MedicationLogInsert(ctx, l)
	if err != nil {
		return errors.Wrapf(err, "error logging medication for UserID: %s", userID)
	}
	s.commit(func(st *State) {
		st.Medications = misc.CapSlice(
			append([]model.MedicationLog{inserted}, st.Medications...), model.LogHistoryLimit)
	})
	return nil
}

func (s *Store) LogSymptom(ctx context.Context, l model.SymptomLog) error {
	userID := s.profileID()
	if userID == "" {
		return ErrNoProfile
	}
	l.UserID = userID
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now()
	}

	inserted, err := s.Gateway.SymptomLogInsert(ctx, l)
	if err != nil {
		return errors.Wrapf(err, "error logging symptom for UserID: %s", userID)
	}
	s.commit(func(st *State) {
		st.Symptoms = misc.CapSlice(
			append([]model.SymptomLog{inserted}, st.Symptoms...), model.LogHistoryLimit)
	})
	return nil
}

func (s *Store) LogFood(ctx context.Context, l model.FoodLog) error {
	userID := s.profileID()
	if userID == "" {
		return ErrNoProfile
	}
	l.UserID = userID
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now()
	}

	inserted, err := s.Gateway.FoodLogInsert(ctx, l)
	if err != nil {
		return errors.Wrapf(err, "error logging food for UserID: %s", userID)
	}
	s.commit(func(st *State) {
		st.FoodLogs = misc.CapSlice(
			append([]model.FoodLog{inserted}, st.FoodLogs...), model.LogHistoryLimit)
	})
	return nil
}

// RecordSensorSample reads the device sensors and writes the reading
// through to the remote cache. No-op without a sensor bridge or an
// authenticated profile.
func (s *Store) RecordSensorSample(ctx context.Context) error {
	if s.Sensor == nil || s.profileID() == "" {
		return nil
	}
	reading := s.Sensor.Sample()
	return s.UpdateHealthData(ctx, model.HealthDataUpdate{
		Steps:     &reading.Steps,
		HeartRate: &reading.HeartRate,
	})
}
