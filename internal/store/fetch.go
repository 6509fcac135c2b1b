package store

import (
	"context"
	"sync"
	"time"

	"healthsync/internal/gateway"
	"healthsync/internal/misc"
	"healthsync/internal/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// FetchUserProfile loads the users row for the authenticated session.
// Silently returns when unauthenticated. A missing row leaves the
// profile untouched; only transport errors populate the error field.
func (s *Store) FetchUserProfile(ctx context.Context) error {
	userID := s.sessionUserID()
	if userID == "" {
		return nil
	}
	tid := uuid.NewString()
	s.Logger.Debugf("FetchUserProfile: UserID: %s, TraceID: %s", userID, tid)
	s.commit(func(st *State) {
		st.IsLoadingProfile = true
	})

	p, err := s.Gateway.UserFindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gateway.ErrRowNotFound) {
			s.Logger.Infof("FetchUserProfile: no profile row for UserID: %s, TraceID: %s", userID, tid)
			s.commit(func(st *State) {
				st.IsLoadingProfile = false
				st.ProfileError = ""
			})
			return nil
		}
		s.Logger.Errorf("FetchUserProfile: error for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		s.commit(func(st *State) {
			st.IsLoadingProfile = false
			st.ProfileError = msgProfileLoadFailed
		})
		return err
	}
	s.commit(func(st *State) {
		st.IsLoadingProfile = false
		st.ProfileError = ""
		st.UserProfile = &p
	})
	return nil
}

// FetchHealthData refreshes the cached metric snapshot. A missing
// cache row keeps the prior (or default) values with no error set.
func (s *Store) FetchHealthData(ctx context.Context) error {
	userID := s.profileID()
	if userID == "" {
		return nil
	}
	tid := uuid.NewString()
	s.Logger.Debugf("FetchHealthData: UserID: %s, TraceID: %s", userID, tid)
	s.commit(func(st *State) {
		st.IsLoadingHealthData = true
	})

	h, err := s.Gateway.HealthDataFind(ctx, userID)
	if err != nil {
		if errors.Is(err, gateway.ErrRowNotFound) {
			s.commit(func(st *State) {
				st.IsLoadingHealthData = false
				st.HealthDataError = ""
			})
			return nil
		}
		s.Logger.Errorf("FetchHealthData: error for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		s.commit(func(st *State) {
			st.IsLoadingHealthData = false
			st.HealthDataError = msgHealthDataLoadFailed
		})
		return err
	}
	s.commit(func(st *State) {
		st.IsLoadingHealthData = false
		st.HealthDataError = ""
		st.HealthData = h
	})
	return nil
}

// FetchPreferences loads the user_preferences row, falling back to
// defaults when none exists yet.
func (s *Store) FetchPreferences(ctx context.Context) error {
	userID := s.sessionUserID()
	if userID == "" {
		return nil
	}
	tid := uuid.NewString()
	s.Logger.Debugf("FetchPreferences: UserID: %s, TraceID: %s", userID, tid)
	s.commit(func(st *State) {
		st.IsLoadingPreferences = true
	})

	p, err := s.Gateway.PreferencesFind(ctx, userID)
	if err != nil {
		if errors.Is(err, gateway.ErrRowNotFound) {
			s.commit(func(st *State) {
				st.IsLoadingPreferences = false
				st.PreferencesError = ""
				st.Preferences = model.DefaultPreferences()
				st.Preferences.UserID = userID
			})
			return nil
		}
		s.Logger.Errorf("FetchPreferences: error for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		s.commit(func(st *State) {
			st.IsLoadingPreferences = false
			st.PreferencesError = msgPreferencesLoadFailed
		})
		return err
	}
	s.commit(func(st *State) {
		st.IsLoadingPreferences = false
		st.PreferencesError = ""
		st.Preferences = p
	})
	return nil
}

func (s *Store) FetchMedications(ctx context.Context) error {
	userID := s.profileID()
	if userID == "" {
		return nil
	}
	tid := uuid.NewString()
	s.Logger.Debugf("FetchMedications: UserID: %s, TraceID: %s", userID, tid)
	s.commit(func(st *State) {
		st.IsLoadingMedications = true
	})

	ls, err := s.Gateway.MedicationLogsFind(ctx, userID)
	if err != nil {
		s.Logger.Errorf("FetchMedications: error for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		s.commit(func(st *State) {
			st.IsLoadingMedications = false
			st.MedicationsError = msgMedicationsLoadFailed
		})
		return err
	}
	s.commit(func(st *State) {
		st.IsLoadingMedications = false
		st.MedicationsError = ""
		st.Medications = misc.CapSlice(ls, model.LogHistoryLimit)
	})
	return nil
}

func (s *Store) FetchSymptoms(ctx context.Context) error {
	userID := s.profileID()
	if userID == "" {
		return nil
	}
	tid := uuid.NewString()
	s.Logger.Debugf("FetchSymptoms: UserID: %s, TraceID: %s", userID, tid)
	s.commit(func(st *State) {
		st.IsLoadingSymptoms = true
	})

	ls, err := s.Gateway.SymptomLogsFind(ctx, userID)
	if err != nil {
		s.Logger.Errorf("FetchSymptoms: error for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		s.commit(func(st *State) {
			st.IsLoadingSymptoms = false
			st.SymptomsError = msgSymptomsLoadFailed
		})
		return err
	}
	s.commit(func(st *State) {
		st.IsLoadingSymptoms = false
		st.SymptomsError = ""
		st.Symptoms = misc.CapSlice(ls, model.LogHistoryLimit)
	})
	return nil
}

func (s *Store) FetchFoodLogs(ctx context.Context) error {
	userID := s.profileID()
	if userID == "" {
		return nil
	}
	tid := uuid.NewString()
	s.Logger.Debugf("FetchFoodLogs: UserID: %s, TraceID: %s", userID, tid)
	s.commit(func(st *State) {
		st.IsLoadingFoodLogs = true
	})

	ls, err := s.Gateway.FoodLogsFind(ctx, userID)
	if err != nil {
		s.Logger.Errorf("FetchFoodLogs: error for UserID: %s, TraceID: %s, err: %v", userID, tid, err)
		s.commit(func(st *State) {
			st.IsLoadingFoodLogs = false
			st.FoodLogsError = msgFoodLogsLoadFailed
		})
		return err
	}
	s.commit(func(st *State) {
		st.IsLoadingFoodLogs = false
		st.FoodLogsError = ""
		st.FoodLogs = misc.CapSlice(ls, model.LogHistoryLimit)
	})
	return nil
}

// InitializeUserData composes the fetch actions in two waves: profile
// and preferences first, because the later fetches need the profile id,
// then the rest concurrently. The first error encountered is surfaced
// to the caller so sign-in and the route guard can react to total
// failure.
func (s *Store) InitializeUserData(ctx context.Context) error {
	if err := s.FetchUserProfile(ctx); err != nil {
		return err
	}
	if err := s.FetchPreferences(ctx); err != nil {
		return err
	}

	fetches := []func(context.Context) error{
		s.FetchHealthData,
		s.FetchMedications,
		s.FetchSymptoms,
		s.FetchFoodLogs,
	}
	errs := make([]error, len(fetches))
	var wg sync.WaitGroup
	for i, fetch := range fetches {
		wg.Add(1)
		go func(i int, fetch func(context.Context) error) {
			defer wg.Done()
			errs[i] = fetch(ctx)
		}(i, fetch)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// SyncInInterval re-runs the refreshable fetches on every tick while
// the app is foregrounded. Failures are logged only: staleness is
// tolerable and must not interrupt the user.
func (s *Store) SyncInInterval(ctx context.Context, ticker *time.Ticker) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.OnForeground(ctx)
		}
	}
}

// OnForeground is the resume-from-background trigger: a single
// best-effort re-sync of the refetchable categories.
func (s *Store) OnForeground(ctx context.Context) {
	if s.profileID() == "" {
		return
	}
	s.Logger.Debugf("OnForeground: re-syncing refetchable data")
	var wg sync.WaitGroup
	for _, fetch := range []func(context.Context) error{
		s.FetchHealthData,
		s.FetchMedications,
		s.FetchSymptoms,
		s.FetchFoodLogs,
	} {
		wg.Add(1)
		go func(fetch func(context.Context) error) {
			defer wg.Done()
			if err := fetch(ctx); err != nil {
				s.Logger.Errorf("OnForeground: background sync error: %v", err)
			}
		}(fetch)
	}
	wg.Wait()

	if err := s.SyncWearables(ctx); err != nil {
		s.Logger.Errorf("OnForeground: wearable sync error: %v", err)
	}
}
