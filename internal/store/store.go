// Package store holds the session/profile/health state container: the
// single source of truth for who is signed in and what the client knows
// about them. It mediates every write between the UI and the remote
// persistence gateway and restores a best-effort snapshot from disk on
// cold start before any network round trip completes.
package store

import (
	"context"
	"sync"

	"healthsync/internal/device"
	"healthsync/internal/identity"
	"healthsync/internal/model"

	"github.com/pkg/errors"
)

// Domain errors carry fixed, user-presentable messages.
var (
	ErrEmailRegistered = errors.New("Email already registered")
	ErrNoProfile       = errors.New("No user profile loaded")
)

// Fixed messages for the per-category error fields.
const (
	msgProfileLoadFailed     = "Failed to load profile"
	msgHealthDataLoadFailed  = "Failed to load health data"
	msgPreferencesLoadFailed = "Failed to load preferences"
	msgMedicationsLoadFailed = "Failed to load medications"
	msgSymptomsLoadFailed    = "Failed to load symptoms"
	msgFoodLogsLoadFailed    = "Failed to load food logs"
)

type AuthState struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	IsLoading       bool   `json:"is_loading"`
	SessionToken    string `json:"-"`
}

// State is the store's observable contents. Error fields hold a
// user-presentable message, empty when clear; they are reset on the
// next successful fetch of their own category and never touched by
// unrelated actions.
type State struct {
	Auth        AuthState
	UserProfile *model.UserProfile
	HealthData  model.HealthData
	Preferences model.UserPreferences
	Medications []model.MedicationLog
	Symptoms    []model.SymptomLog
	FoodLogs    []model.FoodLog

	IsLoadingProfile     bool
	IsLoadingHealthData  bool
	IsLoadingPreferences bool
	IsLoadingMedications bool
	IsLoadingSymptoms    bool
	IsLoadingFoodLogs    bool

	ProfileError     string
	HealthDataError  string
	PreferencesError string
	MedicationsError string
	SymptomsError    string
	FoodLogsError    string
}

// Gateway is the slice of the remote persistence gateway the store
// consumes.
type Gateway interface {
	UserFindByID(ctx context.Context, id string) (model.UserProfile, error)
	UserFindByEmail(ctx context.Context, email string) (model.UserProfile, error)
	UserInsert(ctx context.Context, p model.UserProfile) (model.UserProfile, error)
	UserUpdate(ctx context.Context, id string, u model.ProfileUpdate) error
	HealthDataFind(ctx context.Context, userID string) (model.HealthData, error)
	HealthDataUpsert(ctx context.Context, h model.HealthData) error
	PreferencesFind(ctx context.Context, userID string) (model.UserPreferences, error)
	PreferencesUpsert(ctx context.Context, p model.UserPreferences) error
	MedicationLogsFind(ctx context.Context, userID string) ([]model.MedicationLog, error)
	MedicationLogInsert(ctx context.Context, l model.MedicationLog) (model.MedicationLog, error)
	SymptomLogsFind(ctx context.Context, userID string) ([]model.SymptomLog, error)
	SymptomLogInsert(ctx context.Context, l model.SymptomLog) (model.SymptomLog, error)
	FoodLogsFind(ctx context.Context, userID string) ([]model.FoodLog, error)
	FoodLogInsert(ctx context.Context, l model.FoodLog) (model.FoodLog, error)
	TerraConnectionsFind(ctx context.Context, userID string) ([]model.TerraConnection, error)
	TerraConnectionUpsert(ctx context.Context, c model.TerraConnection) error
}

// Identity is the slice of the identity provider the store consumes.
type Identity interface {
	SignInWithPassword(ctx context.Context, email string, password string) (identity.Session, error)
	SignUp(ctx context.Context, email string, password string) (identity.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	RevokeFederated(ctx context.Context, provider string, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (identity.Session, error)
	SendVerificationEmail(ctx context.Context, email string) error
	ValidateToken(token string) (string, error)
}

type Snapshots interface {
	Put(key string, state any)
	Get(key string, out any) error
	Delete(key string)
}

type Vault interface {
	Store(t device.SessionTokens) error
	Load() (device.SessionTokens, error)
	Clear() error
}

type Sensor interface {
	Sample() device.SensorReading
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

// Store is constructed once at process start and handed to consumers
// explicitly; there is no package-level instance.
//
// Every state mutation happens inside a single locked section with no
// network call under the lock, so each action's read-modify-write is
// atomic with respect to other actions. Overlapping fetches of the same
// category are not de-duplicated or cancelled: whichever resolves last
// wins the final state.
type Store struct {
	Gateway   Gateway
	Identity  Identity
	Snapshots Snapshots
	Vault     Vault
	Sensor    Sensor
	// Wearables is optional; nil disables the wearable sync hook.
	Wearables Wearables
	// Billing is optional; nil disables subscription refresh.
	Billing Billing
	Logger  logger

	mu           sync.Mutex
	state        State
	userID       string
	refreshToken string
	initialized  bool
	subscribers  []func(State)
}

func New(gw Gateway, id Identity, snaps Snapshots, vault Vault, sensor Sensor, lg logger) *Store {
	return &Store{
		Gateway:   gw,
		Identity:  id,
		Snapshots: snaps,
		Vault:     vault,
		Sensor:    sensor,
		Logger:    lg,
		state:     defaultState(),
	}
}

func defaultState() State {
	return State{
		Auth:        AuthState{IsLoading: true},
		HealthData:  model.DefaultHealthData(),
		Preferences: model.DefaultPreferences(),
	}
}

// Subscribe registers a listener called with a state copy after every
// transition. Listeners run synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Snapshot returns a copy of the current state, safe to read without
// coordination.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

// IsInitialized reports whether the cold-start restore has completed.
// The latch is set exactly once and never reset, including by sign-out.
func (s *Store) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

func copyState(st State) State {
	out := st
	if st.UserProfile != nil {
		p := *st.UserProfile
		p.Conditions = append([]string(nil), st.UserProfile.Conditions...)
		out.UserProfile = &p
	}
	out.Medications = append([]model.MedicationLog(nil), st.Medications...)
	out.Symptoms = append([]model.SymptomLog(nil), st.Symptoms...)
	out.FoodLogs = append([]model.FoodLog(nil), st.FoodLogs...)
	return out
}

// persistedState is the restricted projection written to disk on every
// transition. Health data and log collections are deliberately absent:
// they are always refetchable and potentially stale.
type persistedState struct {
	IsAuthenticated bool                  `json:"is_authenticated"`
	UserProfile     *model.UserProfile    `json:"user_profile"`
	Preferences     model.UserPreferences `json:"preferences"`
}

// commit applies mutate under the lock, then notifies subscribers and
// fires the snapshot write outside it.
func (s *Store) commit(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	snapshot := copyState(s.state)
	subscribers := make([]func(State), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	s.Snapshots.Put(device.SnapshotKeyUser, persistedState{
		IsAuthenticated: snapshot.Auth.IsAuthenticated,
		UserProfile:     snapshot.UserProfile,
		Preferences:     snapshot.Preferences,
	})
}

func (s *Store) profileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Auth.IsAuthenticated || s.state.UserProfile == nil {
		return ""
	}
	return s.state.UserProfile.ID
}

func (s *Store) sessionUserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Auth.IsAuthenticated {
		return ""
	}
	return s.userID
}

func (s *Store) sessionToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Auth.SessionToken
}
