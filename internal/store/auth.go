package store

import (
	"context"

	"healthsync/internal/device"
	"healthsync/internal/gateway"
	"healthsync/internal/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SideEffect names a best-effort step whose failure is deliberately
// non-fatal to the operation that ran it.
type SideEffect string

const (
	SideEffectVerificationEmail SideEffect = "verification_email"
	SideEffectSessionRevoke     SideEffect = "session_revoke"
	SideEffectFederatedRevoke   SideEffect = "federated_revoke"
	SideEffectVaultClear        SideEffect = "vault_clear"
)

// SideEffectOutcome records how a best-effort step went, so callers can
// inspect the result instead of it vanishing into a log line.
type SideEffectOutcome struct {
	Effect SideEffect
	Err    error
}

func (o SideEffectOutcome) Failed() bool {
	return o.Err != nil
}

// SignIn authenticates with the identity provider and, on success,
// persists the session and runs the full data initialization sequence.
// Input validation is the caller's concern. On provider failure the
// provider's error is returned unchanged and auth state is untouched
// except for clearing the loading flag.
func (s *Store) SignIn(ctx context.Context, email string, password string) error {
	tid := uuid.NewString()
	s.Logger.Debugf("SignIn: starting for email: %s, TraceID: %s", email, tid)
	s.commit(func(st *State) {
		st.Auth.IsLoading = true
	})

	sess, err := s.Identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.Logger.Infof("SignIn: provider rejected sign-in for email: %s, err: %v, TraceID: %s", email, err, tid)
		s.commit(func(st *State) {
			st.Auth.IsLoading = false
		})
		return err
	}

	if err = s.Vault.Store(device.SessionTokens{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}); err != nil {
		s.Logger.Errorf("SignIn: error storing session tokens, TraceID: %s, err: %v", tid, err)
	}

	s.mu.Lock()
	s.userID = sess.UserID
	s.refreshToken = sess.RefreshToken
	s.mu.Unlock()
	s.commit(func(st *State) {
		st.Auth = AuthState{IsAuthenticated: true, SessionToken: sess.AccessToken}
	})

	if err = s.InitializeUserData(ctx); err != nil {
		s.Logger.Errorf("SignIn: error initializing user data, TraceID: %s, err: %v", tid, err)
		return errors.Wrap(err, "signed in but failed to initialize user data")
	}
	s.Logger.Infof("SignIn: completed for UserID: %s, TraceID: %s", sess.UserID, tid)
	return nil
}

// SignUp creates a credential and profile row for a new user. The
// duplicate-email pre-check runs against the remote user table before
// any credential is created, so a taken address never leaves an
// orphaned credential with no profile row behind. The verification
// email is best-effort and never fails the signup.
func (s *Store) SignUp(ctx context.Context, email string, password string, profile model.UserProfile) ([]SideEffectOutcome, error) {
	tid := uuid.NewString()
	s.Logger.Debugf("SignUp: starting for email: %s, TraceID: %s", email, tid)

	_, err := s.Gateway.UserFindByEmail(ctx, email)
	if err == nil {
		s.Logger.Infof("SignUp: email already registered: %s, TraceID: %s", email, tid)
		return nil, ErrEmailRegistered
	}
	if !errors.Is(err, gateway.ErrRowNotFound) {
		return nil, errors.Wrapf(err, "error checking for existing user with email: %s", email)
	}

	s.commit(func(st *State) {
		st.Auth.IsLoading = true
	})

	sess, err := s.Identity.SignUp(ctx, email, password)
	if err != nil {
		s.commit(func(st *State) {
			st.Auth.IsLoading = false
		})
		return nil, err
	}

	profile.ID = sess.UserID
	profile.Email = sess.Email
	inserted, err := s.Gateway.UserInsert(ctx, profile)
	if err != nil {
		s.Logger.Errorf("SignUp: error inserting profile row for UserID: %s, TraceID: %s, err: %v", sess.UserID, tid, err)
		s.commit(func(st *State) {
			st.Auth.IsLoading = false
		})
		return nil, errors.Wrapf(err, "error creating profile for UserID: %s", sess.UserID)
	}

	if err = s.Vault.Store(device.SessionTokens{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}); err != nil {
		s.Logger.Errorf("SignUp: error storing session tokens, TraceID: %s, err: %v", tid, err)
	}

	s.mu.Lock()
	s.userID = sess.UserID
	s.refreshToken = sess.RefreshToken
	s.mu.Unlock()
	s.commit(func(st *State) {
		st.Auth = AuthState{IsAuthenticated: true, SessionToken: sess.AccessToken}
		p := inserted
		st.UserProfile = &p
	})

	var outcomes []SideEffectOutcome
	if err = s.Identity.SendVerificationEmail(ctx, sess.Email); err != nil {
		s.Logger.Errorf("SignUp: error sending verification email to: %s, TraceID: %s, err: %v", sess.Email, tid, err)
	}
	outcomes = append(outcomes, SideEffectOutcome{Effect: SideEffectVerificationEmail, Err: err})

	if err = s.InitializeUserData(ctx); err != nil {
		s.Logger.Errorf("SignUp: error initializing user data, TraceID: %s, err: %v", tid, err)
	}
	s.Logger.Infof("SignUp: completed for UserID: %s, TraceID: %s", sess.UserID, tid)
	return outcomes, nil
}

// SignOut revokes the session with the identity provider and any
// federated provider, then unconditionally clears local session state.
// Every revoke is best-effort and independently reported; signing out
// while already signed out is a harmless no-op.
func (s *Store) SignOut(ctx context.Context) []SideEffectOutcome {
	tid := uuid.NewString()
	s.Logger.Debugf("SignOut: starting, TraceID: %s", tid)

	s.mu.Lock()
	token := s.state.Auth.SessionToken
	var provider string
	if s.state.UserProfile != nil {
		provider = s.state.UserProfile.Provider
	}
	s.mu.Unlock()

	var outcomes []SideEffectOutcome
	if token != "" {
		err := s.Identity.SignOut(ctx, token)
		if err != nil {
			s.Logger.Errorf("SignOut: error revoking session, TraceID: %s, err: %v", tid, err)
		}
		outcomes = append(outcomes, SideEffectOutcome{Effect: SideEffectSessionRevoke, Err: err})

		if provider != "" {
			err = s.Identity.RevokeFederated(ctx, provider, token)
			if err != nil {
				s.Logger.Errorf("SignOut: error revoking federated grant for provider: %s, TraceID: %s, err: %v", provider, tid, err)
			}
			outcomes = append(outcomes, SideEffectOutcome{Effect: SideEffectFederatedRevoke, Err: err})
		}
	}

	if err := s.Vault.Clear(); err != nil {
		s.Logger.Errorf("SignOut: error clearing token vault, TraceID: %s, err: %v", tid, err)
		outcomes = append(outcomes, SideEffectOutcome{Effect: SideEffectVaultClear, Err: err})
	}
	s.Snapshots.Delete(device.SnapshotKeyUser)

	s.mu.Lock()
	s.userID = ""
	s.refreshToken = ""
	s.mu.Unlock()
	s.commit(func(st *State) {
		anon := defaultState()
		anon.Auth.IsLoading = false
		*st = anon
	})
	s.Logger.Infof("SignOut: completed, TraceID: %s", tid)
	return outcomes
}

// RestoreFromDisk rehydrates the persisted projection and stored
// session tokens before the store is considered ready. An expired
// access token is refreshed once; if the provider rejects the refresh,
// the restore lands in the anonymous state. The initialized latch is
// set exactly once, on completion, regardless of outcome.
func (s *Store) RestoreFromDisk(ctx context.Context) {
	tid := uuid.NewString()
	s.Logger.Debugf("RestoreFromDisk: starting, TraceID: %s", tid)
	defer func() {
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		// Re-notify so subscribers registered before the restore see the
		// post-latch state.
		s.commit(func(st *State) {})
	}()

	tokens, err := s.Vault.Load()
	if err != nil {
		if !errors.Is(err, device.ErrNoStoredSession) {
			s.Logger.Errorf("RestoreFromDisk: error loading session tokens, TraceID: %s, err: %v", tid, err)
		}
		s.commit(func(st *State) {
			st.Auth.IsLoading = false
		})
		return
	}

	userID, err := s.Identity.ValidateToken(tokens.AccessToken)
	if err != nil {
		s.Logger.Infof("RestoreFromDisk: stored token not usable, attempting refresh, TraceID: %s, err: %v", tid, err)
		sess, refreshErr := s.Identity.RefreshSession(ctx, tokens.RefreshToken)
		if refreshErr != nil {
			s.Logger.Infof("RestoreFromDisk: refresh rejected, restoring anonymous, TraceID: %s, err: %v", tid, refreshErr)
			if err := s.Vault.Clear(); err != nil {
				s.Logger.Errorf("RestoreFromDisk: error clearing token vault, TraceID: %s, err: %v", tid, err)
			}
			s.commit(func(st *State) {
				st.Auth.IsLoading = false
			})
			return
		}
		tokens = device.SessionTokens{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken}
		userID = sess.UserID
		if err := s.Vault.Store(tokens); err != nil {
			s.Logger.Errorf("RestoreFromDisk: error storing refreshed tokens, TraceID: %s, err: %v", tid, err)
		}
	}

	var persisted persistedState
	if err := s.Snapshots.Get(device.SnapshotKeyUser, &persisted); err != nil {
		if !errors.Is(err, device.ErrNoSnapshot) {
			s.Logger.Errorf("RestoreFromDisk: error reading persisted snapshot, TraceID: %s, err: %v", tid, err)
		}
		persisted = persistedState{Preferences: model.DefaultPreferences()}
	}

	s.mu.Lock()
	s.userID = userID
	s.refreshToken = tokens.RefreshToken
	s.mu.Unlock()
	s.commit(func(st *State) {
		st.Auth = AuthState{IsAuthenticated: true, SessionToken: tokens.AccessToken}
		st.UserProfile = persisted.UserProfile
		st.Preferences = persisted.Preferences
	})
	s.Logger.Infof("RestoreFromDisk: restored session for UserID: %s, TraceID: %s", userID, tid)
}
