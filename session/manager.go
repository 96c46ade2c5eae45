// Package session holds the auth session manager, the only component allowed
// to mutate session and profile state. Everything else observes snapshots.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/quantfold/tradekit/apiclient"
	"github.com/quantfold/tradekit/internal/apierrors"
	"github.com/quantfold/tradekit/users"
	"github.com/rs/zerolog"
)

// API is the backend surface the manager needs. *apiclient.Client satisfies it.
type API interface {
	Login(ctx context.Context, email, password string) (*apiclient.TokenGrant, error)
	Signup(ctx context.Context, req apiclient.SignupRequest) (*apiclient.TokenGrant, error)
	Logout(ctx context.Context, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, password string) error
	CurrentUser(ctx context.Context) (apiclient.Envelope, error)
	UserByID(ctx context.Context, id string) (apiclient.Envelope, error)
}

// Store is the credential persistence the manager needs. *securestore.Store
// satisfies it.
type Store interface {
	SaveUserSession(accessToken, refreshToken, userID, email string) error
	SaveUserID(id string) error
	AccessToken() (string, error)
	RefreshToken() (string, error)
	UserID() (string, error)
	Email() (string, error)
	ClearUserData() error
}

// Metrics receives degrade-gracefully events the user never sees.
type Metrics interface {
	RecordProfileRefreshFailure()
}

// Deps holds the manager's dependencies. They are passed explicitly; there is
// no ambient lookup.
type Deps struct {
	API   API
	Store Store
}

// Manager orchestrates login, signup, logout and profile refresh. It is safe
// for concurrent use; a second mutating call while one is in flight is
// rejected rather than raced.
type Manager struct {
	deps    Deps
	log     zerolog.Logger
	metrics Metrics
	nowTime func() time.Time

	mu              sync.Mutex
	state           State
	userID          string
	email           string
	profile         *users.Profile
	profileLoaded   bool
	errorMessage    string
	inFlight        bool
	authenticatedAt time.Time
	subscribers     []func(Snapshot)
}

// Option modifies a Manager during construction.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithMetrics wires the degrade-gracefully counters.
func WithMetrics(metrics Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(m *Manager) { m.nowTime = nowFunc }
}

// New creates a Manager and restores any session the store already holds: a
// non-empty access token means the last run was authenticated and the profile
// is stale until the next LoadProfile.
func New(deps Deps, options ...Option) (*Manager, error) {
	if deps.API == nil {
		return nil, errors.New("[session.New] API is required")
	}
	if deps.Store == nil {
		return nil, errors.New("[session.New] Store is required")
	}

	m := &Manager{
		deps:    deps,
		log:     zerolog.Nop(),
		nowTime: time.Now,
		state:   StateUnauthenticated,
	}
	for _, opt := range options {
		opt(m)
	}

	m.restore()
	return m, nil
}

func (m *Manager) restore() {
	token, err := m.deps.Store.AccessToken()
	if err != nil {
		// Proceed unauthenticated; the user can log in again.
		m.log.Warn().Err(err).Msg("could not restore session from secure store")
		return
	}
	if token == "" {
		return
	}

	m.state = StateAuthenticated
	if id, err := m.deps.Store.UserID(); err == nil {
		m.userID = id
	}
	if email, err := m.deps.Store.Email(); err == nil {
		m.email = email
	}

	if exp, err := apiclient.TokenExpiry(token); err == nil {
		m.log.Debug().Time("expires_at", exp).Msg("restored session")
	} else {
		m.log.Debug().Msg("restored session with opaque token")
	}
}

// Subscribe registers fn to run after every state transition. Callbacks run
// outside the manager's lock, on the goroutine that caused the transition.
func (m *Manager) Subscribe(fn func(Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// Snapshot returns the current state as an immutable view.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// IsAuthenticated reports whether a session exists.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateAuthenticated
}

// ErrorMessage returns the stored human-readable message of the last failed
// login or signup, "" when the last one succeeded.
func (m *Manager) ErrorMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errorMessage
}

// Login authenticates with email and password. It never returns an error:
// every failure becomes false plus a stored message. On success the session
// is persisted before Login returns and a profile load is attempted.
func (m *Manager) Login(ctx context.Context, email, password string) bool {
	email = strings.TrimSpace(email)
	if err := ValidateEmail(email); err != nil {
		m.setError(msgInvalidEmail)
		return false
	}
	if password == "" {
		m.setError(msgEmptyPassword)
		return false
	}

	if !m.beginAuth() {
		return false
	}

	grant, err := m.deps.API.Login(ctx, email, password)
	if err != nil {
		m.log.Warn().Err(err).Msg("login failed")
		m.failAuth(loginMessageFor(err))
		return false
	}
	return m.completeAuth(ctx, grant, email)
}

// Signup registers a new account. Same contract as Login, with a password
// strength policy on top.
func (m *Manager) Signup(ctx context.Context, req apiclient.SignupRequest) bool {
	req.Email = strings.TrimSpace(req.Email)
	if err := ValidateEmail(req.Email); err != nil {
		m.setError(msgInvalidEmail)
		return false
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		m.setError(err.Error())
		return false
	}

	if !m.beginAuth() {
		return false
	}

	grant, err := m.deps.API.Signup(ctx, req)
	if err != nil {
		m.log.Warn().Err(err).Msg("signup failed")
		m.failAuth(signupMessageFor(err))
		return false
	}
	return m.completeAuth(ctx, grant, req.Email)
}

// LoadProfile refreshes the profile, best effort. Failures are invisible to
// the user: the last known profile stays in place and only the log and the
// metrics counter record the miss. A backend auth rejection is the one
// exception; it destroys the session.
func (m *Manager) LoadProfile(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	id, err := m.deps.Store.UserID()
	if err != nil {
		m.log.Warn().Err(err).Msg("could not read cached user id")
		id = ""
	}

	var env apiclient.Envelope
	if id != "" {
		env, err = m.deps.API.UserByID(ctx, id)
	} else {
		env, err = m.deps.API.CurrentUser(ctx)
	}
	if err != nil {
		if apierrors.IsAuthRejected(err) {
			m.log.Warn().Err(err).Msg("session rejected by backend, clearing local session")
			m.clearLocalSession()
			return
		}
		m.log.Warn().Err(err).Str("user_id", id).Msg("profile refresh failed")
		if m.metrics != nil {
			m.metrics.RecordProfileRefreshFailure()
		}
		return
	}

	profile := users.ProfileFromMap(env)
	if id == "" && profile.ID != "" {
		if err := m.deps.Store.SaveUserID(profile.ID); err != nil {
			m.log.Warn().Err(err).Msg("could not persist discovered user id")
		}
	}

	m.update(func() {
		// The session may have ended while the fetch was in flight; a stale
		// result must not resurrect it.
		if m.state != StateAuthenticated {
			return
		}
		m.profile = &profile
		m.profileLoaded = true
		if profile.ID != "" {
			m.userID = profile.ID
		}
		if profile.Email != "" {
			m.email = profile.Email
		}
	})
}

// Logout revokes the refresh token best-effort and always clears the local
// session. Local logout is authoritative: a failing backend cannot keep the
// user signed in.
func (m *Manager) Logout(ctx context.Context) {
	refresh, err := m.deps.Store.RefreshToken()
	if err != nil {
		m.log.Warn().Err(err).Msg("could not read refresh token for revocation")
		refresh = ""
	}
	if refresh != "" {
		if err := m.deps.API.Logout(ctx, refresh); err != nil {
			m.log.Warn().Err(err).Msg("token revocation failed, continuing local logout")
		}
	}
	m.clearLocalSession()
}

// RequestPasswordReset starts the reset flow. Input is validated locally
// before any network call.
func (m *Manager) RequestPasswordReset(ctx context.Context, email string) error {
	if err := ValidateEmail(strings.TrimSpace(email)); err != nil {
		return err
	}
	if err := m.deps.API.RequestPasswordReset(ctx, strings.TrimSpace(email)); err != nil {
		return errors.Wrap(err, "[Manager.RequestPasswordReset]")
	}
	return nil
}

// ConfirmPasswordReset completes the reset flow. The new password must pass
// the same strength policy as signup.
func (m *Manager) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if strings.TrimSpace(token) == "" {
		return apierrors.Wrapf(apierrors.ErrValidation, "reset token is required")
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return apierrors.Wrapf(apierrors.ErrValidation, "%v", err)
	}
	if err := m.deps.API.ConfirmPasswordReset(ctx, token, newPassword); err != nil {
		return errors.Wrap(err, "[Manager.ConfirmPasswordReset]")
	}
	return nil
}

func (m *Manager) beginAuth() bool {
	ok := false
	m.update(func() {
		if m.inFlight {
			m.errorMessage = msgOperationInProgress
			return
		}
		m.inFlight = true
		m.state = StateAuthenticating
		m.errorMessage = ""
		ok = true
	})
	return ok
}

func (m *Manager) failAuth(message string) {
	m.update(func() {
		m.inFlight = false
		m.state = StateUnauthenticated
		m.errorMessage = message
	})
}

func (m *Manager) completeAuth(ctx context.Context, grant *apiclient.TokenGrant, fallbackEmail string) bool {
	email := grant.Email
	if email == "" {
		email = fallbackEmail
	}

	if err := m.deps.Store.SaveUserSession(grant.AccessToken, grant.RefreshToken, grant.UserID, email); err != nil {
		m.log.Error().Err(err).Msg("could not persist session")
		m.failAuth(msgStorageFailure)
		return false
	}

	m.update(func() {
		m.inFlight = false
		m.state = StateAuthenticated
		m.userID = grant.UserID
		m.email = email
		m.profile = nil
		m.profileLoaded = false
		m.errorMessage = ""
		m.authenticatedAt = m.nowTime()
	})

	m.LoadProfile(ctx)
	return true
}

func (m *Manager) clearLocalSession() {
	if err := m.deps.Store.ClearUserData(); err != nil {
		m.log.Error().Err(err).Msg("could not clear secure store")
	}
	m.update(func() {
		m.inFlight = false
		m.state = StateUnauthenticated
		m.userID = ""
		m.email = ""
		m.profile = nil
		m.profileLoaded = false
		m.errorMessage = ""
		m.authenticatedAt = time.Time{}
	})
}

func (m *Manager) setError(message string) {
	m.update(func() { m.errorMessage = message })
}

// update runs mutate under the lock, then notifies subscribers with the
// resulting snapshot outside it.
func (m *Manager) update(mutate func()) {
	m.mu.Lock()
	mutate()
	snap := m.snapshotLocked()
	subs := append(([]func(Snapshot))(nil), m.subscribers...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           m.state,
		UserID:          m.userID,
		Email:           m.email,
		ProfileLoaded:   m.profileLoaded,
		ErrorMessage:    m.errorMessage,
		Busy:            m.inFlight,
		AuthenticatedAt: m.authenticatedAt,
	}
	if m.profile != nil {
		profile := *m.profile
		snap.Profile = &profile
	}
	return snap
}
