package apifakes

import (
	"context"
	"sync"

	"github.com/quantfold/tradekit/apiclient"
	"github.com/quantfold/tradekit/session"
)

var _ session.API = (*FakeAPI)(nil)

// FakeAPI is an in-memory session.API for tests. Stub fields supply the
// responses; call slices record what the manager sent.
type FakeAPI struct {
	lock sync.Mutex

	LoginGrant  *apiclient.TokenGrant
	LoginErr    error
	SignupGrant *apiclient.TokenGrant
	SignupErr   error
	LogoutErr   error

	CurrentUserEnv apiclient.Envelope
	CurrentUserErr error
	UserByIDEnv    apiclient.Envelope
	UserByIDErr    error

	RequestResetErr error
	ConfirmResetErr error

	// LoginFn, when set, replaces the stubbed Login behaviour entirely.
	LoginFn func(ctx context.Context, email, password string) (*apiclient.TokenGrant, error)

	LoginCalls        []string
	SignupCalls       []apiclient.SignupRequest
	LogoutCalls       []string
	CurrentUserCalls  int
	UserByIDCalls     []string
	RequestResetCalls []string
	ConfirmResetCalls []string
}

func NewFakeAPI() *FakeAPI {
	return &FakeAPI{}
}

func (f *FakeAPI) Login(ctx context.Context, email, password string) (*apiclient.TokenGrant, error) {
	f.lock.Lock()
	f.LoginCalls = append(f.LoginCalls, email)
	fn := f.LoginFn
	grant, err := f.LoginGrant, f.LoginErr
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx, email, password)
	}
	return grant, err
}

func (f *FakeAPI) Signup(ctx context.Context, req apiclient.SignupRequest) (*apiclient.TokenGrant, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.SignupCalls = append(f.SignupCalls, req)
	return f.SignupGrant, f.SignupErr
}

func (f *FakeAPI) Logout(ctx context.Context, refreshToken string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.LogoutCalls = append(f.LogoutCalls, refreshToken)
	return f.LogoutErr
}

func (f *FakeAPI) RequestPasswordReset(ctx context.Context, email string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.RequestResetCalls = append(f.RequestResetCalls, email)
	return f.RequestResetErr
}

func (f *FakeAPI) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.ConfirmResetCalls = append(f.ConfirmResetCalls, token)
	return f.ConfirmResetErr
}

func (f *FakeAPI) CurrentUser(ctx context.Context) (apiclient.Envelope, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.CurrentUserCalls++
	return f.CurrentUserEnv, f.CurrentUserErr
}

func (f *FakeAPI) UserByID(ctx context.Context, id string) (apiclient.Envelope, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.UserByIDCalls = append(f.UserByIDCalls, id)
	return f.UserByIDEnv, f.UserByIDErr
}

// TotalCalls reports how many network operations the manager attempted.
func (f *FakeAPI) TotalCalls() int {
	f.lock.Lock()
	defer f.lock.Unlock()
	return len(f.LoginCalls) + len(f.SignupCalls) + len(f.LogoutCalls) +
		f.CurrentUserCalls + len(f.UserByIDCalls) +
		len(f.RequestResetCalls) + len(f.ConfirmResetCalls)
}
