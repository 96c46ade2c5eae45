package apiclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/quantfold/tradekit/apiclient"
	"github.com/quantfold/tradekit/internal/apierrors"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
}

func (s *staticTokens) AccessToken() (string, error) { return s.token, s.err }

// recordedRequest captures what the stub backend saw.
type recordedRequest struct {
	Method         string
	Path           string
	Authorization  string
	IdempotencyKey string
	Query          url.Values
}

type stubBackend struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
	server   *httptest.Server
}

func newStubBackend(t *testing.T, handler http.HandlerFunc) *stubBackend {
	t.Helper()

	b := &stubBackend{handler: handler}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, recordedRequest{
			Method:         r.Method,
			Path:           r.URL.Path,
			Authorization:  r.Header.Get("Authorization"),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
			Query:          r.URL.Query(),
		})
		b.mu.Unlock()
		b.handler(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *stubBackend) recorded() []recordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedRequest(nil), b.requests...)
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestGetPrefixesVersionedRoot(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{"ok":true}`))
	client := apiclient.New(backend.server.URL, nil)

	env, err := client.Get(context.Background(), "/users/me", url.Values{"fields": {"balance"}})
	require.NoError(t, err)
	require.True(t, env.Bool("ok"))

	reqs := backend.recorded()
	require.Len(t, reqs, 1)
	require.Equal(t, "/api/v1/users/me", reqs[0].Path)
	require.Equal(t, "balance", reqs[0].Query.Get("fields"))
}

func TestBearerAttachedWhenSessionExists(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{}`))
	client := apiclient.New(backend.server.URL, &staticTokens{token: "abc"})

	_, err := client.Get(context.Background(), "/users/me", nil)
	require.NoError(t, err)

	reqs := backend.recorded()
	require.Equal(t, "Bearer abc", reqs[0].Authorization)
}

func TestNoBearerWhenUnauthenticated(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{}`))
	client := apiclient.New(backend.server.URL, &staticTokens{token: ""})

	_, err := client.Get(context.Background(), "/users/me", nil)
	require.NoError(t, err)
	require.Empty(t, backend.recorded()[0].Authorization)
}

func TestTokenSourceFailureProceedsUnauthenticated(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{}`))
	client := apiclient.New(backend.server.URL, &staticTokens{err: apierrors.ErrStorage})

	_, err := client.Get(context.Background(), "/users/me", nil)
	require.NoError(t, err)
	require.Empty(t, backend.recorded()[0].Authorization)
}

func TestMutatingRequestsCarryIdempotencyKey(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{}`))
	client := apiclient.New(backend.server.URL, nil)

	_, err := client.Post(context.Background(), "/auth/logout", map[string]string{})
	require.NoError(t, err)
	_, err = client.Get(context.Background(), "/users/me", nil)
	require.NoError(t, err)

	reqs := backend.recorded()
	require.NotEmpty(t, reqs[0].IdempotencyKey)
	require.Empty(t, reqs[1].IdempotencyKey)
}

func TestHTTPErrorCarriesStatusAndMessage(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusUnauthorized, `{"message":"bad credentials"}`))
	client := apiclient.New(backend.server.URL, nil)

	_, err := client.Post(context.Background(), "/auth/login", map[string]string{})
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, apierrors.HTTPStatus(err))
	require.True(t, apierrors.IsAuthRejected(err))
	require.Contains(t, err.Error(), "bad credentials")
}

func TestNonJSONErrorBodyStillYieldsHTTPError(t *testing.T) {
	backend := newStubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	})
	client := apiclient.New(backend.server.URL, nil)

	_, err := client.Get(context.Background(), "/users/me", nil)
	require.Equal(t, http.StatusBadGateway, apierrors.HTTPStatus(err))
}

func TestInvalidJSONOnSuccessIsDecodeError(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `not json`))
	client := apiclient.New(backend.server.URL, nil)

	_, err := client.Get(context.Background(), "/users/me", nil)
	require.True(t, apierrors.IsDecode(err))
}

func TestTimeoutIsDistinctFromNetworkError(t *testing.T) {
	backend := newStubBackend(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	})
	client := apiclient.New(backend.server.URL, nil, apiclient.WithTimeout(20*time.Millisecond))

	_, err := client.Get(context.Background(), "/users/me", nil)
	require.True(t, apierrors.IsTimeout(err))
	require.False(t, apierrors.IsNetwork(err))
}

func TestConnectionFailureIsNetworkError(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{}`))
	backend.server.Close()
	client := apiclient.New(backend.server.URL, nil)

	_, err := client.Get(context.Background(), "/users/me", nil)
	require.True(t, apierrors.IsNetwork(err))
}

func TestLoginDecodesTokenGrant(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK,
		`{"access_token":"abc","refresh_token":"r1","id":"u1","email":"user@test.com"}`))
	client := apiclient.New(backend.server.URL, nil)

	grant, err := client.Login(context.Background(), "user@test.com", "Secret123!")
	require.NoError(t, err)
	require.Equal(t, "abc", grant.AccessToken)
	require.Equal(t, "r1", grant.RefreshToken)
	require.Equal(t, "u1", grant.UserID)
	require.Equal(t, "user@test.com", grant.Email)
	require.Equal(t, "/api/v1/auth/login", backend.recorded()[0].Path)
}

func TestLoginToleratesAlternateTokenKey(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{"token":"abc","user_id":"u1"}`))
	client := apiclient.New(backend.server.URL, nil)

	grant, err := client.Login(context.Background(), "user@test.com", "Secret123!")
	require.NoError(t, err)
	require.Equal(t, "abc", grant.AccessToken)
	require.Equal(t, "u1", grant.UserID)
}

func TestLoginFailsFastOnMissingAccessToken(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{"id":"u1"}`))
	client := apiclient.New(backend.server.URL, nil)

	_, err := client.Login(context.Background(), "user@test.com", "Secret123!")
	require.True(t, apierrors.IsDecode(err))
}

func TestUserByIDEscapesPath(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{}`))
	client := apiclient.New(backend.server.URL, nil)

	_, err := client.UserByID(context.Background(), "u 1")
	require.NoError(t, err)
	require.Equal(t, "/api/v1/users/u 1", backend.recorded()[0].Path) // unescaped by the mux
}

func TestLogoutPostsRefreshToken(t *testing.T) {
	backend := newStubBackend(t, jsonHandler(http.StatusOK, `{}`))
	client := apiclient.New(backend.server.URL, nil)

	require.NoError(t, client.Logout(context.Background(), "r1"))
	require.Equal(t, "/api/v1/auth/logout", backend.recorded()[0].Path)
}
