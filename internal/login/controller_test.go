package login

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/memberfolio/folio/internal/auth"
	"github.com/memberfolio/folio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	mu      sync.Mutex
	calls   []auth.Credentials
	session *auth.Session
	err     error
}

func (s *stubAuthenticator) Login(_ context.Context, creds auth.Credentials) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, creds)
	return s.session, s.err
}

func (s *stubAuthenticator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newAPIController(t *testing.T, resp testutil.Response, opts ...Option) (*Controller, *testutil.FakeAPI) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	api.Use(resp)
	return NewController(auth.NewHTTPAuthenticator(api.URL(), time.Second, nil), opts...), api
}

func TestSubmit_Success(t *testing.T) {
	c, api := newAPIController(t, testutil.Success("fake_access_token", 1594771200))

	c.SetUsername("MyUsername")
	c.SetPassword("12345678")
	_, hasErr := c.ErrorMessage()
	assert.False(t, hasErr)

	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Authenticated, status)

	_, hasErr = c.ErrorMessage()
	assert.False(t, hasErr)
	require.NotNil(t, c.Session())
	assert.Equal(t, "fake_access_token", c.Session().AccessToken)
	assert.Len(t, api.Requests(), 1)
}

func TestSubmit_WrongCredentials(t *testing.T) {
	c, api := newAPIController(t, testutil.Failure(http.StatusUnauthorized, "Username or password is wrong."))

	c.SetUsername("MyUsername")
	c.SetPassword("87654321")
	_, hasErr := c.ErrorMessage()
	assert.False(t, hasErr)

	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed, status)

	msg, hasErr := c.ErrorMessage()
	assert.True(t, hasErr)
	assert.Equal(t, "Username or password is wrong.", msg)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, testutil.LoginRequest{Username: "MyUsername", Password: "87654321"}, reqs[0])
}

func TestSubmit_ServerDown(t *testing.T) {
	c, _ := newAPIController(t, testutil.Failure(http.StatusInternalServerError, "The server is currently unavailable. Try again later"))

	c.SetUsername("MyUsername")
	c.SetPassword("87654321")

	status, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Failed, status)

	msg, hasErr := c.ErrorMessage()
	assert.True(t, hasErr)
	assert.Equal(t, "The server is currently unavailable. Try again later", msg)
}

func TestSubmit_EmptyFieldsSendNothing(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		missing  []string
	}{
		{"both empty", "", "", []string{FieldUsername, FieldPassword}},
		{"username empty", "", "12345678", []string{FieldUsername}},
		{"password empty", "MyUsername", "", []string{FieldPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAuthenticator{}
			c := NewController(stub)
			c.SetUsername(tt.username)
			c.SetPassword(tt.password)

			status, err := c.Submit(context.Background())
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.missing, verr.Missing)
			for _, f := range tt.missing {
				assert.True(t, verr.Has(f))
			}

			assert.Equal(t, Idle, status)
			assert.Equal(t, 0, stub.callCount())
			_, hasErr := c.ErrorMessage()
			assert.False(t, hasErr)
		})
	}
}

func TestSubmit_ValidationFailureKeepsPreviousError(t *testing.T) {
	stub := &stubAuthenticator{err: &auth.APIError{StatusCode: 401, Message: "Username or password is wrong."}}
	c := NewController(stub)
	c.SetUsername("MyUsername")
	c.SetPassword("87654321")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	c.SetPassword("")
	status, err := c.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, Failed, status)

	msg, hasErr := c.ErrorMessage()
	assert.True(t, hasErr)
	assert.Equal(t, "Username or password is wrong.", msg)
	assert.Equal(t, 1, stub.callCount())
}

func TestSubmit_RetryClearsErrorThenSucceeds(t *testing.T) {
	stub := &stubAuthenticator{err: &auth.APIError{StatusCode: 401, Message: "Username or password is wrong."}}
	c := NewController(stub)
	c.SetUsername("MyUsername")
	c.SetPassword("87654321")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	_, hasErr := c.ErrorMessage()
	require.True(t, hasErr)

	stub.err = nil
	stub.session = &auth.Session{AccessToken: "fake_access_token", AccessExpiry: 1594771200}
	c.SetPassword("12345678")

	_, err = c.BeginSubmit()
	require.NoError(t, err)
	_, hasErr = c.ErrorMessage()
	assert.False(t, hasErr, "error must be cleared as soon as a new submission starts")
	assert.Equal(t, Submitting, c.Status())

	status := c.Resolve(stub.session, nil)
	assert.Equal(t, Authenticated, status)
	_, hasErr = c.ErrorMessage()
	assert.False(t, hasErr)
}

func TestBeginSubmit_RejectsOverlap(t *testing.T) {
	c := NewController(&stubAuthenticator{})
	c.SetUsername("MyUsername")
	c.SetPassword("12345678")

	_, err := c.BeginSubmit()
	require.NoError(t, err)

	_, err = c.BeginSubmit()
	assert.ErrorIs(t, err, ErrSubmitInProgress)
}

func TestResolve_IgnoredOutsideSubmitting(t *testing.T) {
	c := NewController(&stubAuthenticator{})

	status := c.Resolve(nil, errors.New("late"))
	assert.Equal(t, Idle, status)
	_, hasErr := c.ErrorMessage()
	assert.False(t, hasErr)
}

func TestSubmit_SuccessHook(t *testing.T) {
	var gotUser string
	var gotSession *auth.Session
	stub := &stubAuthenticator{session: &auth.Session{AccessToken: "fake_access_token", AccessExpiry: 1594771200}}
	c := NewController(stub, WithSuccessHook(func(username string, s *auth.Session) {
		gotUser = username
		gotSession = s
	}))
	c.SetUsername("MyUsername")
	c.SetPassword("12345678")

	_, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "MyUsername", gotUser)
	require.NotNil(t, gotSession)
	assert.Equal(t, "fake_access_token", gotSession.AccessToken)
}

func TestToggleShowPassword(t *testing.T) {
	c := NewController(&stubAuthenticator{})
	c.SetPassword("12345678")

	assert.False(t, c.PasswordVisible())
	assert.Equal(t, "password", c.PasswordInputType())
	assert.Equal(t, "••••••••", c.MaskedPassword())

	c.ToggleShowPassword()
	assert.Equal(t, "text", c.PasswordInputType())
	assert.Equal(t, "12345678", c.MaskedPassword())
	assert.Equal(t, "12345678", c.Password())

	c.ToggleShowPassword()
	assert.Equal(t, "password", c.PasswordInputType())
	assert.Equal(t, "12345678", c.Password())
}

func TestMessageFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server message wins", &auth.APIError{StatusCode: 401, Message: "custom"}, "custom"},
		{"401 without message", &auth.APIError{StatusCode: 401}, MessageWrongCredentials},
		{"503 without message", &auth.APIError{StatusCode: 503}, MessageServerUnavailable},
		{"other status", &auth.APIError{StatusCode: 418}, "Login failed (status 418)"},
		{"transport failure", &auth.TransportError{Err: errors.New("dial tcp: refused")}, MessageServerUnavailable},
		{"cancelled", &auth.TransportError{Err: context.Canceled}, "Login cancelled"},
		{"anything else", errors.New("boom"), MessageServerUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MessageFor(tt.err))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "authenticated", Authenticated.String())
	assert.Equal(t, "error", Failed.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
