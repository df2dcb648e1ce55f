// Package login holds the state and submit logic of the login form,
// independent of how the form is drawn.
package login

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/memberfolio/folio/internal/auth"
)

const (
	MessageWrongCredentials  = "Username or password is wrong."
	MessageServerUnavailable = "The server is currently unavailable. Try again later"
)

// Status is the position of the form in its submit lifecycle.
type Status int

const (
	Idle Status = iota
	Submitting
	Authenticated
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "error"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ErrSubmitInProgress is returned when a submit is attempted while a
// request is still outstanding.
var ErrSubmitInProgress = errors.New("login already in progress")

// Field names used in validation errors and by the UI.
const (
	FieldUsername = "username"
	FieldPassword = "password"
)

type fields struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError lists required fields that were empty at submit time.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "required field missing: " + strings.Join(e.Missing, ", ")
}

// Has reports whether field was among the missing ones.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Missing {
		if f == field {
			return true
		}
	}
	return false
}

// Controller owns the login form state. All methods are safe for
// concurrent use.
type Controller struct {
	authn     auth.Authenticator
	onSuccess func(username string, s *auth.Session)

	mu              sync.Mutex
	username        string
	password        string
	passwordVisible bool
	errorMessage    string
	hasError        bool
	status          Status
	session         *auth.Session
}

// Option configures a Controller.
type Option func(*Controller)

// WithSuccessHook registers fn to run after a successful login.
func WithSuccessHook(fn func(username string, s *auth.Session)) Option {
	return func(c *Controller) {
		c.onSuccess = fn
	}
}

func NewController(authn auth.Authenticator, opts ...Option) *Controller {
	c := &Controller{authn: authn}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) SetUsername(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = v
}

func (c *Controller) SetPassword(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.password = v
}

// ToggleShowPassword flips between masked and plain rendering.
func (c *Controller) ToggleShowPassword() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passwordVisible = !c.passwordVisible
}

func (c *Controller) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

func (c *Controller) Password() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.password
}

func (c *Controller) PasswordVisible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.passwordVisible
}

// PasswordInputType mirrors an HTML input type: "password" when masked,
// "text" when visible.
func (c *Controller) PasswordInputType() string {
	if c.PasswordVisible() {
		return "text"
	}
	return "password"
}

// MaskedPassword returns the password as it should be displayed.
func (c *Controller) MaskedPassword() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.passwordVisible {
		return c.password
	}
	return strings.Repeat("•", len([]rune(c.password)))
}

// ErrorMessage returns the message to show and whether one is present.
func (c *Controller) ErrorMessage() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorMessage, c.hasError
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Session returns the session of a successful login, or nil.
func (c *Controller) Session() *auth.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Validate checks the required fields without changing any state.
func (c *Controller) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked()
}

func (c *Controller) validateLocked() error {
	err := validate.Struct(fields{Username: c.username, Password: c.password})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, strings.ToLower(fe.Field()))
	}
	return &ValidationError{Missing: missing}
}

// BeginSubmit validates the form, clears any previous error and moves to
// Submitting. The returned credentials must be passed to the authenticator
// and the outcome handed back through Resolve. On validation failure the
// state is left untouched.
func (c *Controller) BeginSubmit() (auth.Credentials, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == Submitting {
		return auth.Credentials{}, ErrSubmitInProgress
	}
	if err := c.validateLocked(); err != nil {
		return auth.Credentials{}, err
	}

	c.errorMessage = ""
	c.hasError = false
	c.session = nil
	c.status = Submitting
	return auth.Credentials{Username: c.username, Password: c.password}, nil
}

// Resolve applies the outcome of the request started by BeginSubmit. Calls
// outside of Submitting are ignored.
func (c *Controller) Resolve(session *auth.Session, err error) Status {
	c.mu.Lock()
	if c.status != Submitting {
		status := c.status
		c.mu.Unlock()
		return status
	}

	if err != nil {
		c.status = Failed
		c.errorMessage = MessageFor(err)
		c.hasError = true
		c.mu.Unlock()
		return Failed
	}

	c.status = Authenticated
	c.session = session
	username := c.username
	hook := c.onSuccess
	c.mu.Unlock()

	if hook != nil {
		hook(username, session)
	}
	return Authenticated
}

// Submit runs a complete submission: validation, one request, resolution.
// A validation failure is returned as *ValidationError; authentication
// failures are reported through ErrorMessage, not the returned error.
func (c *Controller) Submit(ctx context.Context) (Status, error) {
	creds, err := c.BeginSubmit()
	if err != nil {
		return c.Status(), err
	}
	session, err := c.Send(ctx, creds)
	return c.Resolve(session, err), nil
}

// Send performs the request for credentials obtained from BeginSubmit. It
// does not touch form state, so it can run off the UI loop.
func (c *Controller) Send(ctx context.Context, creds auth.Credentials) (*auth.Session, error) {
	return c.authn.Login(ctx, creds)
}

// MessageFor converts an authenticator error into the text shown to the
// user. Server-provided messages are returned verbatim.
func MessageFor(err error) string {
	var apiErr *auth.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		switch {
		case apiErr.StatusCode == http.StatusUnauthorized:
			return MessageWrongCredentials
		case apiErr.StatusCode >= 500:
			return MessageServerUnavailable
		}
		return fmt.Sprintf("Login failed (status %d)", apiErr.StatusCode)
	}
	if errors.Is(err, context.Canceled) {
		return "Login cancelled"
	}
	return MessageServerUnavailable
}
