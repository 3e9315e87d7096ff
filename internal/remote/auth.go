package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"regexp"
	"strings"
)

var namePattern = regexp.MustCompile(`^[a-zA-Zà-žÀ-Ž\s'-]+$`)

// SignupInput is the payload for creating an account
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
}

// FieldError is a locally detected problem with one auth field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Message
}

// Validate checks the signup payload before it is sent
func (in SignupInput) Validate() error {
	if err := validateCredentials(in.Email, in.Password); err != nil {
		return err
	}
	if err := validateName("name", "Name", in.Name); err != nil {
		return err
	}
	return validateName("surname", "Surname", in.Surname)
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" {
		return &FieldError{Field: "email", Message: "Email is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &FieldError{Field: "email", Message: "Invalid email address"}
	}
	if password == "" {
		return &FieldError{Field: "password", Message: "Password is required"}
	}
	if len([]rune(password)) < 8 {
		return &FieldError{Field: "password", Message: "Password must be at least 8 characters"}
	}
	return nil
}

func validateName(field, label, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return &FieldError{Field: field, Message: label + " is required"}
	}
	if !namePattern.MatchString(v) {
		return &FieldError{Field: field, Message: "Invalid characters in " + field}
	}
	if len([]rune(v)) < 2 {
		return &FieldError{Field: field, Message: label + " must be at least 2 characters long"}
	}
	return nil
}

// AuthClient signs users in and up. It never sends a bearer token.
type AuthClient struct {
	c *Client
}

// NewAuthClient creates an auth client for the service rooted at baseURL
func NewAuthClient(baseURL string, opts ...Option) *AuthClient {
	c := NewClient(baseURL, opts...)
	c.tokens = StaticToken("")
	return &AuthClient{c: c}
}

// Login exchanges credentials for a bearer token
func (a *AuthClient) Login(ctx context.Context, email, password string) (string, error) {
	if err := validateCredentials(email, password); err != nil {
		return "", err
	}
	in := map[string]string{"email": email, "password": password}
	var out loginDTO
	if err := a.c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return "", fmt.Errorf("failed to log in: %w", err)
	}
	if out.Token == "" {
		return "", errors.New("failed to log in: no token in response")
	}
	return out.Token, nil
}

// Signup creates an account. It does not log in.
func (a *AuthClient) Signup(ctx context.Context, in SignupInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Surname = strings.TrimSpace(in.Surname)
	if err := a.c.do(ctx, http.MethodPost, "/auth/signup", in, nil); err != nil {
		return fmt.Errorf("failed to sign up: %w", err)
	}
	return nil
}
