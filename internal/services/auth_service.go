package services

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/domain"
	"storefront/internal/repos"
	"storefront/internal/validate"
)

type AuthService struct {
	Users  *repos.UserRepo
	Tokens *TokenIssuer
}

func NewAuthService(users *repos.UserRepo, tokens *TokenIssuer) *AuthService {
	return &AuthService{Users: users, Tokens: tokens}
}

// Session is what a successful register or login returns to the client.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register creates a customer account and signs it in.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*Session, error) {
	u, err := s.create(ctx, username, email, password, domain.RoleUser)
	if err != nil {
		return nil, err
	}
	return s.session(u)
}

// CreateAdmin adds another administrator. Callers must already be admins.
func (s *AuthService) CreateAdmin(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.create(ctx, username, email, password, domain.RoleAdmin)
}

func (s *AuthService) create(ctx context.Context, username, email, password, role string) (*domain.User, error) {
	username, okU := validate.Username(username)
	email, okE := validate.Email(email)
	if username == "" || email == "" || password == "" {
		return nil, Validationf("All fields are required")
	}
	if !okU {
		return nil, Validationf("Username must be 3-50 letters, digits, dots, dashes or underscores")
	}
	if !okE {
		return nil, Validationf("Invalid email address")
	}
	if !validate.Password(password) {
		return nil, Validationf("Password must be at least 6 characters")
	}

	exists, err := s.Users.Exists(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{Username: username, Email: email, Hash: string(hash), Role: role}
	if err := s.Users.Create(ctx, u); err != nil {
		// lost a race against a concurrent registration
		if exists, _ := s.Users.Exists(ctx, username, email); exists {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return u, nil
}

// Login authenticates by email or username. Accounts of a different role are
// rejected with the same error as a wrong password.
func (s *AuthService) Login(ctx context.Context, identifier, password, role string) (*Session, error) {
	if identifier == "" || password == "" {
		return nil, Validationf("Email/username and password are required")
	}
	u, err := s.Users.ByLogin(ctx, identifier, role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errInvalidLogin
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, errInvalidLogin
	}
	return s.session(u)
}

func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return u, nil
}

func (s *AuthService) Verify(token string) (domain.Identity, error) {
	return s.Tokens.Verify(token)
}

func (s *AuthService) session(u *domain.User) (*Session, error) {
	tok, err := s.Tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: tok, User: u}, nil
}
