package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"wordle/internal/models"
	"wordle/internal/repository"
	"wordle/internal/security"
	"wordle/internal/validation"
)

// AuthService handles account registration and sign-in
type AuthService struct {
	users  *repository.UserRepository
	tokens *security.TokenManager
	email  *EmailService
	wg     sync.WaitGroup
}

// NewAuthService creates a new auth service. email may be nil.
func NewAuthService(users *repository.UserRepository, tokens *security.TokenManager, email *EmailService) *AuthService {
	return &AuthService{users: users, tokens: tokens, email: email}
}

// RegisterRequest holds the fields of a new account
type RegisterRequest struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     string
}

// Register creates an account and returns an access token for it
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (string, *models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validation.ValidateUsername(req.Username); err != nil {
		return "", nil, invalid(err)
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return "", nil, invalid(err)
	}
	if err := validation.ValidateName("firstName", req.FirstName); err != nil {
		return "", nil, invalid(err)
	}
	if err := validation.ValidateName("lastName", req.LastName); err != nil {
		return "", nil, invalid(err)
	}
	if req.Email != "" {
		if err := validation.ValidateEmail(req.Email); err != nil {
			return "", nil, invalid(err)
		}
	}

	exists, err := s.users.UsernameExists(ctx, req.Username)
	if err != nil {
		return "", nil, err
	}
	if exists {
		return "", nil, ErrUsernameTaken
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, &models.User{
		Username:     req.Username,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        req.Email,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return "", nil, ErrUsernameTaken
	}
	if err != nil {
		return "", nil, err
	}
	log.Printf("User %d registered as %s", user.ID, user.Username)

	s.sendWelcome(ctx, user)

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Authenticate checks credentials and returns an access token
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", nil, err
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// OAuthProfile is what a provider asserted about the signed-in user.
// EmailVerified is true only when the provider vouches for Email.
type OAuthProfile struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
}

// OAuthLogin signs in with a provider identity. An unknown identity is linked
// to an existing account only when both the provider and that account have
// verified the same e-mail; otherwise a new account is created.
func (s *AuthService) OAuthLogin(ctx context.Context, profile OAuthProfile) (string, *models.User, error) {
	if profile.Provider == "" || profile.Subject == "" {
		return "", nil, &Error{Kind: KindValidation, Message: "missing provider identity"}
	}
	profile.Email = strings.TrimSpace(profile.Email)

	user, err := s.users.GetUserByOAuth(ctx, profile.Provider, profile.Subject)
	if err != nil {
		return "", nil, err
	}

	if user == nil && profile.Email != "" && profile.EmailVerified {
		existing, err := s.users.GetVerifiedUserByEmail(ctx, profile.Email)
		if err != nil {
			return "", nil, err
		}
		if existing != nil {
			if err := s.users.LinkOAuth(ctx, existing.ID, profile.Provider, profile.Subject); err != nil {
				return "", nil, err
			}
			log.Printf("Linked %s identity to user %d", profile.Provider, existing.ID)
			user = existing
		}
	}

	if user == nil {
		username, err := s.uniqueUsername(ctx, usernameBase(profile.Email, profile.Name))
		if err != nil {
			return "", nil, err
		}
		first, last := splitName(profile.Name)
		user, err = s.users.CreateUser(ctx, &models.User{
			Username:      username,
			FirstName:     first,
			LastName:      last,
			Email:         profile.Email,
			EmailVerified: profile.EmailVerified,
			OAuthProvider: profile.Provider,
			OAuthSubject:  profile.Subject,
		})
		if err != nil {
			return "", nil, fmt.Errorf("failed to create oauth user: %w", err)
		}
		log.Printf("User %d registered via %s as %s", user.ID, profile.Provider, user.Username)
		s.sendWelcome(ctx, user)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Wait blocks until queued welcome e-mails have been handed to the mail service
func (s *AuthService) Wait() {
	s.wg.Wait()
}

func (s *AuthService) sendWelcome(ctx context.Context, user *models.User) {
	if s.email == nil || !s.email.IsEnabled() || user.Email == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := s.email.SendWelcomeEmail(ctx, user.Email, user.FirstName); err != nil {
			log.Printf("Failed to send welcome email to user %d: %v", user.ID, err)
		}
	}()
}

func (s *AuthService) uniqueUsername(ctx context.Context, base string) (string, error) {
	candidate := base
	for i := 2; i < 1000; i++ {
		exists, err := s.users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := strconv.Itoa(i)
		candidate = truncate(base, 32-len(suffix)) + suffix
	}
	return "", fmt.Errorf("could not derive a free username from %q", base)
}

// usernameBase derives a valid username from an e-mail local part or a display name
func usernameBase(email, name string) string {
	source := name
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		source = local
	}

	var b strings.Builder
	for _, r := range source {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}
	base := strings.ToLower(b.String())
	if base == "" {
		base = "player"
	}
	for len(base) < 3 {
		base += "_"
	}
	return truncate(base, 32)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	first, last, _ = strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}
