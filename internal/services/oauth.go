package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"

	"milesync-backend/internal/config"
	"milesync-backend/internal/models"
)

// OAuthService drives the authorization-code flow for Google and GitHub
// sign-in. State nonces live in Redis for ten minutes.
type OAuthService struct {
	auth    *AuthService
	redis   *redis.Client
	configs map[string]*oauth2.Config
}

func NewOAuthService(auth *AuthService, redisClient *redis.Client, cfg *config.Config) *OAuthService {
	configs := make(map[string]*oauth2.Config)

	if cfg.GoogleClientID != "" {
		configs["google"] = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/oauth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
		}
	}

	if cfg.GitHubClientID != "" {
		configs["github"] = &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  cfg.OAuthRedirectBase + "/api/v1/auth/oauth/github/callback",
			Scopes:       []string{"read:user", "user:email"},
		}
	}

	return &OAuthService{
		auth:    auth,
		redis:   redisClient,
		configs: configs,
	}
}

// AuthURL generates a state nonce and returns the provider consent URL.
func (s *OAuthService) AuthURL(ctx context.Context, provider string) (string, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return "", &NotFoundError{Message: fmt.Sprintf("OAuth provider %q is not configured", provider)}
	}

	state, err := generateToken(16)
	if err != nil {
		return "", err
	}

	if err := s.redis.Set(ctx, "oauth_state:"+state, provider, 10*time.Minute).Err(); err != nil {
		return "", fmt.Errorf("failed to store OAuth state: %w", err)
	}

	return conf.AuthCodeURL(state), nil
}

// HandleCallback validates state, exchanges the code, fetches the provider
// profile and logs the user in.
func (s *OAuthService) HandleCallback(ctx context.Context, provider, state, code string) (*models.User, *models.AuthTokens, error) {
	conf, ok := s.configs[provider]
	if !ok {
		return nil, nil, &NotFoundError{Message: fmt.Sprintf("OAuth provider %q is not configured", provider)}
	}

	storedProvider, err := s.redis.Get(ctx, "oauth_state:"+state).Result()
	if err != nil || storedProvider != provider {
		return nil, nil, &UnauthorizedError{Message: "Invalid or expired OAuth state"}
	}
	s.redis.Del(ctx, "oauth_state:"+state)

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, nil, &UnauthorizedError{Message: "OAuth code exchange failed"}
	}

	client := conf.Client(ctx, token)

	switch provider {
	case "google":
		return s.loginGoogle(ctx, client)
	case "github":
		return s.loginGitHub(ctx, client)
	default:
		return nil, nil, &NotFoundError{Message: "Unknown OAuth provider"}
	}
}

func (s *OAuthService) loginGoogle(ctx context.Context, client *http.Client) (*models.User, *models.AuthTokens, error) {
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch Google profile: %w", err)
	}
	defer resp.Body.Close()

	var info struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, nil, fmt.Errorf("failed to decode Google profile: %w", err)
	}

	return s.auth.LoginOAuthUser(ctx, "google", info.ID, info.Email, info.Name, info.Picture)
}

func (s *OAuthService) loginGitHub(ctx context.Context, client *http.Client) (*models.User, *models.AuthTokens, error) {
	resp, err := client.Get("https://api.github.com/user")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch GitHub profile: %w", err)
	}
	defer resp.Body.Close()

	var info struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		Name      string `json:"name"`
		Email     string `json:"email"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, nil, fmt.Errorf("failed to decode GitHub profile: %w", err)
	}

	email := info.Email
	if email == "" {
		// Users can hide their email on the profile. The emails endpoint
		// still lists the primary verified address.
		email, err = s.fetchGitHubPrimaryEmail(client)
		if err != nil {
			return nil, nil, err
		}
	}

	name := info.Name
	if name == "" {
		name = info.Login
	}

	return s.auth.LoginOAuthUser(ctx, "github", fmt.Sprintf("%d", info.ID), email, name, info.AvatarURL)
}

func (s *OAuthService) fetchGitHubPrimaryEmail(client *http.Client) (string, error) {
	resp, err := client.Get("https://api.github.com/user/emails")
	if err != nil {
		return "", fmt.Errorf("failed to fetch GitHub emails: %w", err)
	}
	defer resp.Body.Close()

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("failed to decode GitHub emails: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", &ValidationError{Fields: map[string]string{"github": "No verified primary email on GitHub account"}}
}
