package middleware

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"customerdash/backend/config"
)

// Define context keys
type contextKey string

const UserIDKey contextKey = "user_id"
const UserRoleKey contextKey = "user_role"

// DevUserID is the identity attached to requests when token verification
// is disabled.
const DevUserID = "admin-user-1"

// TokenVerifier checks a Firebase ID token.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// Authenticator verifies bearer tokens. A nil verifier means development
// mode: every request is accepted as DevUserID with the admin role.
type Authenticator struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewAuthenticator(verifier TokenVerifier, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{verifier: verifier, logger: logger}
}

// InitializeFirebase builds a Firebase auth client from the configured
// credentials. It returns a nil client and no error when no credentials
// are configured.
func InitializeFirebase(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) (*auth.Client, error) {
	var opt option.ClientOption
	switch {
	case cfg.CredentialsJSON != "":
		logger.Info("using JSON Firebase credentials from environment")
		opt = option.WithCredentialsJSON([]byte(cfg.CredentialsJSON))
	case cfg.CredentialsBase64 != "":
		logger.Info("using base64-encoded Firebase credentials from environment")
		credBytes, err := base64.StdEncoding.DecodeString(cfg.CredentialsBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 Firebase credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(credBytes)
	case cfg.CredentialsFile != "":
		logger.Info("using Firebase credentials file", zap.String("path", cfg.CredentialsFile))
		opt = option.WithCredentialsFile(cfg.CredentialsFile)
	default:
		logger.Warn("no Firebase credentials found, running with auth checks disabled")
		return nil, nil
	}

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get Firebase Auth client: %w", err)
	}
	logger.Info("Firebase Admin SDK initialized")
	return client, nil
}

// Middleware verifies Firebase JWT tokens from the Authorization header
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.verifier == nil {
			ctx := context.WithValue(r.Context(), UserIDKey, DevUserID)
			ctx = context.WithValue(ctx, UserRoleKey, RoleAdmin)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// CORS preflight
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		idToken := extractToken(r.Header.Get("Authorization"))
		if idToken == "" {
			idToken = r.URL.Query().Get("auth")
		}
		if idToken == "" {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}

		token, err := a.verifier.VerifyIDToken(r.Context(), idToken)
		if err != nil {
			a.logger.Info("rejected token", zap.Error(err))
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, token.UID)
		ctx = context.WithValue(ctx, UserRoleKey, roleFromClaims(token.Claims))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken gets the token from the Authorization header
func extractToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, "Bearer ")
	if len(parts) != 2 {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

func roleFromClaims(claims map[string]interface{}) string {
	if role, ok := claims["role"].(string); ok && validRole(role) {
		return role
	}
	return RoleEditor
}

// GetUserIDFromContext retrieves the user ID from the request context
func GetUserIDFromContext(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetUserRoleFromContext retrieves the role attached by the authenticator.
func GetUserRoleFromContext(r *http.Request) string {
	role, ok := r.Context().Value(UserRoleKey).(string)
	if !ok {
		return ""
	}
	return role
}

// VerifierOrNil adapts a possibly nil *auth.Client to TokenVerifier so a
// nil client yields a nil interface.
func VerifierOrNil(c *auth.Client) TokenVerifier {
	if c == nil {
		return nil
	}
	return c
}
