package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const (
	organizationIDKey contextKey = "organization_id"
	userIDKey         contextKey = "user_id"
	keyPrefixKey      contextKey = "key_prefix"
	apiKeyScopesKey   contextKey = "api_key_scopes"
)

func SetOrganizationID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, organizationIDKey, id)
}

func GetOrganizationID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(organizationIDKey).(int64)
	return id, ok
}

func setUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// GetUserID returns the authenticated user, when the API key is bound to
// one. Organization-wide keys have no user.
func GetUserID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(userIDKey).(int64)
	return id, ok
}

func setKeyPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, keyPrefixKey, prefix)
}

func getKeyPrefix(r *http.Request) (string, bool) {
	prefix, ok := r.Context().Value(keyPrefixKey).(string)
	return prefix, ok
}

func setScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, apiKeyScopesKey, scopes)
}

func getScopes(r *http.Request) []string {
	scopes, _ := r.Context().Value(apiKeyScopesKey).([]string)
	return scopes
}

// ExportedKeyPrefixKey returns the context key for key_prefix (for testing).
func ExportedKeyPrefixKey() contextKey {
	return keyPrefixKey
}
