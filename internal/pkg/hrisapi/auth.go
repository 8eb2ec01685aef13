package hrisapi

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrNoBearerToken = errors.New("no bearer token to forward to the attendance service")

// TokenProvider supplies the credential sent with every upstream request.
type TokenProvider interface {
	Token(ctx context.Context) (*oauth2.Token, error)
}

type bearerCtxKey struct{}

// WithBearer stores the caller's raw bearer token for ForwardedToken.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerCtxKey{}, token)
}

func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerCtxKey{}).(string)
	return token, ok && token != ""
}

type forwardedToken struct{}

// ForwardedToken re-uses the bearer token of the incoming request, so the
// upstream API sees the employee's own identity.
func ForwardedToken() TokenProvider {
	return forwardedToken{}
}

func (forwardedToken) Token(ctx context.Context) (*oauth2.Token, error) {
	raw, ok := BearerFromContext(ctx)
	if !ok {
		return nil, ErrNoBearerToken
	}
	return &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}, nil
}

type clientCredentialsToken struct {
	source oauth2.TokenSource
}

// ClientCredentials authenticates as a service account. Tokens are cached and
// refreshed by the underlying oauth2 token source.
func ClientCredentials(clientID, clientSecret, tokenURL string, scopes []string) TokenProvider {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}
	return &clientCredentialsToken{
		source: cfg.TokenSource(context.Background()),
	}
}

func (c *clientCredentialsToken) Token(_ context.Context) (*oauth2.Token, error) {
	return c.source.Token()
}

// BearerFromHeader extracts the token of an "Authorization: Bearer ..." header.
func BearerFromHeader(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
