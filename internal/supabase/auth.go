package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/gotrue-go"
)

// AuthClient talks to Supabase Auth on behalf of a signed-in user.
type AuthClient struct {
	auth gotrue.Client
}

func NewAuthClient(auth gotrue.Client) *AuthClient {
	return &AuthClient{auth: auth}
}

// SignOut revokes the session that issued accessToken.
func (a *AuthClient) SignOut(_ context.Context, accessToken string) error {
	if err := a.auth.WithToken(accessToken).Logout(); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}
