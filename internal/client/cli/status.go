package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/bookshelf/internal/client/auth"
)

func (c *Cli) runStatus(ctx context.Context) error {
	c.io.Println("=== Authentication Status ===")
	c.io.Println()

	authData, err := c.auth.Status(ctx)
	if err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			c.io.Println("Status: Not authenticated")
			c.io.Println()
			c.io.Println("Run 'bookshelf login' to authenticate.")
			return nil
		}
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	now := c.now()

	if authData.RefreshExpired(now) {
		c.io.Println("Status: Session expired")
		c.io.Printf("Email: %s\n", authData.Email)
		c.io.Println()
		c.io.Println("Run 'bookshelf login' to authenticate again.")
		return nil
	}

	accessExpiresAt := time.Unix(authData.ExpiresAt, 0)
	refreshExpiresAt := time.Unix(authData.RefreshUntil, 0)

	c.io.Println("Status: Authenticated")
	c.io.Printf("Name:    %s\n", authData.Name)
	c.io.Printf("Email:   %s\n", authData.Email)
	c.io.Printf("User ID: %s\n", authData.UserID)
	if authData.AccessExpired(now) {
		c.io.Println("Access token: expired (will be refreshed on next request)")
	} else {
		c.io.Printf("Access token expires: %s (%s remaining)\n",
			accessExpiresAt.Format(time.RFC3339), accessExpiresAt.Sub(now).Round(time.Second))
	}
	c.io.Printf("Session expires: %s\n", refreshExpiresAt.Format(time.RFC3339))

	return nil
}
