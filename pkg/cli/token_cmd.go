package cli

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var (
		secret  string
		subject string
		email   string
		name    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a local HS256 JWT for development",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			if subject == "" {
				return fmt.Errorf("--sub is required")
			}

			now := time.Now()
			claims := jwt.MapClaims{
				"sub": subject,
				"iat": now.Unix(),
				"exp": now.Add(ttl).Unix(),
			}
			if email != "" {
				claims["email"] = email
			}
			if name != "" {
				claims["name"] = name
			}

			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
			if err != nil {
				return fmt.Errorf("sign token: %w", err)
			}
			cmd.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (matches JWT_SECRET)")
	cmd.Flags().StringVar(&subject, "sub", "", "Token subject")
	cmd.Flags().StringVar(&email, "email", "", "Email claim (matched against platform users)")
	cmd.Flags().StringVar(&name, "name", "", "Name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}
