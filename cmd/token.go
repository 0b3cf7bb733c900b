package cmd

import (
	"errors"
	"fmt"
	"time"

	"haven/middleware"

	"github.com/spf13/cobra"
)

var (
	tokenIdentity middleware.Identity
	tokenTTL      time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a development token signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Auth.JWTSecret == "" {
			return errors.New("JWT_SECRET is not set")
		}
		tok, err := middleware.IssueToken(tokenIdentity, []byte(cfg.Auth.JWTSecret), tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	f := tokenCmd.Flags()
	f.StringVar(&tokenIdentity.UserID, "sub", "", "user id (required)")
	f.StringVar(&tokenIdentity.Email, "email", "", "email claim")
	f.StringVar(&tokenIdentity.FirstName, "first-name", "", "first name claim")
	f.StringVar(&tokenIdentity.LastName, "last-name", "", "last name claim")
	f.StringVar(&tokenIdentity.ProfileImageURL, "profile-image-url", "", "profile image claim")
	f.DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime (0 for no expiry)")
	_ = tokenCmd.MarkFlagRequired("sub")
}
