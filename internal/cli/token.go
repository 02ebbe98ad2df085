package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"policyPortal/pkg/utils"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local API testing",
	Long: `Sign a JWT the API accepts. Tokens are normally issued by the portal's
login service; this is for local development against the echo server.

Examples:
  JWT_SECRET=dev policyctl token --user 7
  JWT_SECRET=dev policyctl token --user 1 --role ADMIN --ttl 1h`,
	RunE: runToken,
}

var (
	tokenUser uint
	tokenRole string
	tokenTTL  time.Duration
)

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().UintVar(&tokenUser, "user", 0, "user id claim")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "USER", "role claim (USER or ADMIN)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if tokenUser == 0 {
		return errors.New("--user must be a positive id")
	}
	utils.SetJWTSecret(secret)

	token, err := utils.GenerateJWT(tokenUser, tokenRole, tokenTTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
