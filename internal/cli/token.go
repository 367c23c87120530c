package cli

import (
	"fmt"
	"time"

	"atsscorer/internal/auth"
	"atsscorer/internal/errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a JWT bearer token for the HTTP API",
	Long: `Issue an HS256 JWT signed with server.jwtSecret. The token's subject is the
user id stored resumes are scoped to; reuse --subject to keep access to the
same documents.`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var tokenFlags struct {
	Subject string
	Email   string
	TTL     time.Duration
}

func init() {
	tokenCmd.Flags().StringVar(&tokenFlags.Subject, "subject", "", "User id (UUID); a new one is generated when empty")
	tokenCmd.Flags().StringVar(&tokenFlags.Email, "email", "", "Email claim")
	tokenCmd.Flags().DurationVar(&tokenFlags.TTL, "ttl", 0, "Token lifetime (default: server.tokenTTL)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "server.jwtSecret is not set; cannot sign tokens", nil)
	}

	tokens, err := auth.NewTokenService(cfg.Server.JWTSecret, cfg.Server.JWTIssuer, cfg.Server.TokenTTL)
	if err != nil {
		return err
	}

	subject := uuid.New()
	if tokenFlags.Subject != "" {
		if subject, err = uuid.Parse(tokenFlags.Subject); err != nil {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest, "subject must be a UUID", err)
		}
	}

	token, expires, err := tokens.Issue(subject, tokenFlags.Email, tokenFlags.TTL)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, token)
	fmt.Fprintf(out, "# subject: %s\n# expires: %s\n", subject, expires.UTC().Format(time.RFC3339))
	return nil
}
