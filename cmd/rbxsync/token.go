package main

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rbxsync/rbxsync-server/internal/auth"
	"github.com/spf13/cobra"
)

var subjectRegex = regexp.MustCompile(`^[A-Za-z0-9._@-]+$`)

var knownScopes = map[string]bool{
	auth.ScopeSync:    true,
	auth.ScopeExtract: true,
	auth.ScopeExec:    true,
	auth.ScopeAdmin:   true,
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the control routes",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
	cmd.Flags().String("secret", "", "signing secret shared with the server")
	cmd.Flags().String("subject", "cli", "who the token is for")
	cmd.Flags().StringSlice("scope", []string{auth.ScopeSync, auth.ScopeExtract}, "granted scopes: sync, extract, exec, admin")
	cmd.Flags().Duration("ttl", 30*24*time.Hour, "token lifetime; 0 for no expiry")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	subject, _ := cmd.Flags().GetString("subject")
	scopes, _ := cmd.Flags().GetStringSlice("scope")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	if err := validateTokenInputs(cfg.Secret, subject, scopes, ttl); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	jm, err := auth.NewJWTManager(cfg.Secret)
	if err != nil {
		return err
	}
	token, err := jm.GenerateToken(context.Background(), subject, scopes, ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func validateTokenInputs(secret, subject string, scopes []string, ttl time.Duration) error {
	if secret == "" {
		return fmt.Errorf("a secret is required (--secret or RBXSYNC_SECRET)")
	}
	if !subjectRegex.MatchString(subject) {
		return fmt.Errorf("invalid subject %q", subject)
	}
	if len(scopes) == 0 {
		return fmt.Errorf("at least one scope is required")
	}
	for _, s := range scopes {
		if !knownScopes[s] {
			return fmt.Errorf("unknown scope %q", s)
		}
	}
	if ttl < 0 {
		return fmt.Errorf("ttl must not be negative")
	}
	return nil
}
