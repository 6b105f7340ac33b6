package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OldStager01/alert-arbiter/internal/auth"
	"github.com/OldStager01/alert-arbiter/pkg/validation"
)

var (
	tokenOperator string
	tokenRole     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API token signed with api.jwt_secret",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := validation.ValidateOperator(tokenOperator); err != nil {
			return err
		}

		duration := cfg.API.JWTDuration
		if duration <= 0 {
			duration = 24 * time.Hour
		}
		svc := auth.NewService(cfg.API.JWTSecret, cfg.API.JWTIssuer, duration)

		token, err := svc.GenerateToken(tokenOperator, tokenRole)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "operator name embedded in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", auth.RoleViewer, "viewer or operator")
	_ = tokenCmd.MarkFlagRequired("operator")
}
