package main

import (
	"fmt"

	"github.com/margindesk/margindesk_backend/config"
	"github.com/margindesk/margindesk_backend/utils"
	"github.com/spf13/cobra"
)

var (
	tokenUserID int
	tokenRole   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token signed with TOKEN_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.LoadSettings()
		if err != nil {
			return err
		}
		tok, err := utils.JwtGenerate(settings.AuthSecret, tokenUserID, tokenRole, settings.TokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().IntVar(&tokenUserID, "user", 0, "User id placed in the token")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "admin", "Role placed in the token")
}
