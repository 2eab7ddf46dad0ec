package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/debatehq/debate-service/internal/security"
)

// hashPasswordCommand produces the bcrypt hash expected by ADMIN_PASSWORD_HASH.
func hashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Hash an admin password for configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			var plain string
			if len(args) > 0 {
				plain = args[0]
			} else {
				reader := bufio.NewReader(cmd.InOrStdin())
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				plain = strings.TrimRight(line, "\r\n")
			}
			if plain == "" {
				return errors.New("password must not be empty")
			}
			hash, err := security.HashPassword(plain)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
