package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reelpress/internal/signer"
)

func newKeygenCommand(ctx *commandContext) *cobra.Command {
	var commonName string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a self-signed signing identity at the configured paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.Signing.Certificate == "" || cfg.Signing.Key == "" {
				return fmt.Errorf("signing.certificate and signing.key must be set")
			}
			if _, err := os.Stat(cfg.Signing.Certificate); err == nil {
				return fmt.Errorf("certificate already exists at %s", cfg.Signing.Certificate)
			}

			s, err := signer.SelfSigned(commonName)
			if err != nil {
				return err
			}
			if err := s.WriteFiles(cfg.Signing.Certificate, cfg.Signing.Key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s\n", cfg.Signing.Certificate, cfg.Signing.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&commonName, "cn", "reelpress signing identity", "Certificate common name")
	return cmd
}
