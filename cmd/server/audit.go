package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"farmacia-bermat/backend/internal/domain"
	"farmacia-bermat/backend/internal/service"
)

func newAuditCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run the AI sales and inventory audit over the seeded data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			return runAudit(ctx, a.service, cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	return cmd
}

// cliActor runs audits from the command line with administrator rights.
var cliActor = domain.Actor{UserID: "cli", Username: "cli", Role: domain.RoleAdmin}

func runAudit(ctx context.Context, svc *service.Service, out io.Writer, asJSON bool) error {
	report, err := svc.RunAudit(service.WithActor(ctx, cliActor))
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	provider := report.Provider
	if provider == "" {
		provider = "none"
	}
	fmt.Fprintf(out, "Auditoria inteligente (%s)\n\n%s\n", provider, report.Summary)
	return nil
}
