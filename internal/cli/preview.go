package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"modforge/internal/app"
)

type previewOptions struct {
	Pack       string
	Policy     string
	Index      string
	APIURL     string
	Workers    int
	TimeoutSec int
	Retries    int
}

func newPreviewCommand() *cobra.Command {
	opts := previewOptions{}
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show what the policy would do to the closure, without resolving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPreview(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Pack, "pack", "", "Pack spec path")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "Policy document path")
	cmd.Flags().StringVar(&opts.Index, "index", "", "Local metadata catalog path")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "Metadata API base URL")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Concurrent metadata fetches")
	cmd.Flags().IntVar(&opts.TimeoutSec, "timeout-sec", 0, "Metadata request timeout in seconds")
	cmd.Flags().IntVar(&opts.Retries, "retries", 0, "Metadata request retries")
	_ = viper.BindPFlag("pack", cmd.Flags().Lookup("pack"))
	_ = viper.BindPFlag("policy", cmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("api_url", cmd.Flags().Lookup("api-url"))
	return cmd
}

func runPreview(ctx context.Context, cmd *cobra.Command, opts previewOptions) error {
	service := newAppService()
	result, err := service.Preview(ctx, app.PreviewRequest{
		PackPath:   resolveString(cmd, opts.Pack, "pack", "pack"),
		PolicyPath: resolveString(cmd, opts.Policy, "policy", "policy"),
		IndexPath:  resolveString(cmd, opts.Index, "index", "index"),
		APIURL:     resolveString(cmd, opts.APIURL, "api_url", "api-url"),
		Workers:    opts.Workers,
		TimeoutSec: opts.TimeoutSec,
		Retries:    opts.Retries,
	})
	if err != nil {
		return err
	}
	fmt.Printf("policy preview for %s\n", result.PackName)
	for _, sub := range result.Plan.Substitutions {
		fmt.Printf("  substitute %s -> %s\n", sub.ModID, sub.Target)
	}
	for _, exclusion := range result.Plan.Exclusions {
		fmt.Printf("  exclude %s: %s\n", exclusion.ModID, strings.Join(exclusion.Versions, ", "))
	}
	for _, pref := range result.Plan.Preferences {
		fmt.Printf("  prefer %s: %s\n", pref.ModID, pref.Constraint)
	}
	for _, pair := range result.Plan.Exemptions {
		fmt.Printf("  allow conflict %s\n", pair)
	}
	printDiagnostics(result.Diagnostics)
	return nil
}
