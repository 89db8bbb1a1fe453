package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"modforge/internal/app"
)

type resolveOptions struct {
	Pack            string
	Policy          string
	Index           string
	APIURL          string
	OutputDir       string
	Workers         int
	TimeoutSec      int
	Retries         int
	AllowPrerelease bool
	Lock            bool
}

func newResolveCommand() *cobra.Command {
	opts := resolveOptions{}
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a pack and write the manifest",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cmd, opts, false)
		},
	}
	addResolveFlags(cmd, &opts)
	cmd.Flags().BoolVar(&opts.Lock, "lock", false, "Also write the lock file")
	_ = viper.BindPFlag("lock", cmd.Flags().Lookup("lock"))
	return cmd
}

func addResolveFlags(cmd *cobra.Command, opts *resolveOptions) {
	cmd.Flags().StringVar(&opts.Pack, "pack", "", "Pack spec path")
	cmd.Flags().StringVar(&opts.Policy, "policy", "", "Policy document path")
	cmd.Flags().StringVar(&opts.Index, "index", "", "Local metadata catalog path")
	cmd.Flags().StringVar(&opts.APIURL, "api-url", "", "Metadata API base URL")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "out", "Output directory")
	cmd.Flags().IntVar(&opts.Workers, "workers", 4, "Concurrent metadata fetches")
	cmd.Flags().IntVar(&opts.TimeoutSec, "timeout-sec", 0, "Metadata request timeout in seconds")
	cmd.Flags().IntVar(&opts.Retries, "retries", 0, "Metadata request retries")
	cmd.Flags().BoolVar(&opts.AllowPrerelease, "allow-prerelease", true, "Consider beta/alpha versions")

	_ = viper.BindPFlag("pack", cmd.Flags().Lookup("pack"))
	_ = viper.BindPFlag("policy", cmd.Flags().Lookup("policy"))
	_ = viper.BindPFlag("index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("api_url", cmd.Flags().Lookup("api-url"))
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	_ = viper.BindPFlag("timeout_sec", cmd.Flags().Lookup("timeout-sec"))
	_ = viper.BindPFlag("retries", cmd.Flags().Lookup("retries"))
	_ = viper.BindPFlag("allow_prerelease", cmd.Flags().Lookup("allow-prerelease"))
}

func runResolve(ctx context.Context, cmd *cobra.Command, opts resolveOptions, lockOnly bool) error {
	service := newAppService()
	result, err := service.Resolve(ctx, app.ResolveRequest{
		PackPath:        resolveString(cmd, opts.Pack, "pack", "pack"),
		PolicyPath:      resolveString(cmd, opts.Policy, "policy", "policy"),
		IndexPath:       resolveString(cmd, opts.Index, "index", "index"),
		APIURL:          resolveString(cmd, opts.APIURL, "api_url", "api-url"),
		OutputDir:       resolveString(cmd, opts.OutputDir, "output", "output"),
		Workers:         resolveInt(cmd, opts.Workers, "workers", "workers"),
		TimeoutSec:      resolveInt(cmd, opts.TimeoutSec, "timeout_sec", "timeout-sec"),
		Retries:         resolveInt(cmd, opts.Retries, "retries", "retries"),
		AllowPrerelease: resolveBool(cmd, opts.AllowPrerelease, "allow_prerelease", "allow-prerelease"),
		WriteLock:       resolveBool(cmd, opts.Lock, "lock", "lock"),
		LockOnly:        lockOnly,
	})
	printDiagnostics(result.Diagnostics)
	if err != nil {
		return err
	}
	fmt.Printf("resolved: %s (%d mods)\n", result.PackName, result.ModCount)
	return nil
}
