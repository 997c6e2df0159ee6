package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbitech/timeline2svg/internal/cache"
	"github.com/dbitech/timeline2svg/internal/diag"
	"github.com/dbitech/timeline2svg/internal/github"
	"github.com/dbitech/timeline2svg/internal/logo"
	"github.com/dbitech/timeline2svg/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve timeline and activity widgets over HTTP.",
	Long: `Serve renders widgets on request:

  GET  /timeline?data=<csv>     timeline from inline CSV
  POST /timeline                timeline from the CSV request body
  GET  /activity?user=<login>   GitHub contribution chart
  GET  /healthz

Rendered SVGs are cached by request. Every flag can also be set through a
TIMELINE_* environment variable, e.g. TIMELINE_CACHE_BACKEND=sqlite.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		maxAge := viper.GetDuration("max-age")
		backend := cache.Backend(viper.GetString("cache-backend"))
		store, err := cache.Open(ctx, backend, viper.GetString("cache-path"), maxAge)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		diag.Log.Infof("Using %s cache", backend)

		deps := server.Deps{Cache: store, Log: diag.Log, MaxAge: maxAge}
		if cfg.Logos.Resolve {
			r := logo.NewResolver(cfg.Logos.Timeout, diag.Log)
			if !cfg.Logos.AllowPrivate {
				r.DenyPrivateNetworks()
			}
			deps.Logos = r
		}
		if token := viper.GetString("github-token"); token != "" {
			deps.Activity = github.NewClient(github.DefaultEndpoint, token, diag.Log)
		} else {
			diag.Log.Warn("No GitHub token set, /activity?user= is disabled")
		}

		return server.New(cfg, deps).Start(ctx, viper.GetString("listen"))
	},
}
