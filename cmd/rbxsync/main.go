package main

import (
	"os"
	"time"

	"github.com/rbxsync/rbxsync-server/internal/config"
	"github.com/spf13/cobra"
)

// @title RbxSync Server API
// @version 1.0
// @description Bridge between a Roblox Studio plugin and local project files.
// @description The plugin long-polls /request for commands and posts results to /response.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:44755
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	root := &cobra.Command{
		Use:           "rbxsync",
		Short:         "Sync Roblox Studio games with local files",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().String("config", "", "path to a YAML config file")

	root.AddCommand(serveCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(tokenCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves env, then --config, then any flag the user set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("host") {
		cfg.Host, _ = flags.GetString("host")
	}
	if changed("port") {
		cfg.Port, _ = flags.GetInt("port")
	}
	if changed("poll-timeout") {
		cfg.PollTimeout, _ = flags.GetDuration("poll-timeout")
	}
	if changed("request-timeout") {
		cfg.RequestTimeout, _ = flags.GetDuration("request-timeout")
	}
	if changed("extract-timeout") {
		cfg.ExtractTimeout, _ = flags.GetDuration("extract-timeout")
	}
	if changed("watermark-dsn") {
		cfg.WatermarkDSN, _ = flags.GetString("watermark-dsn")
	}
	if changed("secret") {
		cfg.Secret, _ = flags.GetString("secret")
	}
	if changed("log-file") {
		cfg.LogFile, _ = flags.GetString("log-file")
	}
	if changed("server") {
		cfg.ServerURL, _ = flags.GetString("server")
	}
	if changed("trace") {
		cfg.Trace, _ = flags.GetBool("trace")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "listen host (default 127.0.0.1)")
	cmd.Flags().Int("port", 0, "listen port (default 44755)")
	cmd.Flags().Duration("poll-timeout", 0, "how long a plugin poll waits for a command")
	cmd.Flags().Duration("request-timeout", 0, "how long to wait for the plugin to answer a command")
	cmd.Flags().String("watermark-dsn", "", "watermark store; empty for per-project SQLite, postgres://... for shared")
	cmd.Flags().String("secret", "", "signing secret for control-surface tokens")
	cmd.Flags().String("log-file", "", "also write logs to this rotating file")
	cmd.Flags().Bool("trace", false, "export traces to stdout")
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("server", "", "rbxsync server URL (default http://127.0.0.1:44755)")
	cmd.Flags().String("secret", "", "signing secret shared with the server")
	cmd.Flags().Duration("extract-timeout", 0, "how long extract_game waits for the plugin")
	cmd.Flags().String("log-file", "", "also write logs to this rotating file")
	cmd.Flags().Bool("trace", false, "export traces to stderr")
}

// shutdownTimeout bounds graceful shutdown of the HTTP server and exporters.
const shutdownTimeout = 30 * time.Second
