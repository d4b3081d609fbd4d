package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/neboloop/cell/internal/client"
	"github.com/neboloop/cell/internal/credential"
	"github.com/neboloop/cell/internal/provider"
)

// DoctorCmd checks configuration, provider credentials and, with --server,
// a running instance.
func DoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and diagnose issues",
		Long: `Run diagnostics on your cell setup.

Checks:
  - Configuration
  - Provider API keys
  - Provider construction
  - Server health (with --server)`,
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor(cmd.Context())
		},
	}
	addServerFlag(cmd)
	return cmd
}

type checkResult struct {
	name    string
	status  string // "ok", "warn", "error"
	message string
}

func runDoctor(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Println("\033[1mcell doctor\033[0m")
	fmt.Println("===========")

	var results []checkResult
	results = append(results, checkConfig()...)
	results = append(results, checkProviders()...)
	if serverURL != "" {
		results = append(results, checkServer(ctx))
	}

	var okCount, warnCount, errorCount int
	for _, r := range results {
		switch r.status {
		case "ok":
			fmt.Printf("\033[32m✓\033[0m %s: %s\n", r.name, r.message)
			okCount++
		case "warn":
			fmt.Printf("\033[33m!\033[0m %s: %s\n", r.name, r.message)
			warnCount++
		default:
			fmt.Printf("\033[31m✗\033[0m %s: %s\n", r.name, r.message)
			errorCount++
		}
	}
	fmt.Printf("\n%d ok, %d warnings, %d errors\n", okCount, warnCount, errorCount)
}

func checkConfig() []checkResult {
	c := ServerConfig
	if err := c.Validate(); err != nil {
		return []checkResult{{"config", "error", err.Error()}}
	}
	results := []checkResult{{"config", "ok", fmt.Sprintf("listening on %s", c.Addr())}}
	if len(c.Prediction.AllowedEndpoints) == 0 {
		results = append(results, checkResult{"allowed endpoints", "warn", "none configured, any /api/ path is accepted"})
	} else {
		results = append(results, checkResult{"allowed endpoints", "ok", fmt.Sprintf("%d endpoints", len(c.Prediction.AllowedEndpoints))})
	}
	return results
}

func checkProviders() []checkResult {
	var results []checkResult
	for _, p := range ServerConfig.Providers() {
		name := "provider " + credential.KeychainAccount(p)
		if credential.NeedsKey(p.Kind()) {
			if _, src := credential.APIKey(p); src == credential.SourceNone {
				results = append(results, checkResult{name, "error",
					fmt.Sprintf("no API key (set %s or run 'cell key set %s')", credential.EnvVar(p.Kind()), credential.KeychainAccount(p))})
				continue
			}
		}
		if _, err := provider.New(p); err != nil {
			results = append(results, checkResult{name, "error", err.Error()})
			continue
		}
		results = append(results, checkResult{name, "ok", p.Kind()})
	}
	return results
}

func checkServer(ctx context.Context) checkResult {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	h, err := client.New(serverURL).Health(ctx)
	if err != nil {
		return checkResult{"server", "error", err.Error()}
	}
	return checkResult{"server", "ok", fmt.Sprintf("%s, version %s, provider %s", h.Status, h.Version, h.Provider)}
}
