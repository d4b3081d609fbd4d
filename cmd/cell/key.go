package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neboloop/cell/internal/credential"
	"github.com/neboloop/cell/internal/keyring"
)

// KeyCmd manages provider API keys in the OS keychain.
func KeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage provider API keys in the OS keychain",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <provider>",
		Short: "Store an API key (read from stdin)",
		Long: `Store an API key for a provider. The key is read from stdin so it
does not end up in shell history.

Examples:
  cell key set openai
  echo "$KEY" | cell key set anthropic`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !keyring.Available() {
				return errors.New("keychain is not available on this system")
			}
			fmt.Fprintf(os.Stderr, "API key for %s: ", args[0])
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			key := strings.TrimSpace(line)
			if key == "" {
				if err != nil {
					return fmt.Errorf("read key: %w", err)
				}
				return errors.New("empty key")
			}
			if err := keyring.Set(strings.ToLower(args[0]), key); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, "Stored.")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <provider>",
		Short: "Remove a stored API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := keyring.Delete(strings.ToLower(args[0]))
			if keyring.IsNotFound(err) {
				fmt.Fprintf(os.Stderr, "No key stored for %s\n", args[0])
				return nil
			}
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where each configured provider's key comes from",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range ServerConfig.Providers() {
				if !credential.NeedsKey(p.Kind()) {
					fmt.Printf("%-12s %-10s no key needed\n", credential.KeychainAccount(p), p.Kind())
					continue
				}
				_, src := credential.APIKey(p)
				if src == credential.SourceNone {
					fmt.Printf("%-12s %-10s \033[31mmissing\033[0m (set %s or run 'cell key set %s')\n",
						credential.KeychainAccount(p), p.Kind(), credential.EnvVar(p.Kind()), credential.KeychainAccount(p))
					continue
				}
				fmt.Printf("%-12s %-10s %s\n", credential.KeychainAccount(p), p.Kind(), src)
			}
		},
	})

	return cmd
}
