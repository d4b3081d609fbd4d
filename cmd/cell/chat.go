package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neboloop/cell/internal/client"
	"github.com/neboloop/cell/internal/types"
)

func ChatCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask about recent API activity",
		Long: `Ask the assistant a question with an API call history as context.

Examples:
  cell chat --file history.json "What have I been doing?"
  cell chat --server http://localhost:3000 -f history.json "Which endpoint lists projects?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var calls []types.APICall
			if file != "" {
				var err error
				if calls, err = readHistory(file); err != nil {
					return err
				}
			}
			reply, err := chatOnce(cmd.Context(), strings.Join(args, " "), calls)
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file of API calls (- for stdin)")
	addServerFlag(cmd)
	return cmd
}

func chatOnce(ctx context.Context, question string, calls []types.APICall) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(question) == "" {
		return "", errors.New("question is empty")
	}
	messages := []types.ChatMessage{{Role: types.RoleUser, Content: question}}
	if serverURL != "" {
		return client.New(serverURL).Chat(ctx, messages, calls)
	}
	svcCtx, err := localServices()
	if err != nil {
		return "", err
	}
	return svcCtx.Chat().Complete(ctx, messages, calls)
}
