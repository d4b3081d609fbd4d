package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neboloop/cell/internal/client"
	"github.com/neboloop/cell/internal/types"
)

func PredictCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "predict [endpoint...]",
		Short: "Predict the next API call",
		Long: `Predict the endpoint most likely to be called after the given history.
The history comes from endpoint arguments (oldest first) or a JSON file.
Prints the predicted endpoint, or "null" when there is none.

Examples:
  cell predict /api/users/list /api/users/get
  cell predict --file history.json
  cat history.json | cell predict --file -
  cell predict --server http://localhost:3000 /api/projects/list`,
		RunE: func(cmd *cobra.Command, args []string) error {
			calls, err := historyFrom(file, args)
			if err != nil {
				return err
			}
			prediction, err := predictOnce(cmd.Context(), calls)
			if err != nil {
				return err
			}
			if prediction == nil {
				fmt.Println("null")
			} else {
				fmt.Println(*prediction)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file of API calls (- for stdin)")
	addServerFlag(cmd)
	return cmd
}

func historyFrom(file string, args []string) ([]types.APICall, error) {
	if file != "" {
		return readHistory(file)
	}
	if len(args) == 0 {
		return nil, errors.New("give endpoints as arguments or a history with --file")
	}
	return callsFromArgs(args), nil
}

func predictOnce(ctx context.Context, calls []types.APICall) (*string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if serverURL != "" {
		return client.New(serverURL).Predict(ctx, calls)
	}
	svcCtx, err := localServices()
	if err != nil {
		return nil, err
	}
	return svcCtx.PredictNext(ctx, calls), nil
}
