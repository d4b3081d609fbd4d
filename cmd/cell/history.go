package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/neboloop/cell/internal/provider"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

// readHistory loads a JSON array of API calls from path ("-" for stdin).
// Either a bare array or a {"apiCalls": [...]} request body is accepted.
func readHistory(path string) ([]types.APICall, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var calls []types.APICall
	if err := json.Unmarshal(data, &calls); err == nil {
		return calls, nil
	}
	var req types.PredictRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("%s: expected a JSON array of API calls: %w", path, err)
	}
	return req.APICalls, nil
}

// callsFromArgs turns endpoint arguments into GET calls a second apart,
// oldest first.
func callsFromArgs(endpoints []string) []types.APICall {
	start := time.Now().Add(-time.Duration(len(endpoints)) * time.Second)
	calls := make([]types.APICall, 0, len(endpoints))
	for i, e := range endpoints {
		calls = append(calls, types.APICall{
			Endpoint:   e,
			Method:     "GET",
			Timestamp:  start.Add(time.Duration(i) * time.Second).UTC().Format(time.RFC3339),
			Parameters: map[string]any{},
		})
	}
	return calls
}

// localServices builds the services for commands that call the provider
// directly rather than through a server.
func localServices() (*svc.ServiceContext, error) {
	p, err := provider.Build(*ServerConfig, providerArg)
	if err != nil {
		return nil, err
	}
	return svc.NewServiceContext(*ServerConfig, p)
}
