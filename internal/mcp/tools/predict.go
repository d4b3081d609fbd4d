package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/neboloop/cell/internal/mcp/mcpctx"
	"github.com/neboloop/cell/internal/types"
)

// PredictInput defines input for the predict_next_api_call tool.
type PredictInput struct {
	APICalls []types.APICall `json:"apiCalls" jsonschema:"Recent API calls, oldest first. Each has endpoint, method, timestamp (RFC 3339) and parameters."`
}

// PredictOutput is null when nothing valid could be predicted.
type PredictOutput struct {
	Prediction *string `json:"prediction"`
}

func RegisterPredictTool(server *mcp.Server, toolCtx *mcpctx.ToolContext) {
	mcp.AddTool(server, &mcp.Tool{
		Name:  "predict_next_api_call",
		Title: "Predict Next API Call",
		Description: `Predict the endpoint a user is most likely to call next, given their recent API activity.

Returns {"prediction": "/api/..."} or {"prediction": null} when there is no confident guess.`,
	}, predictHandler(toolCtx))
}

func predictHandler(toolCtx *mcpctx.ToolContext) func(ctx context.Context, req *mcp.CallToolRequest, input PredictInput) (*mcp.CallToolResult, any, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PredictInput) (*mcp.CallToolResult, any, error) {
		prediction := toolCtx.Svc().PredictNext(ctx, input.APICalls)
		text := "null"
		if prediction != nil {
			text = *prediction
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("prediction: %s", text)}},
		}, PredictOutput{Prediction: prediction}, nil
	}
}
