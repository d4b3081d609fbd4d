package chat

import (
	"context"

	"github.com/neboloop/cell/internal/agent/ai"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type ChatLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Answer a chat message with the caller's API activity as context
func NewChatLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ChatLogic {
	return &ChatLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ChatLogic) Chat(req *types.ChatRequest) (*types.ChatResponse, error) {
	text, err := l.svcCtx.Chat().Complete(l.ctx, req.Messages, req.APICalls)
	if err != nil {
		l.Errorf("Error in chat API (%s): %v", ai.ClassifyErrorReason(err), err)
		return nil, err
	}
	return &types.ChatResponse{Message: text}, nil
}
