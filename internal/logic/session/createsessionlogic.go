package session

import (
	"context"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type CreateSessionLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Start a server-side session with an empty call log
func NewCreateSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CreateSessionLogic {
	return &CreateSessionLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CreateSessionLogic) CreateSession() (*types.CreateSessionResponse, error) {
	s := l.svcCtx.Sessions.Create()
	l.Infof("Created session %s", s.ID())
	return &types.CreateSessionResponse{Id: s.ID()}, nil
}
