package session

import (
	"context"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type ClearCallsLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewClearCallsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ClearCallsLogic {
	return &ClearCallsLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ClearCallsLogic) ClearCalls(req *types.SessionRequest) (*session.Snapshot, error) {
	s, err := l.svcCtx.Sessions.Get(req.Id)
	if err != nil {
		return nil, err
	}
	s.Clear()
	snap := s.Snapshot()
	return &snap, nil
}
