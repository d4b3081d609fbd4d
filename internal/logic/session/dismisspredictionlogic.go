package session

import (
	"context"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type DismissPredictionLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDismissPredictionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DismissPredictionLogic {
	return &DismissPredictionLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DismissPredictionLogic) DismissPrediction(req *types.SessionRequest) (*session.Snapshot, error) {
	s, err := l.svcCtx.Sessions.Get(req.Id)
	if err != nil {
		return nil, err
	}
	s.Dismiss()
	snap := s.Snapshot()
	return &snap, nil
}
