package session

import (
	"context"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type AcceptPredictionLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Execute the suggested call and predict the one after it
func NewAcceptPredictionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *AcceptPredictionLogic {
	return &AcceptPredictionLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *AcceptPredictionLogic) AcceptPrediction(req *types.SessionRequest) (*session.Snapshot, error) {
	s, err := l.svcCtx.Sessions.Get(req.Id)
	if err != nil {
		return nil, err
	}
	if _, err := s.AcceptPrediction(l.ctx); err != nil {
		return nil, err
	}
	snap := s.Snapshot()
	return &snap, nil
}
