package session

import (
	"context"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type DeleteSessionLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDeleteSessionLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DeleteSessionLogic {
	return &DeleteSessionLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DeleteSessionLogic) DeleteSession(req *types.SessionRequest) error {
	if !l.svcCtx.Sessions.Delete(req.Id) {
		return session.ErrSessionNotFound
	}
	l.Infof("Deleted session %s", req.Id)
	return nil
}
