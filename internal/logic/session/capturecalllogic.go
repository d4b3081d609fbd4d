package session

import (
	"context"
	"errors"
	"strings"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

var ErrEndpointRequired = errors.New("endpoint is required")

type CaptureCallLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Record an API call and predict the next one
func NewCaptureCallLogic(ctx context.Context, svcCtx *svc.ServiceContext) *CaptureCallLogic {
	return &CaptureCallLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *CaptureCallLogic) CaptureCall(req *types.CaptureCallRequest) (*session.Snapshot, error) {
	if strings.TrimSpace(req.Endpoint) == "" {
		return nil, ErrEndpointRequired
	}
	s, err := l.svcCtx.Sessions.Get(req.Id)
	if err != nil {
		return nil, err
	}

	s.Capture(l.ctx, req.Endpoint, req.Method, req.Parameters)
	snap := s.Snapshot()
	return &snap, nil
}
