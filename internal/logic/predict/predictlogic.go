package predict

import (
	"context"

	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

type PredictLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Predict the next API call from a caller-supplied history
func NewPredictLogic(ctx context.Context, svcCtx *svc.ServiceContext) *PredictLogic {
	return &PredictLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *PredictLogic) Predict(req *types.PredictRequest) (*types.PredictResponse, error) {
	prediction := l.svcCtx.Predict().PredictNext(l.ctx, req.APICalls)
	if prediction != nil {
		l.Debugf("Predicted %s from %d calls", *prediction, len(req.APICalls))
	}
	return &types.PredictResponse{Prediction: prediction}, nil
}
