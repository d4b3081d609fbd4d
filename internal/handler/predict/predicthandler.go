package predict

import (
	"net/http"

	"github.com/neboloop/cell/internal/httputil"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/logic/predict"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

const failedMessage = "Failed to predict next API call"

// Predict the next API call. A missing prediction is a 200 with null.
func PredictHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.PredictRequest
		if err := httputil.Parse(r, &req); err != nil {
			logging.Errorf("Error in prediction API: %v", err)
			httputil.InternalError(w, failedMessage)
			return
		}

		l := predict.NewPredictLogic(r.Context(), svcCtx)
		resp, err := l.Predict(&req)
		if err != nil {
			httputil.InternalError(w, failedMessage)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
