package session

import (
	"net/http"

	"github.com/neboloop/cell/internal/httputil"
	"github.com/neboloop/cell/internal/logic/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

// Record an API call and return the session with its new prediction
func CaptureCallHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.CaptureCallRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := session.NewCaptureCallLogic(r.Context(), svcCtx)
		resp, err := l.CaptureCall(&req)
		if err != nil {
			writeError(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
