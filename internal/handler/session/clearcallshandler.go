package session

import (
	"net/http"

	"github.com/neboloop/cell/internal/httputil"
	"github.com/neboloop/cell/internal/logic/session"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

func ClearCallsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.SessionRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := session.NewClearCallsLogic(r.Context(), svcCtx)
		resp, err := l.ClearCalls(&req)
		if err != nil {
			writeError(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
