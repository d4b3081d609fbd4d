package session

import (
	"net/http"

	"github.com/neboloop/cell/internal/httputil"
	"github.com/neboloop/cell/internal/logic/session"
	"github.com/neboloop/cell/internal/svc"
)

func CreateSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := session.NewCreateSessionLogic(r.Context(), svcCtx)
		resp, err := l.CreateSession()
		if err != nil {
			writeError(w, err)
		} else {
			httputil.WriteJSON(w, http.StatusCreated, resp)
		}
	}
}
