package chat

import (
	"net/http"

	"github.com/neboloop/cell/internal/httputil"
	"github.com/neboloop/cell/internal/logging"
	"github.com/neboloop/cell/internal/logic/chat"
	"github.com/neboloop/cell/internal/svc"
	"github.com/neboloop/cell/internal/types"
)

const failedMessage = "Failed to process chat request"

// Chat about the supplied API activity
func ChatHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := httputil.Parse(r, &req); err != nil {
			logging.Errorf("Error in chat API: %v", err)
			httputil.InternalError(w, failedMessage)
			return
		}

		l := chat.NewChatLogic(r.Context(), svcCtx)
		resp, err := l.Chat(&req)
		if err != nil {
			httputil.InternalError(w, failedMessage)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
