package session

import (
	"errors"
	"net/http"

	"github.com/neboloop/cell/internal/httputil"
	logic "github.com/neboloop/cell/internal/logic/session"
	"github.com/neboloop/cell/internal/session"
)

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, session.ErrNoPrediction):
		httputil.ErrorWithCode(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrEmptyMessage), errors.Is(err, logic.ErrEndpointRequired):
		httputil.Error(w, err)
	default:
		httputil.InternalError(w, "")
	}
}
