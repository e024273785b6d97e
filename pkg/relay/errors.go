package relay

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/gorilla/websocket"
)

var errSessionEnded = stderrors.New("subscription ended")

func isNormalClose(err error) bool {
	return stderrors.Is(err, errSessionEnded) ||
		stderrors.Is(err, context.Canceled) ||
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}

// isBadFrame reports a frame that is not valid JSON for Frame. The socket is
// still usable after one.
func isBadFrame(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return stderrors.As(err, &syntaxErr) || stderrors.As(err, &typeErr)
}
