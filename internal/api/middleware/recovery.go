package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/api/types"
	"github.com/navin3756/shipit/pkg/logger"
)

// Recovery logs panics and answers with a generic internal error.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.L().Error("panic recovered",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Any("panic", rec),
				zap.ByteString("stack", debug.Stack()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(types.APIResponse{
				Success: false,
				Error:   &types.APIError{Code: "internal", Message: "internal server error"},
			})
		}()
		next.ServeHTTP(w, r)
	})
}
