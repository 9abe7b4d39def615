package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/navin3756/shipit/internal/api/middleware"
	"github.com/navin3756/shipit/internal/api/types"
	"github.com/navin3756/shipit/pkg/logger"
)

const maxBodyBytes = 1 << 20

type structValidator interface{ Struct(any) error }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, r *http.Request, status int, data any) {
	writeJSON(w, status, types.APIResponse{
		Success: true,
		Data:    data,
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := types.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.L().Error("request error", zap.String("request_id", middleware.GetRequestID(r.Context())), zap.Error(err))
	}
	writeJSON(w, status, types.APIResponse{
		Success: false,
		Error:   types.FromAppError(err),
		Meta:    &types.Meta{RequestID: middleware.GetRequestID(r.Context())},
	})
}

func writeErrorStr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.APIResponse{Success: false, Error: &types.APIError{Code: "invalid", Message: msg}})
}

// decode reads a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v structValidator, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeErrorStr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := v.Struct(dst); err != nil {
		writeErrorStr(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
