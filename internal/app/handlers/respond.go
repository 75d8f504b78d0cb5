package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/bakery-shop/internal/jwt-new/jwtmiddleware"
)

var validate = validator.New()

// MessageResponse - ответ с текстом для покупателя
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

// userIDFrom достаёт покупателя, установленного JWT middleware; при неудаче сам пишет 401
func userIDFrom(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (int64, bool) {
	userID, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("userID not found in context")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}
	return userID, ok
}

// idParam разбирает числовой параметр пути; при неудаче сам пишет 400
func idParam(w http.ResponseWriter, r *http.Request, logger *slog.Logger, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		logger.Error("invalid path parameter", slog.String("param", name))
		http.Error(w, name+" parameter is invalid", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
