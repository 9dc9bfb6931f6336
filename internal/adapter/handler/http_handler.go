package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/qhngn/stockguard/internal/core/domain"
	"github.com/qhngn/stockguard/internal/core/reserve"
)

// HTTPHandler is the thin boundary over the reservation coordinator. It maps
// error kinds to status codes and owns no business logic.
type HTTPHandler struct {
	coordinator *reserve.Coordinator
	logger      *zap.Logger
}

type BuyRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
}

type BuyResponse struct {
	UpdatedProduct ProductPayload `json:"updatedProduct"`
	PlacedOrder    OrderPayload   `json:"placedOrder"`
}

type ProductPayload struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Stock int    `json:"stock"`
}

type OrderPayload struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Status    string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewHTTPHandler(coordinator *reserve.Coordinator, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{coordinator: coordinator, logger: logger}
}

// Buy builds the handler for one strategy route. The original API returns 201
// for the durable paths and 202 for the cache-accelerated one; successStatus
// carries that difference.
func (h *HTTPHandler) Buy(mode reserve.Mode, successStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req BuyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "invalid input",
				Message: "invalid request body",
			})
			return
		}

		strategy, ok := h.coordinator.Strategy(mode)
		if !ok {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{
				Error:   "internal",
				Message: "strategy not configured",
			})
			return
		}

		res, err := strategy.Reserve(r.Context(), req.UserID, req.ProductID)
		if err != nil {
			h.writeError(w, err)
			return
		}

		writeJSON(w, successStatus, toBuyResponse(res))
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	kind := reserve.KindOf(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		h.logger.Error("reservation failed", zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{
		Error:   kind.String(),
		Message: err.Error(),
	})
}

func statusForKind(kind reserve.Kind) int {
	switch kind {
	case reserve.KindInvalidInput, reserve.KindOutOfStock:
		return http.StatusBadRequest
	case reserve.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func toBuyResponse(res *domain.Reservation) BuyResponse {
	return BuyResponse{
		UpdatedProduct: ProductPayload{
			ID:    res.Product.ID,
			Name:  res.Product.Name,
			Stock: res.Product.Stock,
		},
		PlacedOrder: OrderPayload{
			ID:        res.Order.ID,
			UserID:    res.Order.UserID,
			ProductID: res.Order.ProductID,
			Status:    string(res.Order.Status),
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
