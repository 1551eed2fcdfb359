package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/creamcroissant/ordersync/internal/repository"
)

// LegacyOrderHandler exposes the legacy orders list read-only.
type LegacyOrderHandler struct {
	repo   repository.LegacyOrderRepository
	logger *slog.Logger
}

func NewLegacyOrderHandler(repo repository.LegacyOrderRepository, logger *slog.Logger) *LegacyOrderHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LegacyOrderHandler{repo: repo, logger: logger}
}

// List 返回解码后的旧订单列表；列表不存在时返回空数组。
func (h *LegacyOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.List(r.Context())
	if err != nil {
		if errors.Is(err, repository.ErrCorruptValue) || errors.Is(err, repository.ErrNotList) {
			respondError(w, http.StatusUnprocessableEntity, "list", err)
			return
		}
		h.logger.Error("list legacy orders failed", "error", err)
		respondError(w, http.StatusInternalServerError, "list", errors.New("storage unavailable / 存储不可用"))
		return
	}
	if orders == nil {
		orders = []repository.LegacyOrder{}
	}
	respondData(w, http.StatusOK, orders)
}
