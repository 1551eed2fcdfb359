// 文件路径: internal/api/handler/order_status.go
// 模块说明: 这是 internal 模块里的 order_status 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/creamcroissant/ordersync/internal/api/requestctx"
	"github.com/creamcroissant/ordersync/internal/repository"
	"github.com/creamcroissant/ordersync/internal/service"
)

// OrderStatusHandler exposes the synced order status operations over HTTP.
type OrderStatusHandler struct {
	sync   service.OrderStatusSyncService
	strict bool
	logger *slog.Logger
}

// NewOrderStatusHandler builds the handler. With strict set, PUT rejects
// status keys outside the known four.
func NewOrderStatusHandler(sync service.OrderStatusSyncService, strict bool, logger *slog.Logger) *OrderStatusHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderStatusHandler{sync: sync, strict: strict, logger: logger}
}

type setStatusRequest struct {
	StatusKey string `json:"statusKey"`
}

// List 返回全部同步状态。
func (h *OrderStatusHandler) List(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, h.sync.GetSyncedOrderStatuses(r.Context()))
}

// Latest 返回最近更新的一条状态，没有数据时 404。
func (h *OrderStatusHandler) Latest(w http.ResponseWriter, r *http.Request) {
	status, ok := h.sync.GetLatestSyncedOrderStatus(r.Context())
	if !ok {
		respondError(w, http.StatusNotFound, "latest", service.ErrNotFound)
		return
	}
	respondData(w, http.StatusOK, status)
}

// Get 返回单个订单的状态。
func (h *OrderStatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	status, ok := h.sync.GetSyncedOrderStatus(r.Context(), orderID)
	if !ok {
		respondError(w, http.StatusNotFound, "get", service.ErrNotFound)
		return
	}
	respondData(w, http.StatusOK, status)
}

// Set 写入订单状态并返回写入后的记录。
func (h *OrderStatusHandler) Set(w http.ResponseWriter, r *http.Request) {
	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		respondError(w, http.StatusBadRequest, "set", service.ErrOrderIDRequired)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "set", err)
			return
		}
		respondError(w, http.StatusBadRequest, "set", errors.New("invalid request body / 请求体格式错误"))
		return
	}

	key := repository.StatusKey(strings.TrimSpace(req.StatusKey))
	if h.strict {
		parsed, err := service.ParseStatusKey(req.StatusKey)
		if err != nil {
			respondError(w, http.StatusBadRequest, "set", err)
			return
		}
		key = parsed
	}

	if err := h.sync.SetSyncedOrderStatus(r.Context(), orderID, key); err != nil {
		h.logger.Error("set synced order status failed", "order_id", orderID, "status", key, "error", err)
		respondError(w, http.StatusInternalServerError, "set", errors.New("storage unavailable / 存储不可用"))
		return
	}

	caller := requestctx.CallerFromContext(r.Context())
	h.logger.Info("order status synced", "order_id", orderID, "status", key, "caller", caller.Subject)

	status, ok := h.sync.GetSyncedOrderStatus(r.Context(), orderID)
	if !ok {
		// Written but not readable back; report what was stored.
		status = repository.SyncedOrderStatus{OrderID: orderID, StatusKey: key}
	}
	respondData(w, http.StatusOK, status)
}
