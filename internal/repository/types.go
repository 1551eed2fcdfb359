// 文件路径: internal/repository/types.go
// 模块说明: 这是 internal 模块里的 types 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

import (
	"encoding/json"
	"time"
)

// StatusKey 是订单履约的细粒度状态。
type StatusKey string

const (
	StatusPreparing StatusKey = "preparing"
	StatusReady     StatusKey = "ready"
	StatusOnTheWay  StatusKey = "onTheWay"
	StatusDelivered StatusKey = "delivered"
)

// TimestampLayout matches the ISO-8601 form the mobile client writes.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// SyncedOrderStatus mirrors one entry of the synced_order_statuses_v1 map.
type SyncedOrderStatus struct {
	OrderID   string    `json:"orderId"`
	StatusKey StatusKey `json:"statusKey"`
	UpdatedAt string    `json:"updatedAt"`
}

// UpdatedTime parses UpdatedAt; unparseable values yield the zero time.
func (s SyncedOrderStatus) UpdatedTime() time.Time {
	t, err := time.Parse(time.RFC3339Nano, s.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// LegacyOrder is a read view over one record of the legacy orders list.
type LegacyOrder struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	TrackingStatus string          `json:"trackingStatus,omitempty"`
	UpdatedAt      string          `json:"updatedAt,omitempty"`
	Raw            json.RawMessage `json:"raw"`
}

// LegacyStatusPatch describes the fields written into matching legacy records.
type LegacyStatusPatch struct {
	OrderID        string
	Status         string
	TrackingStatus string
	UpdatedAt      string
}
