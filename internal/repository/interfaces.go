// 文件路径: internal/repository/interfaces.go
// 模块说明: 这是 internal 模块里的 interfaces 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

import "context"

// KeyValueStore 是本地持久化存储端口，按字符串键读写整段字符串值。
// Get 在键不存在时返回 found=false 且 err=nil。
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// SyncedStatusRepository 负责订单同步状态表（orderId → SyncedOrderStatus）的存取。
type SyncedStatusRepository interface {
	// LoadAll returns the full map. A stored value that is not a JSON object
	// yields an empty map together with an error wrapping ErrCorruptValue.
	LoadAll(ctx context.Context) (map[string]SyncedOrderStatus, error)
	// Put overwrites the entry for status.OrderID inside one read-modify-write
	// cycle. A corrupt stored map is replaced rather than reported.
	Put(ctx context.Context, status SyncedOrderStatus) error
}

// LegacyOrderRepository 负责旧版 orders 列表的只读视图与状态补丁。
type LegacyOrderRepository interface {
	List(ctx context.Context) ([]LegacyOrder, error)
	// ApplyStatus patches every record matching a patch's OrderID and reports
	// how many records changed. The list is only written back when that
	// count is non-zero.
	ApplyStatus(ctx context.Context, patches []LegacyStatusPatch) (int, error)
	// Replace overwrites the whole list with raw, which must be a JSON array.
	Replace(ctx context.Context, raw []byte) error
}
