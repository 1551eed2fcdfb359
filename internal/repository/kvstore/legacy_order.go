package kvstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/creamcroissant/ordersync/internal/repository"
)

// DefaultLegacyOrdersKey is the storage key of the legacy orders list.
const DefaultLegacyOrdersKey = "orders"

var _ repository.LegacyOrderRepository = (*LegacyOrderRepo)(nil)

// LegacyOrderRepo edits the externally owned orders list in place. Records
// are patched field by field so everything this package does not write is
// kept byte-for-byte.
type LegacyOrderRepo struct {
	kv    repository.KeyValueStore
	key   string
	locks *KeyLocks
}

// NewLegacyOrderRepo builds the repository; empty key falls back to
// DefaultLegacyOrdersKey and nil locks to the process-wide table.
func NewLegacyOrderRepo(kv repository.KeyValueStore, key string, locks *KeyLocks) *LegacyOrderRepo {
	if key == "" {
		key = DefaultLegacyOrdersKey
	}
	return &LegacyOrderRepo{kv: kv, key: key, locks: locksOrShared(locks)}
}

// Key returns the storage key in use.
func (r *LegacyOrderRepo) Key() string {
	return r.key
}

func (r *LegacyOrderRepo) List(ctx context.Context) ([]repository.LegacyOrder, error) {
	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.key, err)
	}
	if !found {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("%w: %s", repository.ErrCorruptValue, r.key)
	}
	list := gjson.Parse(raw)
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: %s", repository.ErrNotList, r.key)
	}

	records := list.Array()
	out := make([]repository.LegacyOrder, 0, len(records))
	for _, rec := range records {
		if !rec.IsObject() {
			continue
		}
		id := rec.Get("id").String()
		if id == "" {
			id = rec.Get("orderId").String()
		}
		out = append(out, repository.LegacyOrder{
			ID:             id,
			Status:         rec.Get("status").String(),
			TrackingStatus: rec.Get("trackingStatus").String(),
			UpdatedAt:      rec.Get("updatedAt").String(),
			Raw:            []byte(rec.Raw),
		})
	}
	return out, nil
}

func (r *LegacyOrderRepo) ApplyStatus(ctx context.Context, patches []repository.LegacyStatusPatch) (int, error) {
	byOrder := make(map[string]repository.LegacyStatusPatch, len(patches))
	for _, p := range patches {
		if p.OrderID != "" {
			byOrder[p.OrderID] = p
		}
	}
	if len(byOrder) == 0 {
		return 0, nil
	}

	unlock := r.locks.Lock(r.key)
	defer unlock()

	raw, found, err := r.kv.Get(ctx, r.key)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", r.key, err)
	}
	if !found {
		return 0, nil
	}
	if !gjson.Valid(raw) {
		return 0, fmt.Errorf("%w: %s", repository.ErrCorruptValue, r.key)
	}
	list := gjson.Parse(raw)
	if !list.IsArray() {
		return 0, nil
	}

	records := list.Array()
	elems := make([]string, len(records))
	changed := 0
	for i, rec := range records {
		elems[i] = rec.Raw
		if !rec.IsObject() {
			continue
		}
		p, ok := matchPatch(rec, byOrder)
		if !ok {
			continue
		}
		patched, err := patchRecord(rec.Raw, p)
		if err != nil {
			return 0, fmt.Errorf("patch %s record %d: %w", r.key, i, err)
		}
		elems[i] = patched
		changed++
	}
	if changed == 0 {
		return 0, nil
	}

	if err := r.kv.Set(ctx, r.key, "["+strings.Join(elems, ",")+"]"); err != nil {
		return 0, fmt.Errorf("save %s: %w", r.key, err)
	}
	return changed, nil
}

func (r *LegacyOrderRepo) Replace(ctx context.Context, raw []byte) error {
	if !gjson.ValidBytes(raw) || !gjson.ParseBytes(raw).IsArray() {
		return repository.ErrNotList
	}
	unlock := r.locks.Lock(r.key)
	defer unlock()
	if err := r.kv.Set(ctx, r.key, string(raw)); err != nil {
		return fmt.Errorf("save %s: %w", r.key, err)
	}
	return nil
}

// matchPatch compares only string-typed id / orderId fields.
func matchPatch(rec gjson.Result, byOrder map[string]repository.LegacyStatusPatch) (repository.LegacyStatusPatch, bool) {
	for _, field := range [...]string{"id", "orderId"} {
		v := rec.Get(field)
		if v.Type != gjson.String {
			continue
		}
		if p, ok := byOrder[v.Str]; ok {
			return p, true
		}
	}
	return repository.LegacyStatusPatch{}, false
}

func patchRecord(raw string, p repository.LegacyStatusPatch) (string, error) {
	out, err := sjson.Set(raw, "status", p.Status)
	if err != nil {
		return "", err
	}
	if out, err = sjson.Set(out, "trackingStatus", p.TrackingStatus); err != nil {
		return "", err
	}
	return sjson.Set(out, "updatedAt", p.UpdatedAt)
}
