package service

import (
	"strings"

	"github.com/creamcroissant/ordersync/internal/repository"
)

// Legacy order status values written into the orders list for older readers.
const (
	LegacyStatusPreparing = "preparing"
	LegacyStatusReady     = "ready"
	LegacyStatusCompleted = "completed"
)

// StatusKeys lists the known fine-grained statuses in fulfilment order.
var StatusKeys = []repository.StatusKey{
	repository.StatusPreparing,
	repository.StatusReady,
	repository.StatusOnTheWay,
	repository.StatusDelivered,
}

// NormalizeLegacyStatus collapses a fine-grained status into the legacy
// schema, which has no "on the way" state. Unknown keys map to preparing.
func NormalizeLegacyStatus(key repository.StatusKey) string {
	switch key {
	case repository.StatusPreparing:
		return LegacyStatusPreparing
	case repository.StatusReady, repository.StatusOnTheWay:
		return LegacyStatusReady
	case repository.StatusDelivered:
		return LegacyStatusCompleted
	default:
		return LegacyStatusPreparing
	}
}

// IsKnownStatus reports whether key is one of StatusKeys.
func IsKnownStatus(key repository.StatusKey) bool {
	for _, k := range StatusKeys {
		if k == key {
			return true
		}
	}
	return false
}

// ParseStatusKey validates raw at an input boundary. Matching is exact apart
// from surrounding whitespace; anything else returns ErrUnmappedStatus.
func ParseStatusKey(raw string) (repository.StatusKey, error) {
	key := repository.StatusKey(strings.TrimSpace(raw))
	if !IsKnownStatus(key) {
		return key, ErrUnmappedStatus
	}
	return key, nil
}
