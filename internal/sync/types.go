// Package sync implements the synchronization protocol between a device's
// local database and the server: change enumeration, last-write-wins
// conflict resolution, and the push/pull cycle orchestration.
package sync

import (
	"encoding/json"
	"fmt"

	"github.com/agrolabs/pasture/internal/domain"
)

// Payload is the wire form of a change batch: rows grouped by table name.
// Rows stay raw here; each side decodes them against its own table registry.
type Payload map[string][]json.RawMessage

// PushRequest carries a device's local changes since its watermark.
type PushRequest struct {
	FarmID     string           `json:"farm_id"`
	DeviceID   string           `json:"device_id"`
	LastSyncAt domain.Timestamp `json:"last_sync_at"`
	Payload    Payload          `json:"payload"`
}

// PushResponse reports what the server did with a push.
type PushResponse struct {
	Applied    map[string]int   `json:"applied"`
	Failed     []RowError       `json:"failed,omitempty"`
	ServerTime domain.Timestamp `json:"server_time"`
}

// PullResponse carries the server-side changes since the requested cutoff.
type PullResponse struct {
	ServerTime domain.Timestamp `json:"server_time"`
	Payload    Payload          `json:"payload"`
}

// RowError identifies a single row that failed to apply. Row failures make
// a cycle PARTIAL; they never abort the remaining independent rows.
type RowError struct {
	Table  string `json:"table"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s/%s: %s", e.Table, e.ID, e.Reason)
}

// TransportError wraps a network or remote failure during push or pull.
// Transport failures fail the whole cycle and leave the watermark alone,
// so the next cycle re-sends the same (idempotent) batch.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sync %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
