package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/agrolabs/pasture/internal/auth"
	"github.com/agrolabs/pasture/internal/domain"
	"github.com/agrolabs/pasture/internal/store"
	"github.com/agrolabs/pasture/internal/sync"
	"github.com/agrolabs/pasture/internal/validation"
)

// SyncPush ingests a device's change batch. Rows apply under LWW with the
// server side winning timestamp ties, so replaying the same batch is a
// no-op. Per-row failures are collected and reported; a row claiming a
// farm other than the authorized one rejects the whole request.
func (h *Handler) SyncPush(w http.ResponseWriter, r *http.Request) {
	scope, err := auth.ScopeFromContext(r.Context())
	if err != nil {
		WriteProblem(w, r, http.StatusUnauthorized, "Missing authorization scope")
		return
	}

	var req sync.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.FarmID != "" && req.FarmID != scope.FarmID {
		WriteProblem(w, r, http.StatusForbidden, "Request farm does not match authorized farm")
		return
	}
	if req.DeviceID == "" {
		WriteProblem(w, r, http.StatusBadRequest, "Missing device id")
		return
	}

	logID, err := h.store.BeginPushLog(r.Context(), scope.UserID, req.DeviceID, domain.Now())
	if err != nil {
		slog.Error("failed to open sync log", "error", err, "farm_id", scope.FarmID)
		MapStoreError(w, r, err)
		return
	}

	resp := sync.PushResponse{Applied: map[string]int{}}
	status := domain.RunSuccess

	for _, table := range domain.Tables {
		for _, raw := range req.Payload[table.Name] {
			rowErr := h.applyPushedRow(r, scope, table, raw, &resp)
			if rowErr == nil {
				continue
			}
			if errors.Is(rowErr, store.ErrScopeViolation) {
				h.closePushLog(r, logID, domain.RunFailed)
				WriteProblem(w, r, http.StatusForbidden, "Row outside authorized farm scope")
				return
			}
			status = domain.RunPartial
		}
	}
	for name := range req.Payload {
		if _, ok := domain.TableByName(name); !ok {
			slog.Warn("push contains unknown table",
				"component", "api", "table", name, "farm_id", scope.FarmID)
		}
	}

	h.closePushLog(r, logID, status)

	resp.ServerTime = domain.Now()
	writeJSON(w, http.StatusOK, resp)
}

// applyPushedRow decodes, validates, and applies one pushed row. It returns
// nil when the row was handled (applied, skipped as stale, or recorded in
// resp.Failed); a non-nil error means the whole push must stop.
func (h *Handler) applyPushedRow(r *http.Request, scope auth.Scope, table domain.TableSpec, raw json.RawMessage, resp *sync.PushResponse) error {
	rec, err := table.Decode(raw)
	if err != nil {
		resp.Failed = append(resp.Failed, sync.RowError{
			Table: table.Name, ID: rawRowID(raw), Reason: "malformed row: " + err.Error(),
		})
		return errRowFailed
	}

	if verrs := validation.ValidateRecord(rec); len(verrs) > 0 {
		resp.Failed = append(resp.Failed, sync.RowError{
			Table: table.Name, ID: rec.RecordID(), Reason: verrs[0].Error(),
		})
		return errRowFailed
	}

	applied, err := h.store.Apply(r.Context(), table, scope.FarmID, rec, store.TieLoses)
	if err != nil {
		if errors.Is(err, store.ErrScopeViolation) {
			slog.Warn("scope violation in push",
				"component", "api",
				"table", table.Name,
				"row_id", rec.RecordID(),
				"farm_id", scope.FarmID,
				"user_id", scope.UserID,
			)
			return err
		}
		resp.Failed = append(resp.Failed, sync.RowError{
			Table: table.Name, ID: rec.RecordID(), Reason: err.Error(),
		})
		return errRowFailed
	}
	if applied {
		resp.Applied[table.Name]++
	}
	return nil
}

// errRowFailed marks a row that was recorded in the response and must not
// abort the batch.
var errRowFailed = errors.New("row failed")

func (h *Handler) closePushLog(r *http.Request, logID string, status domain.RunStatus) {
	if err := h.store.FinishPushLog(r.Context(), logID, status, domain.Now()); err != nil {
		slog.Error("failed to close sync log", "error", err, "log_id", logID)
	}
}

// SyncPull returns every row of the authorized farm changed since the
// cutoff, tombstones included. An absent or empty `since` means the full
// dataset (a device's first sync).
func (h *Handler) SyncPull(w http.ResponseWriter, r *http.Request) {
	scope, err := auth.ScopeFromContext(r.Context())
	if err != nil {
		WriteProblem(w, r, http.StatusUnauthorized, "Missing authorization scope")
		return
	}

	var since domain.Timestamp
	if v := r.URL.Query().Get("since"); v != "" {
		since, err = domain.Parse(v)
		if err != nil {
			WriteProblem(w, r, http.StatusBadRequest, "Invalid since timestamp")
			return
		}
	}

	payload, total, err := sync.NewEnumerator(h.store).Collect(r.Context(), scope.FarmID, since)
	if err != nil {
		slog.Error("pull enumeration failed", "error", err, "farm_id", scope.FarmID)
		MapStoreError(w, r, err)
		return
	}

	slog.Info("pull served",
		"component", "api",
		"farm_id", scope.FarmID,
		"since", since.String(),
		"rows", total,
	)
	writeJSON(w, http.StatusOK, sync.PullResponse{
		ServerTime: domain.Now(),
		Payload:    payload,
	})
}

// rawRowID pulls the id out of a row that failed to decode.
func rawRowID(raw []byte) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}
