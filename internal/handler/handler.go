package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ammordius/NAGD-DKP-sub002/internal/engine"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/identity"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/repository"
	"github.com/Ammordius/NAGD-DKP-sub002/internal/scheduler"
	"github.com/Ammordius/NAGD-DKP-sub002/pkg/logger"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type SummaryHandler struct {
	summaryRepo *repository.SummaryRepository
	accountRepo *repository.AccountRepository
}

func NewSummaryHandler(summaryRepo *repository.SummaryRepository, accountRepo *repository.AccountRepository) *SummaryHandler {
	return &SummaryHandler{summaryRepo: summaryRepo, accountRepo: accountRepo}
}

func (h *SummaryHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/summary/{character}")
		return
	}

	// The path segment may be a character id or a display name; both
	// normalize to the same key the ledger is aggregated under.
	key := identity.Normalize(pathParts[2])
	if key == "" {
		writeError(w, http.StatusBadRequest, "character is required")
		return
	}

	ctx := r.Context()
	summary, err := h.summaryRepo.GetByKey(ctx, key)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get summary: "+err.Error())
		return
	}
	if summary == nil {
		writeError(w, http.StatusNotFound, "character not found")
		return
	}

	var lastRaid string
	if summary.LastRaidDate != nil {
		lastRaid = summary.LastRaidDate.Format("2006-01-02")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"characterKey":  summary.CharacterKey,
		"characterName": summary.CharacterName,
		"earned":        summary.Earned,
		"spent":         summary.Spent,
		"balance":       summary.Balance(),
		"earned30":      summary.Earned30,
		"earned60":      summary.Earned60,
		"lastRaidDate":  lastRaid,
	})
}

func (h *SummaryHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	ctx := r.Context()
	summaries, err := h.summaryRepo.ListByBalance(ctx, offset, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list summaries: "+err.Error())
		return
	}

	total, err := h.summaryRepo.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count summaries: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    summaries,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

func (h *SummaryHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	offset := (page - 1) * pageSize

	ctx := r.Context()
	accounts, err := h.accountRepo.ListByBalance(ctx, offset, pageSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts: "+err.Error())
		return
	}

	total, err := h.accountRepo.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count accounts: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    accounts,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

type TotalsHandler struct {
	totalsRepo *repository.RaidTotalsRepository
	periodRepo *repository.PeriodRepository
}

func NewTotalsHandler(totalsRepo *repository.RaidTotalsRepository, periodRepo *repository.PeriodRepository) *TotalsHandler {
	return &TotalsHandler{totalsRepo: totalsRepo, periodRepo: periodRepo}
}

func (h *TotalsHandler) GetRaidTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pathParts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(pathParts) < 4 {
		writeError(w, http.StatusBadRequest, "invalid path format, expected /api/raids/{raid_id}/totals")
		return
	}

	raidID, err := strconv.ParseInt(pathParts[2], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "raid_id must be an integer")
		return
	}

	ctx := r.Context()
	total, err := h.totalsRepo.GetTotal(ctx, raidID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get raid totals: "+err.Error())
		return
	}
	if total == nil {
		writeError(w, http.StatusNotFound, "raid not found")
		return
	}

	attendance, err := h.totalsRepo.AttendanceByRaid(ctx, raidID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get raid attendance: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"raidId":     total.RaidID,
		"totalDKP":   total.TotalDKP,
		"attendance": attendance,
	})
}

func (h *TotalsHandler) GetPeriodTotals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	periods, err := h.periodRepo.All(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get period totals: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, periods)
}

type RecomputeHandler struct {
	engine    *engine.Engine
	scheduler *scheduler.RefreshScheduler
}

func NewRecomputeHandler(eng *engine.Engine, sched *scheduler.RefreshScheduler) *RecomputeHandler {
	return &RecomputeHandler{engine: eng, scheduler: sched}
}

func (h *RecomputeHandler) TriggerRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	go func() {
		if err := h.scheduler.TriggerManualRefresh(context.Background()); err != nil {
			logger.Error("Manual recompute failed:", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "full recompute triggered",
		"triggeredAt": time.Now().Format(time.RFC3339),
	})
}

func (h *RecomputeHandler) TriggerScopedRecompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		RaidID     int64    `json:"raidId"`
		AccountIDs []string `json:"accountIds"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.RaidID <= 0 {
		writeError(w, http.StatusBadRequest, "raidId is required")
		return
	}

	ctx := r.Context()
	if err := h.engine.RecomputeScoped(ctx, req.RaidID, req.AccountIDs...); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to recompute raid: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "raid recomputed",
		"raidId":  req.RaidID,
	})
}

type BulkLoadHandler struct {
	engine *engine.Engine
}

func NewBulkLoadHandler(eng *engine.Engine) *BulkLoadHandler {
	return &BulkLoadHandler{engine: eng}
}

func (h *BulkLoadHandler) GetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state": h.engine.State().String(),
		"since": h.engine.StateSince().Format(time.RFC3339),
	})
}

func (h *BulkLoadHandler) Begin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	if err := h.engine.BeginBulkLoad(ctx); err != nil {
		writeError(w, http.StatusConflict, "failed to begin bulk load: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "bulk load started; aggregate maintenance suspended",
		"state":   h.engine.State().String(),
	})
}

func (h *BulkLoadHandler) End(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Consolidation rebuilds every derived table from scratch, which
	// can take a while on a large ledger; run it off the request.
	go func() {
		if err := h.engine.EndBulkLoad(context.Background()); err != nil {
			logger.Error("Bulk load consolidation failed:", err)
		}
	}()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "consolidation started",
		"state":   h.engine.State().String(),
	})
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
