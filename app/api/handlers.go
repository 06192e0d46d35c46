package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akarpov/redscout/app/database"
	"github.com/akarpov/redscout/app/keywords"
)

func NewHandler(matchRepo database.MatchRepository, scanLogRepo database.ScanLogRepository,
	runner ScanRunnerInterface, catalog *keywords.Catalog) *Handler {
	return &Handler{
		matchRepo:   matchRepo,
		scanLogRepo: scanLogRepo,
		runner:      runner,
		catalog:     catalog,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":  time.Now().In(time.Local).Format(time.RFC3339),
		"subreddits": len(h.catalog.Subreddits()),
		"keywords":   h.catalog.KeywordCount(),
		"categories": h.catalog.CategoryCount(),
	}

	if _, err := h.matchRepo.CountByStatus(); err != nil {
		health["database"] = "error"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["database"] = "ok"

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if counts, err := h.matchRepo.CountByStatus(); err == nil {
		total := 0
		for _, count := range counts {
			total += count
		}
		stats["matches_total"] = total
		stats["matches_by_status"] = counts
	}

	if last, err := h.scanLogRepo.GetLast(); err == nil && last != nil {
		stats["last_scan"] = toScanLogResponse(*last)
	}

	c.JSON(http.StatusOK, stats)
}

// TriggerScan is the entrypoint an external scheduler hits. The scan runs
// synchronously; run-level errors are reported in the body, not the status.
func (h *Handler) TriggerScan(c *gin.Context) {
	slog.Info("Scan triggered via API", "client", c.ClientIP())

	summary := h.runner.Run(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"scannedAt":         summary.ScannedAt.Format(time.RFC3339),
		"subredditsScanned": len(summary.SubredditsScanned),
		"postsChecked":      summary.PostsChecked,
		"matchesFound":      summary.MatchesFound,
		"errors":            summary.Errors,
	})
}

func (h *Handler) ListMatches(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	status := c.Query("status")
	if status != "" && status != "all" && status != "active" && !database.ValidStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + status})
		return
	}

	matches, err := h.matchRepo.List(database.MatchFilter{
		Status:    status,
		Subreddit: c.Query("subreddit"),
		Limit:     limit,
	})
	if err != nil {
		slog.Error("Database error", "operation", "list_matches", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]matchResponse, 0, len(matches))
	for _, match := range matches {
		responses = append(responses, toMatchResponse(match))
	}

	c.JSON(http.StatusOK, gin.H{"matches": responses, "total": len(responses)})
}

type updateMatchRequest struct {
	Status        string  `json:"status"`
	DraftResponse *string `json:"draft_response"`
}

func (h *Handler) UpdateMatch(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match id"})
		return
	}

	var req updateMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if req.Status == "" && req.DraftResponse == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Nothing to update"})
		return
	}

	if req.Status != "" && !database.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + req.Status})
		return
	}

	current, err := h.matchRepo.GetByID(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_match", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if current == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		return
	}

	if current.Status == database.StatusDeleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Match is deleted"})
		return
	}

	update := database.MatchUpdate{
		Status:        req.Status,
		DraftResponse: req.DraftResponse,
	}

	// Saving a draft on a fresh match moves it forward without an explicit
	// status change
	if req.Status == "" && req.DraftResponse != nil && current.Status == database.StatusNew {
		update.Status = database.StatusDrafted
	}

	if update.Status == database.StatusSent {
		now := time.Now().UTC()
		update.RespondedAt = &now
	}

	updated, err := h.matchRepo.Update(id, update)
	if err != nil {
		slog.Error("Database error", "operation", "update_match", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"match": toMatchResponse(*updated)})
}

// DeleteMatch soft-deletes: the record stays, the status becomes terminal.
func (h *Handler) DeleteMatch(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid match id"})
		return
	}

	updated, err := h.matchRepo.Update(id, database.MatchUpdate{Status: database.StatusDeleted})
	if err != nil {
		slog.Error("Database error", "operation", "delete_match", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Match not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) ListScans(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	logs, err := h.scanLogRepo.List(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_scans", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	responses := make([]scanLogResponse, 0, len(logs))
	for _, log := range logs {
		responses = append(responses, toScanLogResponse(log))
	}

	c.JSON(http.StatusOK, gin.H{"scans": responses, "total": len(responses)})
}
