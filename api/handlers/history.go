package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/alert-arbiter/pkg/database/queries"
	"github.com/OldStager01/alert-arbiter/pkg/models"
	"github.com/OldStager01/alert-arbiter/pkg/validation"
)

type HistoryHandler struct {
	store        HistoryStore
	defaultLimit int
	maxLimit     int
}

// NewHistoryHandler accepts a nil store; every request then answers 503.
func NewHistoryHandler(store HistoryStore, defaultLimit, maxLimit int) *HistoryHandler {
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	if maxLimit < defaultLimit {
		maxLimit = defaultLimit
	}
	return &HistoryHandler{
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}
}

var historyKinds = map[string]models.EventType{
	string(models.EventTypeAlertChanged):       models.EventTypeAlertChanged,
	string(models.EventTypeAlertCleared):       models.EventTypeAlertCleared,
	string(models.EventTypeEngagementAccepted): models.EventTypeEngagementAccepted,
	string(models.EventTypeEngagementRejected): models.EventTypeEngagementRejected,
	string(models.EventTypeDisengaged):         models.EventTypeDisengaged,
}

// Recent lists history rows, newest first. Query: event, kind, since, limit.
func (h *HistoryHandler) Recent(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert history is disabled"})
		return
	}

	filter, err := h.parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	records, err := h.store.Recent(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}
	if records == nil {
		records = []models.AlertRecord{}
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   len(records),
		"limit":   filter.Limit,
	})
}

// Stats counts displayed alerts per alert type. Query: since.
func (h *HistoryHandler) Stats(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "alert history is disabled"})
		return
	}

	since, err := validation.ParseSince(c.Query("since"), time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	counts, err := h.store.CountByAlertType(ctx, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history stats"})
		return
	}
	if counts == nil {
		counts = []models.AlertCount{}
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

func (h *HistoryHandler) parseFilter(c *gin.Context) (queries.HistoryFilter, error) {
	var filter queries.HistoryFilter

	if event := c.Query("event"); event != "" {
		if err := validation.ValidateEventName(event); err != nil {
			return filter, err
		}
		filter.EventName = validation.SanitizeString(event)
	}

	if kind := c.Query("kind"); kind != "" {
		k, ok := historyKinds[kind]
		if !ok {
			return filter, validation.ErrInvalidInput
		}
		filter.Kind = k
	}

	since, err := validation.ParseSince(c.Query("since"), time.Now())
	if err != nil {
		return filter, err
	}
	filter.Since = since

	limit, err := validation.ParseLimit(c.Query("limit"), h.defaultLimit, h.maxLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	return filter, nil
}
