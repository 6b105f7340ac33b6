package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/alert-arbiter/api/middleware"
	"github.com/OldStager01/alert-arbiter/internal/alerts"
	"github.com/OldStager01/alert-arbiter/internal/arbiter"
	"github.com/OldStager01/alert-arbiter/internal/logger"
	"github.com/OldStager01/alert-arbiter/internal/orchestrator"
	"github.com/OldStager01/alert-arbiter/pkg/validation"
)

type AlertHandler struct {
	arbiter       ArbiterService
	engageTimeout time.Duration
}

func NewAlertHandler(svc ArbiterService) *AlertHandler {
	return &AlertHandler{
		arbiter:       svc,
		engageTimeout: 5 * time.Second,
	}
}

type ContextResponse struct {
	Context   string        `json:"context"`
	AlertType string        `json:"alert_type"`
	Computed  bool          `json:"computed"`
	Alert     *alerts.Alert `json:"alert,omitempty"`
}

type EventResponse struct {
	ID       int               `json:"id"`
	Name     string            `json:"name"`
	Contexts []ContextResponse `json:"contexts"`
}

func toEventResponse(table *alerts.Table, id alerts.EventName) EventResponse {
	name, _ := table.Registry().Name(id)
	resp := EventResponse{
		ID:       int(id),
		Name:     name,
		Contexts: []ContextResponse{},
	}

	for _, et := range table.Types(id) {
		entry, _ := table.Lookup(id, et)
		ctx := ContextResponse{
			Context:   et.String(),
			AlertType: name + "/" + et.String(),
			Computed:  entry.IsComputed(),
		}
		if a, ok := entry.StaticAlert(); ok {
			ctx.Alert = &a
		}
		resp.Contexts = append(resp.Contexts, ctx)
	}
	return resp
}

func (h *AlertHandler) table(c *gin.Context) *alerts.Table {
	table := h.arbiter.Table()
	if table == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no alert table loaded"})
	}
	return table
}

// ListEvents returns every registered event with its defined contexts.
func (h *AlertHandler) ListEvents(c *gin.Context) {
	table := h.table(c)
	if table == nil {
		return
	}

	ids := table.Registry().IDs()
	response := make([]EventResponse, 0, len(ids))
	for _, id := range ids {
		response = append(response, toEventResponse(table, id))
	}

	c.JSON(http.StatusOK, gin.H{
		"kind":   table.Registry().MessageKind(),
		"events": response,
		"total":  len(response),
	})
}

func (h *AlertHandler) GetEvent(c *gin.Context) {
	name := validation.SanitizeString(c.Param("name"))
	if err := validation.ValidateEventName(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table := h.table(c)
	if table == nil {
		return
	}

	id, ok := table.Registry().Lookup(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, toEventResponse(table, id))
}

type CurrentResponse struct {
	Frame      uint64                  `json:"frame"`
	Alert      *arbiter.Candidate      `json:"alert"`
	Latched    bool                    `json:"latched"`
	State      arbiter.EngagementState `json:"state"`
	Candidates []arbiter.Candidate     `json:"candidates"`
	Suppressed int                     `json:"suppressed"`
}

// Current is the alert on screen as of the last processed frame.
func (h *AlertHandler) Current(c *gin.Context) {
	sel, err := h.arbiter.CurrentSelection()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	candidates := sel.Candidates
	if candidates == nil {
		candidates = []arbiter.Candidate{}
	}

	c.JSON(http.StatusOK, CurrentResponse{
		Frame:      sel.Frame,
		Alert:      sel.Alert,
		Latched:    sel.Latched,
		State:      sel.State,
		Candidates: candidates,
		Suppressed: sel.Suppressed,
	})
}

// Engage asks the control loop to engage. A no-entry alert answers 409 with
// the alert that blocked it.
func (h *AlertHandler) Engage(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.engageTimeout)
	defer cancel()

	operator := middleware.GetOperator(c)
	err := h.arbiter.RequestEngagement(ctx)

	var rejection *arbiter.RejectionError
	switch {
	case err == nil:
		logger.WithField("operator", operator).Info("Engagement requested via API")
		sel, _ := h.arbiter.CurrentSelection()
		c.JSON(http.StatusOK, gin.H{
			"engaged": true,
			"state":   sel.State,
		})
	case errors.As(err, &rejection):
		logger.WithField("operator", operator).Infof("Engagement rejected: %s", rejection.Reason.AlertType)
		c.JSON(http.StatusConflict, gin.H{
			"engaged": false,
			"error":   err.Error(),
			"reason":  rejection.Reason,
		})
	case errors.Is(err, orchestrator.ErrNoPipeline), errors.Is(err, orchestrator.ErrPipelineStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "engagement request timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
