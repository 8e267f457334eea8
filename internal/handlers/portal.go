package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wixxidevelop/blue/internal/middleware"
	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/session"
	"github.com/wixxidevelop/blue/internal/workflow"
)

// PortalHandler serves the user-facing transaction flow
type PortalHandler struct {
	workflow *workflow.Service
	sessions session.Store
}

// NewPortalHandler creates a new portal handler
func NewPortalHandler(wf *workflow.Service, sessions session.Store) *PortalHandler {
	return &PortalHandler{
		workflow: wf,
		sessions: sessions,
	}
}

// Show renders the current step, honouring ?step navigation
func (h *PortalHandler) Show(c *gin.Context) {
	sid, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
		return
	}
	ctx := c.Request.Context()

	var current *models.SessionState
	err := session.Update(ctx, h.sessions, sid, func(state *models.SessionState) (bool, error) {
		current = state
		raw := c.Query("step")
		if raw == "" {
			return false, nil
		}
		return h.workflow.Navigate(ctx, state, raw)
	})
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.workflow.View(ctx, current)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Submit applies a form action to the session. The session lock is held
// from load to save so one session cannot complete a transaction twice.
func (h *PortalHandler) Submit(c *gin.Context) {
	sid, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "no session"})
		return
	}
	ctx := c.Request.Context()
	req := workflow.Request{
		Action:     workflow.Action(c.PostForm("action")),
		Pin:        c.PostForm("pin"),
		CotPin:     c.PostForm("cot_pin"),
		TaxCode:    c.PostForm("tax_code"),
		RemoteAddr: c.ClientIP(),
	}

	var (
		current *models.SessionState
		outcome *workflow.Outcome
	)
	err := session.Update(ctx, h.sessions, sid, func(state *models.SessionState) (bool, error) {
		current = state
		var err error
		if outcome, err = h.workflow.Handle(ctx, state, req); err != nil {
			return false, err
		}
		return outcome.Changed, nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.workflow.View(ctx, current)
	if err != nil {
		respondError(c, err)
		return
	}
	view.Apply(outcome)
	c.JSON(http.StatusOK, view)
}
