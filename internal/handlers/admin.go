package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wixxidevelop/blue/internal/admin"
)

// AdminHandler serves the operator panel
type AdminHandler struct {
	admin *admin.Service
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc *admin.Service) *AdminHandler {
	return &AdminHandler{admin: svc}
}

// Dashboard renders the overview
func (h *AdminHandler) Dashboard(c *gin.Context) {
	h.renderDashboard(c, "")
}

// Submit dispatches on the action form field
func (h *AdminHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	switch action := c.PostForm("action"); action {
	case "toggle_system":
		if _, err := h.admin.ToggleSystem(ctx); err != nil {
			respondError(c, err)
			return
		}
		h.renderDashboard(c, "")

	case "clear_logs":
		if err := h.admin.ClearLogs(ctx); err != nil {
			respondError(c, err)
			return
		}
		h.renderDashboard(c, "")

	case "update_settings":
		var form admin.SettingsForm
		if err := c.ShouldBind(&form); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings form"})
			return
		}
		// Unchecked checkboxes are absent from the submission.
		_, form.MiningFeeEnabled = c.GetPostForm("mining_fee_enabled")
		_, form.CommissionEnabled = c.GetPostForm("commission_enabled")

		if _, err := h.admin.UpdateSettings(ctx, form); err != nil {
			respondError(c, err)
			return
		}
		h.renderDashboard(c, "Settings updated successfully!")

	case "export_data":
		h.export(c)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown action %q", action)})
	}
}

func (h *AdminHandler) renderDashboard(c *gin.Context, success string) {
	d, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	d.Success = success
	c.JSON(http.StatusOK, d)
}

func (h *AdminHandler) export(c *gin.Context) {
	snapshot, err := h.admin.ExportSnapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	body, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", admin.ExportFilename(snapshot.ExportedAt)))
	c.Data(http.StatusOK, "application/json", body)
}
