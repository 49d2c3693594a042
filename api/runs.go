package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
)

// SubmitRun starts an optimization run. Fields left out of the body take
// the configured defaults. With ?wait=true the call blocks until the run
// ends or the wait timeout elapses.
func (h *Handler) SubmitRun(c *gin.Context) {
	req := h.deps.Defaults
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, &run.ConfigError{Field: "body", Reason: err.Error()})
		return
	}
	wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "false"))

	st, err := h.deps.Manager.Submit(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/api/runs/%s", st.ProcessID))
	if !wait {
		c.JSON(http.StatusAccepted, gin.H{"data": st})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.waitTimeout)
	defer cancel()
	st, err = h.deps.Manager.Wait(ctx, st.ProcessID)
	if err != nil && !st.State.Terminal() {
		// Still running: the client polls from here.
		c.JSON(http.StatusAccepted, gin.H{"data": st})
		return
	}
	if st.State == run.StateCancelled {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": run.ErrCancelled.Error(), "data": st})
		return
	}
	if st.State == run.StateFailed {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": st.Error, "data": st})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": st})
}

// ListRuns returns every known run status.
func (h *Handler) ListRuns(c *gin.Context) {
	runs, err := h.deps.Manager.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": runs})
}

// GetRun returns the status of one run.
func (h *Handler) GetRun(c *gin.Context) {
	st, err := h.deps.Manager.Status(c.Request.Context(), c.Param("processId"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": st})
}

// CancelRun requests cancellation of a running optimization.
func (h *Handler) CancelRun(c *gin.Context) {
	id := c.Param("processId")
	if err := h.deps.Manager.Cancel(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"process_id": id, "status": "cancelling"})
}
