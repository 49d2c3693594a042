package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RoutesWithSolutions lists the routes that have stored solutions.
func (h *Handler) RoutesWithSolutions(c *gin.Context) {
	ids, err := h.deps.Store.RoutesWithSolutions(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": ids})
}

// SolutionsByRoute lists the stored solutions of a complete route.
func (h *Handler) SolutionsByRoute(c *gin.Context) {
	sols, err := h.deps.Store.ListByRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sols})
}

// SolutionsByVehicle lists the stored solutions of a vehicle.
func (h *Handler) SolutionsByVehicle(c *gin.Context) {
	sols, err := h.deps.Store.ListByVehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sols})
}

// GetSolution returns one solution with its decisions.
func (h *Handler) GetSolution(c *gin.Context) {
	sol, err := h.deps.Store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sol})
}

// DeleteSolution removes a solution and its decisions. Deleting an unknown
// id succeeds.
func (h *Handler) DeleteSolution(c *gin.Context) {
	if err := h.deps.Store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
