package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/goal-group-uca/EcoDrivePlanner-eMob/core/run"
)

// ListRoutes returns the ids of the complete routes in the catalog.
func (h *Handler) ListRoutes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.deps.Catalog.CompleteRouteIDs()})
}

// GetRoute returns a complete route with its segments in traversal order.
func (h *Handler) GetRoute(c *gin.Context) {
	d, err := h.deps.Catalog.CompleteRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var km float64
	for _, s := range d.Segments {
		km += s.DistanceM / 1000
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"route":       d.Route,
		"segments":    d.Segments,
		"nodes":       d.Nodes,
		"distance_km": km,
	}})
}

// ListVehicles returns the ids of the vehicles in the catalog.
func (h *Handler) ListVehicles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.deps.Catalog.VehicleIDs()})
}

// GetVehicle returns a vehicle profile.
func (h *Handler) GetVehicle(c *gin.Context) {
	v, err := h.deps.Catalog.Vehicle(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

// ListZones returns the emission zones.
func (h *Handler) ListZones(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.deps.Catalog.Zones()})
}

// GetElevation looks up the ground elevation of a point.
func (h *Handler) GetElevation(c *gin.Context) {
	if h.deps.Elevation == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "elevation lookup disabled"})
		return
	}
	lat, err := strconv.ParseFloat(c.Param("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		h.fail(c, &run.ConfigError{Field: "lat", Reason: "must be a latitude"})
		return
	}
	lng, err := strconv.ParseFloat(c.Param("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		h.fail(c, &run.ConfigError{Field: "lng", Reason: "must be a longitude"})
		return
	}
	elev, err := h.deps.Elevation.Elevation(c.Request.Context(), lat, lng)
	if err != nil {
		h.log.Warnf("elevation lookup (%g, %g): %v", lat, lng, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "elevation lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"lat": lat, "lng": lng, "elevation_m": elev}})
}
