package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"unit-telemetry-backend/internal/model"
	"unit-telemetry-backend/internal/store"
)

// CreateUnit handles POST /units.
func (h *Handler) CreateUnit(c *gin.Context) {
	var req store.UnitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	unit, err := h.store.Units().Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// ListUnits handles GET /units.
func (h *Handler) ListUnits(c *gin.Context) {
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	isActive, ok := boolQuery(c, "is_active")
	if !ok {
		return
	}
	filter := store.UnitFilter{IsActive: isActive}

	var units []model.Unit
	var total int64
	err := h.read(c, func(ctx context.Context) error {
		var err error
		if units, err = h.store.Units().List(ctx, filter, page); err != nil {
			return err
		}
		total, err = h.store.Units().Count(ctx, filter)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := newListResponse(units, page)
	resp.Total = &total
	c.JSON(http.StatusOK, resp)
}

// GetUnit handles GET /units/:id.
func (h *Handler) GetUnit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var unit *model.Unit
	err := h.read(c, func(ctx context.Context) error {
		var err error
		unit, err = h.store.Units().Get(ctx, id)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// UpdateUnit handles PUT /units/:id. Fields left out of the body keep their
// value.
func (h *Handler) UpdateUnit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch store.UnitPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	unit, err := h.store.Units().Update(c.Request.Context(), id, patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, unit)
}

// DeleteUnit handles DELETE /units/:id together with the unit's readings.
func (h *Handler) DeleteUnit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.Units().Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUnitStatistics handles GET /units/:id/statistics.
func (h *Handler) GetUnitStatistics(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var stats *model.ReadingStatistics
	err := h.read(c, func(ctx context.Context) error {
		var err error
		stats, err = h.store.Readings().Statistics(ctx, id)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUnitReadings handles GET /units/:id/sensor-data.
func (h *Handler) ListUnitReadings(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, ok := pageQuery(c)
	if !ok {
		return
	}
	isArchived, ok := boolQuery(c, "is_archived")
	if !ok {
		return
	}
	filter := store.ReadingFilter{Status: stringQuery(c, "status"), IsArchived: isArchived}

	var readings []model.SensorReading
	err := h.read(c, func(ctx context.Context) error {
		var err error
		readings, err = h.store.Readings().ListByUnit(ctx, id, filter, page)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(readings, page))
}
