package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"unit-telemetry-backend/internal/model"
	"unit-telemetry-backend/internal/store"
)

// CreateReading handles POST /sensor-data.
func (h *Handler) CreateReading(c *gin.Context) {
	var req store.ReadingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	reading, err := h.store.Readings().Create(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reading)
}

// QueryReadings handles GET /sensor-data. Without unit_id it lists readings
// of every unit.
func (h *Handler) QueryReadings(c *gin.Context) {
	q := store.ReadingQuery{
		Status: stringQuery(c, "status"),
		Order:  store.Order(c.Query("order")),
	}
	var ok bool
	if q.UnitIDs, ok = uuidsQuery(c, "unit_id"); !ok {
		return
	}
	if q.IsArchived, ok = boolQuery(c, "is_archived"); !ok {
		return
	}
	if q.From, ok = timeQuery(c, "from"); !ok {
		return
	}
	if q.To, ok = timeQuery(c, "to"); !ok {
		return
	}
	if q.Page, ok = pageQuery(c); !ok {
		return
	}

	var readings []model.SensorReading
	err := h.read(c, func(ctx context.Context) error {
		var err error
		readings, err = h.store.Readings().Query(ctx, q)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newListResponse(readings, q.Page))
}

// GetReading handles GET /sensor-data/:id.
func (h *Handler) GetReading(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var reading *model.SensorReading
	err := h.read(c, func(ctx context.Context) error {
		var err error
		reading, err = h.store.Readings().Get(ctx, id)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// PatchReading handles PATCH /sensor-data/:id. Only the keys present in the
// body change; an explicit null clears a measurement.
func (h *Handler) PatchReading(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}
	patch, err := decodeReadingPatch(body)
	if err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	reading, err := h.store.Readings().Update(c.Request.Context(), id, patch)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

func decodeReadingPatch(body map[string]json.RawMessage) (store.ReadingPatch, error) {
	var patch store.ReadingPatch
	measurements := []struct {
		key string
		dst **decimal.NullDecimal
	}{
		{"temperature", &patch.Temperature},
		{"humidity", &patch.Humidity},
	}
	for _, m := range measurements {
		raw, ok := body[m.key]
		if !ok {
			continue
		}
		var v decimal.NullDecimal
		if err := json.Unmarshal(raw, &v); err != nil {
			return store.ReadingPatch{}, err
		}
		*m.dst = &v
	}
	if raw, ok := body["status"]; ok {
		var status string
		if err := json.Unmarshal(raw, &status); err != nil {
			return store.ReadingPatch{}, err
		}
		patch.Status = &status
	}
	if raw, ok := body["is_archived"]; ok {
		var archived bool
		if err := json.Unmarshal(raw, &archived); err != nil {
			return store.ReadingPatch{}, err
		}
		patch.IsArchived = &archived
	}
	return patch, nil
}

type statusRequest struct {
	Status string `json:"status"`
}

// UpdateReadingStatus handles PUT /sensor-data/:id/status.
func (h *Handler) UpdateReadingStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: %v", err)
		return
	}

	reading, err := h.store.Readings().UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// ArchiveReading handles POST /sensor-data/:id/archive.
func (h *Handler) ArchiveReading(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	reading, err := h.store.Readings().Archive(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reading)
}

// DeleteReading handles DELETE /sensor-data/:id.
func (h *Handler) DeleteReading(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.Readings().Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
