package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"unit-telemetry-backend/internal/apperr"
	"unit-telemetry-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store store.Store
	retry store.RetryPolicy
}

// NewHandler creates a new API handler. Reads are retried with policy when
// the store is unavailable.
func NewHandler(s store.Store, policy store.RetryPolicy) *Handler {
	return &Handler{store: s, retry: policy}
}

// read runs an idempotent store call with retries.
func (h *Handler) read(c *gin.Context, fn func(ctx context.Context) error) error {
	return store.Retry(c.Request.Context(), h.retry, fn)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string      `json:"error"`
	Kind  apperr.Kind `json:"kind"`
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindDuplicateKey:
		return http.StatusConflict
	case apperr.KindReferentialIntegrity:
		return http.StatusUnprocessableEntity
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as an errorResponse. Internal errors are logged
// and their details kept from the client.
func abortWithError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) && e.Msg != "" {
		msg = e.Msg
	}
	if kind == apperr.KindInternal {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		msg = "internal server error"
	}
	c.AbortWithStatusJSON(statusFor(kind), errorResponse{Error: msg, Kind: kind})
}

func badRequest(c *gin.Context, format string, args ...any) {
	abortWithError(c, apperr.Validation("api", format, args...))
}

// pathID parses the named path parameter as a UUID.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(c, "invalid %s %q", name, raw)
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads page and page_size. page is zero-based.
func pageQuery(c *gin.Context) (store.Page, bool) {
	var page store.Page
	params := []struct {
		name string
		dst  *int
	}{
		{"page", &page.Number},
		{"page_size", &page.Size},
	}
	for _, p := range params {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "invalid %s %q", p.name, raw)
			return store.Page{}, false
		}
		*p.dst = n
	}
	return page, true
}

func boolQuery(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		badRequest(c, "invalid %s %q", name, raw)
		return nil, false
	}
	return &v, true
}

func stringQuery(c *gin.Context, name string) *string {
	raw, ok := c.GetQuery(name)
	if !ok {
		return nil
	}
	return &raw
}

func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		badRequest(c, "invalid %s %q, want RFC 3339", name, raw)
		return nil, false
	}
	return &t, true
}

// uuidsQuery accepts repeated and comma separated values.
func uuidsQuery(c *gin.Context, name string) ([]uuid.UUID, bool) {
	var ids []uuid.UUID
	for _, value := range c.QueryArray(name) {
		for _, raw := range strings.Split(value, ",") {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			id, err := uuid.Parse(raw)
			if err != nil {
				badRequest(c, "invalid %s %q", name, raw)
				return nil, false
			}
			ids = append(ids, id)
		}
	}
	return ids, true
}

// listResponse wraps one page of a listing.
type listResponse[T any] struct {
	Items    []T    `json:"items"`
	Total    *int64 `json:"total,omitempty"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

func newListResponse[T any](items []T, page store.Page) listResponse[T] {
	size := page.Size
	if size == 0 {
		size = store.DefaultPageSize
	}
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Page: page.Number, PageSize: size}
}
