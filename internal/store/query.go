package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unit-telemetry-backend/internal/apperr"
	"unit-telemetry-backend/internal/model"
)

// readingPlan is a validated ReadingQuery.
type readingPlan struct {
	unitIDs    []uuid.UUID
	status     *string
	isArchived *bool
	from, to   *time.Time
	desc       bool
	offset     int
	limit      int
}

func planQuery(op string, q ReadingQuery) (*readingPlan, error) {
	offset, limit, err := q.Page.bounds(op)
	if err != nil {
		return nil, err
	}

	plan := &readingPlan{
		unitIDs:    dedupe(q.UnitIDs),
		status:     q.Status,
		isArchived: q.IsArchived,
		offset:     offset,
		limit:      limit,
	}

	switch Order(strings.ToLower(string(q.Order))) {
	case "", OrderDesc:
		plan.desc = true
	case OrderAsc:
	default:
		return nil, apperr.Validation(op, "order must be %q or %q, got %q", OrderAsc, OrderDesc, q.Order)
	}

	if q.From != nil {
		from := q.From.UTC()
		plan.from = &from
	}
	if q.To != nil {
		to := q.To.UTC()
		plan.to = &to
	}
	if plan.from != nil && plan.to != nil && !plan.from.Before(*plan.to) {
		return nil, apperr.Validation(op, "from (%s) must be before to (%s)",
			plan.from.Format(time.RFC3339), plan.to.Format(time.RFC3339))
	}
	return plan, nil
}

// execute checks the referenced units with one query and then reads the
// matching readings with a second one.
func (p *readingPlan) execute(tx *gorm.DB, op string) ([]model.SensorReading, error) {
	if err := requireUnits(tx, op, p.unitIDs); err != nil {
		return nil, err
	}

	q := tx.Model(&model.SensorReading{})
	switch len(p.unitIDs) {
	case 0:
	case 1:
		q = q.Where("unit_id = ?", p.unitIDs[0])
	default:
		q = q.Where("unit_id IN ?", p.unitIDs)
	}
	if p.status != nil {
		q = q.Where("status = ?", *p.status)
	}
	if p.isArchived != nil {
		q = q.Where("is_archived = ?", *p.isArchived)
	}
	// timestamp is a keyword in some dialects, so let gorm quote it.
	ts := clause.Column{Name: "timestamp"}
	if p.from != nil {
		q = q.Where(clause.Gte{Column: ts, Value: *p.from})
	}
	if p.to != nil {
		q = q.Where(clause.Lt{Column: ts, Value: *p.to})
	}

	readings := make([]model.SensorReading, 0)
	err := q.
		Order(clause.OrderByColumn{Column: ts, Desc: p.desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: p.desc}).
		Offset(p.offset).
		Limit(p.limit).
		Find(&readings).Error
	if err != nil {
		return nil, err
	}
	return readings, nil
}

// requireUnits fails with NotFound naming every id in ids that has no unit.
func requireUnits(tx *gorm.DB, op string, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	var found []uuid.UUID
	q := tx.Model(&model.Unit{})
	if len(ids) == 1 {
		q = q.Where("id = ?", ids[0])
	} else {
		q = q.Where("id IN ?", ids)
	}
	if err := q.Pluck("id", &found).Error; err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}

	present := make(map[uuid.UUID]struct{}, len(found))
	for _, id := range found {
		present[id] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := present[id]; !ok {
			missing = append(missing, id.String())
		}
	}
	if len(missing) == 1 {
		return apperr.NotFound(op, "unit %s not found", missing[0])
	}
	return apperr.NotFound(op, "units not found: %s", strings.Join(missing, ", "))
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
