package controller

import (
	"context"
	"time"

	"github.com/giygas/medsummary/entities"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/metrics"
	"github.com/giygas/medsummary/store"
	"github.com/giygas/medsummary/validation"
)

// SetVisitField sets symptoms or problemsTodayText. Setting the text
// empties the problems list.
func (c *FormController) SetVisitField(ctx context.Context, field, value string) (entities.VisitRecord, error) {
	value = validation.NormalizeText(value)
	touched := []string{field}
	if field == entities.FieldProblemsTodayText {
		touched = append(touched, entities.FieldProblemsTodayList)
	}
	return c.mutateVisit(ctx, "set", touched, func(v entities.VisitRecord) (entities.VisitRecord, error) {
		return v.Set(field, value)
	})
}

// SetProblemsList replaces the problems list with the comma separated items of text
func (c *FormController) SetProblemsList(ctx context.Context, text string) (entities.VisitRecord, error) {
	text = validation.NormalizeText(text)
	return c.mutateVisit(ctx, "set", []string{entities.FieldProblemsTodayList}, func(v entities.VisitRecord) (entities.VisitRecord, error) {
		return v.SetProblemsList(text), nil
	})
}

// AddVisitRow appends a row to a visit section
func (c *FormController) AddVisitRow(ctx context.Context, section string, values map[string]string) (entities.VisitRecord, error) {
	if err := c.validator.RowValues(section, values); err != nil {
		return c.Visit(), err
	}
	return c.mutateVisit(ctx, "add", []string{section}, func(v entities.VisitRecord) (entities.VisitRecord, error) {
		return v.AddRow(section, values)
	})
}

// RemoveVisitRow removes a row, leaving a blank one if it was the last
func (c *FormController) RemoveVisitRow(ctx context.Context, section string, index int) (entities.VisitRecord, error) {
	return c.mutateVisit(ctx, "remove", []string{section}, func(v entities.VisitRecord) (entities.VisitRecord, error) {
		return v.RemoveRow(section, index)
	})
}

// UpdateVisitRow sets one key of one visit row
func (c *FormController) UpdateVisitRow(ctx context.Context, section string, index int, key, value string) (entities.VisitRecord, error) {
	value = validation.NormalizeText(value)
	return c.mutateVisit(ctx, "update", []string{section}, func(v entities.VisitRecord) (entities.VisitRecord, error) {
		return v.UpdateRow(section, index, key, value)
	})
}

func (c *FormController) mutateVisit(ctx context.Context, op string, touched []string, fn func(entities.VisitRecord) (entities.VisitRecord, error)) (entities.VisitRecord, error) {
	cur, next, err := c.swapVisit(ctx, fn)
	if err != nil {
		logging.Debug("Visit edit rejected", "op", op, "error", err)
		return cur.Clone(), err
	}

	metrics.FormMutations.WithLabelValues("visit", op).Inc()

	if c.visitSync != nil {
		c.visitSync(next.Patch(append(touched, entities.FieldLastUpdated)...))
	}
	c.touch(ctx)
	return next.Clone(), nil
}

// swapVisit applies fn, stamps lastUpdated and persists under the write lock
func (c *FormController) swapVisit(ctx context.Context, fn func(entities.VisitRecord) (entities.VisitRecord, error)) (cur, next entities.VisitRecord, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur = *c.visit.Load()
	if next, err = fn(cur); err != nil {
		return cur, cur, err
	}
	next = next.Touch(c.now().UTC().Format(time.RFC3339))
	c.visit.Store(&next)
	_ = c.store.Set(ctx, store.KeyVisitRecord, next)
	return cur, next, nil
}
