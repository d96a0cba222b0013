package controller

import (
	"context"
	"strings"

	"github.com/giygas/medsummary/entities"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/metrics"
	"github.com/giygas/medsummary/store"
	"github.com/giygas/medsummary/validation"
)

// SetPatientField sets name, dob or functionalImpact
func (c *FormController) SetPatientField(ctx context.Context, field, value string) (entities.PatientProfile, error) {
	value = validation.NormalizeText(value)
	return c.mutatePatient(ctx, "set", func(p entities.PatientProfile) (entities.PatientProfile, error) {
		return p.Set(field, value)
	})
}

// AddPatientRow appends a row built from values to section
func (c *FormController) AddPatientRow(ctx context.Context, section string, values map[string]string) (entities.PatientProfile, error) {
	if err := c.validator.RowValues(section, values); err != nil {
		return c.Patient(), err
	}
	return c.mutatePatient(ctx, "add", func(p entities.PatientProfile) (entities.PatientProfile, error) {
		return p.AddRow(section, values)
	})
}

// RemovePatientRow removes a row, leaving a blank one if it was the last
func (c *FormController) RemovePatientRow(ctx context.Context, section string, index int) (entities.PatientProfile, error) {
	return c.mutatePatient(ctx, "remove", func(p entities.PatientProfile) (entities.PatientProfile, error) {
		return p.RemoveRow(section, index)
	})
}

// UpdatePatientRow sets one key of one row, growing the section if needed
func (c *FormController) UpdatePatientRow(ctx context.Context, section string, index int, key, value string) (entities.PatientProfile, error) {
	value = validation.NormalizeText(value)
	if err := c.validator.RowValue(section, key, value); err != nil {
		return c.Patient(), err
	}
	return c.mutatePatient(ctx, "update", func(p entities.PatientProfile) (entities.PatientProfile, error) {
		return p.UpdateRow(section, index, key, value)
	})
}

func (c *FormController) mutatePatient(ctx context.Context, op string, fn func(entities.PatientProfile) (entities.PatientProfile, error)) (entities.PatientProfile, error) {
	cur, next, err := c.swapPatient(ctx, fn)
	if err != nil {
		logging.Debug("Patient edit rejected", "op", op, "error", err)
		return cur.Clone(), err
	}

	metrics.FormMutations.WithLabelValues("patient", op).Inc()

	prevName, newName := strings.TrimSpace(cur.Name), strings.TrimSpace(next.Name)
	if prevName != newName && c.nameChanged != nil {
		c.nameChanged(newName)
	}
	c.touch(ctx)
	return next.Clone(), nil
}

// swapPatient applies fn and persists the result under the write lock
func (c *FormController) swapPatient(ctx context.Context, fn func(entities.PatientProfile) (entities.PatientProfile, error)) (cur, next entities.PatientProfile, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur = *c.patient.Load()
	if next, err = fn(cur); err != nil {
		return cur, cur, err
	}
	c.patient.Store(&next)
	_ = c.store.Set(ctx, store.KeyPatientProfile, next)
	return cur, next, nil
}
