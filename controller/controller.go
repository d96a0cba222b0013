// Package controller owns the canonical PatientProfile and VisitRecord for
// the process. Every edit goes through it: the entity is mutated, the new
// snapshot is persisted, observers are told, and the printable summary is
// recomputed on the next read.
package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/medsummary/defaults"
	"github.com/giygas/medsummary/entities"
	"github.com/giygas/medsummary/interfaces"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/metrics"
	"github.com/giygas/medsummary/projection"
	"github.com/giygas/medsummary/store"
	"github.com/giygas/medsummary/validation"
)

// ClearPrompt is what the user must agree to before ClearForm runs
const ClearPrompt = "This will permanently clear all information in this visit. Continue?"

// ErrClearDeclined is returned when the user did not confirm a clear
var ErrClearDeclined = errors.New("clear form declined")

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// Option configures a FormController
type Option func(*FormController)

// WithVisitSync registers a callback receiving the fields touched by each
// visit mutation, for a parent that keeps its own copy of the visit
func WithVisitSync(fn func(entities.VisitPatch)) Option {
	return func(c *FormController) { c.visitSync = fn }
}

// WithNameChanged registers a callback fired when the trimmed patient name changes
func WithNameChanged(fn func(name string)) Option {
	return func(c *FormController) { c.nameChanged = fn }
}

// WithActivity registers a callback fired after every successful mutation
func WithActivity(fn func(ctx context.Context)) Option {
	return func(c *FormController) { c.activity = fn }
}

// WithClock overrides time.Now for lastUpdated stamps
func WithClock(now func() time.Time) Option {
	return func(c *FormController) { c.now = now }
}

// FormController serialises edits. Readers get immutable snapshots without
// taking the lock.
type FormController struct {
	store     interfaces.RecordStore
	defaults  *defaults.Provider
	validator *validation.Validator

	mu      sync.Mutex
	patient atomic.Pointer[entities.PatientProfile]
	visit   atomic.Pointer[entities.VisitRecord]

	visitSync   func(entities.VisitPatch)
	nameChanged func(string)
	activity    func(context.Context)
	now         func() time.Time
}

// New returns a controller holding empty skeletons. Call Load to pick up
// persisted records.
func New(rs interfaces.RecordStore, d *defaults.Provider, opts ...Option) *FormController {
	c := &FormController{
		store:     rs,
		defaults:  d,
		validator: validation.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	p := entities.NewPatientProfile()
	v := entities.NewVisitRecord()
	c.patient.Store(&p)
	c.visit.Store(&v)
	return c
}

// Load replaces the in-memory records with the persisted ones. Missing or
// unreadable records become skeletons. Nothing is written back.
func (c *FormController) Load(ctx context.Context) {
	var p entities.PatientProfile
	if !c.store.Load(ctx, store.KeyPatientProfile, &p) {
		p = entities.PatientProfile{}
	}
	p = p.Normalize()

	var v entities.VisitRecord
	if !c.store.Load(ctx, store.KeyVisitRecord, &v) {
		v = entities.VisitRecord{}
	}
	v = v.Normalize()

	c.mu.Lock()
	c.patient.Store(&p)
	c.visit.Store(&v)
	c.mu.Unlock()

	logging.Info("Records loaded",
		"patient_has_data", p.HasUserData(),
		"visit_has_data", v.HasUserData(),
	)
}

// Patient returns a copy of the current profile
func (c *FormController) Patient() entities.PatientProfile {
	return c.patient.Load().Clone()
}

// Visit returns a copy of the current visit
func (c *FormController) Visit() entities.VisitRecord {
	return c.visit.Load().Clone()
}

// Defaults returns the sample provider used for placeholders and print
func (c *FormController) Defaults() *defaults.Provider {
	return c.defaults
}

// Summary projects the current snapshots
func (c *FormController) Summary() projection.PrintableSummary {
	p, v := c.patient.Load(), c.visit.Load()
	s := projection.Summarize(*p, *v, c.defaults)
	metrics.ObserveProjection(s.Pristine)
	return s
}

// Print hands the current summary to host. No state changes.
func (c *FormController) Print(ctx context.Context, host interfaces.PrintHost) (string, error) {
	summary := c.Summary()
	ref, err := host.RenderAndPrint(ctx, summary)
	if err != nil {
		logging.Error("Print failed", "error", err)
		return "", err
	}
	logging.Info("Summary printed", "sections", len(summary.Sections), "pristine", summary.Pristine)
	return ref, nil
}

// ClearForm resets both records to skeletons and persists them, but only
// after confirmer agrees to ClearPrompt
func (c *FormController) ClearForm(ctx context.Context, confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm(ctx, ClearPrompt) {
		logging.Info("Clear form declined")
		return ErrClearDeclined
	}

	p := entities.NewPatientProfile()
	v := entities.NewVisitRecord()

	prevName := c.reset(ctx, p, v)

	metrics.FormMutations.WithLabelValues("all", "clear").Inc()
	logging.Info("Form cleared")

	if c.visitSync != nil {
		c.visitSync(v.Patch(entities.FieldSymptoms, entities.FieldProblemsTodayText,
			entities.FieldProblemsTodayList, entities.SectionMeds, entities.FieldLastUpdated))
	}
	if prevName != "" && c.nameChanged != nil {
		c.nameChanged("")
	}
	c.touch(ctx)
	return nil
}

// reset stores and persists both skeletons, returning the previous patient name
func (c *FormController) reset(ctx context.Context, p entities.PatientProfile, v entities.VisitRecord) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	prevName := strings.TrimSpace(c.patient.Load().Name)
	c.patient.Store(&p)
	c.visit.Store(&v)
	_ = c.store.Set(ctx, store.KeyPatientProfile, p)
	_ = c.store.Set(ctx, store.KeyVisitRecord, v)
	return prevName
}

func (c *FormController) touch(ctx context.Context) {
	if c.activity != nil {
		c.activity(ctx)
	}
}
