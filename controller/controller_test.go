package controller

import (
	"context"
	"errors"
	"math"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/giygas/medsummary/defaults"
	"github.com/giygas/medsummary/entities"
	"github.com/giygas/medsummary/logging"
	"github.com/giygas/medsummary/projection"
	"github.com/giygas/medsummary/sections"
	"github.com/giygas/medsummary/store"
	"github.com/giygas/medsummary/validation"
)

func TestMain(m *testing.M) {
	logging.InitLogger("")
	os.Exit(m.Run())
}

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newTestController(t *testing.T, opts ...Option) (*FormController, *store.Store, *store.MemoryStore) {
	t.Helper()
	backend := store.NewMemoryStore()
	rs := store.New(backend)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	c := New(rs, defaults.Default(), opts...)
	c.Load(context.Background())
	return c, rs, backend
}

func yes() Confirmer { return ConfirmFunc(func(context.Context, string) bool { return true }) }

func TestLoadEmptyStoreGivesSkeletons(t *testing.T) {
	c, rs, _ := newTestController(t)

	p := c.Patient()
	if len(p.Diagnoses) != 1 || len(p.Doctors) != 1 {
		t.Errorf("Sections should hold one blank row, got %+v", p)
	}
	if c.Visit().ProblemsTodayList == nil {
		t.Error("Problems list should be normalised to empty")
	}
	if rs.Get(context.Background(), store.KeyPatientProfile) != nil {
		t.Error("Loading must not write the skeleton back")
	}
}

func TestLoadNormalisesPersistedRecords(t *testing.T) {
	ctx := context.Background()
	backend := store.NewMemoryStore()
	if err := backend.Write(ctx, store.KeyPatientProfile, []byte(`{"name":"Alice","diagnoses":[]}`)); err != nil {
		t.Fatal(err)
	}
	if err := backend.Write(ctx, store.KeyVisitRecord, []byte(`not json`)); err != nil {
		t.Fatal(err)
	}

	c := New(store.New(backend), defaults.Default())
	c.Load(ctx)

	p := c.Patient()
	if p.Name != "Alice" || len(p.Diagnoses) != 1 {
		t.Errorf("Unexpected patient after load %+v", p)
	}
	if c.Visit().HasUserData() {
		t.Error("Corrupt visit should fall back to a skeleton")
	}
}

func TestPatientEditsPersist(t *testing.T) {
	ctx := context.Background()
	c, rs, _ := newTestController(t)

	if _, err := c.SetPatientField(ctx, entities.FieldName, "Alice"); err != nil {
		t.Fatalf("SetPatientField failed: %v", err)
	}
	if _, err := c.UpdatePatientRow(ctx, entities.SectionDiagnoses, 2, "name", "Lupus"); err != nil {
		t.Fatalf("UpdatePatientRow failed: %v", err)
	}

	var stored entities.PatientProfile
	if !rs.Load(ctx, store.KeyPatientProfile, &stored) {
		t.Fatal("Patient should be persisted")
	}
	if !reflect.DeepEqual(stored, c.Patient()) {
		t.Errorf("Persisted %+v differs from memory %+v", stored, c.Patient())
	}
	if len(stored.Diagnoses) != 3 || stored.Diagnoses[2].Name != "Lupus" {
		t.Errorf("Unexpected diagnoses %+v", stored.Diagnoses)
	}
}

func TestAddThenRemoveLeavesBlankRow(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	if _, err := c.RemovePatientRow(ctx, entities.SectionDiagnoses, 0); err != nil {
		t.Fatal(err)
	}
	p, err := c.AddPatientRow(ctx, entities.SectionDiagnoses, map[string]string{"name": "ME/CFS"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Diagnoses) != 1 || p.Diagnoses[0].Name != "ME/CFS" {
		t.Fatalf("Unexpected diagnoses after add %+v", p.Diagnoses)
	}

	p, err = c.RemovePatientRow(ctx, entities.SectionDiagnoses, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(p.Diagnoses, []entities.Diagnosis{{}}) {
		t.Errorf("Expected one blank fallback row, got %+v", p.Diagnoses)
	}
}

func TestRejectedEditsLeaveStateAlone(t *testing.T) {
	ctx := context.Background()
	c, rs, _ := newTestController(t)

	_, err := c.UpdatePatientRow(ctx, entities.SectionDiagnoses, 0, "status", "maybe")
	if !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("Expected a validation error, got %v", err)
	}
	if _, err := c.SetPatientField(ctx, "shoeSize", "42"); !errors.Is(err, entities.ErrUnknownField) {
		t.Errorf("Expected unknown field, got %v", err)
	}
	if _, err := c.AddVisitRow(ctx, entities.SectionDiagnoses, nil); !errors.Is(err, entities.ErrUnknownSection) {
		t.Errorf("Diagnoses are not a visit section, got %v", err)
	}
	if rs.Get(ctx, store.KeyPatientProfile) != nil || rs.Get(ctx, store.KeyVisitRecord) != nil {
		t.Error("Rejected edits must not be persisted")
	}
}

func TestWriteFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	c, rs, backend := newTestController(t)
	backend.SetFailWrites(true)

	p, err := c.SetPatientField(ctx, entities.FieldName, "Alice")
	if err != nil {
		t.Fatalf("A failed write is not an edit error: %v", err)
	}
	if p.Name != "Alice" || c.Patient().Name != "Alice" {
		t.Error("In-memory state should keep the edit")
	}
	if _, err := rs.LastWrite(); err == nil {
		t.Error("Store should remember the failed write")
	}
}

func TestVisitEditsStampAndSync(t *testing.T) {
	ctx := context.Background()
	var patches []entities.VisitPatch
	c, _, _ := newTestController(t, WithVisitSync(func(p entities.VisitPatch) {
		patches = append(patches, p)
	}))

	if _, err := c.SetProblemsList(ctx, "fatigue, , dizziness"); err != nil {
		t.Fatal(err)
	}
	v, err := c.SetVisitField(ctx, entities.FieldProblemsTodayText, "fatigue, dizziness")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.ProblemsTodayList) != 0 {
		t.Errorf("Setting the text must empty the list, got %v", v.ProblemsTodayList)
	}
	if v.LastUpdated != "2026-10-17T09:30:00Z" {
		t.Errorf("Unexpected stamp %q", v.LastUpdated)
	}

	if len(patches) != 2 {
		t.Fatalf("Expected 2 patches, got %d", len(patches))
	}
	if got := patches[0][entities.FieldProblemsTodayList]; !reflect.DeepEqual(got, []string{"fatigue", "dizziness"}) {
		t.Errorf("Unexpected list patch %v", got)
	}
	last := patches[1]
	if last[entities.FieldProblemsTodayText] != "fatigue, dizziness" || last[entities.FieldLastUpdated] != "2026-10-17T09:30:00Z" {
		t.Errorf("Unexpected text patch %v", last)
	}
	if _, ok := last[entities.FieldProblemsTodayList]; !ok {
		t.Error("Text patch should carry the emptied list")
	}
}

func TestNameChangedFiresOnRealChangesOnly(t *testing.T) {
	ctx := context.Background()
	var names []string
	c, _, _ := newTestController(t, WithNameChanged(func(n string) { names = append(names, n) }))

	for _, v := range []string{"Alice", "Alice  ", "Bob"} {
		if _, err := c.SetPatientField(ctx, entities.FieldName, v); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := c.SetPatientField(ctx, entities.FieldDOB, "01/01/1990"); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"Alice", "Bob"}) {
		t.Errorf("Unexpected name events %v", names)
	}
}

func TestActivityOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	count := 0
	c, _, _ := newTestController(t, WithActivity(func(context.Context) { count++ }))

	_, _ = c.SetPatientField(ctx, entities.FieldName, "Alice")
	_, _ = c.AddVisitRow(ctx, entities.SectionMeds, nil)
	_, _ = c.SetPatientField(ctx, "nope", "x")

	if count != 2 {
		t.Errorf("Expected 2 activity pings, got %d", count)
	}
}

func TestClearForm(t *testing.T) {
	ctx := context.Background()
	var patches []entities.VisitPatch
	c, rs, _ := newTestController(t, WithVisitSync(func(p entities.VisitPatch) { patches = append(patches, p) }))

	for _, name := range []string{"ME/CFS", "POTS", "Type 2 diabetes"} {
		if _, err := c.AddPatientRow(ctx, entities.SectionDiagnoses, map[string]string{"name": name}); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = c.RemovePatientRow(ctx, entities.SectionDiagnoses, 0)
	_, _ = c.UpdatePatientRow(ctx, entities.SectionAllergies, 1, "item", "Sulfa")
	_, _ = c.SetVisitField(ctx, entities.FieldSymptoms, "tired")

	if got := len(c.Patient().Diagnoses); got != 3 {
		t.Fatalf("Expected 3 diagnoses, got %d", got)
	}
	if got := len(c.Patient().Allergies); got != 2 {
		t.Fatalf("Expected 2 allergies, got %d", got)
	}

	if err := c.ClearForm(ctx, yes()); err != nil {
		t.Fatalf("ClearForm failed: %v", err)
	}

	p := c.Patient()
	if !reflect.DeepEqual(p.Diagnoses, []entities.Diagnosis{{}}) || !reflect.DeepEqual(p.Allergies, []entities.Allergy{{}}) {
		t.Errorf("Sections should reset to one blank row, got %+v / %+v", p.Diagnoses, p.Allergies)
	}
	if c.Visit().LastUpdated != "" {
		t.Error("Cleared visit has no stamp")
	}

	reloaded := New(rs, defaults.Default())
	reloaded.Load(ctx)
	if !reflect.DeepEqual(reloaded.Patient(), p) {
		t.Errorf("Reload %+v differs from cleared state %+v", reloaded.Patient(), p)
	}
	if !reflect.DeepEqual(reloaded.Visit(), c.Visit()) {
		t.Errorf("Reloaded visit differs: %+v", reloaded.Visit())
	}

	last := patches[len(patches)-1]
	if last[entities.FieldSymptoms] != "" {
		t.Errorf("Clear patch should blank symptoms, got %v", last)
	}
	if !c.Summary().Pristine {
		t.Error("A cleared form is pristine again")
	}
}

func TestClearFormDeclined(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	_, _ = c.SetPatientField(ctx, entities.FieldName, "Alice")

	var asked string
	no := ConfirmFunc(func(_ context.Context, prompt string) bool {
		asked = prompt
		return false
	})

	if err := c.ClearForm(ctx, no); !errors.Is(err, ErrClearDeclined) {
		t.Errorf("Expected ErrClearDeclined, got %v", err)
	}
	if asked != ClearPrompt {
		t.Errorf("Unexpected prompt %q", asked)
	}
	if c.Patient().Name != "Alice" {
		t.Error("Declined clear must not change anything")
	}
	if err := c.ClearForm(ctx, nil); !errors.Is(err, ErrClearDeclined) {
		t.Error("No confirmer means no clear")
	}
}

type recordingHost struct {
	got projection.PrintableSummary
	err error
}

func (h *recordingHost) RenderAndPrint(_ context.Context, s projection.PrintableSummary) (string, error) {
	h.got = s
	return "ref", h.err
}

func TestPrintHandsCurrentSummary(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	host := &recordingHost{}
	ref, err := c.Print(ctx, host)
	if err != nil || ref != "ref" {
		t.Fatalf("Print failed: %q %v", ref, err)
	}
	if !host.got.Pristine || host.got.PatientName != "Jane Doe" {
		t.Errorf("Pristine print should use defaults, got %+v", host.got)
	}

	_, _ = c.SetPatientField(ctx, entities.FieldName, "Alice")
	_, _ = c.Print(ctx, host)
	if host.got.Pristine || len(host.got.Sections) != 0 {
		t.Errorf("Touched form prints only live data, got %+v", host.got)
	}

	host.err = errors.New("printer on fire")
	if _, err := c.Print(ctx, host); err == nil {
		t.Error("Host errors should be returned")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)
	_, _ = c.AddPatientRow(ctx, entities.SectionDoctors, map[string]string{"name": "Dr. Who"})

	p := c.Patient()
	p.Doctors[1].Name = "tampered"
	if c.Patient().Doctors[1].Name != "Dr. Who" {
		t.Error("Callers must not reach the controller's state")
	}
}

func TestHugeRowIndexIsRejected(t *testing.T) {
	ctx := context.Background()
	c, rs, _ := newTestController(t)

	for _, index := range []int{math.MaxInt, 2_000_000} {
		if _, err := c.UpdatePatientRow(ctx, entities.SectionDiagnoses, index, "name", "x"); !errors.Is(err, entities.ErrTooManyRows) {
			t.Errorf("Index %d: expected ErrTooManyRows, got %v", index, err)
		}
		if _, err := c.UpdateVisitRow(ctx, entities.SectionMeds, index, "name", "x"); !errors.Is(err, entities.ErrTooManyRows) {
			t.Errorf("Index %d: expected ErrTooManyRows for meds, got %v", index, err)
		}
	}
	if rs.Get(ctx, store.KeyPatientProfile) != nil || rs.Get(ctx, store.KeyVisitRecord) != nil {
		t.Error("Rejected rows must not be persisted")
	}

	p, err := c.SetPatientField(ctx, entities.FieldName, "Alice")
	if err != nil || p.Name != "Alice" {
		t.Fatalf("Later edits should still work: %v", err)
	}
	if len(c.Patient().Diagnoses) != 1 {
		t.Errorf("Diagnoses should be untouched, got %d rows", len(c.Patient().Diagnoses))
	}
}

func TestAddRowStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	for i := 1; i < sections.MaxRows; i++ {
		if _, err := c.AddPatientRow(ctx, entities.SectionDoctors, nil); err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}
	if _, err := c.AddPatientRow(ctx, entities.SectionDoctors, nil); !errors.Is(err, entities.ErrTooManyRows) {
		t.Errorf("Expected ErrTooManyRows, got %v", err)
	}
	if got := len(c.Patient().Doctors); got != sections.MaxRows {
		t.Errorf("Expected %d doctors, got %d", sections.MaxRows, got)
	}
}

func TestPanickingEditReleasesLock(t *testing.T) {
	ctx := context.Background()
	c, _, _ := newTestController(t)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Expected the edit to panic")
			}
		}()
		_, _ = c.mutatePatient(ctx, "set", func(entities.PatientProfile) (entities.PatientProfile, error) {
			panic("boom")
		})
	}()
	func() {
		defer func() { _ = recover() }()
		_, _ = c.mutateVisit(ctx, "set", nil, func(entities.VisitRecord) (entities.VisitRecord, error) {
			panic("boom")
		})
	}()

	done := make(chan error, 1)
	go func() {
		_, err := c.SetPatientField(ctx, entities.FieldName, "Alice")
		if err == nil {
			_, err = c.SetVisitField(ctx, entities.FieldSymptoms, "tired")
		}
		if err == nil {
			err = c.ClearForm(ctx, yes())
		}
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Edits after a panic failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Edits after a panic are blocked")
	}
}
