package appointments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/availability"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/civil"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/lifecycle"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/model"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/outbox"
	"github.com/md-rashed-zaman/clinicagenda/services/agenda-service/internal/slots"
	"github.com/shopspring/decimal"
)

const clinicID = "clinic-1"

var wednesday = civil.Date{Year: 2026, Month: time.April, Day: 15}

// memStore keeps appointments in maps. Transactions work on a copy that is
// swapped in on success.
type memStore struct {
	practitioners map[string]model.Practitioner
	appts         map[string]model.Appointment
	events        []outbox.Event
	// poolReadsInTx counts reads made on the store while a transaction
	// is open.
	inTx          bool
	poolReadsInTx int
}

func newMemStore() *memStore {
	return &memStore{
		practitioners: map[string]model.Practitioner{
			"doc-1": {
				ID:       "doc-1",
				ClinicID: clinicID,
				Hours:    &model.WorkingHours{WeekdayOpen: 1, WeekdayClose: 5, TimeOpen: "08:00:00", TimeClose: "17:00:00"},
				Price:    decimal.RequireFromString("150"),
			},
			"doc-2": {
				ID:       "doc-2",
				ClinicID: clinicID,
				Hours:    &model.WorkingHours{WeekdayOpen: 1, WeekdayClose: 5, TimeOpen: "08:00:00", TimeClose: "12:00:00"},
				Price:    decimal.RequireFromString("90"),
			},
		},
		appts: map[string]model.Appointment{},
	}
}

func (m *memStore) InTx(ctx context.Context, fn func(Tx) error) error {
	tx := &memTx{store: m, appts: make(map[string]model.Appointment, len(m.appts))}
	for k, v := range m.appts {
		tx.appts[k] = v
	}
	m.inTx = true
	defer func() { m.inTx = false }()
	if err := fn(tx); err != nil {
		return err
	}
	m.appts = tx.appts
	m.events = append(m.events, tx.events...)
	return nil
}

func (m *memStore) List(_ context.Context, clinic string, f model.ListFilter) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range m.appts {
		if a.ClinicID != clinic {
			continue
		}
		if f.PractitionerID != "" && a.PractitionerID != f.PractitionerID {
			continue
		}
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if d, _ := civil.Clinic.Localize(a.ScheduledAt); !f.Date.IsZero() && d != f.Date {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (m *memStore) Practitioner(_ context.Context, clinic, id string) (model.Practitioner, error) {
	if m.inTx {
		m.poolReadsInTx++
	}
	p, ok := m.practitioners[id]
	if !ok || p.ClinicID != clinic {
		return model.Practitioner{}, model.NotFound("practitioner", id)
	}
	return p, nil
}

func (m *memStore) Appointment(_ context.Context, clinic, id string) (model.Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.ClinicID != clinic {
		return model.Appointment{}, model.NotFound("appointment", id)
	}
	return a, nil
}

func (m *memStore) ActiveAppointments(_ context.Context, practitionerID string, from, to time.Time) ([]model.Appointment, error) {
	if m.inTx {
		m.poolReadsInTx++
	}
	return activeIn(m.appts, practitionerID, from, to), nil
}

func activeIn(appts map[string]model.Appointment, practitionerID string, from, to time.Time) []model.Appointment {
	var out []model.Appointment
	for _, a := range appts {
		if a.PractitionerID == practitionerID && a.Status != model.StatusCanceled &&
			!a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			out = append(out, a)
		}
	}
	return out
}

type memTx struct {
	store  *memStore
	appts  map[string]model.Appointment
	events []outbox.Event
}

func (tx *memTx) Practitioner(_ context.Context, clinic, id string) (model.Practitioner, error) {
	p, ok := tx.store.practitioners[id]
	if !ok || p.ClinicID != clinic {
		return model.Practitioner{}, model.NotFound("practitioner", id)
	}
	return p, nil
}

func (tx *memTx) ActiveAppointments(_ context.Context, practitionerID string, from, to time.Time) ([]model.Appointment, error) {
	return activeIn(tx.appts, practitionerID, from, to), nil
}

func (tx *memTx) AppointmentForUpdate(_ context.Context, clinic, id string) (model.Appointment, error) {
	a, ok := tx.appts[id]
	if !ok || a.ClinicID != clinic {
		return model.Appointment{}, model.NotFound("appointment", id)
	}
	return a, nil
}

func (tx *memTx) conflicts(a model.Appointment) bool {
	if a.Status == model.StatusCanceled {
		return false
	}
	for _, other := range tx.appts {
		if other.ID != a.ID && other.Status != model.StatusCanceled &&
			other.PractitionerID == a.PractitionerID && other.ScheduledAt.Equal(a.ScheduledAt) {
			return true
		}
	}
	return false
}

func (tx *memTx) Insert(_ context.Context, a model.Appointment) (model.Appointment, error) {
	if tx.conflicts(a) {
		return model.Appointment{}, fmt.Errorf("insert: %w", model.ErrBookingConflict)
	}
	tx.appts[a.ID] = a
	return a, nil
}

func (tx *memTx) Patch(ctx context.Context, clinic, id string, p model.AppointmentPatch) (model.Appointment, error) {
	a, err := tx.AppointmentForUpdate(ctx, clinic, id)
	if err != nil {
		return model.Appointment{}, err
	}
	a = p.Apply(a)
	if p.Status.Present() {
		a.Status = p.Status.Value
	}
	if tx.conflicts(a) {
		return model.Appointment{}, fmt.Errorf("patch: %w", model.ErrBookingConflict)
	}
	tx.appts[id] = a
	return a, nil
}

func (tx *memTx) SetStatus(ctx context.Context, clinic, id string, status model.Status) (model.Appointment, error) {
	a, err := tx.AppointmentForUpdate(ctx, clinic, id)
	if err != nil {
		return model.Appointment{}, err
	}
	a.Status = status
	tx.appts[id] = a
	return a, nil
}

func (tx *memTx) Delete(_ context.Context, _, id string) error {
	delete(tx.appts, id)
	return nil
}

func (tx *memTx) Enqueue(_ context.Context, evt outbox.Event) error {
	tx.events = append(tx.events, evt)
	return nil
}

type recordingCache struct {
	slots   map[string]int
	lists   map[string][]model.Appointment
	drops   int
	version int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{slots: map[string]int{}, lists: map[string][]model.Appointment{}}
}

func (c *recordingCache) InvalidateSlots(_ context.Context, practitionerID string, dates ...civil.Date) error {
	for _, d := range dates {
		c.slots[practitionerID+"|"+d.String()]++
	}
	return nil
}

func (c *recordingCache) ListVersion(_ context.Context, clinic string) (string, error) {
	return fmt.Sprint(c.version), nil
}

func (c *recordingCache) List(_ context.Context, clinic, version string, f model.ListFilter) ([]model.Appointment, bool, error) {
	l, ok := c.lists[clinic+"|"+version+"|"+f.Key()]
	return l, ok, nil
}

func (c *recordingCache) StoreList(_ context.Context, clinic, version string, f model.ListFilter, appts []model.Appointment) error {
	c.lists[clinic+"|"+version+"|"+f.Key()] = appts
	return nil
}

func (c *recordingCache) InvalidateLists(_ context.Context, clinic string) error {
	c.drops++
	c.version++
	return nil
}

type fixture struct {
	store *memStore
	cache *recordingCache
	avail *availability.Service
	svc   *Service
}

func newFixture() fixture {
	store := newMemStore()
	cache := newRecordingCache()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	avail := availability.NewService(store, store, nil, logger, availability.Config{Zone: civil.Clinic, Step: slots.Hour})
	now := func() time.Time { return time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC) }
	svc := NewService(store, store, avail, cache, logger, Config{Zone: civil.Clinic, Now: now})
	return fixture{store: store, cache: cache, avail: avail, svc: svc}
}

func at(d civil.Date, hour int) time.Time {
	return civil.Clinic.Instant(d, civil.Time{Hour: hour})
}

func (f fixture) create(t *testing.T, practitionerID string, when time.Time) model.Appointment {
	t.Helper()
	appt, res, err := f.svc.Create(context.Background(), clinicID, CreateInput{
		PractitionerID: practitionerID,
		PatientID:      "patient-1",
		ScheduledAt:    when,
	})
	if err != nil || !res.Success {
		t.Fatalf("Create: %+v %v", res, err)
	}
	return appt
}

func slotAvailable(t *testing.T, f fixture, practitionerID string, d civil.Date, tod string) bool {
	t.Helper()
	got, err := f.avail.Query(context.Background(), clinicID, availability.Query{PractitionerID: practitionerID, Date: d})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	for _, s := range got {
		if s.Time == tod {
			return s.Available
		}
	}
	t.Fatalf("slot %s not offered", tod)
	return false
}

func TestCreateDefaultsAndEvent(t *testing.T) {
	f := newFixture()
	appt := f.create(t, "doc-1", at(wednesday, 10))

	if appt.Status != model.StatusPending {
		t.Fatalf("expected pending, got %s", appt.Status)
	}
	if !appt.Price.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected practitioner price, got %s", appt.Price)
	}
	if len(f.store.events) != 1 || f.store.events[0].EventType != outbox.AppointmentCreated {
		t.Fatalf("expected one created event, got %+v", f.store.events)
	}
	if f.cache.slots["doc-1|2026-04-15"] != 1 || f.cache.drops != 1 {
		t.Fatalf("expected cache invalidation, got %+v drops=%d", f.cache.slots, f.cache.drops)
	}
	if slotAvailable(t, f, "doc-1", wednesday, "10:00:00") {
		t.Fatal("booked slot should be unavailable")
	}
}

func TestCreateRejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.create(t, "doc-1", at(wednesday, 10))

	_, res, err := f.svc.Create(ctx, clinicID, CreateInput{PractitionerID: "doc-1", PatientID: "p2", ScheduledAt: at(wednesday, 10)})
	if !errors.Is(err, model.ErrBookingConflict) || res.Message != lifecycle.MsgSlotTaken {
		t.Fatalf("expected slot taken, got %+v %v", res, err)
	}

	_, res, err = f.svc.Create(ctx, clinicID, CreateInput{PractitionerID: "doc-1", PatientID: "p2", ScheduledAt: at(wednesday, 19)})
	if !errors.Is(err, model.ErrInvalidInput) || res.Message != lifecycle.MsgOutsideWindow {
		t.Fatalf("expected outside window, got %+v %v", res, err)
	}

	_, _, err = f.svc.Create(ctx, clinicID, CreateInput{PractitionerID: "nobody", PatientID: "p2", ScheduledAt: at(wednesday, 9)})
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, _, err = f.svc.Create(ctx, clinicID, CreateInput{PractitionerID: "doc-1", ScheduledAt: at(wednesday, 9)})
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(f.store.events) != 1 {
		t.Fatalf("rejected creates must not emit events, got %d", len(f.store.events))
	}
}

func TestStatusTransitions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.create(t, "doc-1", at(wednesday, 9))

	steps := []struct {
		name    string
		run     func(context.Context, string, string) (Result, error)
		success bool
		message string
		status  model.Status
	}{
		{"revert pending", f.svc.RevertToPending, false, lifecycle.MsgRevertNotConfirm, model.StatusPending},
		{"confirm", f.svc.Confirm, true, lifecycle.MsgConfirmed, model.StatusConfirmed},
		{"confirm again", f.svc.Confirm, false, lifecycle.MsgConfirmNotPending, model.StatusConfirmed},
		{"revert", f.svc.RevertToPending, true, lifecycle.MsgReverted, model.StatusPending},
		{"cancel", f.svc.Cancel, true, lifecycle.MsgCanceled, model.StatusCanceled},
		{"cancel again", f.svc.Cancel, false, lifecycle.MsgAlreadyCanceled, model.StatusCanceled},
		{"confirm canceled", f.svc.Confirm, false, lifecycle.MsgConfirmNotPending, model.StatusCanceled},
	}
	for _, step := range steps {
		res, err := step.run(ctx, clinicID, appt.ID)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", step.name, err)
		}
		if res.Success != step.success || res.Message != step.message {
			t.Fatalf("%s: got %+v", step.name, res)
		}
		if got := f.store.appts[appt.ID].Status; got != step.status {
			t.Fatalf("%s: expected status %s, got %s", step.name, step.status, got)
		}
	}
	// created + confirm + revert + cancel
	if len(f.store.events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(f.store.events))
	}
}

func TestCancelFreesSlot(t *testing.T) {
	f := newFixture()
	appt := f.create(t, "doc-1", at(wednesday, 11))
	if slotAvailable(t, f, "doc-1", wednesday, "11:00:00") {
		t.Fatal("slot should be taken before cancel")
	}
	if res, err := f.svc.Cancel(context.Background(), clinicID, appt.ID); err != nil || !res.Success {
		t.Fatalf("Cancel: %+v %v", res, err)
	}
	if !slotAvailable(t, f, "doc-1", wednesday, "11:00:00") {
		t.Fatal("slot should be free after cancel")
	}
	f.create(t, "doc-1", at(wednesday, 11))
}

func TestDelete(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.create(t, "doc-1", at(wednesday, 9))

	res, err := f.svc.Delete(ctx, clinicID, appt.ID)
	if err != nil || res.Success || res.Message != lifecycle.MsgDeleteNotCanceled {
		t.Fatalf("deleting a pending appointment: %+v %v", res, err)
	}

	if _, err := f.svc.Cancel(ctx, clinicID, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	res, err = f.svc.Delete(ctx, clinicID, appt.ID)
	if err != nil || !res.Success || res.Message != lifecycle.MsgDeleted {
		t.Fatalf("Delete: %+v %v", res, err)
	}
	if _, ok := f.store.appts[appt.ID]; ok {
		t.Fatal("appointment should be gone")
	}

	res, err = f.svc.Delete(ctx, clinicID, appt.ID)
	if !errors.Is(err, model.ErrNotFound) || res.Success || res.Message != lifecycle.MsgNotFound {
		t.Fatalf("second delete: %+v %v", res, err)
	}
}

func TestEditGuards(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.create(t, "doc-1", at(wednesday, 9))
	if _, err := f.svc.Confirm(ctx, clinicID, appt.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	res, err := f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{Notes: model.Some("late")})
	if err != nil || res.Success || res.Message != lifecycle.MsgEditConfirmed {
		t.Fatalf("editing a confirmed appointment: %+v %v", res, err)
	}
	if f.store.appts[appt.ID].Notes != nil {
		t.Fatal("rejected edit must not change the record")
	}

	if _, err := f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{Status: model.Some(model.StatusPending)}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("edit must not change status, got %v", err)
	}
	if _, err := f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{PatientID: model.Cleared[string]()}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("clearing patient must fail, got %v", err)
	}
	res, err = f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{})
	if !errors.Is(err, model.ErrInvalidInput) || res.Message != lifecycle.MsgNothingToUpdate {
		t.Fatalf("empty patch: %+v %v", res, err)
	}
	res, err = f.svc.Edit(ctx, clinicID, "ghost", model.AppointmentPatch{Notes: model.Some("x")})
	if !errors.Is(err, model.ErrNotFound) || res.Message != lifecycle.MsgNotFound {
		t.Fatalf("unknown appointment: %+v %v", res, err)
	}
}

func TestEditMovesSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.create(t, "doc-1", at(wednesday, 9))
	f.create(t, "doc-1", at(wednesday, 10))
	thursday := wednesday.AddDays(1)

	res, err := f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{ScheduledAt: model.Some(at(wednesday, 10))})
	if !errors.Is(err, model.ErrBookingConflict) || res.Message != lifecycle.MsgSlotTaken {
		t.Fatalf("moving onto a booked slot: %+v %v", res, err)
	}

	res, err = f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{
		ScheduledAt: model.Some(at(thursday, 14)),
		Notes:       model.Some("moved"),
	})
	if err != nil || !res.Success || res.Message != lifecycle.MsgUpdated {
		t.Fatalf("Edit: %+v %v", res, err)
	}
	if f.cache.slots["doc-1|2026-04-15"] == 0 || f.cache.slots["doc-1|2026-04-16"] == 0 {
		t.Fatalf("both dates should be invalidated: %+v", f.cache.slots)
	}
	if !slotAvailable(t, f, "doc-1", wednesday, "09:00:00") || slotAvailable(t, f, "doc-1", thursday, "14:00:00") {
		t.Fatal("availability should follow the move")
	}

	res, err = f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{PractitionerID: model.Some("doc-2")})
	if !errors.Is(err, model.ErrInvalidInput) || res.Message != lifecycle.MsgOutsideWindow {
		t.Fatalf("doc-2 does not work at 14:00: %+v %v", res, err)
	}
	if _, err := f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{PractitionerID: model.Some("nobody")}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("unknown practitioner should be invalid input, got %v", err)
	}
}

func TestEditKeepsOwnSlot(t *testing.T) {
	f := newFixture()
	appt := f.create(t, "doc-1", at(wednesday, 9))
	res, err := f.svc.Edit(context.Background(), clinicID, appt.ID, model.AppointmentPatch{
		ScheduledAt: model.Some(at(wednesday, 9)),
		Price:       model.Some(decimal.RequireFromString("200")),
	})
	if err != nil || !res.Success {
		t.Fatalf("re-saving the same slot: %+v %v", res, err)
	}
	if !f.store.appts[appt.ID].Price.Equal(decimal.RequireFromString("200")) {
		t.Fatal("price should be updated")
	}
}

func TestUpdateStatusAware(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.create(t, "doc-1", at(wednesday, 9))
	if _, err := f.svc.Confirm(ctx, clinicID, appt.ID); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	res, err := f.svc.Update(ctx, clinicID, appt.ID, model.AppointmentPatch{
		Notes:  model.Some("retorno"),
		Status: model.Some(model.StatusPending),
	})
	if err != nil || !res.Success {
		t.Fatalf("Update: %+v %v", res, err)
	}
	got := f.store.appts[appt.ID]
	if got.Status != model.StatusPending || got.Notes == nil || *got.Notes != "retorno" {
		t.Fatalf("unexpected record %+v", got)
	}

	res, err = f.svc.Update(ctx, clinicID, appt.ID, model.AppointmentPatch{Status: model.Some(model.StatusCanceled)})
	if err != nil || res.Success || res.Message != lifecycle.MsgInvalidStatus {
		t.Fatalf("update to canceled: %+v %v", res, err)
	}

	if _, err := f.svc.Cancel(ctx, clinicID, appt.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	res, err = f.svc.Update(ctx, clinicID, appt.ID, model.AppointmentPatch{Notes: model.Cleared[string]()})
	if err != nil || res.Success || res.Message != lifecycle.MsgEditCanceled {
		t.Fatalf("update of canceled: %+v %v", res, err)
	}
}

func TestListUsesCache(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.create(t, "doc-1", at(wednesday, 9))
	f.create(t, "doc-2", at(wednesday, 10))

	filter := model.ListFilter{Date: wednesday}
	got, err := f.svc.List(ctx, clinicID, filter)
	if err != nil || len(got) != 2 {
		t.Fatalf("List: %v %v", got, err)
	}
	if _, ok := f.cache.lists[clinicID+"|"+fmt.Sprint(f.cache.version)+"|"+filter.Key()]; !ok {
		t.Fatal("listing should be cached under the current version")
	}

	f.create(t, "doc-1", at(wednesday, 11))
	got, err = f.svc.List(ctx, clinicID, filter)
	if err != nil || len(got) != 3 {
		t.Fatalf("listing should be refreshed after create: %v %v", got, err)
	}

	got, err = f.svc.List(ctx, clinicID, model.ListFilter{PractitionerID: "doc-2"})
	if err != nil || len(got) != 1 {
		t.Fatalf("practitioner filter: %v %v", got, err)
	}

	if _, err := f.svc.List(ctx, clinicID, model.ListFilter{Status: "archived"}); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateReportsCreatedMessage(t *testing.T) {
	f := newFixture()
	_, res, err := f.svc.Create(context.Background(), clinicID, CreateInput{
		PractitionerID: "doc-1",
		PatientID:      "patient-1",
		ScheduledAt:    at(wednesday, 11),
	})
	if err != nil || !res.Success || res.Message != lifecycle.MsgCreated {
		t.Fatalf("unexpected result %+v %v", res, err)
	}
}

func TestUpdateStatusChangeEmitsStatusEvent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.create(t, "doc-1", at(wednesday, 9))

	steps := []struct {
		patch model.AppointmentPatch
		want  string
	}{
		{model.AppointmentPatch{Status: model.Some(model.StatusConfirmed)}, outbox.AppointmentConfirmed},
		{model.AppointmentPatch{Notes: model.Some("jejum de 8h")}, outbox.AppointmentUpdated},
		{model.AppointmentPatch{Status: model.Some(model.StatusPending), Notes: model.Some("remarcar")}, outbox.AppointmentReverted},
		{model.AppointmentPatch{Status: model.Some(model.StatusPending)}, outbox.AppointmentUpdated},
	}
	for i, step := range steps {
		res, err := f.svc.Update(ctx, clinicID, appt.ID, step.patch)
		if err != nil || !res.Success {
			t.Fatalf("step %d: Update: %+v %v", i, res, err)
		}
		last := f.store.events[len(f.store.events)-1]
		if last.EventType != step.want {
			t.Fatalf("step %d: expected %s, got %s", i, step.want, last.EventType)
		}
	}
}

func TestMoveChecksSlotInsideTransaction(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.create(t, "doc-1", at(wednesday, 9))
	other := f.create(t, "doc-1", at(wednesday, 10))

	res, err := f.svc.Edit(ctx, clinicID, appt.ID, model.AppointmentPatch{ScheduledAt: model.Some(at(wednesday, 11))})
	if err != nil || !res.Success {
		t.Fatalf("Edit: %+v %v", res, err)
	}
	res, err = f.svc.Update(ctx, clinicID, other.ID, model.AppointmentPatch{ScheduledAt: model.Some(at(wednesday, 11))})
	if !errors.Is(err, model.ErrBookingConflict) || res.Message != lifecycle.MsgSlotTaken {
		t.Fatalf("the moved booking should be seen by the next move: %+v %v", res, err)
	}
	if f.store.poolReadsInTx != 0 {
		t.Fatalf("slot check read outside the transaction %d times", f.store.poolReadsInTx)
	}
}
