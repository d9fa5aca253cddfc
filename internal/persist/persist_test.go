package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/taskflow/internal/apperr"
	"github.com/starford/taskflow/internal/kv"
	"github.com/starford/taskflow/internal/models"
)

var t0 = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) ofType(typ string) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func newStore(t *testing.T, opts ...Option) (*Store, *kv.Memory) {
	t.Helper()
	m := kv.NewMemory(0)
	s, err := New(m, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return s, m
}

func sampleLists() []models.List {
	due := t0.Add(48 * time.Hour)
	est := 25
	return []models.List{{
		ID:         "l1",
		Title:      "Home",
		Color:      models.ColorGreen,
		SortMethod: models.SortManual,
		CreatedAt:  t0,
		Tasks: []models.Task{{
			ID:            "t1",
			Title:         "Water plants",
			Priority:      models.PriorityLow,
			CreatedAt:     t0,
			UpdatedAt:     t0,
			DueDate:       &due,
			Tags:          []string{"garden"},
			Subtasks:      []models.Subtask{{ID: "s1", Title: "Fern", CreatedAt: t0}},
			EstimatedTime: &est,
		}},
	}}
}

func jsonEqual(t *testing.T, got, want any) {
	t.Helper()
	g, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	w, err := json.Marshal(want)
	if err != nil {
		t.Fatal(err)
	}
	if string(g) != string(w) {
		t.Fatalf("mismatch:\n got  %s\n want %s", g, w)
	}
}

func mustGet(t *testing.T, m kv.Medium, key string) string {
	t.Helper()
	v, ok, err := m.Get(key)
	if err != nil || !ok {
		t.Fatalf("get %s: ok=%v err=%v", key, ok, err)
	}
	return v
}

func TestNewRequiresMedium(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil medium")
	}
}

func TestLoadMissingReturnsDefault(t *testing.T) {
	s, _ := newStore(t)
	got := Load(s, s.Key(DocLists), []models.List{})
	if got == nil || len(got) != 0 {
		t.Fatalf("got %v, want empty slice", got)
	}
}

func TestRoundTrip(t *testing.T) {
	s, _ := newStore(t)
	key := s.Key(DocLists)
	lists := sampleLists()
	if err := s.Save(key, lists); err != nil {
		t.Fatal(err)
	}
	jsonEqual(t, Load(s, key, []models.List{}), lists)
	got := Load(s, key, []models.List{})
	if !got[0].Tasks[0].DueDate.Equal(*lists[0].Tasks[0].DueDate) {
		t.Errorf("due date = %v", got[0].Tasks[0].DueDate)
	}
}

func TestSaveKeepsOneGenerationBackup(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocTemplates)
	first := []models.Template{{ID: "a", Name: "A", Title: "A", CreatedAt: t0}}
	second := []models.Template{{ID: "b", Name: "B", Title: "B", CreatedAt: t0}}

	if err := s.Save(key, first); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := m.Get(BackupKey(key)); ok {
		t.Fatal("first save must not create a backup")
	}
	if err := s.Save(key, second); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(key, second); err != nil {
		t.Fatal(err)
	}

	jsonEqual(t, Load(s, key, []models.Template{}), second)
	want, _ := json.Marshal(second)
	if got := mustGet(t, m, BackupKey(key)); got != string(want) {
		t.Errorf("backup = %s, want %s", got, want)
	}
}

func TestLoadFallsBackToBackup(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocLists)
	lists := sampleLists()
	if err := s.Save(key, lists); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(key, []models.List{}); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(key, "{not json"); err != nil {
		t.Fatal(err)
	}
	jsonEqual(t, Load(s, key, []models.List{}), lists)
}

func TestLoadSchemaMismatchFallsBack(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocLists)
	_ = m.Set(key, `[{"id":"l1"}]`)
	_ = m.Set(BackupKey(key), `[{"id":"l1","title":"Home","tasks":[]}]`)

	got := Load(s, key, []models.List{})
	if len(got) != 1 || got[0].Title != "Home" {
		t.Fatalf("got %+v, want backup value", got)
	}
}

func TestLoadBothInvalidReturnsDefault(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocEvents)
	def := []models.Event{{ID: "d", Title: "default", Start: t0, End: t0}}

	_ = m.Set(key, "{{")
	jsonEqual(t, Load(s, key, def), def)

	_ = m.Set(BackupKey(key), "also broken")
	jsonEqual(t, Load(s, key, def), def)
}

func TestLoadNullIsAbsent(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocTemplates)
	_ = m.Set(key, "null")
	_ = m.Set(BackupKey(key), `[{"id":"x","name":"x","title":"x"}]`)
	if got := Load(s, key, []models.Template{}); len(got) != 0 {
		t.Fatalf("null should yield the default, got %+v", got)
	}
}

func TestLoadUnwrapsEnvelope(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocLists)
	_ = m.Set(key, `{"data":[{"id":"l1","title":"Work","tasks":[]}],"timestamp":"2024-01-01T00:00:00Z","version":"1.0.0"}`)
	got := Load(s, key, []models.List{})
	if len(got) != 1 || got[0].Title != "Work" {
		t.Fatalf("got %+v", got)
	}
}

func TestSettingsDeepMerge(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocSettings)
	_ = m.Set(key, `{"theme":"dark","notifications":{"email":true},"security":{"ipWhitelist":["10.0.0.1"]}}`)

	got := Load(s, key, models.DefaultSettings())
	if got.Theme != "dark" {
		t.Errorf("theme = %q, want stored value", got.Theme)
	}
	if !got.Notifications.Email {
		t.Error("stored nested leaf lost")
	}
	if !got.Notifications.Enabled || got.Notifications.ReminderTime != "09:00" {
		t.Error("default sibling fields not merged in")
	}
	if got.Security.SessionTimeout != 480 || len(got.Security.IPWhitelist) != 1 {
		t.Errorf("security = %+v", got.Security)
	}
	if got.WorkingHours.End != "17:00" {
		t.Errorf("missing top-level object not defaulted: %+v", got.WorkingHours)
	}
}

func TestSettingsMergeKeepsUnknownFields(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocSettings)
	_ = m.Set(key, `{"theme":"dark","experimental":{"beta":true}}`)

	def := map[string]any{"theme": "light", "language": "en"}
	got := Load(s, key, def)
	if got["theme"] != "dark" || got["language"] != "en" {
		t.Errorf("got %v", got)
	}
	if _, ok := got["experimental"]; !ok {
		t.Error("stored field without default was dropped")
	}
}

func TestSettingsUndecodableFallsBack(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocSettings)
	_ = m.Set(key, `{"theme":5}`)
	if got := Load(s, key, models.DefaultSettings()); got.Theme != "light" {
		t.Errorf("theme = %q, want default", got.Theme)
	}
}

func TestDeepMerge(t *testing.T) {
	base := map[string]any{
		"a":    1.0,
		"tags": []any{"x", "y"},
		"nest": map[string]any{"keep": true, "over": "base"},
	}
	override := map[string]any{
		"tags": []any{"z"},
		"nest": map[string]any{"over": "new"},
		"b":    "added",
	}
	got := DeepMerge(base, override)
	nest := got["nest"].(map[string]any)
	if nest["keep"] != true || nest["over"] != "new" {
		t.Errorf("nest = %v", nest)
	}
	if tags := got["tags"].([]any); len(tags) != 1 || tags[0] != "z" {
		t.Errorf("arrays must be replaced, got %v", tags)
	}
	if got["a"] != 1.0 || got["b"] != "added" {
		t.Errorf("got %v", got)
	}
	if base["nest"].(map[string]any)["over"] != "base" {
		t.Error("base was modified")
	}
}

func TestMigrationNoOpWhenCurrentHasData(t *testing.T) {
	s, m := newStore(t)
	_ = m.Set("todo-lists", `[{"id":"A","title":"A","tasks":[]}]`)
	_ = m.Set(s.Key(DocLists), `[{"id":"B","title":"B","tasks":[]}]`)

	report := s.MigrateLegacyKeys()
	if !report.Success || len(report.Migrated) != 0 {
		t.Fatalf("report = %+v", report)
	}
	if got := mustGet(t, m, s.Key(DocLists)); !strings.Contains(got, `"B"`) {
		t.Errorf("current key changed: %s", got)
	}
	if _, ok, _ := m.Get("todo-lists"); !ok {
		t.Error("legacy key deleted")
	}
}

func TestMigrationCopiesAndClears(t *testing.T) {
	s, m := newStore(t)
	legacy := `[{"id":"A","title":"A","tasks":[]}]`
	_ = m.Set("todo-lists", legacy)
	_ = m.Set("app-settings", `{"theme":"dark"}`)

	report := s.MigrateLegacyKeys()
	if !report.Success || len(report.Migrated) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if got := mustGet(t, m, s.Key(DocLists)); got != legacy {
		t.Errorf("lists = %s", got)
	}
	if _, ok, _ := m.Get("todo-lists"); ok {
		t.Error("legacy key still present")
	}
	if got := Load(s, s.Key(DocSettings), models.DefaultSettings()); got.Theme != "dark" {
		t.Errorf("theme = %q", got.Theme)
	}
}

func TestMigrationLogsAtInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, m := newStore(t, WithLogger(logger))
	_ = m.Set("todo-lists", `[]`)

	s.MigrateLegacyKeys()

	var migrated int
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		if rec["msg"] == "migrated legacy key" {
			migrated++
			if rec["level"] != "INFO" {
				t.Errorf("level = %v, want INFO", rec["level"])
			}
		}
	}
	if migrated != 1 {
		t.Errorf("migration log lines = %d, want 1", migrated)
	}
}

func TestEnsureStateSeedsAbsentDocuments(t *testing.T) {
	s, m := newStore(t)
	_ = m.Set(s.Key(DocTemplates), `[{"id":"tp","name":"n","title":"t"}]`)

	st, err := s.EnsureState()
	if err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, m, s.Key(DocTemplates)); got != `[{"id":"tp","name":"n","title":"t"}]` {
		t.Errorf("present document rewritten: %s", got)
	}
	if _, ok, _ := m.Get(BackupKey(s.Key(DocTemplates))); ok {
		t.Error("present document got a backup")
	}
	if r := s.Validate(s.Key(DocSettings), s.SchemaFor(DocSettings)); !r.Valid {
		t.Errorf("settings after seeding: %+v", r)
	}

	again := s.LoadState()
	if len(again.Lists) != 1 || again.Lists[0].ID != st.Lists[0].ID {
		t.Errorf("default list id not stable: %+v vs %+v", again.Lists, st.Lists)
	}
	if len(again.Templates) != 1 || again.Templates[0].ID != "tp" {
		t.Errorf("templates = %+v", again.Templates)
	}
}

func TestEnsureStateReportsQuota(t *testing.T) {
	s, m := newStore(t)
	m.SetQuota(1)
	st, err := s.EnsureState()
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v", err)
	}
	if len(st.Lists) != 1 {
		t.Errorf("state = %+v", st)
	}
}

func TestMigrationCollectsErrors(t *testing.T) {
	s, m := newStore(t)
	_ = m.Set("todo-lists", `[]`)
	_ = m.Set("task-templates", `[]`)
	m.FailSetWith(func(key, _ string) error {
		if key == s.Key(DocTemplates) {
			return errors.New("disk on fire")
		}
		return nil
	})

	report := s.MigrateLegacyKeys()
	if report.Success {
		t.Fatal("expected failure")
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "task-templates") {
		t.Errorf("errors = %v", report.Errors)
	}
	if len(report.Migrated) != 1 {
		t.Errorf("migration should continue past errors: %v", report.Migrated)
	}
	if _, ok, _ := m.Get("task-templates"); !ok {
		t.Error("failed legacy key must be kept")
	}
}

func TestMigrationSkipsCoincidingKeys(t *testing.T) {
	s, m := newStore(t, WithNamespace(""))
	_ = m.Set("calendar-events", `[]`)
	report := s.MigrateLegacyKeys()
	if len(report.Migrated) != 0 {
		t.Fatalf("migrated = %v", report.Migrated)
	}
	if _, ok, _ := m.Get("calendar-events"); !ok {
		t.Fatal("events removed")
	}
}

func TestValidate(t *testing.T) {
	s, m := newStore(t)
	lists := s.Key(DocLists)
	schema := s.SchemaFor(DocLists)

	if r := s.Validate(lists, schema); !r.Valid {
		t.Errorf("missing lists should be valid: %+v", r)
	}
	_ = m.Set(lists, `[{"id":"l1","title":"x","tasks":[{"id":"t1","title":"y","completed":true}]}]`)
	if r := s.Validate(lists, schema); !r.Valid {
		t.Errorf("valid lists rejected: %+v", r)
	}
	_ = m.Set(lists, `[{"id":"l1","title":"x","tasks":[{"id":"t1","title":"y","completed":"yes"}]}]`)
	r := s.Validate(lists, schema)
	if r.Valid || !strings.Contains(r.Reason, "/0/tasks/0/completed") {
		t.Errorf("bad completed type: %+v", r)
	}
	_ = m.Set(lists, `{"id":"l1"}`)
	if r := s.Validate(lists, schema); r.Valid {
		t.Error("object accepted as lists")
	}
	_ = m.Set(lists, `[`)
	if r := s.Validate(lists, schema); r.Valid || !strings.HasPrefix(r.Reason, "malformed JSON") {
		t.Errorf("malformed: %+v", r)
	}

	settings := s.Key(DocSettings)
	if r := s.Validate(settings, s.SchemaFor(DocSettings)); r.Valid || r.Reason != "no settings found" {
		t.Errorf("missing settings: %+v", r)
	}
}

func TestValidateCustomSchema(t *testing.T) {
	s, m := newStore(t)
	schema, err := CompileSchema("nonempty", []byte(`{"type":"array","minItems":1}`))
	if err != nil {
		t.Fatal(err)
	}
	_ = m.Set("custom", `[]`)
	if r := s.Validate("custom", schema); r.Valid {
		t.Error("empty array accepted")
	}
	if _, err := CompileSchema("broken", []byte(`{"type":`)); err == nil {
		t.Error("expected compile error")
	}
}

func TestValidateAll(t *testing.T) {
	s, _ := newStore(t)
	if err := s.Save(s.Key(DocSettings), models.DefaultSettings()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(s.Key(DocEvents), []models.Event{{ID: "e", Title: "x", Start: t0, End: t0}}); err != nil {
		t.Fatal(err)
	}
	for d, r := range s.ValidateAll() {
		if !r.Valid {
			t.Errorf("%s: %s", d, r.Reason)
		}
	}
}

func TestSnapshotRetention(t *testing.T) {
	s, _ := newStore(t, WithClock(func() time.Time { return t0 }))
	if err := s.Save(s.Key(DocLists), sampleLists()); err != nil {
		t.Fatal(err)
	}
	var ids []string
	for i := 0; i < 7; i++ {
		id, err := s.CreateSnapshot()
		if err != nil {
			t.Fatal(err)
		}
		if len(ids) > 0 && id <= ids[len(ids)-1] {
			t.Fatalf("ids not increasing: %s after %s", id, ids[len(ids)-1])
		}
		ids = append(ids, id)
	}

	infos, err := s.ListSnapshots()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != DefaultRetention {
		t.Fatalf("retained %d snapshots, want %d", len(infos), DefaultRetention)
	}
	if infos[0].ID != ids[6] || infos[4].ID != ids[2] {
		t.Errorf("order = %v", infos)
	}
	if len(infos[0].Documents) != 1 || infos[0].Documents[0] != DocLists {
		t.Errorf("documents = %v", infos[0].Documents)
	}
	for _, gone := range ids[:2] {
		if _, err := s.GetSnapshot(gone); !errors.Is(err, apperr.ErrNotFound) {
			t.Errorf("snapshot %s: err = %v, want not found", gone, err)
		}
	}
	for _, kept := range ids[2:] {
		if _, err := s.GetSnapshot(kept); err != nil {
			t.Errorf("snapshot %s: %v", kept, err)
		}
	}
}

func TestSnapshotKeyFormat(t *testing.T) {
	s, m := newStore(t, WithClock(func() time.Time { return t0 }))
	id, err := s.CreateSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	want := fmt.Sprintf("%d", t0.UnixMilli())
	if id != want {
		t.Errorf("id = %s, want %s", id, want)
	}
	raw := mustGet(t, m, "task-flow-backup-"+want)
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Version != FormatVersion || snap.Checksum == "" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSnapshotRestore(t *testing.T) {
	rec := &recorder{}
	s, m := newStore(t, WithNotifier(rec))
	key := s.Key(DocLists)
	original := sampleLists()
	if err := s.Save(key, original); err != nil {
		t.Fatal(err)
	}
	id, err := s.CreateSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	replaced := []models.List{{ID: "other", Title: "Other", Tasks: []models.Task{}}}
	if err := s.Save(key, replaced); err != nil {
		t.Fatal(err)
	}

	if err := s.RestoreSnapshot(id); err != nil {
		t.Fatal(err)
	}
	jsonEqual(t, Load(s, key, []models.List{}), original)
	wantBackup, _ := json.Marshal(replaced)
	if got := mustGet(t, m, BackupKey(key)); got != string(wantBackup) {
		t.Errorf("backup = %s, want pre-restore value", got)
	}
	if evs := rec.ofType(EventSnapshotRestored); len(evs) != 1 || evs[0].ID != id {
		t.Errorf("restore events = %+v", evs)
	}
}

func TestRestoreCorruptSnapshot(t *testing.T) {
	s, m := newStore(t)
	key := s.Key(DocLists)
	if err := s.Save(key, sampleLists()); err != nil {
		t.Fatal(err)
	}
	id, err := s.CreateSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	var snap Snapshot
	_ = json.Unmarshal([]byte(mustGet(t, m, s.SnapshotKey(id))), &snap)
	snap.Data[DocLists] = json.RawMessage(`[]`)
	tampered, _ := json.Marshal(snap)
	_ = m.Set(s.SnapshotKey(id), string(tampered))

	before := mustGet(t, m, key)
	if err := s.RestoreSnapshot(id); !errors.Is(err, apperr.ErrSnapshotCorrupt) {
		t.Fatalf("err = %v, want corrupt", err)
	}
	if got := mustGet(t, m, key); got != before {
		t.Error("corrupt restore wrote data")
	}

	_ = m.Set(s.SnapshotKey(id), "garbage")
	if err := s.RestoreSnapshot(id); !errors.Is(err, apperr.ErrSnapshotCorrupt) {
		t.Fatalf("err = %v, want corrupt", err)
	}
	if err := s.RestoreSnapshot("1000000000000"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func bigTemplates(n int) []models.Template {
	out := make([]models.Template, n)
	for i := range out {
		out[i] = models.Template{
			ID:          fmt.Sprintf("tpl-%04d", i),
			Name:        fmt.Sprintf("Template %d", i),
			Title:       "Recurring chore",
			Description: strings.Repeat("x", 120),
			Priority:    models.PriorityMedium,
			CreatedAt:   t0,
		}
	}
	return out
}

func TestQuotaEvictsBackupsAndRetries(t *testing.T) {
	rec := &recorder{}
	s, m := newStore(t, WithNotifier(rec))
	listsKey := s.Key(DocLists)

	if got := Load(s, listsKey, []models.List{}); len(got) != 0 {
		t.Fatalf("fresh load = %v", got)
	}
	home := []models.List{{ID: "l1", Title: "Home", Tasks: []models.Task{}}}
	if err := s.Save(listsKey, home); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(listsKey, home); err != nil {
		t.Fatal(err)
	}

	templates := bigTemplates(300)
	payload, _ := json.Marshal(templates)
	if len(payload) < 65*1024 {
		t.Fatalf("payload only %d bytes", len(payload))
	}
	used, _ := m.Used()
	need := int64(len(s.Key(DocTemplates)) + len(payload))
	m.SetQuota(used + need - 1)

	if err := s.Save(s.Key(DocTemplates), templates); err != nil {
		t.Fatalf("retry after eviction should succeed: %v", err)
	}
	if keys, _ := kv.KeysWithSuffix(m, "-backup"); len(keys) != 0 {
		t.Errorf("backups not evicted: %v", keys)
	}
	jsonEqual(t, Load(s, listsKey, []models.List{}), home)
	if got := Load(s, s.Key(DocTemplates), []models.Template{}); len(got) != 300 {
		t.Errorf("templates = %d", len(got))
	}
	saved := rec.ofType(EventDocumentSaved)
	last := saved[len(saved)-1]
	if last.Key != s.Key(DocTemplates) || last.ByteSize != len(payload) {
		t.Errorf("last event = %+v", last)
	}
}

func TestQuotaRetryFailureIsReported(t *testing.T) {
	rec := &recorder{}
	s, m := newStore(t, WithNotifier(rec))
	listsKey := s.Key(DocLists)
	home := []models.List{{ID: "l1", Title: "Home", Tasks: []models.Task{}}}
	if err := s.Save(listsKey, home); err != nil {
		t.Fatal(err)
	}
	used, _ := m.Used()
	m.SetQuota(used + 100)

	err := s.Save(s.Key(DocTemplates), bigTemplates(300))
	if !errors.Is(err, apperr.ErrQuotaExceeded) {
		t.Fatalf("err = %v, want quota exceeded", err)
	}
	jsonEqual(t, Load(s, listsKey, []models.List{}), home)
	if _, ok, _ := m.Get(s.Key(DocTemplates)); ok {
		t.Error("failed document was written")
	}
	if n := len(rec.ofType(EventDocumentSaved)); n != 1 {
		t.Errorf("saved events = %d, want 1", n)
	}
}

func TestStatsClearAndRestoreBackups(t *testing.T) {
	rec := &recorder{}
	s, m := newStore(t, WithNotifier(rec))
	listsKey := s.Key(DocLists)
	if err := s.Save(listsKey, sampleLists()); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(listsKey, []models.List{}); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(s.Key(DocSettings), models.DefaultSettings()); err != nil {
		t.Fatal(err)
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if st.ItemCount != 2 || st.Breakdown[DocLists] != 2 {
		t.Errorf("stats = %+v", st)
	}
	if st.MediumBytes <= st.TotalBytes {
		t.Errorf("medium bytes %d should include keys and backups (total %d)", st.MediumBytes, st.TotalBytes)
	}

	restored, err := s.RestoreBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(restored) != 1 || restored[0] != DocLists {
		t.Errorf("restored = %v", restored)
	}
	jsonEqual(t, Load(s, listsKey, []models.List{}), sampleLists())

	if _, err := s.CreateSnapshot(); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	keys, _ := m.Keys()
	if len(keys) != 1 || !strings.HasPrefix(keys[0], "task-flow-backup-") {
		t.Errorf("after clear keys = %v, want only the snapshot", keys)
	}
	if len(rec.ofType(EventDocumentsCleared)) != 1 {
		t.Error("clear event not published")
	}
}

func TestStateRoundTrip(t *testing.T) {
	s, _ := newStore(t, WithClock(func() time.Time { return t0 }))
	def := s.LoadState()
	if len(def.Lists) != 1 || def.Lists[0].Title != "My Tasks" || def.Settings.Theme != "light" {
		t.Fatalf("default state = %+v", def)
	}

	st := State{Lists: sampleLists(), Settings: models.DefaultSettings()}
	st.Settings.Theme = "dark"
	if err := s.SaveState(st); err != nil {
		t.Fatal(err)
	}
	got := s.LoadState()
	jsonEqual(t, got.Lists, st.Lists)
	if got.Settings.Theme != "dark" || got.Templates == nil || len(got.Events) != 0 {
		t.Errorf("state = %+v", got)
	}
}

func TestInitialize(t *testing.T) {
	s, m := newStore(t)
	_ = m.Set("todo-lists", `[{"id":"A","title":"A","tasks":[]}]`)

	report, err := s.Initialize()
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Migration.Migrated) != 1 {
		t.Errorf("migration = %+v", report.Migration)
	}
	if !report.Validation[DocLists].Valid || report.Validation[DocSettings].Valid {
		t.Errorf("validation = %+v", report.Validation)
	}
	snap, err := s.GetSnapshot(report.SnapshotID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := snap.Data[DocLists]; !ok {
		t.Error("snapshot missing migrated lists")
	}
}

func TestParseDocument(t *testing.T) {
	if d, ok := ParseDocument("calendar-events"); !ok || d != DocEvents {
		t.Errorf("got %q %v", d, ok)
	}
	if _, ok := ParseDocument("notes"); ok {
		t.Error("unknown document accepted")
	}
}
