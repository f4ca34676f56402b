package handler

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rbfontana/acolhe/internal/database"
	"github.com/rbfontana/acolhe/internal/model"
	"github.com/rbfontana/acolhe/internal/store"
	"github.com/rbfontana/acolhe/internal/websocket"
)

type testEnv struct {
	db        *sql.DB
	families  *store.FamilyStore
	donations *store.DonationStore
	users     *store.UserStore
	sessions  *store.SessionStore
	hub       *websocket.Hub

	family   *FamilyHandler
	donation *DonationHandler
	auth     *AuthHandler
	report   *ReportHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.Default()
	families := store.NewFamilyStore(db)
	donations := store.NewDonationStore(db)
	hub := websocket.NewHub(logger)
	broadcast := NewBroadcaster(hub, families, donations, logger)

	return &testEnv{
		db:        db,
		families:  families,
		donations: donations,
		users:     store.NewUserStore(db),
		sessions:  store.NewSessionStore(db),
		hub:       hub,
		family:    NewFamilyHandler(families, donations, broadcast, logger),
		donation:  NewDonationHandler(donations, broadcast, logger),
		auth:      NewAuthHandler(store.NewUserStore(db), store.NewSessionStore(db), false, logger),
		report:    NewReportHandler(families, donations, logger),
	}
}

// doJSON routes the request through a mux registered with pattern so
// r.PathValue works in handlers.
func doJSON(t *testing.T, h http.HandlerFunc, method, pattern, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)

	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, h)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body: %s)", err, rec.Body.String())
	}
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decodeBody[map[string]string](t, rec)["code"]
}

func createFamily(t *testing.T, env *testEnv, name string) model.Family {
	t.Helper()
	f, err := env.families.Create(model.Family{ResponsibleName: name})
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return *f
}
