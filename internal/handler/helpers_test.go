package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pennypet/server/internal/ctxkeys"
	"github.com/pennypet/server/internal/db/dbtest"
	"github.com/pennypet/server/internal/realtime"
	"github.com/pennypet/server/internal/repository"
	"github.com/pennypet/server/internal/schedule"
	"github.com/pennypet/server/internal/service"
)

type testEnv struct {
	now      time.Time
	userID   string
	goals    *GoalHandler
	profiles *ProfileHandler
	goalSvc  *service.GoalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := dbtest.Open(t)
	broker := realtime.NewMemoryBroker()
	t.Cleanup(func() {
		_ = broker.Close()
	})

	env := &testEnv{
		now:    time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		userID: dbtest.CreateUser(t, database),
	}

	profileSvc := service.NewProfileService(repository.NewProfileRepository(database), broker)
	env.goalSvc = service.NewGoalService(
		repository.NewGoalRepository(database),
		repository.NewContributionRepository(database),
		profileSvc,
		nil,
		broker,
		schedule.ClockFunc(func() time.Time { return env.now }),
		10,
	)
	env.goals = NewGoalHandler(env.goalSvc)
	env.profiles = NewProfileHandler(profileSvc)

	return env
}

// do calls h as the test user. An empty userID sends the request unauthenticated.
func do(t *testing.T, h http.HandlerFunc, method, target, userID string, body any, pathValues ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		err := json.NewEncoder(&buf).Encode(body)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}
	if userID != "" {
		req = req.WithContext(ctxkeys.WithUserID(req.Context(), userID))
	}

	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	err := json.NewDecoder(rec.Body).Decode(&v)
	if err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
}
