package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ecss/internal/jobs"
	"ecss/internal/launch"
	"ecss/internal/scheduler"
	"ecss/internal/store"

	logx "ecss/pkg/logx"
)

func testServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st := store.NewMemStore()
	eng := scheduler.New(scheduler.Options{
		Store:    st,
		Launcher: launch.New(launch.NewFakeOrchestrator(), "test-cluster", 0, 0, logx.Nop()),
		Triggers: jobs.NewRegistry(nil),
		Log:      logx.Nop(),
	})
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("engine Start: %v", err)
	}
	t.Cleanup(func() { eng.Stop(context.Background()) })

	s := New(Config{Debug: true}, eng, st, logx.Nop())
	return s, st
}

func doRequest(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestCreateGetListUpdateDeleteJob(t *testing.T) {
	s, _ := testServer(t)

	createRec := doRequest(s, http.MethodPost, "/jobs", map[string]interface{}{
		"taskDefinition": "worker",
		"schedule":       "0 * * * * * * *",
		"taskCount":      2,
	})
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", createRec.Code, createRec.Body.String())
	}
	var created createdResponse
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID != "worker" || created.Link.Href != "/jobs/worker" {
		t.Fatalf("unexpected create response: %+v", created)
	}

	getRec := doRequest(s, http.MethodGet, "/jobs/worker", nil)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", getRec.Code, getRec.Body.String())
	}

	listRec := doRequest(s, http.MethodGet, "/jobs?skip=0&count=10", nil)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", listRec.Code, listRec.Body.String())
	}
	var listResp pageMeta
	if err := json.Unmarshal(listRec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}

	updateRec := doRequest(s, http.MethodPut, "/jobs/worker", map[string]interface{}{
		"taskDefinition": "worker",
		"schedule":       "0 * * * * * * *",
		"taskCount":      5,
	})
	if updateRec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", updateRec.Code, updateRec.Body.String())
	}

	deleteRec := doRequest(s, http.MethodDelete, "/jobs/worker", nil)
	if deleteRec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body = %s", deleteRec.Code, deleteRec.Body.String())
	}

	missingRec := doRequest(s, http.MethodGet, "/jobs/worker", nil)
	if missingRec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", missingRec.Code)
	}
}

func TestCreateJobRejectsDuplicateID(t *testing.T) {
	s, _ := testServer(t)
	body := map[string]interface{}{
		"taskDefinition": "worker",
		"schedule":       "0 * * * * * * *",
		"taskCount":      1,
	}
	first := doRequest(s, http.MethodPost, "/jobs", body)
	if first.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", first.Code)
	}
	second := doRequest(s, http.MethodPost, "/jobs", body)
	if second.Code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate create, got %d", second.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(second.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Message != "Job worker already exists" {
		t.Fatalf("unexpected message: %q", errResp.Message)
	}
}

func TestCreateJobRejectsInvalidTaskDefinition(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(s, http.MethodPost, "/jobs", map[string]interface{}{
		"taskDefinition": "worker:3",
		"schedule":       "0 * * * * * * *",
		"taskCount":      1,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for revisioned task definition, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateJobRejectsUnknownTriggerField(t *testing.T) {
	s, _ := testServer(t)
	rec := doRequest(s, http.MethodPost, "/jobs", map[string]interface{}{
		"taskDefinition": "worker",
		"schedule":       "0 * * * * * * *",
		"taskCount":      1,
		"trigger": map[string]interface{}{
			"type":  jobs.TriggerTypeQueueDepth,
			"bogus": "field",
		},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown trigger field, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestCreateJobResolvesWildcardSchedule(t *testing.T) {
	s, st := testServer(t)
	rec := doRequest(s, http.MethodPost, "/jobs", map[string]interface{}{
		"id":             "wild",
		"taskDefinition": "worker",
		"schedule":       "? ? ? * * * * *",
		"taskCount":      1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", rec.Code, rec.Body.String())
	}
	stored, err := st.Get(context.Background(), "wild")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Schedule == "? ? ? * * * * *" {
		t.Fatal("expected wildcard schedule to be resolved before storage")
	}
}

func TestListJobsPagination(t *testing.T) {
	s, _ := testServer(t)
	for i := 0; i < 3; i++ {
		rec := doRequest(s, http.MethodPost, "/jobs", map[string]interface{}{
			"id":             string(rune('a' + i)),
			"taskDefinition": "worker",
			"schedule":       "0 * * * * * * *",
			"taskCount":      1,
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create %d status = %d", i, rec.Code)
		}
	}

	rec := doRequest(s, http.MethodGet, "/jobs?skip=0&count=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var resp pageMeta
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 2 {
		t.Fatalf("expected 2 jobs in first page, got %d", len(resp.Jobs))
	}
	if resp.Next == nil {
		t.Fatal("expected a next link when more pages remain")
	}
}
