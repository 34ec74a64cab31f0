package ticktock

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
)

func TestStatusHandlerGet(t *testing.T) {
	f := newSuiteFixture(t)

	if _, err := f.suite.Alarms.Add(context.Background(), "06:45", "Gym", RecurWeekdays); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	rec := httptest.NewRecorder()
	StatusHandler(f.suite).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q, want application/json", ct)
	}

	var snap Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode body: %v", err)
	}

	if !snap.Time.Equal(epoch) {
		t.Fatalf("time = %v, want %v", snap.Time, epoch)
	}

	if len(snap.Alarms) != 1 || snap.Alarms[0].Label != "Gym" || snap.Alarms[0].Repeat != "Weekdays" {
		t.Fatalf("alarms = %+v", snap.Alarms)
	}
}

func TestStatusHandlerHead(t *testing.T) {
	f := newSuiteFixture(t)

	rec := httptest.NewRecorder()
	StatusHandler(f.suite).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	if rec.Body.Len() != 0 {
		t.Fatalf("HEAD body = %q, want empty", rec.Body.String())
	}
}

func TestStatusHandlerRejectsOtherMethods(t *testing.T) {
	f := newSuiteFixture(t)

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		rec := httptest.NewRecorder()
		StatusHandler(f.suite).ServeHTTP(rec, httptest.NewRequest(method, "/status", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s status = %d, want %d", method, rec.Code, http.StatusMethodNotAllowed)
		}

		if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
			t.Fatalf("Allow = %q, want %q", allow, "GET, HEAD")
		}
	}
}
