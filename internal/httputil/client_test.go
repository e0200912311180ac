package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetJSON(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"session_id": "abc", "frames": 20}`)

	var got struct {
		SessionID string `json:"session_id"`
		Frames    int    `json:"frames"`
	}
	if err := GetJSON(context.Background(), mock, "http://monitor/api/status", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got.SessionID != "abc" || got.Frames != 20 {
		t.Errorf("got %+v", got)
	}

	req := mock.Request(0)
	if req == nil {
		t.Fatal("request not recorded")
	}
	if req.Method != http.MethodGet || req.URL.Path != "/api/status" {
		t.Errorf("request = %s %s", req.Method, req.URL.Path)
	}
}

func TestPostJSON(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `{"session_id": "new"}`)

	var got map[string]string
	if err := PostJSON(context.Background(), mock, "http://monitor/api/reset", &got); err != nil {
		t.Fatalf("PostJSON failed: %v", err)
	}
	if got["session_id"] != "new" {
		t.Errorf("session_id = %q", got["session_id"])
	}
	if mock.Request(0).Method != http.MethodPost {
		t.Errorf("method = %s, want POST", mock.Request(0).Method)
	}
}

func TestStatusError(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusBadRequest, `{"error": "invalid 'limit' parameter"}`)
	mock.AddResponse(http.StatusBadGateway, `<html>bad gateway</html>`)

	err := GetJSON(context.Background(), mock, "http://monitor/api/frames?limit=x", nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusBadRequest || se.Message != "invalid 'limit' parameter" {
		t.Errorf("got %+v", se)
	}
	if se.Error() != "http status 400: invalid 'limit' parameter" {
		t.Errorf("Error() = %q", se.Error())
	}

	err = GetJSON(context.Background(), mock, "http://monitor/api/frames", nil)
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if se.Message != "" || se.Error() != "http status 502" {
		t.Errorf("got %+v", se)
	}
}

func TestTransportError(t *testing.T) {
	mock := NewMockHTTPClient()
	refused := errors.New("connection refused")
	mock.AddErrorResponse(refused)

	err := GetJSON(context.Background(), mock, "http://monitor/api/status", nil)
	if !errors.Is(err, refused) {
		t.Errorf("err = %v, want wrapped %v", err, refused)
	}
}

func TestMockDefaultResponse(t *testing.T) {
	mock := NewMockHTTPClient()

	var got map[string]interface{}
	if err := GetJSON(context.Background(), mock, "http://monitor/api/status", &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty object", got)
	}
	if mock.RequestCount() != 1 {
		t.Errorf("got %d requests, want 1", mock.RequestCount())
	}
	if mock.Request(5) != nil {
		t.Error("expected nil for out-of-range request")
	}
}

func TestDecodeFailure(t *testing.T) {
	mock := NewMockHTTPClient()
	mock.AddResponse(http.StatusOK, `not json`)

	var got map[string]string
	if err := GetJSON(context.Background(), mock, "http://monitor/api/status", &got); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGetJSONAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			MethodNotAllowed(w)
			return
		}
		WriteJSONOK(w, map[string]int{"count": 3})
	}))
	defer srv.Close()

	var got map[string]int
	if err := GetJSON(context.Background(), srv.Client(), srv.URL, &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got["count"] != 3 {
		t.Errorf("count = %d, want 3", got["count"])
	}

	err := PostJSON(context.Background(), srv.Client(), srv.URL, nil)
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("err = %v, want 405", err)
	}
}
