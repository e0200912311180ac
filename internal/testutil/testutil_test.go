package testutil

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAssertStatusCode(t *testing.T) {
	t.Parallel()

	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertStatusCode(t, http.StatusNotFound, http.StatusNotFound)
}

func TestAssertNoError(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
}

func TestServeRequest(t *testing.T) {
	t.Parallel()

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, "%s %s", r.Method, r.URL.RequestURI())
	})

	rec := ServeRequest(h, http.MethodPost, "/api/reset?force=1")
	AssertStatusCode(t, rec.Code, http.StatusAccepted)
	if got := rec.Body.String(); got != "POST /api/reset?force=1" {
		t.Errorf("body = %q", got)
	}
}
