package main

import (
	"bytes"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServerErrorLogsTheError(t *testing.T) {
	var buf bytes.Buffer
	app := &application{errorLog: log.New(&buf, "", 0)}

	rr := httptest.NewRecorder()
	app.serverError(rr, errors.New("redis connection refused"))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
	if !strings.Contains(buf.String(), "redis connection refused") {
		t.Errorf("log is missing the error text: %q", buf.String())
	}
}
