package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		data       any
		wantStatus int
		wantBody   string
	}{
		{
			name:       "simple map",
			code:       http.StatusOK,
			data:       map[string]any{"key": "value"},
			wantStatus: http.StatusOK,
			wantBody:   `{"key":"value"}`,
		},
		{
			name:       "array",
			code:       http.StatusCreated,
			data:       []string{"a", "b", "c"},
			wantStatus: http.StatusCreated,
			wantBody:   `["a","b","c"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteJSON(w, tt.code, tt.data)

			if w.Code != tt.wantStatus {
				t.Errorf("WriteJSON() status = %v, want %v", w.Code, tt.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("WriteJSON() Content-Type = %v, want application/json", ct)
			}

			var got, want any
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			_ = json.Unmarshal([]byte(tt.wantBody), &want)
			gotJSON, _ := json.Marshal(got)
			wantJSON, _ := json.Marshal(want)
			if string(gotJSON) != string(wantJSON) {
				t.Errorf("WriteJSON() body = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
	}{
		{http.StatusBadRequest, "INVALID_ARGUMENT"},
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusBadGateway, "SERVICE_UNAVAILABLE"},
		{http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		WriteError(w, tt.status, "channel is required")

		if w.Code != tt.status {
			t.Errorf("WriteError() status = %v, want %v", w.Code, tt.status)
		}
		var body map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["message"] != "channel is required" {
			t.Errorf("WriteError() message = %q", body["message"])
		}
		if body["code"] != tt.wantCode {
			t.Errorf("WriteError(%d) code = %q, want %q", tt.status, body["code"], tt.wantCode)
		}
	}
}

func TestRequireChannel(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		ok     bool
		reason string
	}{
		{"valid", "room-1", true, ""},
		{"blank", "  ", false, "channel is required"},
		{"comma", "a,b", false, "invalid channel name: a,b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if got := RequireChannel(w, tt.value, "channel"); got != tt.ok {
				t.Fatalf("RequireChannel(%q) = %v, want %v", tt.value, got, tt.ok)
			}
			if tt.ok {
				return
			}
			if w.Code != http.StatusBadRequest {
				t.Errorf("RequireChannel() status = %v, want %v", w.Code, http.StatusBadRequest)
			}
			var body map[string]string
			_ = json.Unmarshal(w.Body.Bytes(), &body)
			if body["message"] != tt.reason {
				t.Errorf("RequireChannel() message = %q, want %q", body["message"], tt.reason)
			}
		})
	}
}

func TestRequireChannels(t *testing.T) {
	if !RequireChannels(httptest.NewRecorder(), []string{"room1"}, nil) {
		t.Error("RequireChannels() rejected a channel")
	}
	if !RequireChannels(httptest.NewRecorder(), nil, []string{"lobby"}) {
		t.Error("RequireChannels() rejected a group")
	}

	w := httptest.NewRecorder()
	if RequireChannels(w, nil, nil) || w.Code != http.StatusBadRequest {
		t.Error("RequireChannels() accepted an empty request")
	}

	w = httptest.NewRecorder()
	if RequireChannels(w, []string{"room1"}, []string{"bad/group"}) {
		t.Error("RequireChannels() accepted an invalid group")
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["message"] != "invalid group name: bad/group" {
		t.Errorf("RequireChannels() message = %q", body["message"])
	}
}
