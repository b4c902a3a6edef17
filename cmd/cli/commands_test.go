package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/LegalDragon/Pickleball-Community-sub007/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seenRequest struct {
	method string
	path   string
	key    string
	body   map[string]any
}

func newServer(t *testing.T, status int) (*httptest.Server, *seenRequest) {
	t.Helper()
	seen := &seenRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.method = r.Method
		seen.path = r.URL.Path
		seen.key = r.Header.Get(operatorHeader)
		if r.ContentLength > 0 {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&seen.body))
		}
		w.WriteHeader(status)
		w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsHitOperatorEndpoints(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		method string
		path   string
	}{
		{"drawing start", []string{"drawing", "start", "div-1"}, http.MethodPost, "/api/v1/divisions/div-1/drawing/start"},
		{"drawing next", []string{"drawing", "next", "div-1"}, http.MethodPost, "/api/v1/divisions/div-1/drawing/next"},
		{"drawing state", []string{"drawing", "state", "div-1"}, http.MethodGet, "/api/v1/divisions/div-1/drawing"},
		{"schedule clear", []string{"schedule", "clear", "div-1"}, http.MethodDelete, "/api/v1/divisions/div-1/schedule"},
		{"schedule finalize", []string{"schedule", "finalize", "div-1"}, http.MethodPost, "/api/v1/divisions/div-1/schedule/finalize"},
		{"waitlist promote", []string{"waitlist", "promote", "div-1", "unit-9"}, http.MethodPost, "/api/v1/divisions/div-1/units/unit-9/promote"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := newServer(t, http.StatusOK)
			args := append([]string{"--api-url", srv.URL, "--api-key", "op-key"}, tt.args...)
			out, err := run(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.method, seen.method)
			assert.Equal(t, tt.path, seen.path)
			assert.Equal(t, "op-key", seen.key)
			assert.Contains(t, out, "Status Code: 200")
		})
	}
}

func TestScheduleGenerateSendsOverrides(t *testing.T) {
	srv, seen := newServer(t, http.StatusCreated)
	_, err := run(t, "--api-url", srv.URL, "schedule", "generate", "div-1", "--target-units", "8", "--bracket-type", "RoundRobin")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/divisions/div-1/schedule", seen.path)
	assert.Equal(t, float64(8), seen.body["target_unit_count"])
	assert.Equal(t, "RoundRobin", seen.body["bracket_type"])
}

func TestAssignNumbersParsesPairs(t *testing.T) {
	srv, seen := newServer(t, http.StatusOK)
	_, err := run(t, "--api-url", srv.URL, "units", "assign-numbers", "div-1", "u-a=2", "u-b=1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"u-a": float64(2), "u-b": float64(1)}, seen.body["numbers"])

	_, err = run(t, "--api-url", srv.URL, "units", "assign-numbers", "div-1", "u-a")
	assert.Error(t, err)
}

func TestServerErrorFailsCommand(t *testing.T) {
	srv, _ := newServer(t, http.StatusConflict)
	out, err := run(t, "--api-url", srv.URL, "drawing", "complete", "div-1")
	assert.Error(t, err)
	assert.Contains(t, out, "Status Code: 409")
}

func TestHashKeyPrintsVerifiableHash(t *testing.T) {
	out, err := run(t, "hash-key", "op-key")
	require.NoError(t, err)
	assert.True(t, utils.CheckOperatorKey("op-key", strings.TrimSpace(out)))
}
