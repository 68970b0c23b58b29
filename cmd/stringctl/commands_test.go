package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, handler http.HandlerFunc, args ...string) (string, error) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var out bytes.Buffer
	root := newRootCmd(&out, zerolog.Nop())
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--url", srv.URL, "--retries", "0"}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestHealthCmd(t *testing.T) {
	out, err := runCmd(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}, "health")
	require.NoError(t, err)
	assert.Equal(t, "healthy\n", out)
}

func TestListCmd_OnlyChangedFlagsAreSent(t *testing.T) {
	_, err := runCmd(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "false", q.Get("is_palindrome"))
		assert.Equal(t, "2", q.Get("word_count"))
		assert.False(t, q.Has("min_length"))
		assert.False(t, q.Has("max_length"))
		assert.False(t, q.Has("contains_character"))
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}, "count": 0})
	}, "list", "--palindrome=false", "--word-count", "2")
	require.NoError(t, err)
}

func TestQueryCmd_JoinsArgs(t *testing.T) {
	out, err := runCmd(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "strings longer than 10 characters", r.URL.Query().Get("query"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data":  []interface{}{},
			"count": 0,
			"interpreted_query": map[string]interface{}{
				"original":       "strings longer than 10 characters",
				"kind":           "natural_language",
				"parsed_filters": map[string]interface{}{"min_length": 11},
			},
		})
	}, "query", "strings", "longer", "than", "10", "characters")
	require.NoError(t, err)
	assert.Contains(t, out, `"min_length": 11`)
}

func TestDeleteCmd_NotFound(t *testing.T) {
	_, err := runCmd(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"detail": "String does not exist in the system"})
	}, "delete", "missing")
	assert.ErrorContains(t, err, "String does not exist in the system")
}

func TestCreateCmd_RequiresValue(t *testing.T) {
	_, err := runCmd(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}, "create")
	assert.Error(t, err)
}
