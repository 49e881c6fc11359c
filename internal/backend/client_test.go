// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		origin string
		want   string
	}{
		{"", DevelopmentURL},
		{"http://localhost:3000", DevelopmentURL},
		{"http://127.0.0.1:5500/", DevelopmentURL},
		{"http://[::1]:8080", DevelopmentURL},
		{"localhost:3000", DevelopmentURL},
		{"https://chat.kluniversity.in", "https://chat.kluniversity.in"},
		{"https://chat.kluniversity.in/", "https://chat.kluniversity.in"},
		{"kluniversity.in", "http://kluniversity.in"},
	}
	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveBaseURL(tc.origin))
		})
	}
}

func TestChat_Success(t *testing.T) {
	var got ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ChatPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"Admissions open in January.","sources":["Admissions FAQ","Website"],"tools_used":["faq_search"],"response_time":1.42}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Chat(context.Background(), "When do admissions open?")
	require.NoError(t, err)

	assert.Equal(t, "When do admissions open?", got.Message)
	assert.Equal(t, "Admissions open in January.", resp.Answer)
	assert.Equal(t, []string{"Admissions FAQ", "Website"}, resp.Sources)
	assert.Equal(t, 1.42, resp.ResponseTime)
}

func TestChat_SlowAnswerWithoutTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"answer":"Fees are paid per semester.","sources":[],"response_time":0.3}`))
	}))
	defer server.Close()

	resp, err := NewClient(server.URL).Chat(context.Background(), "fees")
	require.NoError(t, err)
	assert.Equal(t, "Fees are paid per semester.", resp.Answer)

	_, err = NewClient(server.URL).WithTimeout(50*time.Millisecond).Chat(context.Background(), "fees")
	assert.Error(t, err)
}

func TestChat_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), "hi")
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
}

func TestChat_MalformedBody(t *testing.T) {
	bodies := map[string]string{
		"not json":       "<html>oops</html>",
		"missing answer": `{"sources":[],"response_time":0.1}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer server.Close()

			_, err := NewClient(server.URL).Chat(context.Background(), "hi")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestChat_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url).Chat(context.Background(), "hi")
	assert.Error(t, err)
}

func TestChat_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Chat(context.Background(), "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChat_EmptyMessage(t *testing.T) {
	_, err := NewClient("http://unused").Chat(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.Write([]byte(`{"status":"running"}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	assert.True(t, NewClient(server.URL).Healthy(context.Background()))
	assert.False(t, NewClient(server.URL+"/nope").Healthy(context.Background()))
}
