package analyzer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeParsesBackendResponse(t *testing.T) {
	var gotPath, gotField, gotFileName string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		file, header, err := r.FormFile("file")
		if err == nil {
			gotField = "file"
			gotFileName = header.Filename
			file.Close()
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"summary": "Cats are mammals. Dogs are mammals too. Birds are not.",
			"quiz": [{"question": "Is a cat a mammal?", "options": ["Yes", "No"], "answer": "Yes"}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	result, usedFallback := client.Analyze(context.Background(), "notes.jpg", strings.NewReader("fake image bytes"))

	assert.False(t, usedFallback)
	assert.Equal(t, "/upload", gotPath)
	assert.Equal(t, "file", gotField)
	assert.Equal(t, "notes.jpg", gotFileName)

	require.Len(t, result.Quiz, 1)
	assert.Equal(t, "Is a cat a mammal?", result.Quiz[0].Question)
	assert.Equal(t, "Yes", result.Quiz[0].Answer)
	assert.Contains(t, result.Summary, "Cats are mammals")
}

func TestAnalyzeUnreachableBackendFallsBack(t *testing.T) {
	// A server that's already closed guarantees a connection error.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, nil)
	result, usedFallback := client.Analyze(context.Background(), "notes.jpg", strings.NewReader("x"))

	assert.True(t, usedFallback)
	require.NotNil(t, result)
	assert.Equal(t, FallbackResult().Summary, result.Summary)
	require.Len(t, result.Quiz, 1)
	assert.Equal(t, "Sample Question?", result.Quiz[0].Question)
}

func TestAnalyzeNon200FallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, usedFallback := client.Analyze(context.Background(), "notes.jpg", strings.NewReader("x"))

	assert.True(t, usedFallback)
}

func TestAnalyzeMalformedJSONFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("```json not actually json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, usedFallback := client.Analyze(context.Background(), "notes.jpg", strings.NewReader("x"))

	assert.True(t, usedFallback)
}

func TestFallbackResultShape(t *testing.T) {
	fallback := FallbackResult()

	require.Len(t, fallback.Quiz, 1)
	assert.Contains(t, fallback.Quiz[0].Options, fallback.Quiz[0].Answer)
	assert.NotEmpty(t, fallback.Summary)
}
