package images

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/images/generations", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req generationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dall-e-3", req.Model)
		assert.Equal(t, "a cat in a hat", req.Prompt)
		assert.Equal(t, 1, req.N)
		assert.Equal(t, "1024x1024", req.Size)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"url": "https://provider.example/tmp/abc.png"}},
		})
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL+"/v1")
	require.NoError(t, err)

	url, err := client.Generate(context.Background(), "a cat in a hat")
	require.NoError(t, err)
	assert.Equal(t, "https://provider.example/tmp/abc.png", url)
}

func TestClient_Generate_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "content policy violation", "type": "invalid_request_error"},
		})
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL+"/v1")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "something")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content policy violation")
}

func TestClient_Generate_EmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": []map[string]string{}})
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL+"/v1")
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "something")
	assert.Error(t, err)
}

func TestClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	client, err := NewClient("test-key", "")
	require.NoError(t, err)

	data, err := client.Fetch(context.Background(), server.URL+"/img.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestClient_Fetch_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, err := NewClient("test-key", "")
	require.NoError(t, err)

	_, err = client.Fetch(context.Background(), server.URL+"/missing.png")
	assert.Error(t, err)
}

func TestNewClient_RequiresKey(t *testing.T) {
	_, err := NewClient("", "")
	assert.Error(t, err)
}
