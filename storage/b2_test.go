package storage

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeB2 serves the subset of the B2 API the client uses
type fakeB2 struct {
	server        *httptest.Server
	authorizes    int
	uploadedName  string
	uploadedBody  []byte
	uploadedMime  string
	downloadAuths int
}

func newFakeB2(t *testing.T) *fakeB2 {
	f := &fakeB2{}
	mux := http.NewServeMux()

	mux.HandleFunc("/b2_authorize_account", func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key-id", user)
		f.authorizes++
		json.NewEncoder(w).Encode(map[string]string{
			"apiUrl":             f.server.URL,
			"downloadUrl":        "https://f005.backblazeb2.example",
			"authorizationToken": "account-token",
		})
	})

	mux.HandleFunc("/b2api/v2/b2_get_upload_url", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "account-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"uploadUrl":          f.server.URL + "/upload",
			"authorizationToken": "upload-token",
		})
	})

	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "upload-token", r.Header.Get("Authorization"))
		f.uploadedName = r.Header.Get("X-Bz-File-Name")
		f.uploadedMime = r.Header.Get("Content-Type")
		f.uploadedBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(map[string]string{"fileId": "file-1"})
	})

	mux.HandleFunc("/b2api/v2/b2_list_file_names", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bucket-id", req["bucketId"])
		assert.Equal(t, "GALHL/", req["prefix"])
		json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"fileName": "GALHL/selfie_1.png"},
				{"fileName": "GALHL/selfie_2.png"},
			},
		})
	})

	mux.HandleFunc("/b2api/v2/b2_get_download_authorization", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "GALHL/selfie_1.png", req["fileNamePrefix"])
		assert.Equal(t, float64(300), req["validDurationInSeconds"])
		f.downloadAuths++
		json.NewEncoder(w).Encode(map[string]string{"authorizationToken": "download-token"})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(t *testing.T, fake *fakeB2) *Client {
	client, err := NewClient("key-id", "key", "bucket-id", "seraphina-bucket")
	require.NoError(t, err)
	client.authURL = fake.server.URL + "/b2_authorize_account"
	return client
}

func TestClient_Upload(t *testing.T) {
	fake := newFakeB2(t)
	client := newTestClient(t, fake)

	url, err := client.Upload(context.Background(), "images/a_cat_1.png", "image/png", []byte("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "https://f005.backblazeb2.example/file/seraphina-bucket/images/a_cat_1.png", url)
	assert.Equal(t, "images/a_cat_1.png", fake.uploadedName)
	assert.Equal(t, "image/png", fake.uploadedMime)
	assert.Equal(t, []byte("png-bytes"), fake.uploadedBody)
}

func TestClient_ListFileNames(t *testing.T) {
	fake := newFakeB2(t)
	client := newTestClient(t, fake)

	names, err := client.ListFileNames(context.Background(), "GALHL/")
	require.NoError(t, err)
	assert.Equal(t, []string{"GALHL/selfie_1.png", "GALHL/selfie_2.png"}, names)
}

func TestClient_PresignURL(t *testing.T) {
	fake := newFakeB2(t)
	client := newTestClient(t, fake)

	url, err := client.PresignURL(context.Background(), "GALHL/selfie_1.png", 5*time.Minute)
	require.NoError(t, err)

	assert.Equal(t,
		"https://f005.backblazeb2.example/file/seraphina-bucket/GALHL/selfie_1.png?Authorization=download-token",
		url)
	assert.Equal(t, 1, fake.downloadAuths)
}

func TestClient_AuthorizationIsCached(t *testing.T) {
	fake := newFakeB2(t)
	client := newTestClient(t, fake)

	_, err := client.ListFileNames(context.Background(), "GALHL/")
	require.NoError(t, err)
	_, err = client.PresignURL(context.Background(), "GALHL/selfie_1.png", 5*time.Minute)
	require.NoError(t, err)

	// One token serves every call inside its lifetime
	assert.Equal(t, 1, fake.authorizes)
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient("", "key", "bucket-id", "bucket")
	assert.Error(t, err)

	_, err = NewClient("key-id", "key", "", "bucket")
	assert.Error(t, err)
}

func TestEscapeFileName(t *testing.T) {
	assert.Equal(t, "images/a_cat_1.png", escapeFileName("images/a_cat_1.png"))
	assert.Equal(t, "images/caf%C3%A9.png", escapeFileName("images/café.png"))
}
