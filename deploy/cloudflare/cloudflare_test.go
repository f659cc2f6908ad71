package cloudflare_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optimode/autodiscover/deploy"
	"github.com/optimode/autodiscover/deploy/cloudflare"
)

type fakeAPI struct {
	mu      sync.Mutex
	created []map[string]any
	status  string
	reject  string
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /user/tokens/verify", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "errors": []any{}, "messages": []any{},
			"result": map[string]any{"id": "tok", "status": f.tokenStatus()},
		})
	})
	mux.HandleFunc("GET /zones", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "example.com", r.URL.Query().Get("name"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "errors": []any{}, "messages": []any{},
			"result":      []any{map[string]any{"id": "zone-123", "name": "example.com"}},
			"result_info": map[string]any{"page": 1, "per_page": 50, "count": 1, "total_count": 1, "total_pages": 1},
		})
	})
	mux.HandleFunc("POST /zones/zone-123/dns_records", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["name"] == f.reject {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false, "messages": []any{}, "result": nil,
				"errors": []any{map[string]any{"code": 81057, "message": "Record already exists."}},
			})
			return
		}
		f.mu.Lock()
		f.created = append(f.created, body)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true, "errors": []any{}, "messages": []any{},
			"result": map[string]any{"id": "rec", "type": body["type"], "name": body["name"]},
		})
	})
	return mux
}

func (f *fakeAPI) tokenStatus() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeAPI) records() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.created...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newProvider(t *testing.T, api *fakeAPI, cfg map[string]string) deploy.Provider {
	t.Helper()
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	cfg["base_url"] = srv.URL
	p, err := deploy.Build(cloudflare.Name, cfg)
	require.NoError(t, err)
	return p
}

func TestProvider_Registered(t *testing.T) {
	assert.Contains(t, deploy.Names(), cloudflare.Name)

	p, err := deploy.Build(cloudflare.Name, nil)
	require.NoError(t, err)
	assert.False(t, p.Detect())
	assert.ErrorIs(t, p.Validate(context.Background()), cloudflare.ErrMissingCredentials)
	assert.Contains(t, p.Help(), "CLOUDFLARE_API_TOKEN")
}

func TestProvider_Validate(t *testing.T) {
	api := &fakeAPI{status: "active"}
	p := newProvider(t, api, map[string]string{"api_token": "test-token"})
	assert.True(t, p.Detect())
	assert.NoError(t, p.Validate(context.Background()))

	api.mu.Lock()
	api.status = "disabled"
	api.mu.Unlock()
	assert.Error(t, p.Validate(context.Background()))
}

func TestProvider_AddRecord(t *testing.T) {
	api := &fakeAPI{status: "active"}
	p := newProvider(t, api, map[string]string{"api_token": "test-token"})
	ctx := context.Background()

	require.NoError(t, p.AddRecord(ctx, "example.com", "SRV", "_imaps._tcp.example.com", "10 0 993 mail.example.com.", 3600))
	require.NoError(t, p.AddRecord(ctx, "example.com", "TXT", "_caldavs._tcp.example.com", "path=/service/dav/home/", 3600))
	require.NoError(t, p.AddRecord(ctx, "example.com", "CNAME", "autodiscover.example.com", "mail.example.com.", 3600))

	created := api.records()
	require.Len(t, created, 3)
	srv := created[0]
	assert.Equal(t, "SRV", srv["type"])
	assert.Equal(t, "_imaps._tcp.example.com", srv["name"])
	assert.EqualValues(t, 3600, srv["ttl"])
	assert.Equal(t, map[string]any{"priority": 10.0, "weight": 0.0, "port": 993.0, "target": "mail.example.com"}, srv["data"])

	assert.Equal(t, "path=/service/dav/home/", created[1]["content"])
	assert.Equal(t, "mail.example.com", created[2]["content"])
}

func TestProvider_AddRecordRejected(t *testing.T) {
	api := &fakeAPI{status: "active", reject: "autodiscover.example.com"}
	p := newProvider(t, api, map[string]string{"api_token": "test-token", "zone_id": "zone-123"})

	err := p.AddRecord(context.Background(), "example.com", "CNAME", "autodiscover.example.com", "mail.example.com.", 3600)
	assert.Error(t, err)
	assert.Empty(t, api.records())
}

func TestProvider_MalformedSRV(t *testing.T) {
	api := &fakeAPI{status: "active"}
	p := newProvider(t, api, map[string]string{"api_token": "test-token", "zone_id": "zone-123"})
	err := p.AddRecord(context.Background(), "example.com", "SRV", "_imaps._tcp.example.com", "993 mail.example.com.", 3600)
	assert.ErrorContains(t, err, "malformed SRV")
}
