package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"clipcut/config"
	"clipcut/core/assetlib"
	"clipcut/core/preview"
	"clipcut/model"

	"github.com/gorilla/mux"
)

// fakeAssetRepo 内存素材仓库
type fakeAssetRepo struct {
	assets map[string]*model.Asset
}

func (r *fakeAssetRepo) Create(ctx context.Context, asset *model.Asset) error {
	r.assets[asset.ID] = asset
	return nil
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, id string) (*model.Asset, error) {
	return r.assets[id], nil
}

func (r *fakeAssetRepo) List(ctx context.Context) ([]*model.Asset, error) {
	var out []*model.Asset
	for _, a := range r.assets {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeAssetRepo) Delete(ctx context.Context, id string) error {
	delete(r.assets, id)
	return nil
}

// fakeObjectStore 丢弃字节的对象存储
type fakeObjectStore struct{}

func (fakeObjectStore) Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (string, error) {
	io.Copy(io.Discard, r)
	return "/media/" + objectPath, nil
}

func (fakeObjectStore) Remove(ctx context.Context, objectPath string) error {
	return nil
}

type testEnv struct {
	handler *APIHandler
	repo    *fakeAssetRepo
	router  *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	engine := preview.NewEngine(300, 20, nil)
	go engine.Run()
	t.Cleanup(engine.Close)

	repo := &fakeAssetRepo{assets: make(map[string]*model.Asset)}
	library := assetlib.NewLibrary(repo, fakeObjectStore{})
	cfg := &config.Config{
		SessionSecret: "test-secret",
		SessionTTL:    time.Hour,
	}
	h := NewAPIHandler(engine, library, nil, cfg)

	router := mux.NewRouter()
	router.HandleFunc("/api/auth/session", h.SessionHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/project", h.GetProjectHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/project/active", h.GetActiveHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/project/clips", h.AddClipHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/project/clips/{id}", h.UpdateClipHandler).Methods(http.MethodPatch)
	router.HandleFunc("/api/project/clips/{id}", h.DeleteClipHandler).Methods(http.MethodDelete)
	router.HandleFunc("/api/project/text", h.AddTextHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/project/select", h.SelectClipHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/project/seek", h.SeekHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/project/play", h.TogglePlayHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/project/zoom", h.SetZoomHandler).Methods(http.MethodPost)

	return &testEnv{handler: h, repo: repo, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestSessionAndAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/session", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d", rec.Code)
	}
	var session struct {
		Token     string `json:"token"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.Token == "" || session.SessionID == "" {
		t.Fatal("empty token or session id")
	}

	protected := env.handler.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		sid, err := GetSessionIDFromContext(r.Context())
		if err != nil {
			t.Errorf("session id missing from context: %v", err)
		}
		if sid != session.SessionID {
			t.Errorf("context session = %s, want %s", sid, session.SessionID)
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec = httptest.NewRecorder()
	protected(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authorized request status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	protected(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	rec = httptest.NewRecorder()
	protected(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing header status = %d, want 401", rec.Code)
	}
}

func TestGetProjectHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/project", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var state model.ProjectState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if len(state.Tracks) != 3 {
		t.Errorf("tracks = %d, want 3 defaults", len(state.Tracks))
	}
	if state.Duration != 300 {
		t.Errorf("duration = %v, want 300", state.Duration)
	}
}

func TestAddClipHandler(t *testing.T) {
	env := newTestEnv(t)
	env.repo.assets["a1"] = &model.Asset{
		ID:   "a1",
		Type: model.AssetTypeImage,
		URL:  "/media/assets/a1/a.png",
		Name: "a.png",
	}

	rec := env.do(t, http.MethodPost, "/api/project/clips",
		map[string]interface{}{"assetId": "a1", "atTime": 12.5})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var clip model.Clip
	if err := json.Unmarshal(rec.Body.Bytes(), &clip); err != nil {
		t.Fatalf("decode clip: %v", err)
	}
	if clip.StartTime != 12.5 {
		t.Errorf("startTime = %v, want 12.5", clip.StartTime)
	}
	if clip.Type != model.ClipTypeImage {
		t.Errorf("type = %s, want IMAGE", clip.Type)
	}
}

func TestAddClipHandler_UnknownAsset(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/project/clips",
		map[string]interface{}{"assetId": "ghost"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestAddClipHandler_MissingAssetID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/project/clips", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAddTextHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/project/text",
		map[string]interface{}{"atTime": 30.0})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}

	var clip model.Clip
	json.Unmarshal(rec.Body.Bytes(), &clip)
	if clip.Type != model.ClipTypeText {
		t.Errorf("type = %s, want TEXT", clip.Type)
	}
	if clip.Content == "" {
		t.Error("text clip has no default content")
	}
}

func TestUpdateClipHandler(t *testing.T) {
	env := newTestEnv(t)
	clip, _ := env.handler.engine.AddText(10)

	rec := env.do(t, http.MethodPatch, "/api/project/clips/"+clip.ID,
		map[string]interface{}{"content": "Hello"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	snap := env.handler.engine.Snapshot()
	if snap.Clips[0].Content != "Hello" {
		t.Errorf("content = %q, want Hello", snap.Clips[0].Content)
	}
}

func TestUpdateClipHandler_UnknownClip(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPatch, "/api/project/clips/ghost",
		map[string]interface{}{"name": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteClipHandler(t *testing.T) {
	env := newTestEnv(t)
	clip, _ := env.handler.engine.AddText(10)

	rec := env.do(t, http.MethodDelete, "/api/project/clips/"+clip.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(env.handler.engine.Snapshot().Clips) != 0 {
		t.Error("clip not deleted")
	}

	rec = env.do(t, http.MethodDelete, "/api/project/clips/"+clip.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("repeat delete status = %d, want 404", rec.Code)
	}
}

func TestSeekHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/project/seek",
		map[string]interface{}{"time": 999.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		CurrentTime float64 `json:"currentTime"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.CurrentTime != 300 {
		t.Errorf("currentTime = %v, want clamped 300", resp.CurrentTime)
	}
}

func TestSeekHandler_PixelOffset(t *testing.T) {
	env := newTestEnv(t)

	// 默认缩放 20像素/秒，400px -> 20s
	rec := env.do(t, http.MethodPost, "/api/project/seek",
		map[string]interface{}{"pixelOffset": 400.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		CurrentTime float64 `json:"currentTime"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.CurrentTime != 20 {
		t.Errorf("currentTime = %v, want 20", resp.CurrentTime)
	}
}

func TestSeekHandler_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/project/seek", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestTogglePlayHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/project/play", nil)
	var resp struct {
		IsPlaying bool `json:"isPlaying"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if !resp.IsPlaying {
		t.Error("first toggle should start playback")
	}

	rec = env.do(t, http.MethodPost, "/api/project/play", nil)
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.IsPlaying {
		t.Error("second toggle should pause")
	}
}

func TestSetZoomHandler(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/project/zoom",
		map[string]interface{}{"zoom": 50.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/project/zoom",
		map[string]interface{}{"zoom": -1.0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative zoom status = %d, want 400", rec.Code)
	}
}

func TestGetActiveHandler(t *testing.T) {
	env := newTestEnv(t)
	env.repo.assets["a1"] = &model.Asset{
		ID: "a1", Type: model.AssetTypeImage, URL: "/media/a.png", Name: "a.png",
	}
	env.do(t, http.MethodPost, "/api/project/clips",
		map[string]interface{}{"assetId": "a1", "atTime": 0.0})
	env.do(t, http.MethodPost, "/api/project/seek",
		map[string]interface{}{"time": 2.0})

	rec := env.do(t, http.MethodGet, "/api/project/active", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"primary"`) {
		t.Errorf("active set missing primary clip: %s", body)
	}
}
