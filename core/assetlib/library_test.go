package assetlib

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"clipcut/model"
)

// fakeRepo 内存素材仓库
type fakeRepo struct {
	assets    map[string]*model.Asset
	createErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{assets: make(map[string]*model.Asset)}
}

func (r *fakeRepo) Create(ctx context.Context, asset *model.Asset) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.assets[asset.ID] = asset
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*model.Asset, error) {
	return r.assets[id], nil
}

func (r *fakeRepo) List(ctx context.Context) ([]*model.Asset, error) {
	var out []*model.Asset
	for _, a := range r.assets {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	delete(r.assets, id)
	return nil
}

// fakeStore 记录写入/删除的假对象存储
type fakeStore struct {
	objects map[string][]byte
	removed []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (s *fakeStore) Put(ctx context.Context, objectPath, contentType string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.objects[objectPath] = data
	return "/media/" + objectPath, nil
}

func (s *fakeStore) Remove(ctx context.Context, objectPath string) error {
	delete(s.objects, objectPath)
	s.removed = append(s.removed, objectPath)
	return nil
}

func TestInferType(t *testing.T) {
	tests := []struct {
		contentType string
		want        model.AssetType
	}{
		{"video/mp4", model.AssetTypeVideo},
		{"video/webm", model.AssetTypeVideo},
		{"image/png", model.AssetTypeImage},
		{"image/jpeg", model.AssetTypeImage},
		{"application/octet-stream", model.AssetTypeImage}, // 非 video/* 一律按图片
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			if got := InferType(tt.contentType); got != tt.want {
				t.Errorf("InferType(%s) = %s, want %s", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestUpload(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	lib := NewLibrary(repo, store)

	asset, err := lib.Upload(context.Background(), "clip.mp4", "video/mp4",
		strings.NewReader("bytes"), 5)
	if err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	if asset.Type != model.AssetTypeVideo {
		t.Errorf("Type = %s, want video", asset.Type)
	}
	if asset.Source != model.AssetSourceUpload {
		t.Errorf("Source = %s, want upload", asset.Source)
	}
	if asset.URL == "" || !strings.HasPrefix(asset.URL, "/media/assets/") {
		t.Errorf("URL = %q, want /media/assets/... path", asset.URL)
	}
	if _, ok := repo.assets[asset.ID]; !ok {
		t.Error("asset record not created")
	}
	if _, ok := store.objects[asset.ObjectPath]; !ok {
		t.Error("object bytes not stored")
	}
}

func TestUpload_RepoFailureCleansUpObject(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db down")
	store := newFakeStore()
	lib := NewLibrary(repo, store)

	_, err := lib.Upload(context.Background(), "a.png", "image/png",
		strings.NewReader("x"), 1)
	if err == nil {
		t.Fatal("Upload() succeeded despite repo failure")
	}
	if len(store.objects) != 0 {
		t.Error("orphan object left behind after failed ingest")
	}
	if len(store.removed) != 1 {
		t.Errorf("removed = %v, want exactly one cleanup", store.removed)
	}
}

func TestIngestGenerated(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	lib := NewLibrary(repo, store)

	asset, err := lib.IngestGenerated(context.Background(), "AI: sunset", "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("IngestGenerated() error: %v", err)
	}
	if asset.Source != model.AssetSourceGenerated {
		t.Errorf("Source = %s, want generated", asset.Source)
	}
	if asset.Type != model.AssetTypeImage {
		t.Errorf("Type = %s, want image", asset.Type)
	}
	if !strings.HasSuffix(asset.ObjectPath, ".png") {
		t.Errorf("ObjectPath = %q, want .png extension", asset.ObjectPath)
	}
}

func TestDelete_AbsentAssetIsNoop(t *testing.T) {
	lib := NewLibrary(newFakeRepo(), newFakeStore())
	if err := lib.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestDelete_RemovesRecordAndObject(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeStore()
	lib := NewLibrary(repo, store)

	asset, _ := lib.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"), 1)
	if err := lib.Delete(context.Background(), asset.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if len(repo.assets) != 0 {
		t.Error("asset record survived delete")
	}
	if len(store.objects) != 0 {
		t.Error("object bytes survived delete")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"my clip.mp4", "my_clip.mp4"},
		{"../../etc/passwd", "passwd"},
		{"日本語.png", ".png"},
		{"???", "file"},
	}

	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
