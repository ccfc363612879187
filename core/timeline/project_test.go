package timeline

import (
	"testing"

	"clipcut/model"
)

func imageAsset() model.Asset {
	return model.Asset{
		ID:   "asset-1",
		Type: model.AssetTypeImage,
		URL:  "https://example.com/a.png",
		Name: "a.png",
	}
}

func f(v float64) *float64 { return &v }

func TestAddClip_TargetsFirstCompatibleTrack(t *testing.T) {
	p := NewProject(300, 20)

	clip, ok := p.AddClip(imageAsset(), "", 0)
	if !ok {
		t.Fatal("AddClip failed on default project")
	}

	if clip.Type != model.ClipTypeImage {
		t.Errorf("clip.Type = %s, want IMAGE", clip.Type)
	}
	if clip.TrackID != "track-1" {
		t.Errorf("clip.TrackID = %s, want video track track-1", clip.TrackID)
	}
	if clip.Duration != model.DefaultMediaClipDuration {
		t.Errorf("clip.Duration = %v, want %v", clip.Duration, model.DefaultMediaClipDuration)
	}
	if clip.Offset != 0 {
		t.Errorf("clip.Offset = %v, want 0", clip.Offset)
	}
	if clip.Properties != model.DefaultClipProperties() {
		t.Errorf("clip.Properties = %+v, want identity", clip.Properties)
	}

	s := p.Snapshot()
	if len(s.Clips) != 1 {
		t.Fatalf("len(Clips) = %d, want 1", len(s.Clips))
	}
	if s.SelectedClipID != clip.ID {
		t.Errorf("SelectedClipID = %s, want new clip selected", s.SelectedClipID)
	}
}

func TestAddClip_NeverLandsOnIncompatibleTrack(t *testing.T) {
	p := NewProject(300, 20)

	// 把文字轨、音频轨作为 hint 传入，图片素材仍然只能落在视频轨
	for _, hint := range []string{"track-2", "track-3", "no-such-track"} {
		clip, ok := p.AddClip(imageAsset(), hint, 0)
		if !ok {
			t.Fatalf("AddClip(hint=%s) failed", hint)
		}
		if clip.TrackID != "track-1" {
			t.Errorf("AddClip(hint=%s) landed on %s, want track-1", hint, clip.TrackID)
		}
	}
}

func TestAddClip_ClampsNegativeStart(t *testing.T) {
	p := NewProject(300, 20)
	clip, _ := p.AddClip(imageAsset(), "", -3)
	if clip.StartTime != 0 {
		t.Errorf("StartTime = %v, want 0", clip.StartTime)
	}
}

func TestAddText(t *testing.T) {
	p := NewProject(300, 20)

	clip, ok := p.AddText(7)
	if !ok {
		t.Fatal("AddText failed")
	}
	if clip.Type != model.ClipTypeText {
		t.Errorf("Type = %s, want TEXT", clip.Type)
	}
	if clip.TrackID != "track-2" {
		t.Errorf("TrackID = %s, want text track track-2", clip.TrackID)
	}
	if clip.Content != "New Text" || clip.Name != "Text Overlay" {
		t.Errorf("Content/Name = %q/%q, want defaults", clip.Content, clip.Name)
	}
	if clip.Duration != model.DefaultTextClipDuration {
		t.Errorf("Duration = %v, want %v", clip.Duration, model.DefaultTextClipDuration)
	}
	if clip.Src != "" {
		t.Errorf("text clip must not carry src, got %q", clip.Src)
	}
}

func TestUpdateClip_PropertyMergeIsolation(t *testing.T) {
	p := NewProject(300, 20)
	clip, _ := p.AddClip(imageAsset(), "", 0)
	p.UpdateClip(clip.ID, ClipUpdate{Properties: &PropertiesUpdate{X: f(12), Y: f(-4)}})

	// 只改 scale，兄弟字段必须原样保留
	if !p.UpdateClip(clip.ID, ClipUpdate{Properties: &PropertiesUpdate{Scale: f(2)}}) {
		t.Fatal("UpdateClip returned false for existing clip")
	}

	got := p.Snapshot().Clips[0].Properties
	want := model.ClipProperties{X: 12, Y: -4, Scale: 2, Opacity: 1, Rotation: 0}
	if got != want {
		t.Errorf("Properties = %+v, want %+v", got, want)
	}
}

func TestUpdateClip_InvalidFieldsDropped(t *testing.T) {
	p := NewProject(300, 20)
	clip, _ := p.AddClip(imageAsset(), "", 10)

	p.UpdateClip(clip.ID, ClipUpdate{
		StartTime: f(-5),
		Duration:  f(0),
		Offset:    f(-1),
		Properties: &PropertiesUpdate{
			Scale:   f(0),
			Opacity: f(1.5),
		},
	})

	got := p.Snapshot().Clips[0]
	if got.StartTime != 0 {
		t.Errorf("StartTime = %v, want clamped to 0", got.StartTime)
	}
	if got.Duration != model.DefaultMediaClipDuration {
		t.Errorf("Duration = %v, want unchanged (invalid value dropped)", got.Duration)
	}
	if got.Offset != 0 {
		t.Errorf("Offset = %v, want clamped to 0", got.Offset)
	}
	if got.Properties.Scale != 1 {
		t.Errorf("Scale = %v, want unchanged", got.Properties.Scale)
	}
	if got.Properties.Opacity != 1 {
		t.Errorf("Opacity = %v, want clamped into [0,1]", got.Properties.Opacity)
	}
}

func TestUpdateClip_UnknownIDIsNoop(t *testing.T) {
	p := NewProject(300, 20)
	p.AddClip(imageAsset(), "", 0)

	if p.UpdateClip("no-such-clip", ClipUpdate{Name: stringPtr("x")}) {
		t.Error("UpdateClip on unknown id reported success")
	}
	if got := p.Snapshot().Clips[0].Name; got != "a.png" {
		t.Errorf("unrelated clip mutated: Name = %q", got)
	}
}

func stringPtr(s string) *string { return &s }

func TestDeleteClip_ClearsSelectionOnlyForDeleted(t *testing.T) {
	p := NewProject(300, 20)
	first, _ := p.AddClip(imageAsset(), "", 0)
	second, _ := p.AddClip(imageAsset(), "", 10)

	// second 是当前选中项；删除无关剪辑不影响选中
	if !p.DeleteClip(first.ID) {
		t.Fatal("DeleteClip(first) failed")
	}
	if got := p.Snapshot().SelectedClipID; got != second.ID {
		t.Errorf("SelectedClipID = %s, want untouched %s", got, second.ID)
	}

	// 删除选中项清空选中
	if !p.DeleteClip(second.ID) {
		t.Fatal("DeleteClip(second) failed")
	}
	s := p.Snapshot()
	if s.SelectedClipID != "" {
		t.Errorf("SelectedClipID = %s, want cleared", s.SelectedClipID)
	}
	if len(s.Clips) != 0 {
		t.Errorf("len(Clips) = %d, want 0", len(s.Clips))
	}

	// 再删一次是 no-op
	if p.DeleteClip(second.ID) {
		t.Error("deleting an absent clip reported success")
	}
}

func TestSelectClip_StaleIDTolerated(t *testing.T) {
	p := NewProject(300, 20)
	p.SelectClip("stale-id")

	if _, ok := p.SelectedClip(); ok {
		t.Error("stale selection resolved to a clip")
	}
	if got := p.Snapshot().SelectedClipID; got != "stale-id" {
		t.Errorf("SelectedClipID = %q, stale id should be kept as-is", got)
	}

	p.SelectClip("")
	if got := p.Snapshot().SelectedClipID; got != "" {
		t.Errorf("SelectedClipID = %q, want cleared", got)
	}
}

func TestSeek_Clamps(t *testing.T) {
	p := NewProject(300, 20)

	tests := []struct {
		name string
		seek float64
		want float64
	}{
		{"negative clamps to zero", -5, 0},
		{"beyond duration clamps to duration", 400, 300},
		{"in range", 123.4, 123.4},
		{"exactly duration", 300, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Seek(tt.seek); got != tt.want {
				t.Errorf("Seek(%v) = %v, want %v", tt.seek, got, tt.want)
			}
			if got := p.CurrentTime(); got != tt.want {
				t.Errorf("CurrentTime = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSeek_DoesNotChangePlayState(t *testing.T) {
	p := NewProject(300, 20)
	p.TogglePlay()
	p.Seek(50)
	if !p.IsPlaying() {
		t.Error("Seek flipped isPlaying")
	}
}

func TestSeekPixels_DividesByZoom(t *testing.T) {
	p := NewProject(300, 20)
	if got := p.SeekPixels(400); got != 20 {
		t.Errorf("SeekPixels(400) at zoom 20 = %v, want 20", got)
	}
	p.SetZoom(40)
	if got := p.SeekPixels(400); got != 10 {
		t.Errorf("SeekPixels(400) at zoom 40 = %v, want 10", got)
	}
	// 非正缩放被忽略
	p.SetZoom(0)
	if got := p.Snapshot().Zoom; got != 40 {
		t.Errorf("Zoom = %v, want 40 after ignoring SetZoom(0)", got)
	}
}

func TestEndToEnd_DropSeekResolve(t *testing.T) {
	// 默认工程 → 放一张图 → seek 到 3s → 解析出唯一主视觉剪辑
	p := NewProject(300, 20)
	s := p.Snapshot()
	if len(s.Tracks) != 3 || s.Duration != 300 || s.CurrentTime != 0 || len(s.Clips) != 0 {
		t.Fatalf("unexpected default project: %+v", s)
	}

	clip, ok := p.AddClip(imageAsset(), "", 0)
	if !ok {
		t.Fatal("AddClip failed")
	}

	p.Seek(3)
	set, now, _ := p.ResolveCurrent()
	if now != 3 {
		t.Fatalf("current time = %v, want 3", now)
	}
	if len(set.Visuals) != 1 {
		t.Fatalf("len(Visuals) = %d, want 1", len(set.Visuals))
	}
	primary, _ := set.Primary()
	if primary.ID != clip.ID {
		t.Errorf("primary = %s, want %s", primary.ID, clip.ID)
	}
	if got := MediaTime(primary, now); got != 3 {
		t.Errorf("MediaTime = %v, want 3", got)
	}
}
