package timeline

import (
	"sync"

	"clipcut/logger"
	"clipcut/model"

	"github.com/google/uuid"
)

// Project 是存活工程状态的唯一容器。
// 所有修改都经过这里的方法，每个操作在锁内一次性完成，
// 不存在部分生效的中间态。违反前置条件的操作静默退化为 no-op。
type Project struct {
	mu    sync.RWMutex
	state model.ProjectState
}

// NewProject 用默认轨道组创建工程
func NewProject(duration, zoom float64) *Project {
	if duration <= 0 {
		duration = 300
	}
	if zoom <= 0 {
		zoom = 20
	}
	return &Project{
		state: model.ProjectState{
			Tracks:   model.DefaultTracks(),
			Clips:    []model.Clip{},
			Duration: duration,
			Zoom:     zoom,
		},
	}
}

// Snapshot 返回工程状态的深拷贝，调用方可以随意持有
func (p *Project) Snapshot() model.ProjectState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.copyStateLocked()
}

func (p *Project) copyStateLocked() model.ProjectState {
	s := p.state
	s.Tracks = append([]model.Track(nil), p.state.Tracks...)
	s.Clips = append([]model.Clip(nil), p.state.Clips...)
	return s
}

// Resolve 计算时刻 t 的活动剪辑集合
func (p *Project) Resolve(t float64) ActiveSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Resolve(p.state.Tracks, p.state.Clips, t)
}

// ResolveCurrent 计算当前播放头位置的活动剪辑集合
func (p *Project) ResolveCurrent() (ActiveSet, float64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Resolve(p.state.Tracks, p.state.Clips, p.state.CurrentTime),
		p.state.CurrentTime, p.state.IsPlaying
}

// findCompatibleTrack 返回第一个能承载该剪辑类型的轨道。
// hint 指定的轨道存在且兼容时优先。
func (p *Project) findCompatibleTrackLocked(ct model.ClipType, hint string) (model.Track, bool) {
	if hint != "" {
		for _, tr := range p.state.Tracks {
			if tr.ID == hint && tr.Type.Accepts(ct) {
				return tr, true
			}
		}
	}
	for _, tr := range p.state.Tracks {
		if tr.Type.Accepts(ct) {
			return tr, true
		}
	}
	return model.Track{}, false
}

// AddClip 把素材放上时间轴：选第一个兼容轨道（或兼容的 hint 轨道），
// 在 atTime 处创建默认时长的剪辑并选中。
// 没有兼容轨道时不做任何事（默认轨道组覆盖所有类型，该分支通常不可达）。
func (p *Project) AddClip(asset model.Asset, trackHint string, atTime float64) (model.Clip, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	clipType := asset.Type.ClipType()
	track, ok := p.findCompatibleTrackLocked(clipType, trackHint)
	if !ok {
		logger.Warn("no compatible track for asset",
			logger.String("assetId", asset.ID),
			logger.String("assetType", string(asset.Type)))
		return model.Clip{}, false
	}

	if atTime < 0 {
		atTime = 0
	}

	clip := model.Clip{
		ID:         uuid.NewString(),
		TrackID:    track.ID,
		Type:       clipType,
		Src:        asset.URL,
		Name:       asset.Name,
		StartTime:  atTime,
		Duration:   model.DefaultMediaClipDuration,
		Offset:     0,
		Properties: model.DefaultClipProperties(),
	}

	p.state.Clips = append(p.state.Clips, clip)
	p.state.SelectedClipID = clip.ID

	logger.Info("clip added",
		logger.String("clipId", clip.ID),
		logger.String("trackId", track.ID),
		logger.String("type", string(clipType)),
		logger.Float64("startTime", atTime))
	return clip, true
}

// AddText 在字幕轨道 atTime 处创建一条文字叠加剪辑并选中
func (p *Project) AddText(atTime float64) (model.Clip, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	track, ok := p.findCompatibleTrackLocked(model.ClipTypeText, "")
	if !ok {
		return model.Clip{}, false
	}

	if atTime < 0 {
		atTime = 0
	}

	clip := model.Clip{
		ID:         uuid.NewString(),
		TrackID:    track.ID,
		Type:       model.ClipTypeText,
		Content:    "New Text",
		Name:       "Text Overlay",
		StartTime:  atTime,
		Duration:   model.DefaultTextClipDuration,
		Offset:     0,
		Properties: model.DefaultClipProperties(),
	}

	p.state.Clips = append(p.state.Clips, clip)
	p.state.SelectedClipID = clip.ID
	return clip, true
}

// ClipUpdate 部分更新，nil 字段保持原值
type ClipUpdate struct {
	Name       *string           `json:"name,omitempty"`
	Content    *string           `json:"content,omitempty"`
	StartTime  *float64          `json:"startTime,omitempty"`
	Duration   *float64          `json:"duration,omitempty"`
	Offset     *float64          `json:"offset,omitempty"`
	Properties *PropertiesUpdate `json:"properties,omitempty"`
}

// PropertiesUpdate 变换属性的部分更新，未给出的兄弟字段不被覆盖
type PropertiesUpdate struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
}

// UpdateClip 把给定字段合并进指定剪辑；id 不存在时为 no-op。
// 会破坏不变量的字段值被逐字段丢弃或收敛：
// duration<=0、scale<=0 忽略，startTime/offset 下限收敛到 0，opacity 收敛到 [0,1]。
func (p *Project) UpdateClip(id string, upd ClipUpdate) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.state.Clips {
		c := &p.state.Clips[i]
		if c.ID != id {
			continue
		}

		if upd.Name != nil {
			c.Name = *upd.Name
		}
		if upd.Content != nil && c.Type == model.ClipTypeText {
			c.Content = *upd.Content
		}
		if upd.StartTime != nil {
			c.StartTime = max(0, *upd.StartTime)
		}
		if upd.Duration != nil && *upd.Duration > 0 {
			c.Duration = *upd.Duration
		}
		if upd.Offset != nil {
			// 上界不对源媒体时长做约束，服务端不探测媒体长度
			c.Offset = max(0, *upd.Offset)
		}
		if upd.Properties != nil {
			pr := upd.Properties
			if pr.X != nil {
				c.Properties.X = *pr.X
			}
			if pr.Y != nil {
				c.Properties.Y = *pr.Y
			}
			if pr.Scale != nil && *pr.Scale > 0 {
				c.Properties.Scale = *pr.Scale
			}
			if pr.Opacity != nil {
				c.Properties.Opacity = min(1, max(0, *pr.Opacity))
			}
			if pr.Rotation != nil {
				c.Properties.Rotation = *pr.Rotation
			}
		}
		return true
	}
	return false
}

// DeleteClip 删除剪辑；被删的是当前选中项时一并清除选中。
// id 不存在时为 no-op。
func (p *Project) DeleteClip(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, c := range p.state.Clips {
		if c.ID != id {
			continue
		}
		p.state.Clips = append(p.state.Clips[:i], p.state.Clips[i+1:]...)
		if p.state.SelectedClipID == id {
			p.state.SelectedClipID = ""
		}
		logger.Info("clip deleted", logger.String("clipId", id))
		return true
	}
	return false
}

// SelectClip 设置选中剪辑。不校验存在性：过期的 id 被容忍，
// 下游把找不到的选中项当作"未选中"处理。空串表示取消选中。
func (p *Project) SelectClip(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.SelectedClipID = id
}

// SelectedClip 返回当前选中剪辑；选中项缺失或过期时 ok 为 false
func (p *Project) SelectedClip() (model.Clip, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.state.SelectedClipID == "" {
		return model.Clip{}, false
	}
	for _, c := range p.state.Clips {
		if c.ID == p.state.SelectedClipID {
			return c, true
		}
	}
	return model.Clip{}, false
}

// Seek 设置播放头，收敛到 [0, duration]。播放状态不变。
func (p *Project) Seek(t float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.CurrentTime = min(p.state.Duration, max(0, t))
	return p.state.CurrentTime
}

// SeekPixels 时间轴标尺点击：像素偏移除以缩放得到时间再定位
func (p *Project) SeekPixels(px float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := px / p.state.Zoom
	p.state.CurrentTime = min(p.state.Duration, max(0, t))
	return p.state.CurrentTime
}

// SetZoom 调整显示缩放（像素/秒），非正值忽略
func (p *Project) SetZoom(zoom float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if zoom > 0 {
		p.state.Zoom = zoom
	}
}

// TogglePlay 翻转播放标志，返回新值
func (p *Project) TogglePlay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.IsPlaying = !p.state.IsPlaying
	return p.state.IsPlaying
}

// setPlaying 由时钟使用
func (p *Project) setPlaying(playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.IsPlaying = playing
}

// IsPlaying 当前播放标志
func (p *Project) IsPlaying() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.IsPlaying
}

// CurrentTime 当前播放头位置
func (p *Project) CurrentTime() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.CurrentTime
}

// Duration 工作区总时长
func (p *Project) Duration() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.Duration
}

// advance 推进播放头 delta 秒。
// 返回推进后的时刻以及是否撞到了工程终点（撞到即收敛并停止播放）。
// 未在播放时什么都不做，因此越过终点后的重复 tick 不会再次触发暂停。
func (p *Project) advance(delta float64) (float64, bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.state.IsPlaying {
		return p.state.CurrentTime, false, false
	}

	newTime := p.state.CurrentTime + delta
	if newTime >= p.state.Duration {
		p.state.CurrentTime = p.state.Duration
		p.state.IsPlaying = false
		return p.state.CurrentTime, true, true
	}

	p.state.CurrentTime = newTime
	return newTime, true, false
}
