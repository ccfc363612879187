package model

// ClipType 剪辑内容类型
type ClipType string

const (
	ClipTypeVideo ClipType = "VIDEO"
	ClipTypeImage ClipType = "IMAGE"
	ClipTypeText  ClipType = "TEXT"
	ClipTypeAudio ClipType = "AUDIO"
)

// TrackType 轨道类型
type TrackType string

const (
	TrackTypeVideo TrackType = "video"
	TrackTypeAudio TrackType = "audio"
	TrackTypeText  TrackType = "text"
)

// Accepts 判断轨道类型是否可以承载指定类型的剪辑。
// VIDEO/IMAGE 剪辑放视频轨，TEXT 放字幕轨，AUDIO 放音频轨。
func (t TrackType) Accepts(ct ClipType) bool {
	switch ct {
	case ClipTypeVideo, ClipTypeImage:
		return t == TrackTypeVideo
	case ClipTypeText:
		return t == TrackTypeText
	case ClipTypeAudio:
		return t == TrackTypeAudio
	default:
		return false
	}
}

// Track 时间轴上的一条轨道
type Track struct {
	ID       string    `json:"id"`
	Type     TrackType `json:"type"`
	Name     string    `json:"name"`
	IsMuted  bool      `json:"isMuted"`
	IsHidden bool      `json:"isHidden"`
}

// ClipProperties 剪辑的变换属性
type ClipProperties struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Opacity  float64 `json:"opacity"`
	Rotation float64 `json:"rotation"` // 角度
}

// DefaultClipProperties 恒等变换
func DefaultClipProperties() ClipProperties {
	return ClipProperties{X: 0, Y: 0, Scale: 1, Opacity: 1, Rotation: 0}
}

// Clip 放置在轨道上的一段内容。
// Src 与 Content 互斥：媒体剪辑只有 Src，文本剪辑只有 Content。
type Clip struct {
	ID         string         `json:"id"`
	TrackID    string         `json:"trackId"`
	Type       ClipType       `json:"type"`
	Src        string         `json:"src,omitempty"`     // VIDEO/IMAGE/AUDIO
	Content    string         `json:"content,omitempty"` // TEXT
	Name       string         `json:"name"`
	StartTime  float64        `json:"startTime"` // 相对时间轴起点（秒）
	Duration   float64        `json:"duration"`  // 秒
	Offset     float64        `json:"offset"`    // 源媒体内的起始修剪点（秒）
	Properties ClipProperties `json:"properties"`
}

// End 剪辑在时间轴上的结束时刻（右开区间端点）
func (c Clip) End() float64 {
	return c.StartTime + c.Duration
}

// IsVisual 是否占用视觉背景层
func (c Clip) IsVisual() bool {
	return c.Type == ClipTypeVideo || c.Type == ClipTypeImage
}

// ProjectState 工程聚合根，进程内同一时刻只有一份存活
type ProjectState struct {
	Tracks         []Track `json:"tracks"`
	Clips          []Clip  `json:"clips"`
	Duration       float64 `json:"duration"`    // 工作区总时长（秒）
	CurrentTime    float64 `json:"currentTime"` // 播放头位置
	IsPlaying      bool    `json:"isPlaying"`
	SelectedClipID string  `json:"selectedClipId,omitempty"`
	Zoom           float64 `json:"zoom"` // 像素/秒
}

// 新剪辑的默认时长
const (
	DefaultMediaClipDuration = 5 // 秒，媒体拖放
	DefaultTextClipDuration  = 3 // 秒，文字叠加
)

// DefaultTracks 工程初始化时的固定轨道组，运行期不增删。
// 模型本身不假设轨道数量固定。
func DefaultTracks() []Track {
	return []Track{
		{ID: "track-1", Type: TrackTypeVideo, Name: "Video Track 1"},
		{ID: "track-2", Type: TrackTypeText, Name: "Text Overlay"},
		{ID: "track-3", Type: TrackTypeAudio, Name: "Audio Track"},
	}
}
