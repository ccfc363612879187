package timeline

import (
	"math"

	"clipcut/logger"
	"clipcut/model"
)

// SeekTolerance 播放设备允许偏离目标时刻的上限（秒）。
// 低于这个值的漂移顺其自然，避免不停 re-seek 和设备自然播放互相打架。
const SeekTolerance = 0.5

// PlaybackDevice 外部有状态播放设备，比如浏览器里挂在当前
// 视觉剪辑上的 <video> 元素，或本地解码器实例。
type PlaybackDevice interface {
	// Position 设备上报的媒体本地播放位置（秒）
	Position() float64
	// SeekTo 强制设备跳到媒体本地时刻
	SeekTo(t float64)
	Play()
	Pause()
	Paused() bool
	// Close 释放设备，之后不再使用
	Close()
}

// DeviceFactory 为剪辑绑定一个新设备。设备与剪辑一一对应：
// 活动剪辑换了就释放旧设备、绑新设备，状态不跨剪辑复用。
type DeviceFactory func(clip model.Clip) PlaybackDevice

// Syncer 把连续推进的时间轴时钟对齐到离散的播放设备上。
type Syncer struct {
	factory       DeviceFactory
	device        PlaybackDevice
	currentClipID string
}

// NewSyncer 创建同步器
func NewSyncer(factory DeviceFactory) *Syncer {
	return &Syncer{factory: factory}
}

// Reconcile 每个 tick 调用一次：
//   - 主视觉剪辑不是 VIDEO 时释放设备（图片/文字不需要解码器）；
//   - 剪辑身份变化时换绑设备；
//   - 设备位置偏离目标超过容差时强制 seek；
//   - 设备的播放/暂停状态与时钟对齐。
func (s *Syncer) Reconcile(set ActiveSet, t float64, playing bool) {
	primary, ok := set.Primary()
	if !ok || primary.Type != model.ClipTypeVideo {
		s.detach()
		return
	}

	if primary.ID != s.currentClipID {
		s.detach()
		s.device = s.factory(primary)
		s.currentClipID = primary.ID
		logger.Debug("playback device bound", logger.String("clipId", primary.ID))
	}

	dev := s.device
	if dev == nil {
		return
	}

	target := MediaTime(primary, t)
	if math.Abs(dev.Position()-target) > SeekTolerance {
		dev.SeekTo(target)
	}

	if playing && dev.Paused() {
		dev.Play()
	}
	if !playing && !dev.Paused() {
		dev.Pause()
	}
}

// Release 释放当前设备（会话结束时调用）
func (s *Syncer) Release() {
	s.detach()
}

func (s *Syncer) detach() {
	if s.device != nil {
		s.device.Pause()
		s.device.Close()
		s.device = nil
	}
	s.currentClipID = ""
}
