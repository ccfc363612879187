package preview

import (
	"sync"
	"time"

	"clipcut/core/timeline"
	"clipcut/logger"
	"clipcut/model"
)

// commandSender 设备指令的出口，*Hub 满足该接口
type commandSender interface {
	BroadcastWSMessage(msgType MessageType, data interface{}) error
}

// Devices 远程播放设备注册表。每个设备对应浏览器端挂在
// 主视觉剪辑上的一个 <video> 元素：指令经预览通道下发，
// 位置由客户端 report 消息回流。
type Devices struct {
	sender  commandSender
	mu      sync.Mutex
	devices map[string]*wsDevice // key: clipID
}

// NewDevices 创建设备注册表
func NewDevices(sender commandSender) *Devices {
	return &Devices{
		sender:  sender,
		devices: make(map[string]*wsDevice),
	}
}

// Factory 返回可交给同步器的设备工厂
func (d *Devices) Factory() timeline.DeviceFactory {
	return func(clip model.Clip) timeline.PlaybackDevice {
		dev := &wsDevice{
			registry: d,
			clipID:   clip.ID,
			paused:   true,
		}

		d.mu.Lock()
		d.devices[clip.ID] = dev
		d.mu.Unlock()

		d.send(DeviceCommandData{
			Action:    DeviceActionBind,
			ClipID:    clip.ID,
			URL:       clip.Src,
			MediaTime: clip.Offset,
		})
		return dev
	}
}

// Report 客户端上报设备位置。未绑定的剪辑直接忽略：
// 换绑窗口期里旧元素的迟到上报不该污染新设备。
func (d *Devices) Report(clipID string, position float64, paused bool) {
	d.mu.Lock()
	dev, ok := d.devices[clipID]
	d.mu.Unlock()
	if !ok {
		return
	}
	dev.report(position, paused)
}

func (d *Devices) remove(clipID string) {
	d.mu.Lock()
	delete(d.devices, clipID)
	d.mu.Unlock()
}

func (d *Devices) send(cmd DeviceCommandData) {
	if err := d.sender.BroadcastWSMessage(MsgTypeDevice, cmd); err != nil {
		logger.Warn("failed to send device command",
			logger.String("action", cmd.Action),
			logger.String("clipId", cmd.ClipID),
			logger.ErrorField(err))
	}
}

// wsDevice 经 WebSocket 控制的远程播放设备。
// Position 在两次上报之间按墙钟外推，避免同步器把
// 上报间隔误判成播放漂移而反复 re-seek。
type wsDevice struct {
	registry *Devices
	clipID   string

	mu         sync.Mutex
	position   float64
	reportedAt time.Time
	paused     bool
	closed     bool
}

func (w *wsDevice) report(position float64, paused bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.position = position
	w.reportedAt = time.Now()
	w.paused = paused
}

// Position 最近上报位置，播放中按经过的墙钟时间外推
func (w *wsDevice) Position() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.paused || w.reportedAt.IsZero() {
		return w.position
	}
	return w.position + time.Since(w.reportedAt).Seconds()
}

// SeekTo 下发 seek 指令并乐观更新本地位置
func (w *wsDevice) SeekTo(t float64) {
	w.mu.Lock()
	w.position = t
	w.reportedAt = time.Now()
	w.mu.Unlock()

	w.registry.send(DeviceCommandData{
		Action:    DeviceActionSeek,
		ClipID:    w.clipID,
		MediaTime: t,
	})
}

func (w *wsDevice) Play() {
	w.mu.Lock()
	w.paused = false
	w.reportedAt = time.Now()
	w.mu.Unlock()

	w.registry.send(DeviceCommandData{Action: DeviceActionPlay, ClipID: w.clipID})
}

func (w *wsDevice) Pause() {
	w.mu.Lock()
	w.paused = true
	w.mu.Unlock()

	w.registry.send(DeviceCommandData{Action: DeviceActionPause, ClipID: w.clipID})
}

func (w *wsDevice) Paused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paused
}

// Close 卸载设备并从注册表摘除
func (w *wsDevice) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	w.registry.remove(w.clipID)
	w.registry.send(DeviceCommandData{Action: DeviceActionRelease, ClipID: w.clipID})
}
