package preview

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"clipcut/cache"
	"clipcut/core/timeline"
	"clipcut/logger"
	"clipcut/model"
)

// Engine 预览引擎：把工程状态、播放时钟、设备同步器和
// WebSocket 通道拼成一个会话。所有修改都走这里，
// 改完立刻广播，连接上的每个客户端看到同一份时间轴。
type Engine struct {
	project *timeline.Project
	clock   *timeline.Clock
	devices *Devices
	hub     *Hub

	// 同步器不是并发安全的，tick 回调和 seek 都要过这把锁
	syncMu sync.Mutex
	syncer *timeline.Syncer

	playheads *cache.PlayheadCache // 可为 nil（未接 Redis）
}

// NewEngine 创建预览引擎。playheads 传 nil 时不落快照。
func NewEngine(duration, zoom float64, playheads *cache.PlayheadCache) *Engine {
	hub := NewHub()
	devices := NewDevices(hub)
	project := timeline.NewProject(duration, zoom)

	e := &Engine{
		project:   project,
		devices:   devices,
		hub:       hub,
		syncer:    timeline.NewSyncer(devices.Factory()),
		playheads: playheads,
	}
	e.clock = timeline.NewClock(project, nil)
	e.clock.SetOnUpdate(e.onUpdate)
	return e
}

// Run 启动预览通道主循环（阻塞，放在 goroutine 里跑）
func (e *Engine) Run() {
	e.hub.Run()
}

// Close 停掉时钟、释放设备、断开所有连接
func (e *Engine) Close() {
	e.clock.Close()

	e.syncMu.Lock()
	e.syncer.Release()
	e.syncMu.Unlock()

	e.hub.Stop()
}

// Hub 预览通道（WebSocket 握手处要用）
func (e *Engine) Hub() *Hub {
	return e.hub
}

// Project 只读访问工程状态
func (e *Engine) Project() *timeline.Project {
	return e.project
}

// onUpdate 时钟每次推进/启停后的回调
func (e *Engine) onUpdate(current float64, playing bool) {
	e.reconcile(current, playing)

	e.hub.BroadcastWSMessage(MsgTypePlayhead, PlayheadData{
		CurrentTime: current,
		IsPlaying:   playing,
		ServerTime:  time.Now().UnixMilli(),
	})

	if !playing {
		e.savePlayhead(current, playing)
	}
}

func (e *Engine) reconcile(current float64, playing bool) {
	set := e.project.Resolve(current)
	e.syncMu.Lock()
	e.syncer.Reconcile(set, current, playing)
	e.syncMu.Unlock()
}

// HandleMessage 预览通道入站消息处理器（交给 ReadPump）
func (e *Engine) HandleMessage(ctx context.Context, client *Client, msg *WSMessage) {
	switch msg.Type {
	case MsgTypeReport:
		var report ReportData
		if err := json.Unmarshal(msg.Data, &report); err != nil {
			logger.Warn("invalid report message", logger.ErrorField(err))
			return
		}
		e.devices.Report(report.ClipID, report.Position, report.Paused)

	default:
		logger.Debug("unhandled preview message", logger.String("type", string(msg.Type)))
	}
}

// ========== 工程修改 API ==========
// 每个修改先落到工程状态，再广播完整快照。

// Snapshot 当前工程快照
func (e *Engine) Snapshot() model.ProjectState {
	return e.project.Snapshot()
}

// ActiveSet 当前播放头处的活动剪辑集
func (e *Engine) ActiveSet() (timeline.ActiveSet, float64) {
	set, t, _ := e.project.ResolveCurrent()
	return set, t
}

// AddClip 把素材落到时间轴，返回新剪辑。
// 没有能接纳该类型的轨道时返回 false，工程不变。
func (e *Engine) AddClip(asset model.Asset, trackHint string, atTime float64) (model.Clip, bool) {
	clip, ok := e.project.AddClip(asset, trackHint, atTime)
	if ok {
		e.broadcastState()
	}
	return clip, ok
}

// AddText 在文字轨新建文字剪辑
func (e *Engine) AddText(atTime float64) (model.Clip, bool) {
	clip, ok := e.project.AddText(atTime)
	if ok {
		e.broadcastState()
	}
	return clip, ok
}

// UpdateClip 部分更新剪辑；目标不存在时为 no-op
func (e *Engine) UpdateClip(id string, upd timeline.ClipUpdate) bool {
	if !e.project.UpdateClip(id, upd) {
		return false
	}
	// 改了时长/位置可能让当前主剪辑失效，立刻对齐设备
	e.reconcile(e.project.CurrentTime(), e.project.IsPlaying())
	e.broadcastState()
	return true
}

// DeleteClip 删除剪辑；目标不存在时为 no-op
func (e *Engine) DeleteClip(id string) bool {
	if !e.project.DeleteClip(id) {
		return false
	}
	e.reconcile(e.project.CurrentTime(), e.project.IsPlaying())
	e.broadcastState()
	return true
}

// SelectClip 更新选中项（传空串清除选中）
func (e *Engine) SelectClip(id string) {
	e.project.SelectClip(id)
	e.broadcastState()
}

// Seek 跳转播放头（钳制到工程范围内），返回落点
func (e *Engine) Seek(t float64) float64 {
	current := e.project.Seek(t)
	e.afterSeek(current)
	return current
}

// SeekPixels 按时间轴像素坐标跳转
func (e *Engine) SeekPixels(px float64) float64 {
	current := e.project.SeekPixels(px)
	e.afterSeek(current)
	return current
}

func (e *Engine) afterSeek(current float64) {
	playing := e.project.IsPlaying()
	e.reconcile(current, playing)
	e.savePlayhead(current, playing)

	e.hub.BroadcastWSMessage(MsgTypePlayhead, PlayheadData{
		CurrentTime: current,
		IsPlaying:   playing,
		ServerTime:  time.Now().UnixMilli(),
	})
}

// SetZoom 设置时间轴缩放（像素/秒）
func (e *Engine) SetZoom(zoom float64) {
	e.project.SetZoom(zoom)
	e.broadcastState()
}

// TogglePlay 翻转播放状态，返回新状态
func (e *Engine) TogglePlay() bool {
	playing := e.clock.Toggle()
	if !playing {
		e.savePlayhead(e.project.CurrentTime(), false)
	}
	return playing
}

// broadcastState 全量状态广播
func (e *Engine) broadcastState() {
	e.hub.BroadcastWSMessage(MsgTypeState, StateData{Project: e.project.Snapshot()})
}

// savePlayhead 播放头快照落 Redis（尽力而为）
func (e *Engine) savePlayhead(current float64, playing bool) {
	if e.playheads == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := e.playheads.Save(ctx, cache.PlayheadSnapshot{
		CurrentTime: current,
		IsPlaying:   playing,
	})
	if err != nil {
		logger.Warn("failed to save playhead snapshot", logger.ErrorField(err))
	}
}

// RestorePlayhead 启动时从 Redis 恢复播放头位置（尽力而为）
func (e *Engine) RestorePlayhead(ctx context.Context) {
	if e.playheads == nil {
		return
	}
	snap, ok, err := e.playheads.Load(ctx)
	if err != nil {
		logger.Warn("failed to load playhead snapshot", logger.ErrorField(err))
		return
	}
	if !ok {
		return
	}
	e.project.Seek(snap.CurrentTime)
	logger.Info("playhead restored", logger.Float64("at", snap.CurrentTime))
}
