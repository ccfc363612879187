package timeline

import (
	"sync"
	"time"

	"clipcut/logger"
)

// Scheduler 抽象宿主的逐帧回调。时钟只依赖这个接口，
// 测试里用手动驱动的实现喂模拟时间即可。
type Scheduler interface {
	// Schedule 周期性调用 tick，返回取消函数。取消必须幂等。
	Schedule(tick func(now time.Time)) (cancel func())
}

// TickerScheduler 基于 time.Ticker 的默认调度器，约等于 30fps
type TickerScheduler struct {
	Interval time.Duration
}

// Schedule 启动 ticker goroutine，cancel 关闭它
func (s TickerScheduler) Schedule(tick func(now time.Time)) func() {
	interval := s.Interval
	if interval <= 0 {
		interval = 33 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case now := <-ticker.C:
				tick(now)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}

// Clock 播放时钟。用墙钟差值积分推进播放头：
// 播放速率与 tick 频率无关，不做固定步长。
// 到达工程终点时收敛到终点并自动暂停，之后的 tick 不再有任何效果。
type Clock struct {
	mu       sync.Mutex
	project  *Project
	sched    Scheduler
	cancel   func()
	lastTick time.Time
	onUpdate func(current float64, playing bool)
}

// NewClock 创建时钟，不会自动开始走
func NewClock(p *Project, sched Scheduler) *Clock {
	if sched == nil {
		sched = TickerScheduler{}
	}
	return &Clock{project: p, sched: sched}
}

// SetOnUpdate 注册每次推进/暂停后的回调（预览通道用它广播）。
// 回调在 tick goroutine 里执行，不要阻塞。
func (c *Clock) SetOnUpdate(fn func(current float64, playing bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUpdate = fn
}

// Toggle 翻转播放状态并启停调度，返回新状态
func (c *Clock) Toggle() bool {
	if c.project.TogglePlay() {
		c.start()
		return true
	}
	c.stop()
	return false
}

// Play 进入播放态；已在播放时为 no-op
func (c *Clock) Play() {
	if c.project.IsPlaying() {
		return
	}
	c.project.setPlaying(true)
	c.start()
}

// Pause 退出播放态并取消已排定的 tick
func (c *Clock) Pause() {
	c.project.setPlaying(false)
	c.stop()
}

func (c *Clock) start() {
	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return
	}
	// 进入播放态时取参考时间戳，首个 tick 从这里起算差值
	c.lastTick = time.Now()
	c.cancel = c.sched.Schedule(c.Tick)
	c.mu.Unlock()

	c.notify()
	logger.Debug("playback started", logger.Float64("at", c.project.CurrentTime()))
}

func (c *Clock) stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.notify()
}

// Close 停掉时钟，不改播放标志之外的状态
func (c *Clock) Close() {
	c.Pause()
}

// Tick 推进一帧。由调度器调用；测试可以直接喂时间戳。
func (c *Clock) Tick(now time.Time) {
	c.mu.Lock()
	last := c.lastTick
	c.lastTick = now
	c.mu.Unlock()

	delta := now.Sub(last).Seconds()
	if delta <= 0 {
		return
	}

	current, advanced, atEnd := c.project.advance(delta)
	if !advanced {
		return
	}

	if atEnd {
		// 工程放完，自动暂停。advance 已把播放标志置 false，
		// 这里只负责取消调度，重复 tick 不会再走到这条路径。
		c.mu.Lock()
		cancel := c.cancel
		c.cancel = nil
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		logger.Info("playback reached project end", logger.Float64("duration", current))
	}

	c.notify()
}

func (c *Clock) notify() {
	c.mu.Lock()
	fn := c.onUpdate
	c.mu.Unlock()
	if fn != nil {
		fn(c.project.CurrentTime(), c.project.IsPlaying())
	}
}
