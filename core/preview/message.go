package preview

import (
	"encoding/json"

	"clipcut/model"
)

// MessageType 预览通道消息类型
type MessageType string

const (
	// 系统消息
	MsgTypeError MessageType = "error" // 错误消息
	MsgTypePing  MessageType = "ping"  // 心跳
	MsgTypePong  MessageType = "pong"  // 心跳响应

	// 服务端 -> 客户端
	MsgTypeState    MessageType = "state"    // 完整工程状态
	MsgTypePlayhead MessageType = "playhead" // 播放头推进
	MsgTypeDevice   MessageType = "device"   // 播放设备控制指令

	// 客户端 -> 服务端
	MsgTypeReport MessageType = "report" // 客户端上报设备播放位置
)

// 设备指令动作
const (
	DeviceActionBind    = "bind"    // 为剪辑挂载 <video> 元素
	DeviceActionRelease = "release" // 卸载设备
	DeviceActionSeek    = "seek"    // 跳到媒体本地时刻
	DeviceActionPlay    = "play"
	DeviceActionPause   = "pause"
)

// WSMessage WebSocket 消息结构
type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// PlayheadData 播放头广播数据
type PlayheadData struct {
	CurrentTime float64 `json:"currentTime"` // 时间轴时刻（秒）
	IsPlaying   bool    `json:"isPlaying"`
	ServerTime  int64   `json:"serverTime"` // 服务器时间戳（毫秒）
}

// StateData 完整工程状态广播数据
type StateData struct {
	Project model.ProjectState `json:"project"`
}

// DeviceCommandData 设备控制指令数据
type DeviceCommandData struct {
	Action    string  `json:"action"`
	ClipID    string  `json:"clipId"`
	URL       string  `json:"url,omitempty"`       // bind 时的媒体地址
	MediaTime float64 `json:"mediaTime,omitempty"` // seek 目标（媒体本地秒）
}

// ReportData 客户端上报的设备位置
type ReportData struct {
	ClipID   string  `json:"clipId"`
	Position float64 `json:"position"` // 媒体本地播放位置（秒）
	Paused   bool    `json:"paused"`
}
