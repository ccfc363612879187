package server

import (
	"context"
	"net/http"

	"clipcut/core/auth"
	"clipcut/core/preview"
	"clipcut/logger"

	"github.com/gorilla/websocket"
)

// PreviewHandler 预览通道 WebSocket 处理器
type PreviewHandler struct {
	engine   *preview.Engine
	secret   string
	upgrader websocket.Upgrader
}

// NewPreviewHandler 创建预览通道处理器
func NewPreviewHandler(engine *preview.Engine, sessionSecret string) *PreviewHandler {
	return &PreviewHandler{
		engine: engine,
		secret: sessionSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发用途，前端跑在任意端口
			},
		},
	}
}

// HandleWebSocket 建立预览连接。
// 浏览器的 WebSocket API 不能带自定义头，令牌走 query 参数。
func (h *PreviewHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}
	sid, err := auth.VerifySession(token, h.secret)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket 升级失败", logger.ErrorField(err))
		return
	}

	client := &preview.Client{
		Hub:       h.engine.Hub(),
		Conn:      conn,
		Send:      make(chan []byte, 256),
		SessionID: sid,
	}

	h.engine.Hub().Register(client)

	go client.WritePump()
	go client.ReadPump(context.Background(), h.engine.HandleMessage)

	// 新连接先收一份完整状态
	client.SendMessage(preview.MsgTypeState, preview.StateData{
		Project: h.engine.Snapshot(),
	})

	logger.Info("preview connection established", logger.String("session", sid))
}
