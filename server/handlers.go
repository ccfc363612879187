package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"clipcut/config"
	"clipcut/core/assetlib"
	"clipcut/core/auth"
	"clipcut/core/genai"
	"clipcut/core/preview"
	"clipcut/logger"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	engine  *preview.Engine
	library *assetlib.Library
	genai   *genai.Client
	cfg     *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	engine *preview.Engine,
	library *assetlib.Library,
	genaiClient *genai.Client,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		engine:  engine,
		library: library,
		genai:   genaiClient,
		cfg:     cfg,
	}
}

type contextKey string

const sessionIDKey contextKey = "sessionID"

// GetSessionIDFromContext 从请求上下文取会话ID（由 AuthMiddleware 写入）
func GetSessionIDFromContext(ctx context.Context) (string, error) {
	sid, ok := ctx.Value(sessionIDKey).(string)
	if !ok || sid == "" {
		return "", fmt.Errorf("会话未认证")
	}
	return sid, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// AuthMiddleware 校验 Bearer 会话令牌
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
			return
		}

		sid, err := auth.VerifySession(parts[1], h.cfg.SessionSecret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), sessionIDKey, sid)
		next(w, r.WithContext(ctx))
	}
}

// SessionHandler 签发匿名编辑会话。
// 没有用户体系：打开编辑器的每个浏览器领一个令牌即可。
func (h *APIHandler) SessionHandler(w http.ResponseWriter, r *http.Request) {
	token, sid, err := auth.IssueSession(h.cfg.SessionSecret, h.cfg.SessionTTL)
	if err != nil {
		logger.Error("failed to issue session", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	logger.Info("session issued", logger.String("session", sid))
	writeJSON(w, http.StatusOK, map[string]string{
		"token":     token,
		"sessionId": sid,
	})
}
