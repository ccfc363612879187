package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"clipcut/core/genai"
	"clipcut/logger"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

func decodePrompt(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "Missing prompt")
		return "", false
	}
	return prompt, true
}

// GenerateImageHandler 文生图并入素材库。
// 生成失败不落任何素材记录。
func (h *APIHandler) GenerateImageHandler(w http.ResponseWriter, r *http.Request) {
	prompt, ok := decodePrompt(w, r)
	if !ok {
		return
	}

	media, err := h.genai.GenerateImage(r.Context(), prompt)
	if err != nil {
		h.writeGenerateError(w, "image", err)
		return
	}

	asset, err := h.library.IngestGenerated(r.Context(), prompt, media.MimeType, media.Data)
	if err != nil {
		logger.Error("failed to ingest generated image", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to store generated image")
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// GenerateVideoHandler 文生视频并入素材库。
// Veo 任务耗时以分钟计，客户端要按长请求处理。
func (h *APIHandler) GenerateVideoHandler(w http.ResponseWriter, r *http.Request) {
	prompt, ok := decodePrompt(w, r)
	if !ok {
		return
	}

	media, err := h.genai.GenerateVideo(r.Context(), prompt)
	if err != nil {
		h.writeGenerateError(w, "video", err)
		return
	}

	asset, err := h.library.IngestGenerated(r.Context(), prompt, media.MimeType, media.Data)
	if err != nil {
		logger.Error("failed to ingest generated video", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to store generated video")
		return
	}
	writeJSON(w, http.StatusCreated, asset)
}

// GenerateScriptHandler 生成分镜脚本文本，不入素材库
func (h *APIHandler) GenerateScriptHandler(w http.ResponseWriter, r *http.Request) {
	prompt, ok := decodePrompt(w, r)
	if !ok {
		return
	}

	script, err := h.genai.GenerateScript(r.Context(), prompt)
	if err != nil {
		h.writeGenerateError(w, "script", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"script": script})
}

func (h *APIHandler) writeGenerateError(w http.ResponseWriter, kind string, err error) {
	if errors.Is(err, genai.ErrNoAPIKey) {
		writeError(w, http.StatusServiceUnavailable, "Generative AI is not configured")
		return
	}
	logger.Error("generation failed", logger.String("kind", kind), logger.ErrorField(err))
	writeError(w, http.StatusBadGateway, "Generation failed")
}
