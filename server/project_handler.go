package server

import (
	"encoding/json"
	"net/http"

	"clipcut/core/timeline"
	"clipcut/logger"

	"github.com/gorilla/mux"
)

// GetProjectHandler 返回完整工程快照
func (h *APIHandler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// AddClipHandler 把素材库中的素材落到时间轴上。
// trackId 是落点提示：不兼容或缺省时落到首个能接纳该类型的轨道。
// atTime 缺省时落在当前播放头位置。
func (h *APIHandler) AddClipHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID string   `json:"assetId"`
		TrackID string   `json:"trackId,omitempty"`
		AtTime  *float64 `json:"atTime,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.AssetID == "" {
		writeError(w, http.StatusBadRequest, "Missing assetId")
		return
	}

	asset, err := h.library.Get(r.Context(), req.AssetID)
	if err != nil {
		logger.Error("failed to load asset", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to load asset")
		return
	}
	if asset == nil {
		writeError(w, http.StatusNotFound, "Asset not found")
		return
	}

	atTime := h.engine.Project().CurrentTime()
	if req.AtTime != nil {
		atTime = *req.AtTime
	}

	clip, ok := h.engine.AddClip(*asset, req.TrackID, atTime)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "No compatible track for asset")
		return
	}
	writeJSON(w, http.StatusCreated, clip)
}

// AddTextHandler 在文字轨新建文字剪辑
func (h *APIHandler) AddTextHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AtTime *float64 `json:"atTime,omitempty"`
	}
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req) // 空 body 可接受
	}

	atTime := h.engine.Project().CurrentTime()
	if req.AtTime != nil {
		atTime = *req.AtTime
	}

	clip, ok := h.engine.AddText(atTime)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "No text track available")
		return
	}
	writeJSON(w, http.StatusCreated, clip)
}

// UpdateClipHandler 部分更新剪辑字段
func (h *APIHandler) UpdateClipHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var upd timeline.ClipUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !h.engine.UpdateClip(id, upd) {
		writeError(w, http.StatusNotFound, "Clip not found")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// DeleteClipHandler 删除剪辑
func (h *APIHandler) DeleteClipHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if !h.engine.DeleteClip(id) {
		writeError(w, http.StatusNotFound, "Clip not found")
		return
	}
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// SelectClipHandler 更新选中剪辑；clipId 为空串表示清除选中
func (h *APIHandler) SelectClipHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClipID string `json:"clipId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.engine.SelectClip(req.ClipID)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// SeekHandler 跳转播放头。二选一：
//   - time: 时间轴秒数
//   - pixelOffset: 时间轴横向像素坐标，按当前缩放换算
func (h *APIHandler) SeekHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time        *float64 `json:"time,omitempty"`
		PixelOffset *float64 `json:"pixelOffset,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var current float64
	switch {
	case req.Time != nil:
		current = h.engine.Seek(*req.Time)
	case req.PixelOffset != nil:
		current = h.engine.SeekPixels(*req.PixelOffset)
	default:
		writeError(w, http.StatusBadRequest, "Missing time or pixelOffset")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"currentTime": current,
		"isPlaying":   h.engine.Project().IsPlaying(),
	})
}

// TogglePlayHandler 翻转播放状态
func (h *APIHandler) TogglePlayHandler(w http.ResponseWriter, r *http.Request) {
	playing := h.engine.TogglePlay()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"isPlaying":   playing,
		"currentTime": h.engine.Project().CurrentTime(),
	})
}

// SetZoomHandler 设置时间轴缩放（像素/秒）
func (h *APIHandler) SetZoomHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Zoom float64 `json:"zoom"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Zoom <= 0 {
		writeError(w, http.StatusBadRequest, "Zoom must be positive")
		return
	}

	h.engine.SetZoom(req.Zoom)
	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

// GetActiveHandler 返回当前播放头处的活动剪辑集。
// primary 是视觉背景层实际渲染的那个剪辑。
func (h *APIHandler) GetActiveHandler(w http.ResponseWriter, r *http.Request) {
	set, t := h.engine.ActiveSet()

	resp := map[string]interface{}{
		"currentTime": t,
		"visuals":     set.Visuals,
		"texts":       set.Texts,
		"audios":      set.Audios,
	}
	if primary, ok := set.Primary(); ok {
		resp["primary"] = primary
		resp["primaryMediaTime"] = timeline.MediaTime(primary, t)
	}
	writeJSON(w, http.StatusOK, resp)
}
