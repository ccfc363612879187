package server

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"clipcut/logger"
	"clipcut/model"
	"clipcut/storage"

	"github.com/gorilla/mux"
)

// UploadAssetHandler 上传素材文件。
// multipart 表单字段：
// - file: 媒体文件（视频或图片）
func (h *APIHandler) UploadAssetHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(256 << 20); err != nil { // 视频文件可能很大
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'file' in form")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	asset, err := h.library.Upload(r.Context(), header.Filename, contentType, file, header.Size)
	if err != nil {
		logger.Error("asset upload failed",
			logger.String("filename", header.Filename), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to upload asset")
		return
	}

	writeJSON(w, http.StatusCreated, asset)
}

// ListAssetsHandler 按创建时间倒序列出素材库
func (h *APIHandler) ListAssetsHandler(w http.ResponseWriter, r *http.Request) {
	assets, err := h.library.List(r.Context())
	if err != nil {
		logger.Error("failed to list assets", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to list assets")
		return
	}
	if assets == nil {
		assets = []*model.Asset{} // 返回 [] 而不是 null
	}
	writeJSON(w, http.StatusOK, assets)
}

// DeleteAssetHandler 删除素材。不级联：
// 引用该素材的剪辑保持原样，悬空的 src 由播放端容忍。
func (h *APIHandler) DeleteAssetHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.library.Delete(r.Context(), id); err != nil {
		logger.Error("failed to delete asset",
			logger.String("assetId", id), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete asset")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MediaHandler 从 MinIO 透传素材字节（/media/ 前缀路由）
func MediaHandler(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/media/")
	store := storage.Get()
	if store == nil {
		http.Error(w, "Object storage not available", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	object, err := store.Open(ctx, objectPath)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer object.Close()

	contentType := mime.TypeByExtension(filepath.Ext(objectPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000") // 素材内容不可变

	if _, err := io.Copy(w, object); err != nil {
		logger.Warn("error serving media object",
			logger.String("objectPath", objectPath), logger.ErrorField(err))
	}
}
