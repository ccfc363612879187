package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clipcut/logger"
)

// GeneratedMedia 一次成功生成的产物
type GeneratedMedia struct {
	Data     []byte
	MimeType string
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// GenerateImage 文生图。失败不产生任何产物。
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*GeneratedMedia, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	logger.Info("generating image", logger.String("model", c.imageModel))

	resp, err := c.generateContent(ctx, c.imageModel, prompt)
	if err != nil {
		return nil, err
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("解码生成图片失败: %w", err)
			}
			mimeType := p.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return &GeneratedMedia{Data: data, MimeType: mimeType}, nil
		}
	}
	return nil, fmt.Errorf("响应中没有图片数据")
}

// GenerateScript 生成分镜脚本文本
func (c *Client) GenerateScript(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", ErrNoAPIKey
	}

	resp, err := c.generateContent(ctx, c.scriptModel, prompt)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			b.WriteString(p.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("响应中没有文本内容")
	}
	return b.String(), nil
}

func (c *Client) generateContent(ctx context.Context, model, prompt string) (*generateContentResponse, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, model)

	payload := generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	var result generateContentResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return nil, fmt.Errorf("API返回错误: %s (code: %d)", result.Error.Message, result.Error.Code)
		}
		return nil, fmt.Errorf("API返回错误状态码: %d", resp.StatusCode)
	}
	return &result, nil
}

type predictRequest struct {
	Instances  []videoInstance `json:"instances"`
	Parameters videoParameters `json:"parameters"`
}

type videoInstance struct {
	Prompt string `json:"prompt"`
}

type videoParameters struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
	Error *apiError `json:"error,omitempty"`
}

// GenerateVideo 文生视频。启动长任务后轮询到完成再下载产物；
// 任一环节失败返回错误，不产生部分结果。
func (c *Client) GenerateVideo(ctx context.Context, prompt string) (*GeneratedMedia, error) {
	if !c.Enabled() {
		return nil, ErrNoAPIKey
	}

	logger.Info("generating video", logger.String("model", c.videoModel))

	op, err := c.startVideoOperation(ctx, prompt)
	if err != nil {
		return nil, err
	}

	op, err = c.pollOperation(ctx, op)
	if err != nil {
		return nil, err
	}

	if op.Response == nil || len(op.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
		return nil, fmt.Errorf("视频任务完成但没有产物")
	}
	uri := op.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI
	if uri == "" {
		return nil, fmt.Errorf("视频任务返回空URI")
	}

	data, err := c.downloadVideo(ctx, uri)
	if err != nil {
		return nil, err
	}

	logger.Info("video generated", logger.Int("bytes", len(data)))
	return &GeneratedMedia{Data: data, MimeType: "video/mp4"}, nil
}

func (c *Client) startVideoOperation(ctx context.Context, prompt string) (*operation, error) {
	url := fmt.Sprintf("%s/v1beta/models/%s:predictLongRunning", c.baseURL, c.videoModel)

	payload := predictRequest{
		Instances:  []videoInstance{{Prompt: prompt}},
		Parameters: videoParameters{AspectRatio: "16:9"},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("启动视频任务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("启动视频任务返回错误状态码: %d", resp.StatusCode)
	}

	var op operation
	if err := json.NewDecoder(resp.Body).Decode(&op); err != nil {
		return nil, fmt.Errorf("解析任务响应失败: %w", err)
	}
	if op.Name == "" {
		return nil, fmt.Errorf("任务响应缺少操作名")
	}
	return &op, nil
}

func (c *Client) pollOperation(ctx context.Context, op *operation) (*operation, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for !op.Done {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		url := fmt.Sprintf("%s/v1beta/%s", c.baseURL, op.Name)
		req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
		if err != nil {
			return nil, fmt.Errorf("创建轮询请求失败: %w", err)
		}
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("轮询任务失败: %w", err)
		}

		var next operation
		err = json.NewDecoder(resp.Body).Decode(&next)
		status := resp.StatusCode
		resp.Body.Close()

		// 轮询端点报错就立即终止，不重试：继续轮询一个失败的任务
		// 只会把错误拖到调用方超时才暴露
		if next.Error != nil {
			return nil, fmt.Errorf("视频任务失败: %s (code: %d)", next.Error.Message, next.Error.Code)
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("轮询任务返回错误状态码: %d", status)
		}
		if err != nil {
			return nil, fmt.Errorf("解析轮询响应失败: %w", err)
		}
		if next.Name == "" {
			next.Name = op.Name
		}
		op = &next

		logger.Debug("video operation polled",
			logger.String("name", op.Name), logger.Bool("done", op.Done))
	}

	if op.Error != nil {
		return nil, fmt.Errorf("视频任务失败: %s (code: %d)", op.Error.Message, op.Error.Code)
	}
	return op, nil
}

func (c *Client) downloadVideo(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, fmt.Errorf("创建下载请求失败: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("下载视频失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("下载视频返回错误状态码: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
