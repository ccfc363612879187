package genai

import (
	"errors"
	"net/http"
	"time"

	"clipcut/config"
)

// ErrNoAPIKey 未配置API密钥时所有生成操作直接失败
var ErrNoAPIKey = errors.New("未配置 Gemini API 密钥")

// Client Gemini 生成式AI客户端。
// 图片走 generateContent，视频走 predictLongRunning 长任务轮询。
type Client struct {
	baseURL      string
	apiKey       string
	imageModel   string
	videoModel   string
	scriptModel  string
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewClient 创建生成客户端
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:      cfg.GeminiAPIURL,
		apiKey:       cfg.GeminiAPIKey,
		imageModel:   cfg.GeminiImageModel,
		videoModel:   cfg.GeminiVideoModel,
		scriptModel:  cfg.GeminiScriptModel,
		pollInterval: cfg.GeminiPollInterval,
		httpClient: &http.Client{
			Timeout: time.Second * 120,
		},
	}
}

// SetBaseURL 设置API基础URL
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetPollInterval 设置长任务轮询间隔
func (c *Client) SetPollInterval(d time.Duration) {
	c.pollInterval = d
}

// Enabled 是否配置了可用的API密钥
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}
