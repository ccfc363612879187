package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
// Values come from the environment (optionally a .env file) with sane defaults.
type Config struct {
	ServerAddr string // HTTP 监听地址

	// 工程默认参数
	ProjectDuration float64 // 工作区总时长（秒）
	TimelineZoom    float64 // 默认缩放（像素/秒）

	// 素材目录
	UploadDir string // 上传临时文件目录
	WatchDir  string // 监听自动入库目录，为空时不启用

	// MySQL配置（素材目录库）
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Redis配置（播放头快照缓存）
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// MinIO配置（素材字节存储）
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool
	MinioPublicURL string // 对外可访问的基础URL，为空时走本服务 /media/ 路由

	// Gemini 生成式AI配置
	GeminiAPIURL       string
	GeminiAPIKey       string
	GeminiImageModel   string
	GeminiVideoModel   string
	GeminiScriptModel  string
	GeminiPollInterval time.Duration // Veo 任务轮询间隔

	// 会话令牌
	SessionSecret string
	SessionTTL    time.Duration

	// 日志
	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvFloat gets an environment variable as float64 or returns a default value.
func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() 不会覆盖已存在的环境变量
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	uploadBase := getEnv("UPLOAD_DIR", "uploads")

	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),

		ProjectDuration: getEnvFloat("PROJECT_DURATION", 300), // 默认5分钟工作区
		TimelineZoom:    getEnvFloat("TIMELINE_ZOOM", 20),     // 20像素/秒

		UploadDir: uploadBase,
		WatchDir:  getEnv("WATCH_DIR", filepath.Join(uploadBase, "incoming")),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"), // 密码不提供默认值
		DBName:     getEnv("DB_NAME", "clipcut"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "clipcut"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),
		MinioPublicURL: getEnv("MINIO_PUBLIC_URL", ""),

		GeminiAPIURL:       getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
		GeminiImageModel:   getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiVideoModel:   getEnv("GEMINI_VIDEO_MODEL", "veo-3.1-fast-generate-preview"),
		GeminiScriptModel:  getEnv("GEMINI_SCRIPT_MODEL", "gemini-2.5-flash"),
		GeminiPollInterval: time.Duration(getEnvInt("GEMINI_POLL_INTERVAL", 5)) * time.Second,

		SessionSecret: getEnv("SESSION_SECRET", "clipcut-dev-secret"),
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
