package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr             string
	DatabaseURL          string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool

	JWTSecret string

	// Speech transcription vendor (volcengine openspeech).
	VolcAppID       string
	VolcAccessToken string
	VolcSecretKey   string
	VolcBaseURL     string

	// LLM vendor (ark chat-completions endpoint).
	ArkAPIKey  string
	ArkBaseURL string
	ArkModel   string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:          mustGetenv("DATABASE_URL"),
		CORSAllowCredentials: getenv("CORS_ALLOW_CREDENTIALS", "false") == "true",
	}

	origins := strings.Split(getenv("CORS_ALLOWED_ORIGINS", ""), ",")
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
		}
	}

	cfg.JWTSecret = mustGetenv("JWT_SECRET")

	cfg.VolcAppID = mustGetenv("VOLC_APP_ID")
	cfg.VolcAccessToken = mustGetenv("VOLC_ACCESS_TOKEN")
	cfg.VolcSecretKey = mustGetenv("VOLC_SECRET_KEY")
	cfg.VolcBaseURL = getenv("VOLC_BASE_URL", "https://openspeech.bytedance.com/api/v1/auc/bigmodel")

	cfg.ArkAPIKey = mustGetenv("ARK_API_KEY")
	cfg.ArkBaseURL = getenv("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
	cfg.ArkModel = getenv("ARK_MODEL", "doubao-1-5-pro-32k")

	return cfg, nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func mustGetenv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic("missing env: " + key)
	}
	return v
}
