package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"spendreport-backend/internal/report"
	"spendreport-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port             string
	Env              string
	CORSAllowOrigin  []string
	DatabaseURL      string
	ObjectStoreType  string
	LocalStoreDir    string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	SSEKMSKeyID      string
	LogLevel         string
	ReportQAEnabled  bool
	ReportQAEndpoint string
	ReportQATimeout  time.Duration
	OpenAIAPIKey     string
	LLMModel         string
	OpenAITimeout    time.Duration
	Thresholds       report.Thresholds
}

// ConfigFileEnv names the optional YAML, JSON or TOML config file.
const ConfigFileEnv = "REPORT_CONFIG_FILE"

// Load reads configuration from the environment, an optional .env file and
// an optional config file. Environment variables win over both files.
func Load() Config {
	return load(viper.New(), os.Getenv(ConfigFileEnv), ".env", "cmd/.env")
}

func load(v *viper.Viper, configFile string, envFiles ...string) Config {
	setDefaults(v)
	v.AutomaticEnv()

	mergeEnvFiles(v, envFiles...)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.MergeInConfig(); err != nil {
			telemetry.Warn("config.file_unreadable", map[string]any{"path": configFile, "error": err.Error()})
		}
	}

	env := normalizeEnv(v.GetString("env"))
	dbURL := strings.TrimSpace(v.GetString("database_url"))
	if env == "production" && dbURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	var thresholds report.Thresholds
	if v.IsSet("thresholds") {
		if err := v.UnmarshalKey("thresholds", &thresholds); err != nil {
			telemetry.Warn("config.thresholds_invalid", map[string]any{"error": err.Error()})
			thresholds = report.Thresholds{}
		}
	}

	return Config{
		Port:             v.GetString("port"),
		Env:              env,
		CORSAllowOrigin:  splitAndTrim(v.GetString("cors_allow_origins")),
		DatabaseURL:      dbURL,
		ObjectStoreType:  normalizeStoreType(v.GetString("object_store")),
		LocalStoreDir:    v.GetString("local_store_dir"),
		AWSRegion:        v.GetString("aws_region"),
		S3Bucket:         v.GetString("s3_bucket"),
		S3Prefix:         v.GetString("s3_prefix"),
		SSEKMSKeyID:      v.GetString("sse_kms_key_id"),
		LogLevel:         strings.ToLower(strings.TrimSpace(v.GetString("log_level"))),
		ReportQAEnabled:  v.GetBool("report_qa_enabled"),
		ReportQAEndpoint: strings.TrimSpace(v.GetString("report_qa_endpoint")),
		ReportQATimeout:  seconds(v.GetString("report_qa_timeout")),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		LLMModel:         v.GetString("llm_model"),
		OpenAITimeout:    seconds(v.GetString("openai_timeout_seconds")),
		Thresholds:       thresholds.Merge(),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("cors_allow_origins", "http://localhost:5173")
	v.SetDefault("object_store", "local")
	v.SetDefault("local_store_dir", "./data")
	v.SetDefault("log_level", "info")
	v.SetDefault("report_qa_enabled", false)
	v.SetDefault("report_qa_timeout", "15")
	v.SetDefault("llm_model", "gpt-4o-mini")
	v.SetDefault("openai_timeout_seconds", "14")

	// Keys without defaults.
	for _, key := range []string{"database_url", "aws_region", "s3_bucket", "s3_prefix", "sse_kms_key_id", "report_qa_endpoint", "openai_api_key"} {
		_ = v.BindEnv(key)
	}
}

// mergeEnvFiles folds KEY=VALUE files into the config layer. Missing or
// unreadable files are skipped.
func mergeEnvFiles(v *viper.Viper, paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		ev := viper.New()
		ev.SetConfigFile(path)
		ev.SetConfigType("env")
		if err := ev.ReadInConfig(); err != nil {
			continue
		}
		_ = v.MergeConfigMap(ev.AllSettings())
	}
}

// seconds accepts a bare number of seconds or a Go duration string.
func seconds(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		if n <= 0 {
			return 0
		}
		return time.Duration(n * float64(time.Second))
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
