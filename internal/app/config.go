package app

import (
	"strings"
	"time"

	"github.com/XrOne/studio-jenial-sub004/internal/generation"
	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/storage"
	"github.com/XrOne/studio-jenial-sub004/internal/utils"
)

// ProviderConfig is one generation vendor endpoint plus its server-managed
// key. An empty Key means requests against this provider must bring their
// own.
type ProviderConfig struct {
	HTTP generation.HTTPProviderConfig
	Key  string
}

type Config struct {
	Port string

	Providers         []ProviderConfig
	PollInterval      time.Duration
	PollCeiling       time.Duration
	ReconcileInterval time.Duration

	StorageDefault string
	Local          storage.LocalConfig
	GCS            storage.GCSConfig
	S3             storage.S3Config
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:              utils.GetEnv("PORT", "8080", log),
		PollInterval:      time.Duration(utils.GetEnvAsInt("GENERATION_POLL_INTERVAL_SEC", 5, log)) * time.Second,
		PollCeiling:       time.Duration(utils.GetEnvAsInt("GENERATION_POLL_CEILING_SEC", 600, log)) * time.Second,
		ReconcileInterval: time.Duration(utils.GetEnvAsInt("RECONCILE_INTERVAL_SEC", 60, log)) * time.Second,
		StorageDefault:    utils.GetEnv("STORAGE_DEFAULT", storage.LocalBackendName, log),
		Local: storage.LocalConfig{
			BasePath: utils.GetEnv("LOCAL_STORAGE_DIR", "./data/artifacts", log),
			BaseURL:  utils.GetEnv("LOCAL_PUBLIC_BASE_URL", "http://localhost:8080/artifacts", log),
		},
		GCS: storage.GCSConfig{
			Bucket:      utils.GetEnv("GCS_BUCKET_NAME", "", log),
			Credentials: utils.GetEnv("GCS_CREDENTIALS", "", log),
			CDNDomain:   utils.GetEnv("GCS_CDN_DOMAIN", "", log),
		},
		S3: storage.S3Config{
			Bucket:       utils.GetEnv("S3_BUCKET", "", log),
			Region:       utils.GetEnv("S3_REGION", "us-east-1", log),
			AccessKeyID:  utils.GetEnv("S3_ACCESS_KEY_ID", "", log),
			SecretKey:    utils.GetEnv("S3_SECRET_ACCESS_KEY", "", log),
			Endpoint:     utils.GetEnv("S3_ENDPOINT", "", log),
			UsePathStyle: utils.GetEnvAsBool("S3_USE_PATH_STYLE", false, log),
			PublicBase:   utils.GetEnv("S3_PUBLIC_BASE_URL", "", log),
		},
	}

	cfg.Providers = loadProviderConfigs(log)
	return cfg
}

// Providers come from GENERATION_PROVIDERS, a comma list of ids; each id has
// its own PROVIDER_<ID>_* variables. Keys never leave this struct except
// into the credential resolver.
func loadProviderConfigs(log *logger.Logger) []ProviderConfig {
	raw := utils.GetEnv("GENERATION_PROVIDERS", "", log)
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var out []ProviderConfig
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		prefix := "PROVIDER_" + strings.ToUpper(strings.ReplaceAll(id, "-", "_"))
		caps := []generation.Capability{}
		for _, c := range strings.Split(utils.GetEnv(prefix+"_CAPABILITIES", "preview,retouch,batchVariants", log), ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				caps = append(caps, generation.Capability(c))
			}
		}
		out = append(out, ProviderConfig{
			HTTP: generation.HTTPProviderConfig{
				ID:           id,
				BaseURL:      utils.GetEnv(prefix+"_BASE_URL", "", log),
				Capabilities: caps,
				TimeoutSec:   utils.GetEnvAsInt(prefix+"_TIMEOUT_SEC", 60, log),
				MaxRetries:   utils.GetEnvAsInt(prefix+"_MAX_RETRIES", 2, log),
			},
			Key: utils.GetEnv(prefix+"_API_KEY", "", log),
		})
	}
	return out
}
