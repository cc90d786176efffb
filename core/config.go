package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
		CookieSecure    bool
		DisableReqLogs  bool
	}

	BackendConfig struct {
		BaseURL            string
		Timeout            time.Duration
		MaxRetries         int
		HydrateConcurrency int
	}

	StorageConfig struct {
		Driver   string // memory | postgres | file
		FilePath string
	}

	DatabaseConfig struct {
		Engine     string
		Host       string
		Port       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	MediaConfig struct {
		Endpoint  string
		AccessKey string
		SecretKey string
		Bucket    string
		Region    string
		UseSSL    bool
		URLExpiry time.Duration
	}

	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		AppName      string
		Debug        bool
		TestMode     bool
		WorkDir      string
		LogLevel     string
		RollbarToken string

		Server   ServerConfig
		Backend  BackendConfig
		Storage  StorageConfig
		Database DatabaseConfig
		Media    MediaConfig

		// CatalogRefreshSpec is the cron spec used to refresh the cached exam catalog.
		CatalogRefreshSpec string
	}
)

func (dc DatabaseConfig) Address() string {
	if dc.Port == "" {
		return dc.Host
	}
	return dc.Host + ":" + dc.Port
}

// MediaEnabled reports whether image references should be resolved against an object store.
func (c *Config) MediaEnabled() bool {
	return c.Media.Endpoint != "" && c.Media.Bucket != ""
}

func setDefaults(v *viper.Viper) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("build", "develop")
	v.SetDefault("app_name", "PrepPortal")
	v.SetDefault("log.level", "debug")
	v.SetDefault("rollbar_token", "")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.debug_host", ":4000")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("server.disable_req_logs", false)

	v.SetDefault("backend.base_url", "http://localhost:5000")
	v.SetDefault("backend.timeout", 10*time.Second)
	v.SetDefault("backend.max_retries", 2)
	v.SetDefault("backend.hydrate_concurrency", 8)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.file_path", "")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "prepportal")
	v.SetDefault("database.user", "prepportal")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disable_tls", true)

	v.SetDefault("media.endpoint", "")
	v.SetDefault("media.access_key", "")
	v.SetDefault("media.secret_key", "")
	v.SetDefault("media.bucket", "")
	v.SetDefault("media.region", "us-east-1")
	v.SetDefault("media.use_ssl", true)
	v.SetDefault("media.url_expiry", 1*time.Hour)

	v.SetDefault("catalog.refresh_spec", "@every 10m")
}

// NewConfig loads the configuration from defaults, `config/.env.<env>` (if it exists)
// and environment variables prefixed with the current env, eg. `PROD_BACKEND_BASE_URL`.
func NewConfig() *Config {
	v := viper.New()
	setDefaults(v)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("test_mode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	wd := ProjectRoot()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        v.GetString("build"),
		AppName:      v.GetString("app_name"),
		Debug:        v.GetBool("debug"),
		TestMode:     v.GetBool("test_mode"),
		WorkDir:      wd,
		LogLevel:     v.GetString("log.level"),
		RollbarToken: v.GetString("rollbar_token"),
		Server: ServerConfig{
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debug_host"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			CookieSecure:    v.GetBool("server.cookie_secure"),
			DisableReqLogs:  v.GetBool("server.disable_req_logs"),
		},
		Backend: BackendConfig{
			BaseURL:            v.GetString("backend.base_url"),
			Timeout:            v.GetDuration("backend.timeout"),
			MaxRetries:         v.GetInt("backend.max_retries"),
			HydrateConcurrency: v.GetInt("backend.hydrate_concurrency"),
		},
		Storage: StorageConfig{
			Driver:   strings.ToLower(v.GetString("storage.driver")),
			FilePath: v.GetString("storage.file_path"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("database.engine"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			Name:       v.GetString("database.name"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disable_tls"),
		},
		Media: MediaConfig{
			Endpoint:  v.GetString("media.endpoint"),
			AccessKey: v.GetString("media.access_key"),
			SecretKey: v.GetString("media.secret_key"),
			Bucket:    v.GetString("media.bucket"),
			Region:    v.GetString("media.region"),
			UseSSL:    v.GetBool("media.use_ssl"),
			URLExpiry: v.GetDuration("media.url_expiry"),
		},
		CatalogRefreshSpec: v.GetString("catalog.refresh_spec"),
	}
}
