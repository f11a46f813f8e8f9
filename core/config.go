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

type Config struct {
	AppName  string
	Env      string // DEV (local; default), TEST, QA, PROD
	Build    string
	Debug    bool
	TestMode bool

	// remote grading backend
	APIBaseURL     string // always ends in /api
	RequestTimeout time.Duration

	// workflows
	PollInterval     time.Duration // archive parse status checks
	AutosaveDebounce time.Duration // per-rubric score persistence
	PageSize         int

	// local state
	TokenFile string

	// document preview
	OfficeViewerBaseURL string

	// observability
	RollbarToken string

	Server struct {
		Host string
		Addr string
	}
}

func NewConfig() *Config {
	conf := viper.New()
	conf.SetTypeByDefaultValue(true)

	// defaults
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Barem")
	conf.SetDefault("apiBaseURL", "http://localhost:5064/api")
	conf.SetDefault("requestTimeout", 30*time.Second)
	conf.SetDefault("pollInterval", 3*time.Second)
	conf.SetDefault("autosaveDebounce", 500*time.Millisecond)
	conf.SetDefault("pageSize", 12)
	conf.SetDefault("tokenFile", defaultTokenFile())
	conf.SetDefault("officeViewerBaseURL", "https://view.officeapps.live.com/op/embed.aspx?src=")
	conf.SetDefault("serverHost", "localhost")
	conf.SetDefault("serverAddr", ":8000")

	env := os.Getenv("ENV")
	if env == "" {
		env = "DEV"
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	cfg := &Config{
		AppName:             conf.GetString("appName"),
		Env:                 env,
		Build:               conf.GetString("build"),
		Debug:               conf.GetBool("debug"),
		TestMode:            env == "TEST",
		APIBaseURL:          NormalizeAPIBaseURL(conf.GetString("apiBaseURL")),
		RequestTimeout:      conf.GetDuration("requestTimeout"),
		PollInterval:        conf.GetDuration("pollInterval"),
		AutosaveDebounce:    conf.GetDuration("autosaveDebounce"),
		PageSize:            conf.GetInt("pageSize"),
		TokenFile:           conf.GetString("tokenFile"),
		OfficeViewerBaseURL: conf.GetString("officeViewerBaseURL"),
		RollbarToken:        conf.GetString("rollbarToken"),
	}
	cfg.Server.Host = conf.GetString("serverHost")
	cfg.Server.Addr = conf.GetString("serverAddr")
	return cfg
}

// NormalizeAPIBaseURL makes sure the backend base URL always carries the /api
// suffix the remote routes are mounted under.
func NormalizeAPIBaseURL(u string) string {
	u = strings.TrimRight(strings.TrimSpace(u), "/")
	if u == "" {
		return u
	}
	if !strings.HasSuffix(u, "/api") {
		u += "/api"
	}
	return u
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = Getwd()
	}
	return filepath.Join(dir, "barem", "token")
}

// Getwd returns the app's working dir.
func Getwd() string {
	dir, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd: %v", err)
	}
	return dir
}
