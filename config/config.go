package config

import (
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// AppConfig holds file and environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via the config file or the environment.
type AppConfig struct {
	AppPort            string
	JWTSecret          string
	TokenTTLHours      int
	RateLimitPerMinute int
	AllowedOrigins     []string
	AdminUsernames     []string
	// LoginURL is where anonymous users are sent when a route needs a session.
	LoginURL string
	// Gin framework configuration
	GinMode string
	GinPath string
	// Database: DBDriver is "mysql" or "sqlite"
	DBDriver    string
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	SQLitePath  string
	// Redis backs the token blacklist; empty RedisHost keeps it in memory
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Blog behaviour
	PostsPerPage   int
	MediaRoot      string
	MaxImageSizeMB int
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// Load reads config/config.json, applies defaults and BLOGICUM_* environment overrides.
// It should be called once during boot.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Fatalf("failed to read config file: %v", err)
		}
	}

	cfg = fromViper(v)
	if cfg.JWTSecret == "" {
		log.Fatal("app.jwt_secret must be set (BLOGICUM_APP_JWT_SECRET)")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Set replaces the cached configuration. Tests and tools use it instead of Load.
func Set(c AppConfig) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
	loaded = true
}

// Defaults returns the configuration used when neither the file nor the environment set a key.
func Defaults() AppConfig {
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("BLOGICUM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.port", "8080")
	v.SetDefault("app.token_ttl_hours", 72)
	v.SetDefault("app.rate_limit_per_minute", 60)
	v.SetDefault("app.allowed_origins", []string{"*"})
	v.SetDefault("app.admin_usernames", []string{})
	v.SetDefault("app.login_url", "/api/v1/auth/login")

	v.SetDefault("gin.mode", "release")
	v.SetDefault("gin.log_path", "")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "blogicum")
	v.SetDefault("database.sqlite_path", "data/blogicum.db")

	v.SetDefault("redis.port", 6379)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)

	v.SetDefault("blog.posts_per_page", 10)
	v.SetDefault("blog.media_root", "media")
	v.SetDefault("blog.max_image_size_mb", 5)
	return v
}

func fromViper(v *viper.Viper) AppConfig {
	return AppConfig{
		AppPort:            v.GetString("app.port"),
		JWTSecret:          v.GetString("app.jwt_secret"),
		TokenTTLHours:      v.GetInt("app.token_ttl_hours"),
		RateLimitPerMinute: v.GetInt("app.rate_limit_per_minute"),
		AllowedOrigins:     stringList(v, "app.allowed_origins"),
		AdminUsernames:     stringList(v, "app.admin_usernames"),
		LoginURL:           v.GetString("app.login_url"),

		GinMode: v.GetString("gin.mode"),
		GinPath: v.GetString("gin.log_path"),

		DBDriver:    strings.ToLower(v.GetString("database.driver")),
		DatabaseURI: v.GetString("database.uri"),
		DBHost:      v.GetString("database.host"),
		DBPort:      v.GetString("database.port"),
		DBUser:      v.GetString("database.user"),
		DBPassword:  v.GetString("database.password"),
		DBName:      v.GetString("database.name"),
		SQLitePath:  v.GetString("database.sqlite_path"),

		RedisHost:     v.GetString("redis.host"),
		RedisPort:     v.GetInt("redis.port"),
		RedisDB:       v.GetInt("redis.db"),
		RedisPassword: v.GetString("redis.password"),

		LogLevel:      v.GetString("log.level"),
		LogPath:       v.GetString("log.path"),
		LogMaxSizeMB:  v.GetInt("log.max_size_mb"),
		LogMaxBackups: v.GetInt("log.max_backups"),
		LogMaxAgeDays: v.GetInt("log.max_age_days"),
		LogCompress:   v.GetBool("log.compress"),

		PostsPerPage:   v.GetInt("blog.posts_per_page"),
		MediaRoot:      v.GetString("blog.media_root"),
		MaxImageSizeMB: v.GetInt("blog.max_image_size_mb"),
	}
}

// stringList accepts both JSON arrays and comma separated environment values.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
