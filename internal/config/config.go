package config

import (
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		Host         string        `yaml:"host"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
		IdleTimeout  time.Duration `yaml:"idle_timeout"`
	} `yaml:"server"`

	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		TokenTTL  time.Duration `yaml:"token_ttl"`
	} `yaml:"auth"`

	Interview struct {
		MaxViolations     int           `yaml:"max_violations"`
		ViolationDebounce time.Duration `yaml:"violation_debounce"`
		TeardownDelay     time.Duration `yaml:"teardown_delay"`
		HistoryTTL        time.Duration `yaml:"history_ttl"`
		MaxResumeSize     int64         `yaml:"max_resume_size"` // bytes
	} `yaml:"interview"`

	RateLimit struct {
		ViolationsPerMinute int `yaml:"violations_per_minute"`
		Burst               int `yaml:"burst"`
	} `yaml:"rate_limit"`

	LLM struct {
		Provider    string        `yaml:"provider"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model"`
		MaxTokens   int           `yaml:"max_tokens"`
		Temperature float32       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	Firecrawl struct {
		APIKey     string        `yaml:"api_key"`
		APIURL     string        `yaml:"api_url"`
		Timeout    time.Duration `yaml:"timeout"`
		MaxRetries int           `yaml:"max_retries"`
	} `yaml:"firecrawl"`

	ImportTasks struct {
		MaxConcurrentTasks int           `yaml:"max_concurrent_tasks"`
		TaskTimeout        time.Duration `yaml:"task_timeout"`
		CleanupInterval    time.Duration `yaml:"cleanup_interval"`
		MaxTaskAge         time.Duration `yaml:"max_task_age"`
	} `yaml:"import_tasks"`

	Logging struct {
		Level    string             `yaml:"level"`
		Format   string             `yaml:"format"`
		Adapters []LogAdapterConfig `yaml:"adapters"`
	} `yaml:"logging"`

	Redis struct {
		URL      string        `yaml:"url"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"redis"`

	Postgres struct {
		URL      string        `yaml:"url"`
		MaxConns int32         `yaml:"max_conns"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"postgres"`
}

// LogAdapterConfig configures one logging output adapter
type LogAdapterConfig struct {
	Name    string                 `yaml:"name"`
	Type    string                 `yaml:"type"`
	Enabled bool                   `yaml:"enabled"`
	Options map[string]interface{} `yaml:"options"`
}

// expandEnvVars expands environment variables in a string using ${VAR} or $VAR syntax
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	re2 := regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
	s = re2.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})

	return s
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := &Config{}

	// Set defaults
	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second

	config.Auth.TokenTTL = 24 * time.Hour

	config.Interview.MaxViolations = 3
	config.Interview.ViolationDebounce = 2 * time.Second
	config.Interview.TeardownDelay = 5 * time.Second
	config.Interview.HistoryTTL = 24 * time.Hour
	config.Interview.MaxResumeSize = 5 * 1024 * 1024

	config.RateLimit.ViolationsPerMinute = 30
	config.RateLimit.Burst = 10

	config.LLM.Provider = "claude"
	config.LLM.Model = "claude-3-haiku-20240307"
	config.LLM.MaxTokens = 2048
	config.LLM.Temperature = 0.3
	config.LLM.Timeout = 30 * time.Second

	config.Firecrawl.APIURL = "https://api.firecrawl.dev"
	config.Firecrawl.Timeout = 60 * time.Second
	config.Firecrawl.MaxRetries = 3

	config.ImportTasks.MaxConcurrentTasks = 10
	config.ImportTasks.TaskTimeout = 300 * time.Second
	config.ImportTasks.CleanupInterval = 1 * time.Hour
	config.ImportTasks.MaxTaskAge = 24 * time.Hour

	config.Logging.Level = "info"
	config.Logging.Format = "json"

	config.Redis.URL = "redis://localhost:6379"
	config.Redis.DB = 0
	config.Redis.Timeout = 5 * time.Second

	config.Postgres.URL = "postgres://localhost:5432/hireflow"
	config.Postgres.MaxConns = 10
	config.Postgres.Timeout = 5 * time.Second

	// Load from YAML file if it exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	// Override with environment variables
	config.loadFromEnv()

	return config, nil
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}

	if apiKey := os.Getenv("LLM_API_KEY"); apiKey != "" {
		c.LLM.APIKey = apiKey
	}

	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
	}

	if model := os.Getenv("LLM_MODEL"); model != "" {
		c.LLM.Model = model
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	if firecrawlAPIKey := os.Getenv("FIRECRAWL_API_KEY"); firecrawlAPIKey != "" {
		c.Firecrawl.APIKey = firecrawlAPIKey
	}

	if firecrawlAPIURL := os.Getenv("FIRECRAWL_API_URL"); firecrawlAPIURL != "" {
		c.Firecrawl.APIURL = firecrawlAPIURL
	}

	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.URL = redisURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Redis.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Redis.DB = db
		}
	}

	if postgresURL := os.Getenv("DATABASE_URL"); postgresURL != "" {
		c.Postgres.URL = postgresURL
	}

	if maxViolations := os.Getenv("INTERVIEW_MAX_VIOLATIONS"); maxViolations != "" {
		if n, err := strconv.Atoi(maxViolations); err == nil && n > 0 {
			c.Interview.MaxViolations = n
		}
	}

	if debounce := os.Getenv("INTERVIEW_VIOLATION_DEBOUNCE"); debounce != "" {
		if d, err := time.ParseDuration(debounce); err == nil {
			c.Interview.ViolationDebounce = d
		}
	}

	if teardown := os.Getenv("INTERVIEW_TEARDOWN_DELAY"); teardown != "" {
		if d, err := time.ParseDuration(teardown); err == nil {
			c.Interview.TeardownDelay = d
		}
	}
}
