package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port         int           `yaml:"port" default:"8080"`
		Host         string        `yaml:"host" default:"0.0.0.0"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`
		IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
		BodyLimit    int64         `yaml:"body_limit" default:"1048576"` // bytes, non-upload requests
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`

		Adapters []struct {
			Name    string                 `yaml:"name"`
			Type    string                 `yaml:"type"`
			Enabled bool                   `yaml:"enabled"`
			Options map[string]interface{} `yaml:"options"`
		} `yaml:"adapters"`
	} `yaml:"logging"`

	// Database is the document store. Redis holds one JSON document per record.
	Database struct {
		URL                 string        `yaml:"url" default:"redis://localhost:6379"`
		Password            string        `yaml:"password"`
		DB                  int           `yaml:"db" default:"0"`
		KeyPrefix           string        `yaml:"key_prefix" default:"swipr"`
		ConnectTimeout      time.Duration `yaml:"connect_timeout" default:"5s"`
		OperationTimeout    time.Duration `yaml:"operation_timeout" default:"3s"`
		HealthCheckInterval time.Duration `yaml:"health_check_interval" default:"30s"`
		Disabled            bool          `yaml:"disabled"`
	} `yaml:"database"`

	Admin struct {
		Tokens []string `yaml:"tokens"`
	} `yaml:"admin"`

	Uploads struct {
		Dir          string   `yaml:"dir" default:"uploads/resumes"`
		MaxBytes     int64    `yaml:"max_bytes" default:"5242880"`
		AllowedTypes []string `yaml:"allowed_types"`
	} `yaml:"uploads"`

	DigitalOcean struct {
		Spaces struct {
			BucketURL       string `yaml:"bucket_url"`
			AccessKeyID     string `yaml:"access_key_id"`
			AccessKeySecret string `yaml:"access_key_secret"`
			Region          string `yaml:"region" default:"nyc3"`
			BucketName      string `yaml:"bucket_name" default:"swipr-uploads"`
			Prefix          string `yaml:"prefix" default:"resumes"`
		} `yaml:"spaces"`
	} `yaml:"digitalocean"`

	RateLimit struct {
		Enabled           bool `yaml:"enabled" default:"true"`
		RequestsPerMinute int  `yaml:"requests_per_minute" default:"30"`
		Burst             int  `yaml:"burst" default:"10"`
	} `yaml:"rate_limit"`

	Events struct {
		NATSURL       string        `yaml:"nats_url"`
		SubjectPrefix string        `yaml:"subject_prefix" default:"swipr"`
		Timeout       time.Duration `yaml:"timeout" default:"5s"`
		Workers       int           `yaml:"workers" default:"4"`
		QueueSize     int           `yaml:"queue_size" default:"256"`
	} `yaml:"events"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	GRPC struct {
		Enabled bool `yaml:"enabled" default:"true"`
	} `yaml:"grpc"`
}

// DefaultAllowedUploadTypes is the resume MIME allow-list
var DefaultAllowedUploadTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"text/plain",
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
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})

	return s
}

// Default returns a configuration populated with built-in defaults only
func Default() *Config {
	config := &Config{}

	config.Server.Port = 8080
	config.Server.Host = "0.0.0.0"
	config.Server.ReadTimeout = 30 * time.Second
	config.Server.WriteTimeout = 30 * time.Second
	config.Server.IdleTimeout = 60 * time.Second
	config.Server.BodyLimit = 1024 * 1024

	config.Logging.Level = "info"
	config.Logging.Format = "json"
	config.Logging.Output = "stdout"

	config.Database.URL = "redis://localhost:6379"
	config.Database.DB = 0
	config.Database.KeyPrefix = "swipr"
	config.Database.ConnectTimeout = 5 * time.Second
	config.Database.OperationTimeout = 3 * time.Second
	config.Database.HealthCheckInterval = 30 * time.Second

	config.Uploads.Dir = "uploads/resumes"
	config.Uploads.MaxBytes = 5 * 1024 * 1024
	config.Uploads.AllowedTypes = append([]string(nil), DefaultAllowedUploadTypes...)

	config.DigitalOcean.Spaces.Region = "nyc3"
	config.DigitalOcean.Spaces.BucketName = "swipr-uploads"
	config.DigitalOcean.Spaces.Prefix = "resumes"

	config.RateLimit.Enabled = true
	config.RateLimit.RequestsPerMinute = 30
	config.RateLimit.Burst = 10

	config.Events.SubjectPrefix = "swipr"
	config.Events.Timeout = 5 * time.Second
	config.Events.Workers = 4
	config.Events.QueueSize = 256

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"

	config.GRPC.Enabled = true

	return config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			yamlContent := expandEnvVars(string(data))

			if err := yaml.Unmarshal([]byte(yamlContent), config); err != nil {
				return nil, err
			}
		}
	}

	config.loadFromEnv()

	// unexpanded placeholders such as ${ADMIN_TOKEN} must never become valid tokens
	tokens := config.Admin.Tokens[:0]
	for _, t := range config.Admin.Tokens {
		if t = strings.TrimSpace(t); t != "" && !strings.HasPrefix(t, "$") {
			tokens = append(tokens, t)
		}
	}
	config.Admin.Tokens = tokens

	if len(config.Uploads.AllowedTypes) == 0 {
		config.Uploads.AllowedTypes = append([]string(nil), DefaultAllowedUploadTypes...)
	}

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

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	// DATABASE_URL wins over REDIS_URL when both are set
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Database.URL = redisURL
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		c.Database.URL = dbURL
	}

	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		c.Database.Password = redisPassword
	}

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			c.Database.DB = db
		}
	}

	if timeout := os.Getenv("DATABASE_CONNECT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			c.Database.ConnectTimeout = d
		}
	}

	if disabled := os.Getenv("DATABASE_DISABLED"); disabled != "" {
		c.Database.Disabled = disabled == "true" || disabled == "1"
	}

	if token := strings.TrimSpace(os.Getenv("ADMIN_TOKEN")); token != "" {
		c.Admin.Tokens = append(c.Admin.Tokens, token)
	}

	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		c.Uploads.Dir = dir
	}

	if maxBytes := os.Getenv("UPLOAD_MAX_BYTES"); maxBytes != "" {
		if n, err := strconv.ParseInt(maxBytes, 10, 64); err == nil && n > 0 {
			c.Uploads.MaxBytes = n
		}
	}

	// DigitalOcean Spaces configuration
	if bucketURL := os.Getenv("BUCKET_URL"); bucketURL != "" {
		c.DigitalOcean.Spaces.BucketURL = bucketURL
	}

	if accessKeyID := os.Getenv("BUCKET_ACCESS_KEY_ID"); accessKeyID != "" {
		c.DigitalOcean.Spaces.AccessKeyID = accessKeyID
	}

	if accessKeySecret := os.Getenv("BUCKET_ACCESS_KEY_SECRET"); accessKeySecret != "" {
		c.DigitalOcean.Spaces.AccessKeySecret = accessKeySecret
	}

	if region := os.Getenv("BUCKET_REGION"); region != "" {
		c.DigitalOcean.Spaces.Region = region
	}

	if bucketName := os.Getenv("BUCKET_NAME"); bucketName != "" {
		c.DigitalOcean.Spaces.BucketName = bucketName
	}

	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		c.Events.NATSURL = natsURL
	}

	if perMinute := os.Getenv("RATE_LIMIT_PER_MINUTE"); perMinute != "" {
		if n, err := strconv.Atoi(perMinute); err == nil {
			c.RateLimit.RequestsPerMinute = n
			c.RateLimit.Enabled = n > 0
		}
	}

	if metricsEnabled := os.Getenv("METRICS_ENABLED"); metricsEnabled != "" {
		c.Metrics.Enabled = metricsEnabled == "true" || metricsEnabled == "1"
	}

	if grpcEnabled := os.Getenv("GRPC_ENABLED"); grpcEnabled != "" {
		c.GRPC.Enabled = grpcEnabled == "true" || grpcEnabled == "1"
	}

	c.loadLoggingAdapterEnvVars()
}

// loadLoggingAdapterEnvVars loads environment variables for logging adapters
func (c *Config) loadLoggingAdapterEnvVars() {
	for i := range c.Logging.Adapters {
		adapter := &c.Logging.Adapters[i]

		if adapter.Type != "file" {
			continue
		}

		if path := os.Getenv("LOG_FILE_PATH"); path != "" {
			if adapter.Options == nil {
				adapter.Options = make(map[string]interface{})
			}
			adapter.Options["file_path"] = path
		}

		if maxSize := os.Getenv("LOG_FILE_MAX_SIZE"); maxSize != "" {
			if size, err := strconv.Atoi(maxSize); err == nil {
				if adapter.Options == nil {
					adapter.Options = make(map[string]interface{})
				}
				adapter.Options["max_size"] = size
			}
		}
	}
}

// SpacesConfigured reports whether object storage credentials are present
func (c *Config) SpacesConfigured() bool {
	s := c.DigitalOcean.Spaces
	return s.AccessKeyID != "" && s.AccessKeySecret != "" && s.BucketName != ""
}

// Address returns the listen address for the server
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}
