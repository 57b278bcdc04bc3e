// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// Config is the root configuration structure.
type Config struct {
	Inbox    InboxConfig    `toml:"inbox"`
	Registry RegistryConfig `toml:"registry"`
	Export   ExportConfig   `toml:"export"`
	Limits   LimitsConfig   `toml:"limits"`
	YouTube  YouTubeConfig  `toml:"youtube"`
	History  HistoryConfig  `toml:"history"`
	Log      LogConfig      `toml:"log"`
	Gallery  GalleryConfig  `toml:"gallery"`
}

type InboxConfig struct {
	Dir              string   `toml:"dir" env:"ARCHIVIST_INBOX_DIR" env-default:"./inbox"`
	BundleExtensions []string `toml:"bundle_extensions" env:"ARCHIVIST_BUNDLE_EXTENSIONS" env-default:".zip"`
	// TempDir is where bundles are unpacked. Empty uses the OS default.
	TempDir string `toml:"temp_dir" env:"ARCHIVIST_TEMP_DIR"`
}

type RegistryConfig struct {
	Path string `toml:"path" env:"ARCHIVIST_REGISTRY" env-default:"./data/registry.json"`
}

type ExportConfig struct {
	MetadataFile    string   `toml:"metadata_file" env:"ARCHIVIST_METADATA_FILE" env-default:"live_videos.json"`
	MediaExtensions []string `toml:"media_extensions" env:"ARCHIVIST_MEDIA_EXTENSIONS" env-default:".mp4"`
	DefaultTitle    string   `toml:"default_title" env:"ARCHIVIST_DEFAULT_TITLE" env-default:"Facebook Live"`
	DatePrefix      bool     `toml:"date_prefix" env:"ARCHIVIST_DATE_PREFIX"`
}

type LimitsConfig struct {
	MaxPerDay int `toml:"max_per_day" env:"ARCHIVIST_MAX_PER_DAY" env-default:"6"`
	// MaxPerRun of zero means no per-run limit.
	MaxPerRun int `toml:"max_per_run" env:"ARCHIVIST_MAX_PER_RUN"`
}

type YouTubeConfig struct {
	ClientSecrets string        `toml:"client_secrets" env:"ARCHIVIST_CLIENT_SECRETS" env-default:"./client_secret.json"`
	TokenFile     string        `toml:"token_file" env:"ARCHIVIST_TOKEN_FILE" env-default:"./data/token.json"`
	CategoryID    string        `toml:"category_id" env:"ARCHIVIST_CATEGORY_ID" env-default:"22"`
	Privacy       string        `toml:"privacy" env:"ARCHIVIST_PRIVACY" env-default:"public"`
	Network       string        `toml:"network" env:"ARCHIVIST_NETWORK" env-default:"tcp4"`
	Timeout       time.Duration `toml:"timeout" env:"ARCHIVIST_TIMEOUT" env-default:"5m"`
}

type HistoryConfig struct {
	Enabled bool   `toml:"enabled" env:"ARCHIVIST_HISTORY"`
	Path    string `toml:"path" env:"ARCHIVIST_HISTORY_PATH" env-default:"./data/history.db"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"ARCHIVIST_LOG_LEVEL" env-default:"info"`
	Format string `toml:"format" env:"ARCHIVIST_LOG_FORMAT" env-default:"text"`
}

type GalleryConfig struct {
	ImagesDir       string `toml:"images_dir" env:"IMAGES_DIR"`
	MetadataFile    string `toml:"metadata_file" env:"GALLERY_METADATA_FILE" env-default:"metadata.json"`
	Bucket          string `toml:"bucket" env:"BUCKET_NAME"`
	Endpoint        string `toml:"endpoint" env:"S3_ENDPOINT_URL"`
	Region          string `toml:"region" env:"AWS_REGION" env-default:"us-east-1"`
	AccessKeyID     string `toml:"access_key_id" env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `toml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `toml:"use_path_style" env:"S3_USE_PATH_STYLE"`
	Concurrency     int    `toml:"concurrency" env:"GALLERY_CONCURRENCY" env-default:"4"`
}

// Load reads, parses and validates the configuration file.
func Load(path string) (*Config, error) {
	return load(path, true)
}

// LoadWithoutValidation reads and parses the configuration file without
// validating it. Unresolved environment variables are still an error.
func LoadWithoutValidation(path string) (*Config, error) {
	return load(path, false)
}

// Default returns the configuration used when no file exists: defaults
// overridden by the environment.
func Default() (*Config, error) {
	var cfg Config
	if err := finish(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func load(path string, validate bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &Error{Path: path, Missing: missing}
	}

	var cfg Config
	if _, err := toml.Decode(content, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := finish(&cfg); err != nil {
		return nil, err
	}

	if validate {
		if errs := cfg.Validate(); len(errs) > 0 {
			return nil, &Error{Path: path, Errors: errs}
		}
	}
	return &cfg, nil
}

// finish applies environment overrides and defaults, then expands ~ in paths.
func finish(cfg *Config) error {
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}

	for _, p := range []*string{
		&cfg.Inbox.Dir,
		&cfg.Inbox.TempDir,
		&cfg.Registry.Path,
		&cfg.YouTube.ClientSecrets,
		&cfg.YouTube.TokenFile,
		&cfg.History.Path,
		&cfg.Gallery.ImagesDir,
		&cfg.Gallery.MetadataFile,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// EnvHelp describes every environment variable the configuration reads.
func EnvHelp() (string, error) {
	var cfg Config
	return cleanenv.GetDescription(&cfg, nil)
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces variable references with environment values.
// Unresolved references are left in place and reported in missing. Lines
// that are entirely comments are copied unchanged.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	lines := strings.SplitAfter(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			continue
		}
		lines[i] = envVarPattern.ReplaceAllStringFunc(line, func(match string) string {
			m := envVarPattern.FindStringSubmatch(match)
			name, op, arg := m[1], m[2], m[3]
			value, ok := os.LookupEnv(name)

			switch op {
			case ":-":
				if !ok || value == "" {
					return arg
				}
				return value
			case ":?":
				if !ok || value == "" {
					missing = append(missing, name+": "+strings.TrimSpace(arg))
					return match
				}
				return value
			default:
				if !ok {
					missing = append(missing, name)
					return match
				}
				return value
			}
		})
	}
	return strings.Join(lines, ""), missing
}
