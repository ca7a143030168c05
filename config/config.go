package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spiffcs/issuewatch/internal/constants"
	"github.com/spiffcs/issuewatch/internal/duration"
	"github.com/spiffcs/issuewatch/internal/model"
)

// Notification channel types
const (
	NotifyChat = "chat"
	NotifyMail = "mail"
	NotifyAPI  = "api"

	// notifySlack is accepted as an alias of chat with the slack provider.
	notifySlack = "slack"
)

// Chat providers
const (
	ChatSlack    = "slack"
	ChatTelegram = "telegram"
)

// Config represents the application configuration
type Config struct {
	General      General      `yaml:"general"`
	GitLab       GitLab       `yaml:"gitlab,omitempty"`
	GitHub       GitHub       `yaml:"github,omitempty"`
	Notification Notification `yaml:"notification"`
	Chat         Chat         `yaml:"chat,omitempty"`
	Mail         Mail         `yaml:"mail,omitempty"`
	API          API          `yaml:"api,omitempty"`
	Logging      Logging      `yaml:"logging,omitempty"`
	History      History      `yaml:"history,omitempty"`
}

// General holds the platform selection and polling settings
type General struct {
	Platform     string `yaml:"platform"`
	PollInterval string `yaml:"poll_interval,omitempty"`
	CycleTimeout string `yaml:"cycle_timeout,omitempty"`
	Workers      int    `yaml:"workers,omitempty"`
}

// GitLab holds GitLab credentials and the watched project
type GitLab struct {
	ServerURL    string `yaml:"server_url,omitempty"`
	PrivateToken string `yaml:"private_token,omitempty"`
	ProjectID    string `yaml:"project_id,omitempty"`
}

// GitHub holds GitHub credentials and the watched repository
type GitHub struct {
	ServerURL           string `yaml:"server_url,omitempty"`
	AccessToken         string `yaml:"access_token,omitempty"`
	RepoName            string `yaml:"repo_name,omitempty"`
	IncludePullRequests bool   `yaml:"include_pull_requests,omitempty"`
}

// Notification selects the delivery channel
type Notification struct {
	Type       string `yaml:"type"`
	RatePerSec int    `yaml:"rate_per_sec,omitempty"`
	MaxLines   int    `yaml:"max_lines,omitempty"`
}

// Chat holds chat channel settings
type Chat struct {
	Provider       string `yaml:"provider,omitempty"`
	WebhookURL     string `yaml:"webhook_url,omitempty"`
	TelegramToken  string `yaml:"telegram_token,omitempty"`
	TelegramChatID int64  `yaml:"telegram_chat_id,omitempty"`
}

// Mail holds SMTP settings
type Mail struct {
	SMTPServer     string `yaml:"smtp_server,omitempty"`
	SMTPPort       int    `yaml:"smtp_port,omitempty"`
	SMTPUser       string `yaml:"smtp_user,omitempty"`
	SMTPPassword   string `yaml:"smtp_password,omitempty"`
	RecipientEmail string `yaml:"recipient_email,omitempty"`
}

// API holds generic HTTP API settings
type API struct {
	URL         string `yaml:"url,omitempty"`
	BearerToken string `yaml:"bearer_token,omitempty"`
}

// Logging holds optional log file settings
type Logging struct {
	LogPath string `yaml:"log_path,omitempty"`
}

// History controls the cycle journal. An empty Path uses the user cache dir.
type History struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// ErrInvalid is matched by every configuration validation error.
var ErrInvalid = errors.New("invalid configuration")

// ConfigError reports a missing or invalid setting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// Unwrap allows errors.Is(err, ErrInvalid).
func (e *ConfigError) Unwrap() error {
	return ErrInvalid
}

func missing(field string) error {
	return &ConfigError{Field: field, Reason: "required setting is missing"}
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".issuewatch"
	}
	return filepath.Join(configDir, "issuewatch")
}

// ConfigPath returns the path to the global config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return "issuewatch.yaml"
}

// ResolvePath returns explicit when set, otherwise the first existing of
// the local and global config paths. An empty string means no file was found.
func ResolvePath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, p := range []string{LocalConfigPath(), ConfigPath()} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Load reads the configuration file at path (see ResolvePath), applies
// defaults and fills secrets from the environment when the file leaves
// them empty. Load does not validate; call Validate.
func Load(path string) (*Config, error) {
	resolved := ResolvePath(path)
	if resolved == "" {
		return nil, &ConfigError{
			Field:  "file",
			Reason: fmt.Sprintf("no config file found (looked for %s and %s)", LocalConfigPath(), ConfigPath()),
		}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration data, applies defaults and environment
// overrides.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	c.General.Platform = strings.ToLower(strings.TrimSpace(c.General.Platform))
	if c.General.PollInterval == "" {
		c.General.PollInterval = constants.DefaultPollInterval.String()
	}
	if c.General.CycleTimeout == "" {
		c.General.CycleTimeout = constants.DefaultCycleTimeout.String()
	}
	if c.General.Workers == 0 {
		c.General.Workers = constants.DefaultWorkers
	}

	if c.GitLab.ServerURL == "" {
		c.GitLab.ServerURL = constants.DefaultGitLabURL
	}

	c.Notification.Type = strings.ToLower(strings.TrimSpace(c.Notification.Type))
	if c.Notification.Type == notifySlack {
		c.Notification.Type = NotifyChat
		if c.Chat.Provider == "" {
			c.Chat.Provider = ChatSlack
		}
	}
	if c.Notification.RatePerSec == 0 {
		c.Notification.RatePerSec = constants.DefaultRatePerSec
	}
	if c.Notification.MaxLines == 0 {
		c.Notification.MaxLines = constants.DefaultMaxLines
	}

	c.Chat.Provider = strings.ToLower(strings.TrimSpace(c.Chat.Provider))
	if c.Chat.Provider == "" {
		c.Chat.Provider = ChatSlack
	}

	if c.Mail.SMTPPort == 0 {
		c.Mail.SMTPPort = constants.DefaultSMTPPort
	}
}

// applyEnv fills empty secrets from the environment.
func (c *Config) applyEnv() {
	fill := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}

	fill(&c.GitLab.PrivateToken, "ISSUEWATCH_GITLAB_TOKEN", "GITLAB_TOKEN")
	fill(&c.GitHub.AccessToken, "ISSUEWATCH_GITHUB_TOKEN", "GITHUB_TOKEN")
	fill(&c.Chat.TelegramToken, "ISSUEWATCH_TELEGRAM_TOKEN")
	fill(&c.Mail.SMTPPassword, "ISSUEWATCH_SMTP_PASSWORD")
	fill(&c.API.BearerToken, "ISSUEWATCH_API_TOKEN")
}

// Validate checks that every setting required by the selected platform
// and notification channel is present and well formed. All problems are
// reported together; each is a *ConfigError.
func (c *Config) Validate() error {
	var errs []error

	platform := model.Platform(c.General.Platform)
	switch {
	case platform == "":
		errs = append(errs, missing("general.platform"))
	case !platform.Valid():
		errs = append(errs, &ConfigError{
			Field:  "general.platform",
			Reason: fmt.Sprintf("unknown platform %q (use gitlab or github)", c.General.Platform),
		})
	case platform == model.PlatformGitLab:
		if c.GitLab.PrivateToken == "" {
			errs = append(errs, missing("gitlab.private_token"))
		}
		if c.GitLab.ProjectID == "" {
			errs = append(errs, missing("gitlab.project_id"))
		}
	case platform == model.PlatformGitHub:
		if c.GitHub.AccessToken == "" {
			errs = append(errs, missing("github.access_token"))
		}
		if c.GitHub.RepoName == "" {
			errs = append(errs, missing("github.repo_name"))
		} else if _, _, err := SplitRepo(c.GitHub.RepoName); err != nil {
			errs = append(errs, &ConfigError{Field: "github.repo_name", Reason: err.Error()})
		}
	}

	if _, err := duration.Parse(c.General.PollInterval); err != nil {
		errs = append(errs, &ConfigError{Field: "general.poll_interval", Reason: err.Error()})
	}
	if _, err := duration.Parse(c.General.CycleTimeout); err != nil {
		errs = append(errs, &ConfigError{Field: "general.cycle_timeout", Reason: err.Error()})
	}
	if c.General.Workers < 0 {
		errs = append(errs, &ConfigError{Field: "general.workers", Reason: "must not be negative"})
	}

	switch c.Notification.Type {
	case "":
		// Notifications disabled; the daemon warns about it at startup.
	case NotifyChat:
		switch c.Chat.Provider {
		case ChatSlack:
			if c.Chat.WebhookURL == "" {
				errs = append(errs, missing("chat.webhook_url"))
			}
		case ChatTelegram:
			if c.Chat.TelegramToken == "" {
				errs = append(errs, missing("chat.telegram_token"))
			}
			if c.Chat.TelegramChatID == 0 {
				errs = append(errs, missing("chat.telegram_chat_id"))
			}
		default:
			errs = append(errs, &ConfigError{
				Field:  "chat.provider",
				Reason: fmt.Sprintf("unknown chat provider %q (use slack or telegram)", c.Chat.Provider),
			})
		}
	case NotifyMail:
		if c.Mail.SMTPServer == "" {
			errs = append(errs, missing("mail.smtp_server"))
		}
		if c.Mail.SMTPUser == "" {
			errs = append(errs, missing("mail.smtp_user"))
		}
		if c.Mail.SMTPPassword == "" {
			errs = append(errs, missing("mail.smtp_password"))
		}
		if c.Mail.RecipientEmail == "" {
			errs = append(errs, missing("mail.recipient_email"))
		}
		if c.Mail.SMTPPort < 1 || c.Mail.SMTPPort > 65535 {
			errs = append(errs, &ConfigError{Field: "mail.smtp_port", Reason: fmt.Sprintf("invalid port %d", c.Mail.SMTPPort)})
		}
	case NotifyAPI:
		if c.API.URL == "" {
			errs = append(errs, missing("api.url"))
		}
		if c.API.BearerToken == "" {
			errs = append(errs, missing("api.bearer_token"))
		}
	default:
		errs = append(errs, &ConfigError{
			Field:  "notification.type",
			Reason: fmt.Sprintf("unknown notification type %q (use chat, mail or api)", c.Notification.Type),
		})
	}

	if c.Notification.RatePerSec < 0 {
		errs = append(errs, &ConfigError{Field: "notification.rate_per_sec", Reason: "must not be negative"})
	}
	if c.Notification.MaxLines < 0 {
		errs = append(errs, &ConfigError{Field: "notification.max_lines", Reason: "must not be negative"})
	}

	return errors.Join(errs...)
}

// PollInterval returns the parsed poll interval, falling back to the default.
func (c *Config) PollInterval() time.Duration {
	d, err := duration.Parse(c.General.PollInterval)
	if err != nil {
		return constants.DefaultPollInterval
	}
	return d
}

// CycleTimeout returns the parsed cycle timeout, falling back to the default.
func (c *Config) CycleTimeout() time.Duration {
	d, err := duration.Parse(c.General.CycleTimeout)
	if err != nil {
		return constants.DefaultCycleTimeout
	}
	return d
}

// SplitRepo splits an "owner/name" repository identifier.
func SplitRepo(full string) (owner, name string, err error) {
	parts := strings.Split(strings.TrimSpace(full), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/name, got %q", full)
	}
	return parts[0], parts[1], nil
}

// Redacted returns a copy of the config with every secret masked.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "****"
	}
	out.GitLab.PrivateToken = mask(c.GitLab.PrivateToken)
	out.GitHub.AccessToken = mask(c.GitHub.AccessToken)
	out.Chat.TelegramToken = mask(c.Chat.TelegramToken)
	out.Mail.SMTPPassword = mask(c.Mail.SMTPPassword)
	out.API.BearerToken = mask(c.API.BearerToken)
	return &out
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# issuewatch configuration file

general:
  # Hosting platform: gitlab or github
  platform: github
  # How often to poll for changes (e.g. 30s, 1m, 5m)
  poll_interval: 60s

github:
  repo_name: owner/repo
  # access_token may be left empty and provided via GITHUB_TOKEN

# gitlab:
#   server_url: https://gitlab.com
#   project_id: group/project
#   # private_token may be provided via GITLAB_TOKEN

notification:
  # Delivery channel: chat, mail or api (empty disables notifications)
  type: chat
  max_lines: 3

chat:
  provider: slack
  webhook_url: https://hooks.slack.com/services/XXX

# mail:
#   smtp_server: smtp.example.com
#   smtp_port: 587
#   smtp_user: bot@example.com
#   recipient_email: team@example.com
#   # smtp_password may be provided via ISSUEWATCH_SMTP_PASSWORD

# api:
#   url: https://example.com/hooks/issues
#   # bearer_token may be provided via ISSUEWATCH_API_TOKEN

# logging:
#   log_path: /var/log/issuewatch.log

# history:
#   enabled: true   # keep a journal of poll cycles, see 'issuewatch history'
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
