package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ISSUEWATCH_GITLAB_TOKEN", "GITLAB_TOKEN",
		"ISSUEWATCH_GITHUB_TOKEN", "GITHUB_TOKEN",
		"ISSUEWATCH_TELEGRAM_TOKEN", "ISSUEWATCH_SMTP_PASSWORD", "ISSUEWATCH_API_TOKEN",
	} {
		t.Setenv(k, "")
	}
}

func mustParse(t *testing.T, data string) *Config {
	t.Helper()
	cfg, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg
}

func TestParseDefaults(t *testing.T) {
	clearEnv(t)
	cfg := mustParse(t, "general:\n  platform: GitHub\n")

	if cfg.General.Platform != "github" {
		t.Errorf("Platform = %q, want %q", cfg.General.Platform, "github")
	}
	if cfg.PollInterval() != time.Minute {
		t.Errorf("PollInterval() = %v, want 1m", cfg.PollInterval())
	}
	if cfg.CycleTimeout() != 5*time.Minute {
		t.Errorf("CycleTimeout() = %v, want 5m", cfg.CycleTimeout())
	}
	if cfg.General.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.General.Workers)
	}
	if cfg.Notification.MaxLines != 3 {
		t.Errorf("MaxLines = %d, want 3", cfg.Notification.MaxLines)
	}
	if cfg.Mail.SMTPPort != 587 {
		t.Errorf("SMTPPort = %d, want 587", cfg.Mail.SMTPPort)
	}
	if cfg.GitLab.ServerURL != "https://gitlab.com" {
		t.Errorf("GitLab.ServerURL = %q", cfg.GitLab.ServerURL)
	}
	if cfg.Chat.Provider != ChatSlack {
		t.Errorf("Chat.Provider = %q, want %q", cfg.Chat.Provider, ChatSlack)
	}
}

func TestParseSlackAlias(t *testing.T) {
	clearEnv(t)
	cfg := mustParse(t, "notification:\n  type: slack\n")
	if cfg.Notification.Type != NotifyChat {
		t.Errorf("Type = %q, want %q", cfg.Notification.Type, NotifyChat)
	}
	if cfg.Chat.Provider != ChatSlack {
		t.Errorf("Provider = %q, want %q", cfg.Chat.Provider, ChatSlack)
	}
}

func TestEnvFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GITHUB_TOKEN", "env-token")
	t.Setenv("ISSUEWATCH_API_TOKEN", "api-token")

	t.Run("fills empty secrets", func(t *testing.T) {
		cfg := mustParse(t, "general:\n  platform: github\n")
		if cfg.GitHub.AccessToken != "env-token" {
			t.Errorf("AccessToken = %q, want %q", cfg.GitHub.AccessToken, "env-token")
		}
		if cfg.API.BearerToken != "api-token" {
			t.Errorf("BearerToken = %q, want %q", cfg.API.BearerToken, "api-token")
		}
	})

	t.Run("file value wins", func(t *testing.T) {
		cfg := mustParse(t, "github:\n  access_token: file-token\n")
		if cfg.GitHub.AccessToken != "file-token" {
			t.Errorf("AccessToken = %q, want %q", cfg.GitHub.AccessToken, "file-token")
		}
	})
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name       string
		yaml       string
		wantFields []string
	}{
		{
			name: "valid github chat",
			yaml: `
general: {platform: github}
github: {access_token: t, repo_name: owner/repo}
notification: {type: chat}
chat: {webhook_url: https://hooks.example.com/x}
`,
		},
		{
			name: "valid gitlab mail",
			yaml: `
general: {platform: gitlab}
gitlab: {private_token: t, project_id: "42"}
notification: {type: mail}
mail: {smtp_server: smtp.example.com, smtp_user: u, smtp_password: p, recipient_email: r@example.com}
`,
		},
		{
			name: "notifications disabled is valid",
			yaml: `
general: {platform: github}
github: {access_token: t, repo_name: owner/repo}
`,
		},
		{
			name:       "missing platform",
			yaml:       "notification: {type: api}\napi: {url: u, bearer_token: b}\n",
			wantFields: []string{"general.platform"},
		},
		{
			name:       "unknown platform",
			yaml:       "general: {platform: bitbucket}\n",
			wantFields: []string{"general.platform"},
		},
		{
			name:       "github missing credentials",
			yaml:       "general: {platform: github}\n",
			wantFields: []string{"github.access_token", "github.repo_name"},
		},
		{
			name:       "github malformed repo",
			yaml:       "general: {platform: github}\ngithub: {access_token: t, repo_name: justrepo}\n",
			wantFields: []string{"github.repo_name"},
		},
		{
			name:       "gitlab missing project",
			yaml:       "general: {platform: gitlab}\ngitlab: {private_token: t}\n",
			wantFields: []string{"gitlab.project_id"},
		},
		{
			name: "unknown notification type",
			yaml: `
general: {platform: github}
github: {access_token: t, repo_name: owner/repo}
notification: {type: pager}
`,
			wantFields: []string{"notification.type"},
		},
		{
			name: "telegram needs token and chat",
			yaml: `
general: {platform: github}
github: {access_token: t, repo_name: owner/repo}
notification: {type: chat}
chat: {provider: telegram}
`,
			wantFields: []string{"chat.telegram_token", "chat.telegram_chat_id"},
		},
		{
			name: "api needs url and token",
			yaml: `
general: {platform: github}
github: {access_token: t, repo_name: owner/repo}
notification: {type: api}
`,
			wantFields: []string{"api.url", "api.bearer_token"},
		},
		{
			name: "bad poll interval",
			yaml: `
general: {platform: github, poll_interval: soon}
github: {access_token: t, repo_name: owner/repo}
`,
			wantFields: []string{"general.poll_interval"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustParse(t, tt.yaml)
			err := cfg.Validate()

			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected errors for %v, got nil", tt.wantFields)
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected errors.Is(err, ErrInvalid), got %v", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("expected a *ConfigError in %v", err)
			}
			for _, field := range tt.wantFields {
				if !strings.Contains(err.Error(), field) {
					t.Errorf("expected error to mention %q, got: %v", field, err)
				}
			}
		})
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)

	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cfg.yaml")
		if err := os.WriteFile(path, []byte("general:\n  platform: gitlab\n  poll_interval: 2m\n"), 0600); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.General.Platform != "gitlab" {
			t.Errorf("Platform = %q", cfg.General.Platform)
		}
		if cfg.PollInterval() != 2*time.Minute {
			t.Errorf("PollInterval() = %v, want 2m", cfg.PollInterval())
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		if err := os.WriteFile(path, []byte("general: [unclosed\n"), 0600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestSplitRepo(t *testing.T) {
	owner, name, err := SplitRepo("spiffcs/issuewatch")
	if err != nil || owner != "spiffcs" || name != "issuewatch" {
		t.Errorf("SplitRepo() = %q, %q, %v", owner, name, err)
	}
	for _, bad := range []string{"", "one", "a/b/c", "/b", "a/"} {
		if _, _, err := SplitRepo(bad); err == nil {
			t.Errorf("SplitRepo(%q) expected error", bad)
		}
	}
}

func TestRedacted(t *testing.T) {
	cfg := &Config{
		GitHub: GitHub{AccessToken: "secret"},
		API:    API{URL: "https://example.com", BearerToken: "secret"},
	}
	red := cfg.Redacted()
	out, err := red.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML() error = %v", err)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("expected secrets to be masked, got:\n%s", out)
	}
	if cfg.GitHub.AccessToken != "secret" {
		t.Error("Redacted() must not modify the original")
	}
}

func TestMinimalConfigParses(t *testing.T) {
	clearEnv(t)
	cfg := mustParse(t, MinimalConfig())
	if cfg.General.Platform != "github" {
		t.Errorf("Platform = %q, want github", cfg.General.Platform)
	}
	if cfg.Notification.Type != NotifyChat {
		t.Errorf("Type = %q, want chat", cfg.Notification.Type)
	}
}
