package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds settings merged from defaults, the config file, the
// environment and command-line flags, in increasing priority.
type Config struct {
	APIBaseURL         string `toml:"api_base_url"`
	Port               int    `toml:"port"`
	TogetherAPIKey     string `toml:"together_api_key"`
	TogetherBaseURL    string `toml:"together_base_url"`
	Model              string `toml:"model"`
	GitHubClientID     string `toml:"github_client_id"`
	GitHubClientSecret string `toml:"github_client_secret"`
	GitHubToken        string `toml:"github_token"`
	ProjectDir         string `toml:"project_dir"`
	ArchivePath        string `toml:"archive_path"`
	NoAnimation        bool   `toml:"no_animation"`
	Verbose            int    `toml:"verbose"`
}

// Default returns the built-in settings.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		APIBaseURL:  "http://localhost:3001",
		Port:        3001,
		ProjectDir:  "hatch-project",
		ArchivePath: filepath.Join(home, ".local", "state", "hatch", "hatch.db"),
	}
}

// DefaultPath is the location of the user config file.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "hatch", "config.toml")
}

// Load builds a config from the defaults, the TOML file at path, the
// dotenv file at envFile and the process environment. Missing files are
// skipped. Non-empty process variables take precedence over dotenv values.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	if envFile != "" {
		values, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
		if values != nil {
			dotenv = values
		}
	}
	lookup := func(key string) (string, bool) {
		if v := os.Getenv(key); v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}

	for key, dst := range map[string]*string{
		"HATCH_API_BASE_URL":   &cfg.APIBaseURL,
		"TOGETHER_API_KEY":     &cfg.TogetherAPIKey,
		"TOGETHER_BASE_URL":    &cfg.TogetherBaseURL,
		"HATCH_MODEL":          &cfg.Model,
		"GITHUB_CLIENT_ID":     &cfg.GitHubClientID,
		"GITHUB_CLIENT_SECRET": &cfg.GitHubClientSecret,
		"GITHUB_TOKEN":         &cfg.GitHubToken,
		"HATCH_PROJECT_DIR":    &cfg.ProjectDir,
		"HATCH_ARCHIVE":        &cfg.ArchivePath,
	} {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Port = port
	}

	home, _ := os.UserHomeDir()
	cfg.ProjectDir = expandHome(cfg.ProjectDir, home)
	cfg.ArchivePath = expandHome(cfg.ArchivePath, home)
	return cfg, nil
}

// BindClientFlags registers the flags shared by client commands.
func (c *Config) BindClientFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.APIBaseURL, "api", c.APIBaseURL, "Base URL of the hatch relay.")
	flags.StringVarP(&c.ProjectDir, "dir", "d", c.ProjectDir, "Directory the project is exported to and run in.")
	flags.StringVar(&c.ArchivePath, "archive", c.ArchivePath, "SQLite file holding generation history and transcripts.")
	flags.StringVar(&c.GitHubToken, "token", c.GitHubToken, "GitHub token used to publish the project.")
	flags.BoolVar(&c.NoAnimation, "no-animation", c.NoAnimation, "Disable the loading spinner.")
}

// BindServerFlags registers the flags of the relay server.
func (c *Config) BindServerFlags(flags *pflag.FlagSet) {
	flags.IntVarP(&c.Port, "port", "p", c.Port, "Port the relay listens on.")
	flags.StringVar(&c.Model, "model", c.Model, "Model used for code generation.")
	flags.StringVar(&c.TogetherBaseURL, "llm-url", c.TogetherBaseURL, "OpenAI-compatible endpoint of the LLM provider.")
	flags.CountVarP(&c.Verbose, "verbose", "v", "Log every request (repeat for more detail).")
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
