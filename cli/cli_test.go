package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	envPath := filepath.Join(dir, ".env")

	if err := os.WriteFile(cfgPath, []byte(`
api_base_url = "http://relay.local:9000"
model = "from-toml"
project_dir = "~/projects/demo"
port = 4000
`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(envPath, []byte("TOGETHER_API_KEY=from-dotenv\nHATCH_MODEL=from-dotenv\nPORT=5000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HATCH_MODEL", "from-env")
	t.Setenv("PORT", "")
	t.Setenv("TOGETHER_API_KEY", "")
	t.Setenv("HATCH_API_BASE_URL", "")
	t.Setenv("HATCH_PROJECT_DIR", "")
	t.Setenv("HOME", dir)

	cfg, err := Load(cfgPath, envPath)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.APIBaseURL != "http://relay.local:9000" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.TogetherAPIKey != "from-dotenv" {
		t.Errorf("TogetherAPIKey = %q", cfg.TogetherAPIKey)
	}
	if cfg.Model != "from-env" {
		t.Errorf("Model = %q; process env should win over dotenv", cfg.Model)
	}
	if cfg.Port != 5000 {
		t.Errorf("Port = %d; want the dotenv value", cfg.Port)
	}
	if cfg.ProjectDir != filepath.Join(dir, "projects", "demo") {
		t.Errorf("ProjectDir = %q", cfg.ProjectDir)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("HATCH_API_BASE_URL", "")
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "none.toml"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 3001 || cfg.APIBaseURL != "http://localhost:3001" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	if _, err := Load("", ""); err == nil {
		t.Fatal("expected an error for a non-numeric PORT")
	}
}

func TestFlagsOverride(t *testing.T) {
	cfg := Default()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindClientFlags(flags)
	cfg.BindServerFlags(flags)

	if err := flags.Parse([]string{"--api", "http://x", "-p", "8080", "-vv", "--no-animation"}); err != nil {
		t.Fatal(err)
	}
	if cfg.APIBaseURL != "http://x" || cfg.Port != 8080 || cfg.Verbose != 2 || !cfg.NoAnimation {
		t.Errorf("flags not applied: %+v", cfg)
	}
}
