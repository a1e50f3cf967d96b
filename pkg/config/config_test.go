package config

import "testing"

func TestParseDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := Parse([]byte("server:\n  addr: \":9000\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetServerAddr() != ":9000" {
		t.Errorf("addr = %q", cfg.GetServerAddr())
	}
	if cfg.GetMaxPromptLength() != 1000 {
		t.Errorf("max prompt length = %d", cfg.GetMaxPromptLength())
	}
	if cfg.GetRootName() != "project-root" {
		t.Errorf("root name = %q", cfg.GetRootName())
	}
	if cfg.GetGeminiModel() == "" || cfg.GetGeminiApiEndpoint() == "" {
		t.Error("gemini defaults missing")
	}
	if cfg.GetMaxFileSize() != 2*1024*1024 {
		t.Errorf("max file size = %d", cfg.GetMaxFileSize())
	}
}

func TestParseEnvOverride(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := Parse([]byte("gemini:\n  api_key: from-file\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GetGeminiAPIKey() != "from-env" {
		t.Errorf("api key = %q, want env value", cfg.GetGeminiAPIKey())
	}
	if cfg.GetJWTSecret() != "s3cret" {
		t.Errorf("jwt secret = %q", cfg.GetJWTSecret())
	}
}

func TestFileRules(t *testing.T) {
	cfg, err := Parse([]byte(`
limits:
  max_file_size: 1
excluded_dir_prefixes: ["node_modules/", ".git/"]
excluded_extensions: [".png"]
text_extensions: [".js", ".jsx"]
text_filenames: ["LICENSE"]
text_mime_types: ["application/json"]
`))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path     string
		size     uint64
		excluded bool
	}{
		{"src/App.jsx", 10, false},
		{"node_modules/react/index.js", 10, true},
		{"app/node_modules/x.js", 10, true},
		{"logo.png", 10, true},
		{"big.js", 2 * 1024 * 1024, true},
	}
	for _, tt := range tests {
		if got := cfg.IsExcluded(tt.path, tt.size); got != tt.excluded {
			t.Errorf("IsExcluded(%q) = %v, want %v", tt.path, got, tt.excluded)
		}
	}

	if !cfg.IsLikelyTextFile("src/App.jsx") || !cfg.IsLikelyTextFile("LICENSE") || cfg.IsLikelyTextFile("a.bin") {
		t.Error("IsLikelyTextFile mismatch")
	}
	if !cfg.IsTextContentTypeException("application/json") {
		t.Error("json mime should be a text exception")
	}
}
