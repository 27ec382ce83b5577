package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at path. Variables from .env files (when present)
// are loaded into the environment first and ${VAR} references are expanded.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", f, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// applyEnv fills secrets left empty in the file from well-known variables
func (c *Config) applyEnv() {
	if c.Models.HFToken == "" {
		c.Models.HFToken = os.Getenv("HF_TOKEN")
	}
	if c.Models.ASR.APIKey == "" {
		c.Models.ASR.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	geminiKeys := splitKeys(os.Getenv("GEMINI_API_KEYS"))
	if len(c.Models.Correction.APIKeys) == 0 {
		c.Models.Correction.APIKeys = geminiKeys
	}
	if len(c.Models.Summarization.APIKeys) == 0 {
		c.Models.Summarization.APIKeys = geminiKeys
	}
	if c.Storage.AccessKeyID == "" {
		c.Storage.AccessKeyID = os.Getenv("MINIO_ACCESS_KEY_ID")
	}
	if c.Storage.SecretAccessKey == "" {
		c.Storage.SecretAccessKey = os.Getenv("MINIO_SECRET_ACCESS_KEY")
	}
}
