package config

import (
	"errors"
	"fmt"
	"os"

	"doc_chat/internal/errs"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DocumentsDir string `env:"DOCUMENTS_DIR" envDefault:"documents" yaml:"documents_dir" validate:"required"`
	ChunksDir    string `env:"CHUNKS_DIR" envDefault:"chunks" yaml:"chunks_dir" validate:"required"`
	IndexDir     string `env:"INDEX_DIR" envDefault:"vectorstore" yaml:"index_dir" validate:"required"`
	Collection   string `env:"COLLECTION" envDefault:"mydocs" yaml:"collection" validate:"required"`

	ChunkSize   int `env:"CHUNK_SIZE" envDefault:"100" yaml:"chunk_size" validate:"min=1"`
	DefaultTopK int `env:"DEFAULT_TOP_K" envDefault:"3" yaml:"default_top_k" validate:"min=1"`

	StoreBackend  string `env:"STORE_BACKEND" envDefault:"chromem" yaml:"store_backend" validate:"oneof=chromem sqlite memory"`
	StoreCompress bool   `env:"STORE_COMPRESS" envDefault:"false" yaml:"store_compress"`

	EmbedProvider string `env:"EMBED_PROVIDER" envDefault:"ollama" yaml:"embed_provider" validate:"oneof=ollama openai hash"`
	EmbedModel    string `env:"EMBED_MODEL" yaml:"embed_model"`
	OllamaURL     string `env:"OLLAMA_URL" envDefault:"http://localhost:11434" yaml:"ollama_url" validate:"omitempty,url"`
	OpenAIKey     string `env:"OPENAI_API_KEY" yaml:"openai_api_key" validate:"required_if=EmbedProvider openai"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" yaml:"openai_base_url" validate:"omitempty,url"`
	HashDimension int    `env:"HASH_DIMENSION" envDefault:"256" yaml:"hash_dimension" validate:"min=1"`

	UnidocLicenseKey string `env:"UNIDOC_LICENSE_API_KEY" yaml:"unidoc_license_api_key"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info" yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console" yaml:"log_format" validate:"oneof=console json"`
}

// Init fills cfg from the environment.
func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// Load reads the environment, overlays the YAML file at path when path is
// set, and validates the result. Keys missing from the file keep their
// environment or default values.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := Init(cfg); err != nil {
		return nil, errs.E(errs.KindConfiguration, "config.load", err)
	}
	if path != "" {
		if err := cfg.overlay(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errs.E(errs.KindConfiguration, "config.load", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return errs.E(errs.KindConfiguration, "config.load", fmt.Errorf("parse %s: %w", path, err))
	}
	return nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errs.Errorf(errs.KindConfiguration, "config.validate",
			"invalid %s: failed %q rule (value %v)", fe.Field(), fe.Tag(), fe.Value())
	}
	return errs.E(errs.KindConfiguration, "config.validate", err)
}
