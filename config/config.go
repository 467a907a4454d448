// Package config holds the deployment settings: server address, Gemini model,
// safety keywords and the prompt persona. Values come from Default, then an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrMissingAPIKey = errors.New("GOOGLE_API_KEY not found in environment variables")

const (
	EnvAPIKey = "GOOGLE_API_KEY"
	EnvConfig = "CONFIDANT_CONFIG"
	EnvAddr   = "CONFIDANT_ADDR"
	EnvModel  = "CONFIDANT_MODEL"
	EnvVoice  = "CONFIDANT_VOICE"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Gemini GeminiConfig `yaml:"gemini"`
	Safety SafetyConfig `yaml:"safety"`
	Prompt PromptConfig `yaml:"prompt"`
	Chat   ChatConfig   `yaml:"chat"`
	Voice  VoiceConfig  `yaml:"voice"`
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	BodyLimit string `yaml:"body_limit"`
}

type GeminiConfig struct {
	// APIKey is only ever read from the environment.
	APIKey     string        `yaml:"-"`
	Model      string        `yaml:"model"`
	APIVersion string        `yaml:"api_version"`
	Timeout    time.Duration `yaml:"timeout"`
}

type SafetyConfig struct {
	Keywords        []string `yaml:"keywords"`
	AlertTopic      string   `yaml:"alert_topic"`
	FingerprintSalt string   `yaml:"fingerprint_salt"`
}

type PromptConfig struct {
	Persona        string `yaml:"persona"`
	QuestionPrefix string `yaml:"question_prefix"`
	ImageNote      string `yaml:"image_note"`
}

type ChatConfig struct {
	SystemUser        string `yaml:"system_user"`
	EmptyInputMessage string `yaml:"empty_input_message"`
	ErrorPrefix       string `yaml:"error_prefix"`
}

type VoiceConfig struct {
	Enabled         bool   `yaml:"enabled"`
	LanguageCode    string `yaml:"language_code"`
	SampleRateHertz int32  `yaml:"sample_rate_hertz"`
}

// DefaultKeywords are the self-harm phrases the safety scanner looks for.
var DefaultKeywords = []string{
	"suicide", "self-harm", "kill myself", "harm myself",
	"end my life", "take my life", "cut myself", "overdose",
	"jump off", "hang myself", "hurt myself", "no reason to live",
	"final goodbye", "want to die", "want to disappear",
}

const DefaultPersona = "You are an experienced mental health counselor with expertise in helping individuals with emotional issues. " +
	"Your goal is to provide thoughtful, empathetic, and professional advice to users. " +
	"You are good at dealing with mental health challenges. " +
	"You should base your responses on psychological principles and practical solutions. " +
	"Read and understand the users' questions, write responses at good levels of empathic understanding. " +
	"Limit each response to a minimum of 100 words and a maximum of 200 words."

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:      ":8080",
			BodyLimit: "10MB",
		},
		Gemini: GeminiConfig{
			Model:      "gemini-2.0-flash-001",
			APIVersion: "v1",
		},
		Safety: SafetyConfig{
			Keywords:   append([]string(nil), DefaultKeywords...),
			AlertTopic: "safety.alerts",
		},
		Prompt: PromptConfig{
			Persona:        DefaultPersona,
			QuestionPrefix: " User question: ",
			ImageNote:      " The user also uploaded an image.",
		},
		Chat: ChatConfig{
			SystemUser:        "System",
			EmptyInputMessage: "Please provide either text or an image.",
			ErrorPrefix:       "An error occurred: ",
		},
		Voice: VoiceConfig{
			LanguageCode:    "en-US",
			SampleRateHertz: 16000,
		},
	}
}

// Load builds the configuration. An empty path falls back to $CONFIDANT_CONFIG;
// when both are empty only defaults and environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("decoding config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv(EnvVoice); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvVoice, err)
		}
		c.Voice.Enabled = enabled
	}
	return nil
}

// Validate reports settings the process cannot start without.
func (c Config) Validate() error {
	if c.Gemini.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Gemini.Model == "" {
		return errors.New("gemini model must not be empty")
	}
	return nil
}
