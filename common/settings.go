package common

import (
	"math"
	"os"
	"path/filepath"

	"github.com/bitrise-io/bitrise-plugins-ai-research/logger"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	// ClarifaiOpenAIBaseURL is Clarifai's OpenAI-compatible chat endpoint
	ClarifaiOpenAIBaseURL = "https://api.clarifai.com/v2/ext/openai/v1"
	// ClarifaiAPIBaseURL is the root of Clarifai's native REST API
	ClarifaiAPIBaseURL = "https://api.clarifai.com"

	DefaultResearchModel = "openai/deepseek-ai/deepseek-chat/models/DeepSeek-R1-Distill-Qwen-7B"
	DefaultPredictModel  = "https://clarifai.com/openai/chat-completion/models/o4-mini"

	DefaultTemperature = 0.7
	DefaultMaxTokens   = 5056
	MinMaxTokens       = 64
	MaxTokensStep      = 64
)

type LLM struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	// Temperature is clamped to [0, 1]
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	// UseDefaultMaxTokens leaves the token cap to the provider
	UseDefaultMaxTokens bool `yaml:"use_default_max_tokens"`
	// APITimeout in seconds, 0 waits for the call to finish
	APITimeout int `yaml:"api_timeout"`
}

type Agent struct {
	Role            string `yaml:"role"`
	Goal            string `yaml:"goal"`
	Backstory       string `yaml:"backstory"`
	Verbose         bool   `yaml:"verbose"`
	AllowDelegation bool   `yaml:"allow_delegation"`
}

type Predict struct {
	ModelURL     string `yaml:"model_url"`
	DeploymentID string `yaml:"deployment_id"`
	APIBaseURL   string `yaml:"api_base_url"`
}

type Server struct {
	Addr string `yaml:"addr"`
}

type Retry struct {
	Max        int `yaml:"max"`
	WaitMinSec int `yaml:"wait_min_seconds"`
	WaitMaxSec int `yaml:"wait_max_seconds"`
}

type Settings struct {
	CredentialEnv string  `yaml:"credential_env"`
	LLM           LLM     `yaml:"llm"`
	Agent         Agent   `yaml:"agent"`
	Predict       Predict `yaml:"predict"`
	Server        Server  `yaml:"server"`
	Retry         Retry   `yaml:"retry"`
}

func WithDefaultSettings() Settings {
	return Settings{
		CredentialEnv: "CLARIFAI_PAT",
		LLM: LLM{
			Provider:    ProviderOpenAI,
			Model:       DefaultResearchModel,
			BaseURL:     ClarifaiOpenAIBaseURL,
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Agent: Agent{
			Verbose: true,
		},
		Predict: Predict{
			ModelURL:   DefaultPredictModel,
			APIBaseURL: ClarifaiAPIBaseURL,
		},
		Server: Server{
			Addr: ":8501",
		},
		Retry: Retry{
			Max:        0,
			WaitMinSec: 1,
			WaitMaxSec: 5,
		},
	}
}

// WithYamlFile overlays the defaults with the given file, or with the first
// research.bitrise.yml found below the working directory when path is empty.
func WithYamlFile(path string) Settings {
	settings := WithDefaultSettings()

	filePath := path
	if filePath == "" {
		filePath = findSettingsFile()
	}

	if filePath == "" {
		logger.Debugf("No settings file found in the current directory or subdirectories. Using default settings.")
		return settings
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		logger.Warnf("Failed to read settings file %s: %v", filePath, err)
		return settings
	}

	parsed := settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		logger.Warnf("Failed to parse YAML file %s: %v", filePath, err)
		return settings
	}

	logger.Infof("Using settings from YAML file: %s", filePath)
	return parsed
}

func findSettingsFile() string {
	var filePath string
	filenames := []string{"research.bitrise.yml", "research.bitrise.yaml"}

	for _, name := range filenames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}

	filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if filePath != "" {
			return filepath.SkipDir
		}
		for _, name := range filenames {
			if !info.IsDir() && info.Name() == name {
				filePath = path
				return filepath.SkipDir
			}
		}
		return nil
	})

	return filePath
}

// ClampTemperature keeps t inside [0, 1]. NaN falls back to DefaultTemperature.
func ClampTemperature(t float64) float64 {
	if math.IsNaN(t) {
		return DefaultTemperature
	}
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// NormalizeMaxTokens raises a token cap below the minimum to MinMaxTokens
func NormalizeMaxTokens(n int) int {
	if n < MinMaxTokens {
		return MinMaxTokens
	}
	return n
}
