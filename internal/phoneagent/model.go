package phoneagent

import (
	"errors"
	"fmt"
	"net/url"
)

// ModelConfig describes the OpenAI-compatible endpoint the agent talks to.
type ModelConfig struct {
	BaseURL   string
	APIKey    string
	ModelName string
}

// NewModelConfig validates and returns a model configuration
func NewModelConfig(baseURL, apiKey, modelName string) (ModelConfig, error) {
	if baseURL == "" {
		return ModelConfig{}, errors.New("model base URL is empty")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return ModelConfig{}, fmt.Errorf("invalid model base URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ModelConfig{}, fmt.Errorf("invalid model base URL %q: expected an absolute http(s) URL", baseURL)
	}
	if apiKey == "" {
		return ModelConfig{}, errors.New("API key is empty")
	}
	if modelName == "" {
		return ModelConfig{}, errors.New("model name is empty")
	}
	return ModelConfig{BaseURL: baseURL, APIKey: apiKey, ModelName: modelName}, nil
}

// String hides the API key.
func (c ModelConfig) String() string {
	return fmt.Sprintf("%s@%s", c.ModelName, c.BaseURL)
}
