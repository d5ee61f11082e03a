package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderAzure      = "azure"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderAnthropic  = "anthropic"

	defaultModel      = "gpt-4o"
	defaultAPIVersion = "2024-10-21"
)

// EndpointConfig describes one backend. Empty credentials are allowed; the
// endpoint then fails on first use instead of at startup.
type EndpointConfig struct {
	Name       string `yaml:"name"`
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	APIVersion string `yaml:"api_version"`
	Weight     int    `yaml:"weight"`
	RPM        int    `yaml:"rpm"`
}

type endpointsFile struct {
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// LoadEndpoints reads a YAML endpoint list, expanding ${VAR} references
// from the environment before parsing.
func LoadEndpoints(path string) ([]EndpointConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}
	return ParseEndpoints(data)
}

func ParseEndpoints(data []byte) ([]EndpointConfig, error) {
	var file endpointsFile
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &file); err != nil {
		return nil, fmt.Errorf("parse endpoints file: %w", err)
	}
	if len(file.Endpoints) == 0 {
		return nil, fmt.Errorf("endpoints file declares no endpoints")
	}

	seen := make(map[string]bool, len(file.Endpoints))
	for i := range file.Endpoints {
		ep := &file.Endpoints[i]
		if ep.Name == "" {
			ep.Name = fmt.Sprintf("endpoint-%d", i+1)
		}
		if seen[ep.Name] {
			return nil, fmt.Errorf("duplicate endpoint name %q", ep.Name)
		}
		seen[ep.Name] = true
		applyDefaults(ep)
	}
	return file.Endpoints, nil
}

func applyDefaults(ep *EndpointConfig) {
	ep.Provider = strings.ToLower(strings.TrimSpace(ep.Provider))
	if ep.Provider == "" {
		ep.Provider = ProviderAzure
	}
	if ep.Model == "" && ep.Provider != ProviderAnthropic {
		ep.Model = defaultModel
	}
	if ep.Provider == ProviderAzure && ep.APIVersion == "" {
		ep.APIVersion = defaultAPIVersion
	}
	if ep.Weight < 1 {
		ep.Weight = 1
	}
}

// DefaultEndpoints is the built-in Azure rotation: the West EU deployment has
// twice the quota of the others.
func DefaultEndpoints(getenv func(string) string) []EndpointConfig {
	regions := []struct {
		suffix string
		weight int
	}{
		{"WEST_EU", 2},
		{"EAST_US", 1},
		{"EAST_US_2", 1},
		{"WEST_US", 1},
	}

	model := getenv("AZURE_OPENAI_MODEL")
	result := make([]EndpointConfig, 0, len(regions))
	for _, r := range regions {
		ep := EndpointConfig{
			Name:     strings.ToLower(r.suffix),
			Provider: ProviderAzure,
			BaseURL:  getenv("AZURE_OPENAI_ENDPOINT_" + r.suffix),
			APIKey:   getenv("AZURE_OPENAI_API_KEY_" + r.suffix),
			Model:    model,
			Weight:   r.weight,
		}
		applyDefaults(&ep)
		result = append(result, ep)
	}
	return result
}
