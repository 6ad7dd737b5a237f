package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".sqlharvest"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .sqlharvest configuration file.
// Every field is optional; unset fields keep the value already in Config.
type File struct {
	RootURL           string         `yaml:"root_url,omitempty"`
	RootPage          string         `yaml:"root_page,omitempty"`
	Navigation        NavigationFile `yaml:"navigation,omitempty"`
	SnippetClass      string         `yaml:"snippet_class,omitempty"`
	UserAgents        []string       `yaml:"user_agents,omitempty"`
	UserAgentStrategy string         `yaml:"user_agent_strategy,omitempty"`
	Delay             DelayFile      `yaml:"delay,omitempty"`
	Timeout           *time.Duration `yaml:"timeout,omitempty"`
	MaxBodySize       int64          `yaml:"max_body_size,omitempty"`
	Output            string         `yaml:"output,omitempty"`
	RespectRobots     *bool          `yaml:"respect_robots,omitempty"`
	SaveHistory       *bool          `yaml:"save_history,omitempty"`
	HistoryDir        string         `yaml:"history_dir,omitempty"`
}

// NavigationFile locates the category links on the root page.
type NavigationFile struct {
	ContainerID  string `yaml:"container_id,omitempty"`
	LinkSelector string `yaml:"link_selector,omitempty"`
}

// DelayFile is the politeness delay range, e.g. min: 5s, max: 10s.
type DelayFile struct {
	Min *time.Duration `yaml:"min,omitempty"`
	Max *time.Duration `yaml:"max,omitempty"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply overrides the fields of cfg that are set in the file.
func (cf *File) Apply(cfg *Config) {
	if cf.RootURL != "" {
		cfg.RootURL = cf.RootURL
	}
	if cf.RootPage != "" {
		cfg.RootPage = cf.RootPage
	}
	if cf.Navigation.ContainerID != "" {
		cfg.NavContainerID = cf.Navigation.ContainerID
	}
	if cf.Navigation.LinkSelector != "" {
		cfg.NavLinkSelector = cf.Navigation.LinkSelector
	}
	if cf.SnippetClass != "" {
		cfg.SnippetClass = cf.SnippetClass
	}
	if len(cf.UserAgents) > 0 {
		agents := make([]string, len(cf.UserAgents))
		copy(agents, cf.UserAgents)
		cfg.UserAgents = agents
	}
	if cf.UserAgentStrategy != "" {
		cfg.UserAgentStrategy = cf.UserAgentStrategy
	}
	if cf.Delay.Min != nil {
		cfg.DelayMin = *cf.Delay.Min
	}
	if cf.Delay.Max != nil {
		cfg.DelayMax = *cf.Delay.Max
	}
	if cf.Timeout != nil {
		cfg.Timeout = *cf.Timeout
	}
	if cf.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.MaxBodySize
	}
	if cf.Output != "" {
		cfg.OutputFile = cf.Output
	}
	if cf.RespectRobots != nil {
		cfg.RespectRobots = *cf.RespectRobots
	}
	if cf.SaveHistory != nil {
		cfg.SaveHistory = *cf.SaveHistory
	}
	if cf.HistoryDir != "" {
		cfg.HistoryDir = cf.HistoryDir
	}
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .sqlharvest in the current directory
// 3. Look for .sqlharvest in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}
