package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The crawl target defaults point at the w3schools SQL tutorial, whose left
// menu lists every category page and whose examples are rendered inside
// "w3-code notranslate sqlHigh" blocks.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "sqlharvest"

	// DefaultRootURL is the listing page that holds the category navigation.
	// Category pages are resolved relative to this URL.
	DefaultRootURL = "https://www.w3schools.com/sql/"

	// DefaultRootPage is the page identifier sent as Referer for the
	// discovery request and for the first category fetch.
	DefaultRootPage = "default.asp"

	// DefaultNavContainerID is the id attribute of the navigation container.
	DefaultNavContainerID = "leftmenuinnerinner"

	// DefaultNavLinkSelector selects the category links inside the container.
	DefaultNavLinkSelector = `a[target="_top"]`

	// DefaultSnippetClass is the class marker of code example blocks.
	// Every whitespace separated class must be present on a matching element.
	DefaultSnippetClass = "w3-code notranslate sqlHigh"

	// DefaultDelayMin is the lower bound of the random politeness delay.
	DefaultDelayMin = 5 * time.Second

	// DefaultDelayMax is the upper bound of the random politeness delay.
	DefaultDelayMax = 10 * time.Second

	// DefaultTimeout is the per-request timeout. Zero leaves the HTTP client
	// without a timeout.
	DefaultTimeout = time.Duration(0)

	// DefaultMaxBodySize limits the maximum response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultOutputFile is the dataset written in the working directory.
	DefaultOutputFile = "sqls.json"

	// UserAgentStrategyRandom picks a uniformly random identity per request.
	UserAgentStrategyRandom = "random"

	// UserAgentStrategyRotate walks the identity pool in order.
	UserAgentStrategyRotate = "rotate"

	// DefaultUserAgentStrategy is the identity selection strategy.
	DefaultUserAgentStrategy = UserAgentStrategyRandom
)

// defaultUserAgents is the built-in client identity pool.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/110.0.0.0 Safari/537.36 Edg/110.0.1587.50",
	"Mozilla/5.0 (X11; Linux i686) AppleWebKit/535.21 (KHTML, like Gecko) Chrome/19.0.1041.0 Safari/535.21",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_10_5) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/43.0.2357.134 Safari/537.36",
	"Opera/9.80 (Android 2.3.4; Linux; Opera Mobi/build-1107180945; U; en-GB) Presto/2.8.149 Version/11.10",
	"Mozilla/5.0 (compatible; MSIE 9.0; Windows NT 6.1; WOW64; Trident/5.0; SLCC2; .NET CLR 2.0.50727; .NET CLR 3.5.30729; .NET CLR 3.0.30729; Media Center PC 6.0; .NET4.0C; .NET4.0E; QQBrowser/7.0.3698.400)",
}

// DefaultUserAgents returns a copy of the built-in client identity pool.
func DefaultUserAgents() []string {
	agents := make([]string, len(defaultUserAgents))
	copy(agents, defaultUserAgents)
	return agents
}

// Config holds all configuration options for sqlharvest.
// It is populated from defaults, the optional YAML file and CLI flags, and is
// passed to the components that need it rather than kept as global state.
type Config struct {
	// RootURL is the listing page that holds the category navigation.
	// It must end with "/" for relative page identifiers to resolve below it.
	RootURL string

	// RootPage is the page identifier used as Referer before any category
	// page has been fetched.
	RootPage string

	// NavContainerID is the id of the element that holds the category links.
	NavContainerID string

	// NavLinkSelector is a CSS selector, evaluated inside the navigation
	// container, that matches the category links.
	NavLinkSelector string

	// SnippetClass is the class marker of code blocks, e.g.
	// "w3-code notranslate sqlHigh".
	SnippetClass string

	// UserAgents is the client identity pool. It is never modified after
	// the configuration is built.
	UserAgents []string

	// UserAgentStrategy selects identities from the pool: "random" or "rotate".
	UserAgentStrategy string

	// DelayMin and DelayMax bound the uniformly random politeness delay
	// slept before every category fetch.
	DelayMin time.Duration
	DelayMax time.Duration

	// Timeout is the HTTP client timeout. Zero means no timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Set to 0 to use the default (5MB).
	MaxBodySize int64

	// OutputFile is the JSON dataset path. It is read on start and rewritten
	// after every completed category.
	OutputFile string

	// RespectRobots enables the robots.txt gate for category pages.
	RespectRobots bool

	// SaveHistory records runs and fetches in the SQLite history database.
	SaveHistory bool

	// HistoryDir is the directory holding the history database.
	// Defaults to the XDG data directory (~/.local/share/sqlharvest on Linux).
	HistoryDir string

	// ConfigFilePath is the path to the configuration file.
	// If empty, .sqlharvest is searched in the current and home directories.
	ConfigFilePath string

	// Verbose enables debug log output.
	Verbose bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		RootURL:           DefaultRootURL,
		RootPage:          DefaultRootPage,
		NavContainerID:    DefaultNavContainerID,
		NavLinkSelector:   DefaultNavLinkSelector,
		SnippetClass:      DefaultSnippetClass,
		UserAgents:        DefaultUserAgents(),
		UserAgentStrategy: DefaultUserAgentStrategy,
		DelayMin:          DefaultDelayMin,
		DelayMax:          DefaultDelayMax,
		Timeout:           DefaultTimeout,
		MaxBodySize:       DefaultMaxBodySize,
		OutputFile:        DefaultOutputFile,
		SaveHistory:       true,
		HistoryDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for sqlharvest.
// On Linux: ~/.local/share/sqlharvest
// On macOS: ~/Library/Application Support/sqlharvest
// On Windows: %LOCALAPPDATA%\sqlharvest
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for sqlharvest.
// On Linux: ~/.config/sqlharvest
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// PageURL resolves a page identifier against the root URL.
// An empty page yields the root URL itself.
func (c *Config) PageURL(page string) string {
	if page == "" {
		return c.RootURL
	}
	base, err := url.Parse(c.RootURL)
	if err != nil {
		return c.RootURL + page
	}
	ref, err := url.Parse(page)
	if err != nil {
		return c.RootURL + page
	}
	return base.ResolveReference(ref).String()
}

// RootPageURL returns the URL of the root page used as the initial Referer.
func (c *Config) RootPageURL() string {
	return c.PageURL(c.RootPage)
}

// Validate checks if the configuration is valid.
// It returns the first error found.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RootURL)
	if c.RootURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidRootURL
	}

	if strings.TrimSpace(c.NavContainerID) == "" || strings.TrimSpace(c.NavLinkSelector) == "" {
		return ErrNoNavigation
	}

	if strings.TrimSpace(c.SnippetClass) == "" {
		return ErrNoSnippetClass
	}

	if len(c.UserAgents) == 0 {
		return ErrNoUserAgents
	}

	if c.UserAgentStrategy != UserAgentStrategyRandom && c.UserAgentStrategy != UserAgentStrategyRotate {
		return ErrInvalidUserAgentStrategy
	}

	if c.DelayMin < 0 || c.DelayMax < 0 || c.DelayMin > c.DelayMax {
		return ErrInvalidDelay
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.OutputFile == "" {
		return ErrNoOutputFile
	}

	return nil
}
