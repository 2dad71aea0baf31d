package types

import "time"

// DefaultSearchURL is the PubMed landing page holding the search form.
const DefaultSearchURL = "https://pubmed.ncbi.nlm.nih.gov/"

// Engine selects the session implementation used to drive searches.
type Engine string

const (
	// EngineBrowser drives a headless Chrome through go-rod.
	EngineBrowser Engine = "browser"

	// EngineHTTP issues plain GET requests against the server-rendered search.
	EngineHTTP Engine = "http"
)

// OutputFormat selects the serialization of the result mapping.
type OutputFormat string

const (
	OutputJSON OutputFormat = "json"
	OutputYAML OutputFormat = "yaml"
)

// HTTPConfig holds settings for the plain HTTP session.
type HTTPConfig struct {
	// Timeout is the per-request timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// BrowserConfig holds settings for the go-rod browser session.
type BrowserConfig struct {
	// Headless controls whether Chrome runs without a window (default true).
	Headless bool `json:"headless" yaml:"headless" mapstructure:"headless"`

	// NoSandbox disables Chrome's sandbox (needed in most containers).
	NoSandbox bool `json:"no_sandbox" yaml:"no_sandbox" mapstructure:"no_sandbox"`

	// Bin overrides the Chrome binary; empty lets rod locate or download one.
	Bin string `json:"bin,omitempty" yaml:"bin,omitempty" mapstructure:"bin"`

	// ControlURL connects to an already running Chrome instead of launching one.
	ControlURL string `json:"control_url,omitempty" yaml:"control_url,omitempty" mapstructure:"control_url"`

	// Stealth masks automation fingerprints on the search page (default true).
	Stealth bool `json:"stealth" yaml:"stealth" mapstructure:"stealth"`

	// SearchBoxSelector locates the query input (default "#id_term").
	SearchBoxSelector string `json:"search_box_selector" yaml:"search_box_selector" mapstructure:"search_box_selector"`

	// SearchButtonSelector locates the submit button (default ".search-btn").
	SearchButtonSelector string `json:"search_button_selector" yaml:"search_button_selector" mapstructure:"search_button_selector"`

	// ActionTimeout bounds navigation and each form interaction (default 30s).
	ActionTimeout time.Duration `json:"action_timeout" yaml:"action_timeout" mapstructure:"action_timeout"`
}

// ResolveConfig holds settings for one batch run.
type ResolveConfig struct {
	// SearchURL is the page navigated to before each query.
	SearchURL string `json:"search_url" yaml:"search_url" mapstructure:"search_url"`

	// WaitTimeout bounds the wait for a classifiable page after a query
	// is submitted (default 10s).
	WaitTimeout time.Duration `json:"wait_timeout" yaml:"wait_timeout" mapstructure:"wait_timeout"`

	// PollInterval is the delay between page inspections while waiting
	// (default 250ms).
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`

	// SnapshotDir, when set, receives the HTML of pages whose title failed.
	SnapshotDir string `json:"snapshot_dir,omitempty" yaml:"snapshot_dir,omitempty" mapstructure:"snapshot_dir"`
}

// Defaults fills zero fields with their default values.
func (c *ResolveConfig) Defaults() {
	if c.SearchURL == "" {
		c.SearchURL = DefaultSearchURL
	}
	if c.WaitTimeout <= 0 {
		c.WaitTimeout = 10 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 250 * time.Millisecond
	}
}

// Defaults fills zero fields with their default values. Headless and
// Stealth are left to the caller since false is a meaningful setting.
func (c *BrowserConfig) Defaults() {
	if c.SearchBoxSelector == "" {
		c.SearchBoxSelector = "#id_term"
	}
	if c.SearchButtonSelector == "" {
		c.SearchButtonSelector = ".search-btn"
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = 30 * time.Second
	}
}

// Defaults fills zero fields with their default values.
func (c *HTTPConfig) Defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "pmid-resolver/0.1"
	}
}
