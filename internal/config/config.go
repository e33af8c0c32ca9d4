package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"
)

type Config struct {
	//===============
	//  Crawl scope
	//===============
	// Starting page for crawl discovery and graph construction.
	seedURL url.URL
	// Restrict admission to the seed's host (matched on canonical host).
	sameDomain bool

	//===============
	// Limits
	//===============
	// Maximum number of hyperlink hops from the seed URL
	maxDepth int
	// Maximum number of pages allowed to be fetched
	maxPages int

	//===============
	// Politeness
	//===============
	// Maximum number of crawl worker goroutines fetching concurrently;
	// it does not control OS threads or CPU parallelism.
	concurrency int
	// Minimum waiting time enforced between two fetches to the same host.
	baseDelay time.Duration
	// Randomized variation added on top of the base delay.
	jitter time.Duration
	// Controls the random number generator
	randomSeed int64
	// Whether robots.txt directives gate admission at all
	respectRobots bool
	// Timeout for the per-host robots.txt fetch
	robotsTimeout time.Duration
	// maximum attempt during fetch retry
	maxAttempt int
	// initial delay for backoff
	backoffInitialDuration time.Duration
	// multiplier during exponential backoff
	backoffMultiplier float64
	// capped maximum delay for backoff to stop exponential multiplication
	backoffMaxDuration time.Duration

	//===============
	// Fetch
	//===============
	// Maximum time of a single fetch request
	requestTimeout time.Duration
	// Maximum redirect hops before a fetch fails with a redirect loop
	maxRedirects int
	// Body size cap; larger bodies are truncated, not rejected
	maxBodyBytes int64
	// User agent sent on every fetch and used for robots evaluation
	userAgent string

	//===============
	// Ranking & classification
	//===============
	// Damping factor for the random-walk centrality score
	damping float64
	// Iteration cap for the fixed-point centrality computation
	rankIterations int
	// Convergence threshold: stop when the max per-node delta falls below it
	rankEpsilon float64
	// Out-degree percentile above which a node qualifies as a hub
	hubPercentile float64
	// In-degree percentile above which a node qualifies as an authority
	authorityPercentile float64
}

type configDTO struct {
	SeedURL                string        `json:"seedUrl"`
	SameDomain             *bool         `json:"sameDomain,omitempty"`
	MaxDepth               int           `json:"maxDepth,omitempty"`
	MaxPages               int           `json:"maxPages,omitempty"`
	Concurrency            int           `json:"concurrency,omitempty"`
	BaseDelay              time.Duration `json:"baseDelay,omitempty"`
	Jitter                 time.Duration `json:"jitter,omitempty"`
	RandomSeed             int64         `json:"randomSeed,omitempty"`
	RespectRobots          *bool         `json:"respectRobots,omitempty"`
	RobotsTimeout          time.Duration `json:"robotsTimeout,omitempty"`
	MaxAttempt             int           `json:"maxAttempt,omitempty"`
	BackoffInitialDuration time.Duration `json:"backoffInitialDuration,omitempty"`
	BackoffMultiplier      float64       `json:"backoffMultiplier,omitempty"`
	BackoffMaxDuration     time.Duration `json:"backoffMaxDuration,omitempty"`
	RequestTimeout         time.Duration `json:"requestTimeout,omitempty"`
	MaxRedirects           int           `json:"maxRedirects,omitempty"`
	MaxBodyBytes           int64         `json:"maxBodyBytes,omitempty"`
	UserAgent              string        `json:"userAgent,omitempty"`
	Damping                float64       `json:"damping,omitempty"`
	RankIterations         int           `json:"rankIterations,omitempty"`
	RankEpsilon            float64       `json:"rankEpsilon,omitempty"`
	HubPercentile          float64       `json:"hubPercentile,omitempty"`
	AuthorityPercentile    float64       `json:"authorityPercentile,omitempty"`
}

func newConfigFromDTO(dto configDTO) (Config, error) {
	seed, err := url.Parse(dto.SeedURL)
	if err != nil || seed.Host == "" || (seed.Scheme != "http" && seed.Scheme != "https") {
		return Config{}, fmt.Errorf("%w: seedUrl %q is not a valid http(s) URL", ErrInvalidConfig, dto.SeedURL)
	}

	// Start with default config
	builder := WithDefault(*seed)

	// For booleans, nil means "not set in the file"
	if dto.SameDomain != nil {
		builder = builder.WithSameDomain(*dto.SameDomain)
	}
	if dto.RespectRobots != nil {
		builder = builder.WithRespectRobots(*dto.RespectRobots)
	}

	// For other fields, only override if a non-zero value is provided
	if dto.MaxDepth != 0 {
		builder = builder.WithMaxDepth(dto.MaxDepth)
	}
	if dto.MaxPages != 0 {
		builder = builder.WithMaxPages(dto.MaxPages)
	}
	if dto.Concurrency != 0 {
		builder = builder.WithConcurrency(dto.Concurrency)
	}
	if dto.BaseDelay != 0 {
		builder = builder.WithBaseDelay(dto.BaseDelay)
	}
	if dto.Jitter != 0 {
		builder = builder.WithJitter(dto.Jitter)
	}
	if dto.RandomSeed != 0 {
		builder = builder.WithRandomSeed(dto.RandomSeed)
	}
	if dto.RobotsTimeout != 0 {
		builder = builder.WithRobotsTimeout(dto.RobotsTimeout)
	}
	if dto.MaxAttempt != 0 {
		builder = builder.WithMaxAttempt(dto.MaxAttempt)
	}
	if dto.BackoffInitialDuration != 0 {
		builder = builder.WithBackoffInitialDuration(dto.BackoffInitialDuration)
	}
	if dto.BackoffMultiplier != 0 {
		builder = builder.WithBackoffMultiplier(dto.BackoffMultiplier)
	}
	if dto.BackoffMaxDuration != 0 {
		builder = builder.WithBackoffMaxDuration(dto.BackoffMaxDuration)
	}
	if dto.RequestTimeout != 0 {
		builder = builder.WithRequestTimeout(dto.RequestTimeout)
	}
	if dto.MaxRedirects != 0 {
		builder = builder.WithMaxRedirects(dto.MaxRedirects)
	}
	if dto.MaxBodyBytes != 0 {
		builder = builder.WithMaxBodyBytes(dto.MaxBodyBytes)
	}
	if dto.UserAgent != "" {
		builder = builder.WithUserAgent(dto.UserAgent)
	}
	if dto.Damping != 0 {
		builder = builder.WithDamping(dto.Damping)
	}
	if dto.RankIterations != 0 {
		builder = builder.WithRankIterations(dto.RankIterations)
	}
	if dto.RankEpsilon != 0 {
		builder = builder.WithRankEpsilon(dto.RankEpsilon)
	}
	if dto.HubPercentile != 0 {
		builder = builder.WithHubPercentile(dto.HubPercentile)
	}
	if dto.AuthorityPercentile != 0 {
		builder = builder.WithAuthorityPercentile(dto.AuthorityPercentile)
	}

	return builder.Build()
}

func WithConfigFile(path string) (Config, error) {
	_, err := os.Stat(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrFileDoesNotExist, err.Error())
	}
	configContent, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrReadConfigFail, err.Error())
	}
	cfgDTO := configDTO{}

	err = json.Unmarshal(configContent, &cfgDTO)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %s", ErrConfigParsingFail, err.Error())
	}

	return newConfigFromDTO(cfgDTO)
}

// WithDefault creates a new Config with the provided seed URL and default
// values for all other fields.
func WithDefault(seedURL url.URL) *Config {
	defaultConfig := Config{
		seedURL:                seedURL,
		sameDomain:             true,
		maxDepth:               2,
		maxPages:               100,
		concurrency:            4,
		baseDelay:              500 * time.Millisecond,
		jitter:                 0,
		randomSeed:             time.Now().UnixNano(),
		respectRobots:          true,
		robotsTimeout:          5 * time.Second,
		maxAttempt:             3,
		backoffInitialDuration: 100 * time.Millisecond,
		backoffMultiplier:      2.0,
		backoffMaxDuration:     10 * time.Second,
		requestTimeout:         10 * time.Second,
		maxRedirects:           5,
		maxBodyBytes:           2 << 20, // 2 MiB
		userAgent:              "sitegraph/1.0",
		damping:                0.85,
		rankIterations:         50,
		rankEpsilon:            1e-6,
		hubPercentile:          0.90,
		authorityPercentile:    0.90,
	}
	return &defaultConfig
}

func (c *Config) WithSeedURL(u url.URL) *Config {
	c.seedURL = u
	return c
}

func (c *Config) WithSameDomain(sameDomain bool) *Config {
	c.sameDomain = sameDomain
	return c
}

func (c *Config) WithMaxDepth(depth int) *Config {
	c.maxDepth = depth
	return c
}

func (c *Config) WithMaxPages(pages int) *Config {
	c.maxPages = pages
	return c
}

func (c *Config) WithConcurrency(concurrency int) *Config {
	c.concurrency = concurrency
	return c
}

func (c *Config) WithBaseDelay(delay time.Duration) *Config {
	c.baseDelay = delay
	return c
}

func (c *Config) WithJitter(jitter time.Duration) *Config {
	c.jitter = jitter
	return c
}

func (c *Config) WithRandomSeed(seed int64) *Config {
	c.randomSeed = seed
	return c
}

func (c *Config) WithRespectRobots(respect bool) *Config {
	c.respectRobots = respect
	return c
}

func (c *Config) WithRobotsTimeout(timeout time.Duration) *Config {
	c.robotsTimeout = timeout
	return c
}

func (c *Config) WithMaxAttempt(attempts int) *Config {
	c.maxAttempt = attempts
	return c
}

func (c *Config) WithBackoffInitialDuration(duration time.Duration) *Config {
	c.backoffInitialDuration = duration
	return c
}

func (c *Config) WithBackoffMultiplier(multiplier float64) *Config {
	c.backoffMultiplier = multiplier
	return c
}

func (c *Config) WithBackoffMaxDuration(duration time.Duration) *Config {
	c.backoffMaxDuration = duration
	return c
}

func (c *Config) WithRequestTimeout(timeout time.Duration) *Config {
	c.requestTimeout = timeout
	return c
}

func (c *Config) WithMaxRedirects(redirects int) *Config {
	c.maxRedirects = redirects
	return c
}

func (c *Config) WithMaxBodyBytes(limit int64) *Config {
	c.maxBodyBytes = limit
	return c
}

func (c *Config) WithUserAgent(agent string) *Config {
	c.userAgent = agent
	return c
}

func (c *Config) WithDamping(damping float64) *Config {
	c.damping = damping
	return c
}

func (c *Config) WithRankIterations(iterations int) *Config {
	c.rankIterations = iterations
	return c
}

func (c *Config) WithRankEpsilon(epsilon float64) *Config {
	c.rankEpsilon = epsilon
	return c
}

func (c *Config) WithHubPercentile(p float64) *Config {
	c.hubPercentile = p
	return c
}

func (c *Config) WithAuthorityPercentile(p float64) *Config {
	c.authorityPercentile = p
	return c
}

// Build validates the assembled configuration. Validation failures are
// fatal: they surface to the invoker before any crawling starts.
func (c *Config) Build() (Config, error) {
	if c.seedURL.Host == "" {
		return Config{}, fmt.Errorf("%w: seed URL must have a host", ErrInvalidConfig)
	}
	if c.seedURL.Scheme != "http" && c.seedURL.Scheme != "https" {
		return Config{}, fmt.Errorf("%w: seed URL scheme must be http or https, got %q", ErrInvalidConfig, c.seedURL.Scheme)
	}
	if c.maxPages <= 0 {
		return Config{}, fmt.Errorf("%w: maxPages must be positive, got %d", ErrInvalidConfig, c.maxPages)
	}
	if c.maxDepth < 0 {
		return Config{}, fmt.Errorf("%w: maxDepth cannot be negative, got %d", ErrInvalidConfig, c.maxDepth)
	}
	if c.concurrency <= 0 {
		return Config{}, fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.concurrency)
	}
	if c.maxRedirects < 0 {
		return Config{}, fmt.Errorf("%w: maxRedirects cannot be negative, got %d", ErrInvalidConfig, c.maxRedirects)
	}
	if c.maxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("%w: maxBodyBytes must be positive, got %d", ErrInvalidConfig, c.maxBodyBytes)
	}
	if c.damping <= 0 || c.damping >= 1 {
		return Config{}, fmt.Errorf("%w: damping must be in (0, 1), got %g", ErrInvalidConfig, c.damping)
	}
	if c.rankIterations <= 0 {
		return Config{}, fmt.Errorf("%w: rankIterations must be positive, got %d", ErrInvalidConfig, c.rankIterations)
	}
	if c.hubPercentile < 0 || c.hubPercentile > 1 {
		return Config{}, fmt.Errorf("%w: hubPercentile must be in [0, 1], got %g", ErrInvalidConfig, c.hubPercentile)
	}
	if c.authorityPercentile < 0 || c.authorityPercentile > 1 {
		return Config{}, fmt.Errorf("%w: authorityPercentile must be in [0, 1], got %g", ErrInvalidConfig, c.authorityPercentile)
	}

	return *c, nil
}

func (c Config) SeedURL() url.URL {
	return c.seedURL
}

func (c Config) SameDomain() bool {
	return c.sameDomain
}

func (c Config) MaxDepth() int {
	return c.maxDepth
}

func (c Config) MaxPages() int {
	return c.maxPages
}

func (c Config) Concurrency() int {
	return c.concurrency
}

func (c Config) BaseDelay() time.Duration {
	return c.baseDelay
}

func (c Config) Jitter() time.Duration {
	return c.jitter
}

func (c Config) RandomSeed() int64 {
	return c.randomSeed
}

func (c Config) RespectRobots() bool {
	return c.respectRobots
}

func (c Config) RobotsTimeout() time.Duration {
	return c.robotsTimeout
}

func (c Config) MaxAttempt() int {
	return c.maxAttempt
}

func (c Config) BackoffInitialDuration() time.Duration {
	return c.backoffInitialDuration
}

func (c Config) BackoffMultiplier() float64 {
	return c.backoffMultiplier
}

func (c Config) BackoffMaxDuration() time.Duration {
	return c.backoffMaxDuration
}

func (c Config) RequestTimeout() time.Duration {
	return c.requestTimeout
}

func (c Config) MaxRedirects() int {
	return c.maxRedirects
}

func (c Config) MaxBodyBytes() int64 {
	return c.maxBodyBytes
}

func (c Config) UserAgent() string {
	return c.userAgent
}

func (c Config) Damping() float64 {
	return c.damping
}

func (c Config) RankIterations() int {
	return c.rankIterations
}

func (c Config) RankEpsilon() float64 {
	return c.rankEpsilon
}

func (c Config) HubPercentile() float64 {
	return c.hubPercentile
}

func (c Config) AuthorityPercentile() float64 {
	return c.authorityPercentile
}
