package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/JPArangoRenteria/sitegraph/internal/build"
	"github.com/JPArangoRenteria/sitegraph/internal/config"
	"github.com/JPArangoRenteria/sitegraph/internal/export"
	"github.com/JPArangoRenteria/sitegraph/internal/scheduler"
)

var (
	cfgFile             string
	sameDomain          bool
	maxDepth            int
	maxPages            int
	concurrency         int
	userAgent           string
	respectRobots       bool
	robotsTimeout       time.Duration
	requestTimeout      time.Duration
	maxRedirects        int
	maxBodyBytes        int64
	maxAttempts         int
	baseDelay           time.Duration
	jitter              time.Duration
	randomSeed          int64
	damping             float64
	rankIterations      int
	rankEpsilon         float64
	hubPercentile       float64
	authorityPercentile float64
	outputFormat        string
	verbose             bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "sitegraph [seed-url]",
	Short:   "Crawl a website and map its link structure.",
	Version: build.FullVersion(),
	Long: `sitegraph crawls a website breadth-first from a seed URL, honoring
robots.txt and per-host politeness delays, and builds a directed graph
of its internal link structure. Each page is scored with a random-walk
centrality measure and classified (hub, authority, leaf, isolated) so
the site's shape is readable at a glance.

The result is printed as JSON, Graphviz DOT, or a plain-text summary.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := InitConfigWithError(args)
		if err != nil {
			return err
		}

		log := logrus.New()
		log.SetOutput(os.Stderr)
		if verbose {
			log.SetLevel(logrus.DebugLevel)
		} else {
			log.SetLevel(logrus.WarnLevel)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sched := scheduler.NewScheduler(cfg, log)
		snapshot, err := sched.Execute(ctx)
		if err != nil {
			return err
		}

		return writeOutput(cmd.OutOrStdout(), outputFormat, snapshot)
	},
	SilenceUsage: true,
}

func writeOutput(w io.Writer, format string, snapshot export.Snapshot) error {
	switch format {
	case "json":
		return export.WriteJSON(w, snapshot)
	case "dot":
		return export.WriteDOT(w, snapshot)
	case "summary":
		return export.WriteSummary(w, snapshot)
	}
	return fmt.Errorf("unknown output format %q (want json, dot, or summary)", format)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().BoolVar(&sameDomain, "same-domain", true, "restrict the crawl to the seed URL's host")
	rootCmd.PersistentFlags().IntVar(&maxDepth, "max-depth", 2, "maximum link depth from seed URL")
	rootCmd.PersistentFlags().IntVar(&maxPages, "max-pages", 100, "maximum number of pages to fetch")
	rootCmd.PersistentFlags().IntVar(&concurrency, "concurrency", 4, "number of concurrent fetch workers")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "sitegraph/1.0", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().BoolVar(&respectRobots, "respect-robots", true, "honor robots.txt rules and crawl-delay")
	rootCmd.PersistentFlags().DurationVar(&robotsTimeout, "robots-timeout", 5*time.Second, "timeout for robots.txt retrieval")
	rootCmd.PersistentFlags().DurationVar(&requestTimeout, "request-timeout", 10*time.Second, "timeout for page requests")
	rootCmd.PersistentFlags().IntVar(&maxRedirects, "max-redirects", 5, "maximum redirect hops per fetch")
	rootCmd.PersistentFlags().Int64Var(&maxBodyBytes, "max-body-bytes", 2<<20, "response body size cap in bytes")
	rootCmd.PersistentFlags().IntVar(&maxAttempts, "max-attempts", 3, "fetch attempts per page before it is marked failed")
	rootCmd.PersistentFlags().DurationVar(&baseDelay, "base-delay", 500*time.Millisecond, "base delay between HTTP requests to the same host")
	rootCmd.PersistentFlags().DurationVar(&jitter, "jitter", 0, "random jitter added to base delay")
	rootCmd.PersistentFlags().Int64Var(&randomSeed, "random-seed", 0, "seed for random number generation (0 for current time)")
	rootCmd.PersistentFlags().Float64Var(&damping, "damping", 0.85, "damping factor for the centrality walk")
	rootCmd.PersistentFlags().IntVar(&rankIterations, "rank-iterations", 50, "iteration cap for the centrality walk")
	rootCmd.PersistentFlags().Float64Var(&rankEpsilon, "rank-epsilon", 1e-6, "convergence threshold for the centrality walk")
	rootCmd.PersistentFlags().Float64Var(&hubPercentile, "hub-percentile", 0.90, "out-degree percentile for the hub label")
	rootCmd.PersistentFlags().Float64Var(&authorityPercentile, "authority-percentile", 0.90, "in-degree percentile for the authority label")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "json", "output format: json, dot, or summary")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log crawl events to stderr")
}

// ResetFlags restores every flag variable to its registered default.
// Tests mutate flags through the setters below; without a reset the
// mutations would leak across test cases.
func ResetFlags() {
	cfgFile = ""
	sameDomain = true
	maxDepth = 2
	maxPages = 100
	concurrency = 4
	userAgent = "sitegraph/1.0"
	respectRobots = true
	robotsTimeout = 5 * time.Second
	requestTimeout = 10 * time.Second
	maxRedirects = 5
	maxBodyBytes = 2 << 20
	maxAttempts = 3
	baseDelay = 500 * time.Millisecond
	jitter = 0
	randomSeed = 0
	damping = 0.85
	rankIterations = 50
	rankEpsilon = 1e-6
	hubPercentile = 0.90
	authorityPercentile = 0.90
	outputFormat = "json"
	verbose = false
}

// Test helper functions to set flag values from tests
func SetConfigFileForTest(path string) {
	cfgFile = path
}

func SetMaxDepthForTest(depth int) {
	maxDepth = depth
}

func SetMaxPagesForTest(pages int) {
	maxPages = pages
}

func SetConcurrencyForTest(conc int) {
	concurrency = conc
}

func SetUserAgentForTest(agent string) {
	userAgent = agent
}

func SetRespectRobotsForTest(respect bool) {
	respectRobots = respect
}

func SetRandomSeedForTest(seed int64) {
	randomSeed = seed
}

func SetOutputFormatForTest(format string) {
	outputFormat = format
}

// InitConfigWithError builds the effective Config from the config file
// or from CLI flags. args holds the positional seed URL, required
// unless a config file supplies one.
func InitConfigWithError(args []string) (config.Config, error) {
	if cfgFile != "" {
		cfg, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return cfg, fmt.Errorf("error initializing config from file: %w", err)
		}
		return cfg, nil
	}

	if len(args) == 0 {
		return config.Config{}, fmt.Errorf("%w: a seed URL argument is required", config.ErrInvalidConfig)
	}
	seedURL, err := url.Parse(args[0])
	if err != nil {
		return config.Config{}, fmt.Errorf("%w: error parsing seed URL %s: %v", config.ErrInvalidConfig, args[0], err)
	}

	builder := config.WithDefault(*seedURL).
		WithSameDomain(sameDomain).
		WithMaxDepth(maxDepth).
		WithMaxPages(maxPages).
		WithConcurrency(concurrency).
		WithUserAgent(userAgent).
		WithRespectRobots(respectRobots).
		WithRobotsTimeout(robotsTimeout).
		WithRequestTimeout(requestTimeout).
		WithMaxRedirects(maxRedirects).
		WithMaxBodyBytes(maxBodyBytes).
		WithMaxAttempt(maxAttempts).
		WithBaseDelay(baseDelay).
		WithJitter(jitter).
		WithDamping(damping).
		WithRankIterations(rankIterations).
		WithRankEpsilon(rankEpsilon).
		WithHubPercentile(hubPercentile).
		WithAuthorityPercentile(authorityPercentile)

	// Zero keeps the time-based seed from the defaults.
	if randomSeed != 0 {
		builder = builder.WithRandomSeed(randomSeed)
	}

	return builder.Build()
}
