package cmd

import (
	"fmt"
	u "net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/tanq16/hauler/internal/output"
	"github.com/tanq16/hauler/internal/scheduler"
	"github.com/tanq16/hauler/internal/utils"
)

var (
	outputPath    string
	connections   int
	retries       int
	timeout       time.Duration
	kaTimeout     time.Duration
	userAgent     string
	proxyURL      string
	proxyUsername string
	proxyPassword string
	debug         bool
	urlListFile   string
	numWorkers    int
	headers       []string
)

var HaulerVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "hauler",
	Short:   "Hauler is a fast, resumable segmented download manager",
	Version: HaulerVersion,
	Args:    cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		utils.InitLogger(debug)
		if len(args) == 0 && urlListFile == "" {
			output.PrintError("No URL or URL list provided")
			os.Exit(1)
		}
		if urlListFile != "" && len(args) > 0 {
			output.PrintError("Cannot specify url argument and --urllist together, choose one")
			os.Exit(1)
		}
		if userAgent == "randomize" {
			userAgent = utils.GetRandomUserAgent()
		}
		// Check if proxy URL contains auth
		parsedProxy, err := u.Parse(proxyURL)
		if err == nil && parsedProxy.User != nil && proxyUsername == "" {
			proxyUsername = parsedProxy.User.Username()
			if password, set := parsedProxy.User.Password(); set {
				proxyPassword = password
			}
			parsedProxy.User = nil
			proxyURL = parsedProxy.String()
		}
		httpClientConfig := utils.HTTPClientConfig{
			Timeout:       timeout,
			KATimeout:     kaTimeout,
			ProxyURL:      proxyURL,
			ProxyUsername: proxyUsername,
			ProxyPassword: proxyPassword,
			UserAgent:     userAgent,
			Headers:       utils.ParseHeaderArgs(headers),
		}

		var entries []utils.TransferEntry
		if len(args) > 0 {
			url := args[0]
			if _, err := u.Parse(url); err != nil {
				output.PrintError("Invalid URL format")
				os.Exit(1)
			}
			entries = []utils.TransferEntry{{URL: url, OutputPath: outputPath, Type: utils.DetermineJobType(url)}}
			numWorkers = 1
		} else {
			entries, err = utils.ReadTransferList(urlListFile)
			if err != nil {
				output.PrintError("Failed to read URL list file")
				os.Exit(1)
			}
		}

		connectionsPerLink := connections
		maxConnections := 64
		if numWorkers*connectionsPerLink > maxConnections {
			connectionsPerLink = max(maxConnections/numWorkers, 1)
		}
		jobs := make([]utils.Job, 0, len(entries))
		for _, entry := range entries {
			jobType := entry.Type
			if jobType == "" {
				jobType = utils.DetermineJobType(entry.URL)
			}
			jobs = append(jobs, utils.Job{
				ID:               uuid.New().String(),
				JobType:          jobType,
				URL:              entry.URL,
				OutputPath:       entry.OutputPath,
				Connections:      connectionsPerLink,
				Retries:          retries,
				Metadata:         map[string]any{},
				HTTPClientConfig: httpClientConfig,
			})
		}
		if err := scheduler.Run(jobs, numWorkers); err != nil {
			fmt.Println()
			output.PrintError("Encountered failed operation(s)")
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (Hauler infers file name if not provided)")
	rootCmd.Flags().StringVarP(&urlListFile, "urllist", "l", "", "Path to YAML file containing URLs and output paths")
	rootCmd.Flags().IntVarP(&numWorkers, "workers", "w", 1, "Number of links to download in parallel")
	rootCmd.Flags().IntVarP(&connections, "connections", "c", 8, "Number of connections per download (above 5 enables high-thread-mode)")
	rootCmd.Flags().IntVarP(&retries, "retries", "r", 3, "Per-chunk retry budget for failed range requests")
	rootCmd.Flags().DurationVarP(&timeout, "timeout", "t", 3*time.Minute, "Connection timeout (eg. 5s, 10m)")
	rootCmd.Flags().DurationVarP(&kaTimeout, "keep-alive-timeout", "k", 90*time.Second, "Keep-alive timeout for client (eg. 10s, 1m, 80s)")
	rootCmd.Flags().StringVarP(&userAgent, "user-agent", "a", utils.ToolUserAgent, "User agent ('randomize' picks a browser UA)")
	rootCmd.Flags().StringVarP(&proxyURL, "proxy", "p", "", "HTTP/HTTPS proxy URL (e.g., proxy.example.com:8080)")
	rootCmd.Flags().StringVar(&proxyUsername, "proxy-username", "", "Proxy username (if not provided in proxy URL)")
	rootCmd.Flags().StringVar(&proxyPassword, "proxy-password", "", "Proxy password (if not provided in proxy URL)")
	rootCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Custom headers (like 'Authorization: Basic dXNlcjpwYXNz'); can be specified multiple times")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
