package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Seednode/feud/broadcast"
	"github.com/Seednode/feud/games/feud"
)

const (
	roleBoth    = "both"
	roleHost    = "host"
	roleDisplay = "display"

	channelMemory = "memory"
	channelNATS   = "nats"
)

type Config struct {
	bind           string
	port           int
	prefix         string
	profile        bool
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
	role           string
	dataDir        string
	channel        string
	channelName    string
	natsURL        string
	overlayDelay   time.Duration
	replaceTimeout time.Duration
	batchTimeout   time.Duration
	remoteRetries  int
	remoteBackoff  time.Duration
	geminiKey      string
	geminiModel    string
	geminiEndpoint string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	switch c.role {
	case roleBoth, roleHost, roleDisplay:
	default:
		return fmt.Errorf("invalid role (must be one of both, host, display): %q", c.role)
	}
	switch c.channel {
	case channelMemory:
		if c.role != roleBoth {
			return fmt.Errorf("--channel memory only links contexts in one process; use --channel nats with --role %s", c.role)
		}
	case channelNATS:
		if c.natsURL == "" {
			return errors.New("--nats-url is required with --channel nats")
		}
	default:
		return fmt.Errorf("invalid channel (must be one of memory, nats): %q", c.channel)
	}
	if c.role != roleBoth && c.dataDir == "" {
		return errors.New("--data-dir is required when host and display run as separate processes")
	}
	if c.overlayDelay <= 0 {
		return fmt.Errorf("invalid strike overlay delay (must be positive): %s", c.overlayDelay)
	}
	if c.replaceTimeout < 0 || c.batchTimeout < 0 || c.remoteBackoff < 0 {
		return errors.New("timeouts and backoff must not be negative")
	}
	if c.remoteRetries < 1 {
		return fmt.Errorf("invalid remote retries (must be at least 1): %d", c.remoteRetries)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// roles lists the contexts this process runs.
func (c *Config) roles() []string {
	if c.role == roleBoth {
		return []string{roleHost, roleDisplay}
	}
	return []string{c.role}
}

func newCmd(cfg *Config) *cobra.Command {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FEUD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "feud",
		Short:         "A survey-style party game board with a host console and a public display.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: FEUD_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: FEUD_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: FEUD_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: FEUD_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: FEUD_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: FEUD_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: FEUD_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: FEUD_VERSION)")
	fs.StringVar(&cfg.role, "role", roleBoth, "contexts to run: both, host, or display (env: FEUD_ROLE)")
	fs.StringVar(&cfg.dataDir, "data-dir", "", "directory for the saved game snapshot; empty keeps it in memory (env: FEUD_DATA_DIR)")
	fs.StringVar(&cfg.channel, "channel", channelMemory, "broadcast backend linking contexts: memory or nats (env: FEUD_CHANNEL)")
	fs.StringVar(&cfg.channelName, "channel-name", broadcast.ChannelName, "channel/subject name snapshots are broadcast on (env: FEUD_CHANNEL_NAME)")
	fs.StringVar(&cfg.natsURL, "nats-url", "nats://127.0.0.1:4222", "NATS server for --channel nats (env: FEUD_NATS_URL)")
	fs.DurationVar(&cfg.overlayDelay, "strike-overlay", feud.DefaultOverlayDelay, "time the strike overlay stays up after the last strike (env: FEUD_STRIKE_OVERLAY)")
	fs.DurationVar(&cfg.replaceTimeout, "replace-timeout", feud.DefaultReplaceTimeout, "upper bound for a generated replacement question (env: FEUD_REPLACE_TIMEOUT)")
	fs.DurationVar(&cfg.batchTimeout, "batch-timeout", 30*time.Second, "upper bound for a generated question batch before the fixed set is used (env: FEUD_BATCH_TIMEOUT)")
	fs.IntVar(&cfg.remoteRetries, "remote-retries", 3, "attempts per generated question request (env: FEUD_REMOTE_RETRIES)")
	fs.DurationVar(&cfg.remoteBackoff, "remote-backoff", time.Second, "pause between generated question attempts (env: FEUD_REMOTE_BACKOFF)")
	fs.StringVar(&cfg.geminiKey, "gemini-api-key", "", "API key enabling generated questions (env: FEUD_GEMINI_API_KEY)")
	fs.StringVar(&cfg.geminiModel, "gemini-model", feud.DefaultGeminiModel, "model used for generated questions (env: FEUD_GEMINI_MODEL)")
	fs.StringVar(&cfg.geminiEndpoint, "gemini-endpoint", feud.DefaultGeminiEndpoint, "base URL of the generateContent API (env: FEUD_GEMINI_ENDPOINT)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("feud v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
