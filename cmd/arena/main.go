package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type settings struct {
	Options      string
	ReplayOut    string
	Repeat       string
	Data         string
	DisableDB    bool
	IndexBackend string
	MetricsAddr  string
	Background   bool
	TPS          float64
	List         int
	LogLevel     string
}

func main() {
	fs := flag.NewFlagSet("arena", flag.ExitOnError)
	fs.String("options", "", "run options yaml/json (seed, game, players)")
	fs.String("replay_out", "", "replay log path (default: <data>/runs/<run_id>/replay.jsonl.zst for live runs)")
	fs.String("repeat", "", "replay log to repeat instead of running the game rules")
	fs.String("data", "./data", "runtime data directory")
	fs.Bool("disable_db", false, "disable the run index")
	fs.String("index_backend", "sqlite", "run index backend: sqlite|none")
	fs.String("metrics_addr", "", "serve prometheus metrics on this address (empty to disable)")
	fs.Bool("background", false, "drive the run from the background scheduler, paced by -tps")
	fs.Float64("tps", 10, "ticks per second in -background mode")
	fs.Int("list", 0, "print the N most recent runs from the index and exit")
	fs.String("log_level", "info", "debug|info|warn|error")
	_ = fs.Parse(os.Args[1:])

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("could not load .env file", "err", err)
	}
	config := viper.New()
	config.SetEnvPrefix("ARENA")
	config.AutomaticEnv()
	s := loadSettings(fs, config)

	level, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "arena",
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, s); err != nil {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}
}

// loadSettings gives explicitly passed flags precedence over ARENA_*
// environment variables, which in turn override flag defaults.
func loadSettings(fs *flag.FlagSet, config *viper.Viper) settings {
	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	fs.VisitAll(func(f *flag.Flag) {
		if explicit[f.Name] {
			config.Set(f.Name, f.Value.String())
		} else {
			config.SetDefault(f.Name, f.Value.String())
		}
	})
	return settings{
		Options:      config.GetString("options"),
		ReplayOut:    config.GetString("replay_out"),
		Repeat:       config.GetString("repeat"),
		Data:         config.GetString("data"),
		DisableDB:    config.GetBool("disable_db"),
		IndexBackend: config.GetString("index_backend"),
		MetricsAddr:  config.GetString("metrics_addr"),
		Background:   config.GetBool("background"),
		TPS:          config.GetFloat64("tps"),
		List:         config.GetInt("list"),
		LogLevel:     config.GetString("log_level"),
	}
}
