package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cfoust/sortie/pkg/config"
	"github.com/cfoust/sortie/pkg/game/score"
	"github.com/cfoust/sortie/pkg/stats"

	"github.com/alecthomas/kong"
	"github.com/repeale/fp-go/option"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var CLI struct {
	Version bool `help:"Print version information and exit." short:"v"`
	Debug   bool `help:"Whether to enable debug logging."`

	Serve struct {
		Configs []string `arg:"" optional:"" name:"configs" help:"Configuration files for the server." type:"file"`
	} `cmd:"" help:"Start the sortie server."`

	Config struct {
	} `cmd:"" help:"Write the default configuration to standard output."`

	Ratings struct {
		Mode  string `arg:"" help:"Game mode, by class name or short name."`
		DB    string `help:"Path to the stats database." default:"stats.db"`
		Limit int    `help:"How many players to list." default:"20"`
	} `cmd:"" help:"Print the best rated players for a mode."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

func ratingsCommand() error {
	mode := score.ParseMode(CLI.Ratings.Mode)
	if opt.IsNone(mode) {
		return fmt.Errorf("unknown mode %q", CLI.Ratings.Mode)
	}

	db, err := stats.InitDB(CLI.Ratings.DB)
	if err != nil {
		return err
	}

	ratings, err := stats.TopRatings(context.Background(), db, mode.Value.Info().Name, CLI.Ratings.Limit)
	if err != nil {
		return err
	}

	for i, rating := range ratings {
		fmt.Printf(
			"%3d. %-16s %5d  (%d-%d-%d)\n",
			i+1,
			rating.Name,
			rating.Value,
			rating.Wins,
			rating.Draws,
			rating.Losses,
		)
	}
	return nil
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if len(os.Args) == 1 {
		err := serve([]string{})
		if err != nil {
			writeError(err)
		}
		return
	}

	ctx := kong.Parse(&CLI,
		kong.Name("sortie"),
		kong.Description("an authoritative arena game server"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}))

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	if CLI.Version {
		fmt.Printf("sortie %s (commit %s)\n", Version, GitCommit)
		fmt.Printf("built %s\n", BuildTime)
		os.Exit(0)
	}

	switch ctx.Command() {
	case "serve":
		fallthrough
	case "serve <configs>":
		err := serve(CLI.Serve.Configs)
		if err != nil {
			writeError(err)
		}
	case "config":
		os.Stdout.Write(config.DEFAULT)
	case "ratings <mode>":
		err := ratingsCommand()
		if err != nil {
			writeError(err)
		}
	}
}
