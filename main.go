// Command playq is a terminal music player built around a persistent play
// queue.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/playq/internal/app"
	"github.com/llehouerou/playq/internal/config"
	"github.com/llehouerou/playq/internal/errmsg"
	"github.com/llehouerou/playq/internal/logger"
	"github.com/llehouerou/playq/internal/player"
)

var (
	cli        = kingpin.New("playq", "Terminal music player with a persistent play queue")
	configFile = cli.Flag("config", "Config file (overrides the default search path)").Short('c').Envar("PLAYQ_CONFIG").String()
	logLevel   = cli.Flag("log-level", "Log level (debug, info, warn, error)").String()

	// queue inspection
	listCmd = cli.Command("list", "Show the queue").Alias("ls")

	// queue editing
	addCmd  = cli.Command("add", "Add library tracks to the queue")
	addMode = addCmd.Flag("mode", "Where to insert: last, next or now").Short('m').Default("last").Enum("last", "next", "now")
	addIDs  = addCmd.Arg("ids", "Library track IDs").Required().Int64List()

	moveCmd  = cli.Command("move", "Move a queue entry")
	moveFrom = moveCmd.Arg("from", "Entry number").Required().Int()
	moveTo   = moveCmd.Arg("to", "Destination entry number").Required().Int()

	removeCmd   = cli.Command("remove", "Remove a range of queue entries").Alias("rm")
	removeFirst = removeCmd.Arg("first", "First entry number").Required().Int()
	removeLast  = removeCmd.Arg("last", "Last entry number (defaults to first)").Int()

	interleaveCmd      = cli.Command("interleave", "Weave library tracks into the queue after the playing entry")
	interleaveExisting = interleaveCmd.Flag("existing", "Existing entries per run").Default("1").Int()
	interleaveNew      = interleaveCmd.Flag("new", "New tracks per run").Default("1").Int()
	interleaveIDs      = interleaveCmd.Arg("ids", "Library track IDs").Required().Int64List()

	shuffleCmd = cli.Command("shuffle", "Shuffle the queue")
	dedupCmd   = cli.Command("dedup", "Remove duplicate entries, keeping the first")
	clearCmd   = cli.Command("clear", "Empty the queue")

	repeatCmd  = cli.Command("repeat", "Show or set the repeat mode")
	repeatMode = repeatCmd.Arg("mode", "none, all, current, stop-after-current or cycle").String()

	jumpCmd   = cli.Command("jump", "Set the playing entry")
	jumpIndex = jumpCmd.Arg("entry", "Entry number").Required().Int()

	requeryCmd = cli.Command("requery", "Drop queue entries whose tracks left the library")

	// playback
	playCmd = cli.Command("play", "Play the queue interactively")
	playIDs = playCmd.Arg("ids", "Replace the queue with these library track IDs").Int64List()

	// library
	libraryCmd    = cli.Command("library", "Manage the track library").Alias("lib")
	importCmd     = libraryCmd.Command("import", "Import music files or directories")
	importPaths   = importCmd.Arg("paths", "Files or directories").Required().ExistingFilesOrDirs()
	libRemoveCmd  = libraryCmd.Command("remove", "Remove files from the library")
	libRemovePath = libRemoveCmd.Arg("paths", "Files").Required().Strings()
)

// command runs against an opened App. Live commands drive the audio device;
// the rest edit the saved queue with a detached engine.
type command struct {
	op   errmsg.Op
	live bool
	run  func(ctx context.Context, a *app.App, cfg *config.Config) error
}

func commands() map[string]command {
	return map[string]command{
		listCmd.FullCommand():       {op: errmsg.OpQueueLoad, run: runList},
		addCmd.FullCommand():        {op: errmsg.OpQueueAdd, run: runAdd},
		moveCmd.FullCommand():       {op: errmsg.OpQueueMove, run: runMove},
		removeCmd.FullCommand():     {op: errmsg.OpQueueRemove, run: runRemove},
		interleaveCmd.FullCommand(): {op: errmsg.OpQueueInterleave, run: runInterleave},
		shuffleCmd.FullCommand():    {op: errmsg.OpQueueShuffle, run: runShuffle},
		dedupCmd.FullCommand():      {op: errmsg.OpQueueDedup, run: runDedup},
		clearCmd.FullCommand():      {op: errmsg.OpQueueClear, run: runClear},
		repeatCmd.FullCommand():     {op: errmsg.OpQueueRepeat, run: runRepeat},
		jumpCmd.FullCommand():       {op: errmsg.OpPlaybackJump, run: runJump},
		requeryCmd.FullCommand():    {op: errmsg.OpQueueRequery, run: runRequery},
		playCmd.FullCommand():       {op: errmsg.OpPlaybackStart, live: true, run: runPlay},
		importCmd.FullCommand():     {op: errmsg.OpLibraryImport, run: runImport},
		libRemoveCmd.FullCommand():  {op: errmsg.OpLibraryRemove, run: runLibraryRemove},
	}
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	name := kingpin.MustParse(cli.Parse(os.Args[1:]))

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpConfigLoad, err))
		os.Exit(1)
	}

	logCloser, err := logger.Init(logger.Config{
		Level:  cfg.Log.Level,
		Output: cfg.Log.Output,
		File:   cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, name, cfg)
	stop()
	_ = logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	return cfg, nil
}

func run(ctx context.Context, name string, cfg *config.Config) error {
	cmd, ok := commands()[name]
	if !ok {
		return errors.Newf("unknown command %q", name)
	}

	var engine player.Interface
	openCfg := *cfg
	if cmd.live {
		engine = player.New()
	} else {
		// One-shot edits only place the cursor; nothing should start.
		openCfg.Playback.Autoplay = false
	}

	a, err := app.Open(ctx, &openCfg, engine)
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpInitialize, err))
		return err
	}

	runErr := cmd.run(ctx, a, cfg)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(cmd.op, runErr))
		zlog.Debug().Err(runErr).Str("command", name).Msgf("%+v", runErr)
	}
	if err := a.Close(); err != nil {
		zlog.Error().Err(err).Msg("shutdown")
		if runErr == nil {
			fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpQueueSave, err))
			return err
		}
	}
	return runErr
}
