// Command cinit is the container init hand-off binary. The runtime
// bind mounts it into the container rootfs and sets it as the init
// command; it recovers the staged command line and environment,
// signals readiness over the sync fifo and execs the container
// process. It is single-shot and fail-fast: any error before exec
// terminates the process with status 1.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/lxcontainer/go-cinit/spawn"
)

var version string

func main() {
	app := &cli.App{
		Name:      "cinit",
		Usage:     "hand-off init process for container runtimes",
		ArgsUsage: "<containerID>",
		Version:   version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Usage:   "staging directory containing syncfifo, cmdline.txt and environ",
				EnvVars: []string{"CINIT_ROOT"},
				Value:   spawn.DefaultRoot,
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "set log level (trace|debug|info|warn|error)",
				EnvVars: []string{"CINIT_LOG_LEVEL"},
				Value:   "warn",
			},
		},
		HideHelpCommand: true,
		Action:          run,
	}

	// The help text goes to the runtime log on failure, keep it short.
	app.OnUsageError = func(ctx *cli.Context, err error, isSubcommand bool) error {
		fmt.Fprintf(os.Stderr, "usage error %s: %s\n", err, os.Args)
		return err
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "cinit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.Errorf("invalid number of arguments (expected 1 was %d) usage: %s <containerID>",
			ctx.NArg(), ctx.App.Name)
	}
	id := ctx.Args().First()

	level, err := zerolog.ParseLevel(ctx.String("log-level"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Str("cid", id).Logger()

	s := &spawn.Spawner{
		Root: ctx.String("root"),
		Log:  log,
	}
	// Run only returns on failure; on success the process image is
	// replaced by the container process.
	return s.Run(context.Background(), id)
}
