package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/temoto/vfd/cmd/vfd/bench"
	"github.com/temoto/vfd/cmd/vfd/subcmd"
	"github.com/temoto/vfd/helpers/cli"
	"github.com/temoto/vfd/internal/service"
	"github.com/temoto/vfd/internal/settings"
	"github.com/temoto/vfd/internal/sink"
	"github.com/temoto/vfd/log2"
)

var modules = []subcmd.Mod{
	{Name: "service", Usage: "drive front panel display and indicators", Main: serviceMain},
	{Name: "cli", Usage: "push raw frames to service endpoint, see `help` inside", Main: cliMain},
}

func main() {
	log := log2.NewStderr(log2.LDebug)
	flagConfig := flag.String("config", "/storage/.config/vfd.hcl", "settings file path")
	flagLog := flag.String("log", "", "log level override: error|notice|info|debug")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] command\n\ncommands:\n%s\nflags:\n", os.Args[0], subcmd.Usage(modules))
		flag.PrintDefaults()
	}
	flag.Parse()

	if subcmd.SdNotify("start") {
		// under systemd, journal adds timestamps
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	mod, err := subcmd.Parse(flag.Arg(0), modules)
	if err != nil {
		flag.Usage()
		log.Fatal(err)
	}

	store := settings.NewStore(*flagConfig, log)
	if err := store.Reload(); err != nil {
		log.Error(errors.Annotate(err, "settings invalid, using defaults"))
	}
	levelName := store.Config().LogLevel
	if *flagLog != "" {
		levelName = *flagLog
	}
	level, ok := log2.ParseLevel(levelName)
	if !ok {
		log.Errorf("invalid log level=%s, using info", levelName)
	}
	log.SetLevel(level)

	if err := mod.Main(context.Background(), store, log); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
}

func serviceMain(ctx context.Context, store *settings.Store, log *log2.Log) error {
	c := store.Config()
	s := service.New(service.Options{
		Settings: store,
		Sink:     sink.NewPipe(c.Device.Pipe, log),
		Control: sink.NewControl(sink.ControlConfig{
			Brightness:     c.Device.Brightness,
			DisplayType:    c.Device.DisplayType,
			CharacterOrder: c.Device.CharacterOrder,
		}, log),
		Overrides: settings.NewOverrides(c.Persist.Root, log),
		Log:       log,
	})
	if err := s.Start(ctx); err != nil {
		// tele and overrides are optional, keep running
		log.Error(errors.Annotate(err, "service start"))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Infof("signal=%v, stopping", sig)
		subcmd.SdNotify(daemon.SdNotifyStopping)
		s.Stop()
	}()

	subcmd.SdNotify(daemon.SdNotifyReady)
	log.Infof("service running")
	s.Run(ctx)
	s.Alive.Wait()
	return nil
}

func cliMain(ctx context.Context, store *settings.Store, log *log2.Log) error {
	c := store.Config()
	b, err := bench.New(sink.NewPipe(c.Device.Pipe, log), c.Mode.PlaybackTime.Codepage, log)
	if err != nil {
		return errors.Trace(err)
	}
	return cli.MainLoop("vfd-cli", b.Executor(), bench.Completer())
}
