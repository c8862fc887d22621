package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/darkroom/internal/bot"
	"github.com/iamwavecut/darkroom/internal/config"
	"github.com/iamwavecut/darkroom/internal/db"
	"github.com/iamwavecut/darkroom/internal/db/sqlite"
	"github.com/iamwavecut/darkroom/internal/infra"
	"github.com/iamwavecut/darkroom/internal/lifecycle"
	"github.com/iamwavecut/darkroom/internal/moderation"
	"github.com/iamwavecut/darkroom/internal/observability"
)

const shutdownTimeout = 10 * time.Second

func main() {
	app := &cli.App{
		Name:  "darkroom",
		Usage: "chat moderation bot that puts flooders and swearers into the dark room",
		Before: func(*cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return errors.WithMessage(err, "load config")
			}
			log.SetFormatter(&config.NbFormatter{})
			log.SetOutput(os.Stdout)
			log.SetLevel(log.Level(cfg.LogLevel))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "poll telegram and moderate incoming messages",
				Action: runBot,
			},
			{
				Name:   "list",
				Usage:  "print users currently in the dark room",
				Action: listSuspensions,
			},
			{
				Name:      "release",
				Usage:     "release one user by name or alias",
				ArgsUsage: "<name>",
				Action:    releaseOne,
			},
			{
				Name:   "release-all",
				Usage:  "release every suspended user",
				Action: releaseAll,
			},
		},
		DefaultCommand: "run",
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatalln("darkroom failed")
	}
}

func openStore(ctx context.Context, cfg config.Config) (db.Client, error) {
	dir, err := infra.GetWorkDir(cfg.DotPath)
	if err != nil {
		return nil, errors.WithMessage(err, "resolve work dir")
	}
	store, err := sqlite.NewSQLiteClient(ctx, dir, cfg.DBName)
	if err != nil {
		return nil, errors.WithMessage(err, "open store")
	}
	return store, nil
}

func runBot(c *cli.Context) error {
	cfg := config.Get()
	if cfg.TelegramAPIToken == "" {
		return errors.New("DARKROOM_TOKEN is not set")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		_ = store.Close()
		return errors.WithMessage(err, "initialize bot api")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}

	observability.Register()
	moderator := moderation.NewModerator(store, cfg.Moderation, moderation.WithLanguage(cfg.DefaultLanguage))
	poller := bot.NewPoller(botAPI, moderator)

	runtime := lifecycle.NewRuntime()
	runtime.Register("moderator", moderator)
	if cfg.MetricsAddr != "" {
		runtime.Register("metrics", observability.NewServer(cfg.MetricsAddr))
	}
	runtime.Register("poller", poller)

	if err := runtime.Start(ctx); err != nil {
		return err
	}
	log.WithField("bot", botAPI.Self.UserName).Info("darkroom started")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case err := <-poller.Failed():
			return errors.WithMessage(err, "poller")
		}
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case _, ok := <-infra.MonitorExecutable(gctx):
			if ok {
				log.Warn("executable file was modified")
				return errors.New("executable replaced")
			}
			<-gctx.Done()
			return nil
		}
	})
	waitErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := runtime.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	log.Info("darkroom stopped")
	return waitErr
}

func listSuspensions(c *cli.Context) error {
	store, err := openStore(c.Context, config.Get())
	if err != nil {
		return err
	}
	defer store.Close()

	suspensions, err := store.ListSuspensions(c.Context)
	if err != nil {
		return err
	}
	if len(suspensions) == 0 {
		fmt.Fprintln(c.App.Writer, "dark room is empty")
		return nil
	}

	now := time.Now()
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "USER ID\tNAME\tGROUP\tREASON\tRELEASE AT\tEXPIRED")
	for _, s := range suspensions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
			s.UserID, s.UserName, s.GroupName.String, s.Reason,
			s.ReleaseTime().Format(time.RFC3339), s.Expired(now))
	}
	return w.Flush()
}

func releaseOne(c *cli.Context) error {
	name := strings.TrimPrefix(strings.TrimSpace(c.Args().First()), "@")
	if name == "" {
		return cli.Exit("release needs a user name", 2)
	}
	store, err := openStore(c.Context, config.Get())
	if err != nil {
		return err
	}
	defer store.Close()

	userID, err := store.FindSuspendedUserID(c.Context, name)
	if err != nil {
		return err
	}
	if userID == "" {
		return cli.Exit(fmt.Sprintf("%s is not in the dark room", name), 1)
	}
	if _, err := store.DeleteSuspension(c.Context, userID); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "released %s\n", name)
	return nil
}

func releaseAll(c *cli.Context) error {
	store, err := openStore(c.Context, config.Get())
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.DeleteAllSuspensions(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "released %d users\n", n)
	return nil
}
