package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/rl1809/warehouse-console/internal/adapter/gateway"
	"github.com/rl1809/warehouse-console/internal/config"
	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/logging"
	"github.com/rl1809/warehouse-console/internal/port"
	"github.com/rl1809/warehouse-console/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdin, os.Stdout).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "wmsctl:", domain.Message(err))
		stop()
		os.Exit(1)
	}
}

func newApp(in io.Reader, out io.Writer) *cli.App {
	e := &env{in: in, out: out}
	return &cli.App{
		Name:  "wmsctl",
		Usage: "warehouse operations console",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Usage: "inventory API base URL", EnvVars: []string{"WMSCTL_API_URL"}},
			&cli.StringFlag{Name: "config", Usage: "config file (TOML)"},
			&cli.StringFlag{Name: "log-level", Usage: "log level"},
		},
		Reader:    in,
		Writer:    out,
		ErrWriter: out,
		Before:    e.setup,
		After:     e.teardown,
		Action:    e.runTUI(tui.ViewDashboard),
		Commands: []*cli.Command{
			{
				Name:   "tui",
				Usage:  "open the interactive console",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "view", Usage: "start view: dashboard, products, orders, tasks or new", Value: "dashboard"}},
				Action: e.tuiAction,
			},
			dashboardCommand(e),
			productsCommand(e),
			ordersCommand(e),
			tasksCommand(e),
		},
	}
}

// env is what every command shares. Everything but the streams is filled in by setup.
type env struct {
	in  io.Reader
	out io.Writer

	cfg     config.Console
	log     *logrus.Logger
	gw      port.Gateway
	logFile io.Closer
}

func (e *env) setup(c *cli.Context) error {
	cfg, err := config.LoadFile(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("api-url") {
		cfg.API.BaseURL = c.String("api-url")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}

	// the terminal belongs to the console, so logs only ever go to the file
	e.cfg = cfg
	var logOut io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return err
		}
		e.logFile, logOut = f, f
	}
	e.log, err = logging.New(logging.Options{Level: cfg.Log.Level, Format: logging.FormatText, Output: logOut})
	if err != nil {
		return err
	}

	client, err := gateway.NewClient(cfg.API.BaseURL,
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithLogger(e.log),
	)
	if err != nil {
		return err
	}
	e.gw = client
	e.log.WithField("api", cfg.API.BaseURL).Debug("wmsctl started")
	return nil
}

func (e *env) teardown(*cli.Context) error {
	if e.logFile == nil {
		return nil
	}
	return e.logFile.Close()
}

var startViews = map[string]tui.View{
	"dashboard": tui.ViewDashboard,
	"products":  tui.ViewProducts,
	"orders":    tui.ViewOrders,
	"tasks":     tui.ViewTasks,
	"new":       tui.ViewCompose,
}

func (e *env) tuiAction(c *cli.Context) error {
	view, ok := startViews[c.String("view")]
	if !ok {
		return fmt.Errorf("%w: unknown view %q", domain.ErrValidation, c.String("view"))
	}
	return e.runTUI(view)(c)
}

func (e *env) runTUI(start tui.View) cli.ActionFunc {
	return func(c *cli.Context) error {
		return tui.Run(c.Context, tui.Options{Gateway: e.gw, Config: e.cfg, Log: e.log, Start: start})
	}
}
