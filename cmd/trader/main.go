package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guyghost/deribit-trader/internal/config"
	"github.com/guyghost/deribit-trader/internal/deribit"
	"github.com/guyghost/deribit-trader/internal/eventlog"
	"github.com/guyghost/deribit-trader/internal/logger"
	"github.com/guyghost/deribit-trader/internal/telemetry"
	"github.com/guyghost/deribit-trader/internal/trader"
	"github.com/guyghost/deribit-trader/internal/tui"
	"github.com/guyghost/deribit-trader/internal/wsclient"
	"github.com/joho/godotenv"
)

var headless = flag.Bool("headless", false, "Run without the terminal status view")

func main() {
	godotenv.Load()
	flag.Parse()

	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.DefaultConfig())

	eventFile, err := os.OpenFile(cfg.EventLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer eventFile.Close()
	events := eventlog.New(eventFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	metricsServer := telemetry.NewServer(cfg.MetricsAddr)
	if err := metricsServer.Start(); err != nil {
		return err
	}
	defer metricsServer.Shutdown(context.Background())

	tc := trader.Config{
		Instrument:      cfg.Instrument,
		BookChannel:     cfg.BookChannel,
		SpreadThreshold: cfg.SpreadThreshold,
		Edge:            cfg.Edge,
		Size:            cfg.Size,
		StaleTimeout:    cfg.StaleTimeout,
		TickInterval:    cfg.TickInterval,
	}

	transport := wsclient.New()
	client := deribit.New(transport, cfg.Instrument, nil, events, log)
	trd := trader.New(client, tc, events, log)
	client.SetSink(trd)

	if err := client.Connect(ctx, cfg.ExchangeURL, cfg.InsecureSkipVerify); err != nil {
		return err
	}
	defer client.Close()

	// Authenticate only reports that the request was handed to the
	// transport; the auth_success/auth_failed outcome arrives later on
	// the event log, read asynchronously by onMessage.
	client.Authenticate(cfg.ClientID, cfg.ClientSecret)

	trd.Start()
	defer trd.Stop()

	metricsServer.SetReady(true)

	if *headless {
		<-ctx.Done()
		log.Transport(map[string]any{"event": "shutdown"})
		return nil
	}

	model := tui.NewModel(client, trd, cfg.Instrument)
	program := tea.NewProgram(model, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		program.Quit()
	}()
	_, err = program.Run()
	return err
}
