package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streampay/config"
	"streampay/core/events"
	"streampay/core/types"
	"streampay/native/streampool"
	"streampay/observability"
	"streampay/observability/logging"
	"streampay/rpc"
	"streampay/storage"
)

func storageOpen(dataDir string) (storage.Database, error) {
	return storage.NewLevelDB(dataDir)
}

// slogEmitter forwards ledger events to the structured log and the metrics
// registry. It is the daemon's event sink; library embedders supply their own.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(event events.Event) {
	typed, ok := event.(interface{ Event() *types.Event })
	if !ok {
		e.logger.Info("ledger event", slog.String("type", event.EventType()))
		return
	}
	payload := typed.Event()
	if payload == nil {
		return
	}
	attrs := make([]any, 0, len(payload.Attributes)+1)
	attrs = append(attrs, slog.String("type", payload.Type))
	for key, value := range payload.Attributes {
		attrs = append(attrs, slog.String(key, value))
	}
	e.logger.Info("ledger event", attrs...)

	metrics := observability.Ledger()
	switch payload.Type {
	case streampool.EventTypeDeposit:
		metrics.RecordDeposit(payload.Attributes["asset"])
	case streampool.EventTypeWithdraw:
		metrics.RecordWithdrawal(payload.Attributes["asset"])
	case streampool.EventTypeSharesUpdated:
		metrics.RecordShareUpdate()
	}
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("STREAMPAY_ENV"))
	logger := logging.Setup("streampayd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	admins, err := cfg.AdminSet()
	if err != nil {
		logger.Error("Failed to parse admin addresses", slog.Any("error", err))
		os.Exit(1)
	}
	if len(admins) == 0 {
		logger.Warn("No admin addresses configured; share updates will be rejected")
	}

	db, err := storageOpen(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	engine := streampool.NewEngine()
	engine.SetState(streampool.NewKVLedgerState(db))
	engine.SetEmitter(slogEmitter{logger: logger})
	engine.SetAuthorizer(streampool.AuthorizerFunc(func(caller [20]byte) bool {
		_, ok := admins[caller]
		return ok
	}))
	// Custody stays external; the default collaborator records nothing.
	// Integrations replace it via Engine.SetTransfer before serving traffic.

	server := rpc.NewServer(engine)
	mux := http.NewServeMux()
	mux.Handle("/", server.Handler())
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("Starting streampay ledger",
		slog.String("rpc", cfg.RPCAddress),
		slog.String("dataDir", cfg.DataDir),
	)
	if err := http.ListenAndServe(cfg.RPCAddress, mux); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
