// Command subnetd runs a single-process subnet node: the in-memory
// log and settlement ledger, the token example contract, and the
// gRPC facade.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"

	"go.uber.org/zap"

	"github.com/blockberries/subnet/example/token"
	subnetgrpc "github.com/blockberries/subnet/grpc"
	"github.com/blockberries/subnet/local"
	"github.com/blockberries/subnet/node"
	"github.com/blockberries/subnet/wallet"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := node.Load(configPath)
	if err != nil {
		return err
	}

	var w *wallet.Wallet
	if seed := os.Getenv("SUBNET_SEED"); seed != "" {
		w, err = wallet.FromSeed(seed)
	} else {
		w, err = wallet.New()
	}
	if err != nil {
		return err
	}

	c, err := token.New()
	if err != nil {
		return err
	}

	log := local.NewMemoryLog(w.PublicKey())
	ledger := local.NewMemoryLedger(cfg.LedgerID)
	n, err := node.New(cfg, log, ledger, w, c, logger)
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}

	gs := grpc.NewServer()
	subnetgrpc.NewGRPCServer(n).Register(gs)

	n.Start()
	logger.Info("subnet node up",
		zap.String("subnet", n.Bootstrap()),
		zap.String("listen", cfg.ListenAddr))

	errCh := make(chan error, 1)
	go func() { errCh <- gs.Serve(lis) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		n.Stop()
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		gs.GracefulStop()
		n.Stop()
		return nil
	}
}
