package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"blechat/pkg/bus"
	"blechat/pkg/chat"
	"blechat/pkg/config"
	"blechat/pkg/memkv"
	"blechat/pkg/nodes"
	"blechat/pkg/observability"
	"blechat/pkg/protocol/codec"
	"blechat/pkg/transport/ble"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	address := strings.TrimSpace(opts.Address)
	if address == "" && !opts.ScanOnly {
		fmt.Fprintln(os.Stderr, "usage: blechat [flags] <device-address>")
		return 1
	}

	cod, err := codec.ForName(cfg.Chat.Codec)
	if err != nil {
		zap.L().Error("bad codec config", zap.Error(err))
		return 1
	}

	scanWindow := cfg.Chat.ScanWindow()
	if opts.ScanTimeout > 0 {
		scanWindow = opts.ScanTimeout
	}

	b := bus.New()
	tr, err := ble.New(b, cod, ble.Options{
		ScanWindow: scanWindow,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error initializing transport:", err)
		return 1
	}

	// node registry: sender ids render with names once the peer announces them
	kv := memkv.New(memkv.Options{})
	defer kv.Close()
	reg := nodes.NewStore(kv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.ScanOnly {
		resolver := chat.NewResolver(tr, os.Stdout, reg)
		if _, err := resolver.ListDevices(ctx); err != nil {
			fmt.Fprintln(os.Stderr, "scan failed:", err)
			return 1
		}
		return 0
	}

	sess, err := chat.NewSession(chat.Options{
		Target:        address,
		Prompt:        cfg.Chat.Prompt,
		PostSendYield: cfg.Chat.PostSendYield(),
		Channel:       chat.DefaultChannel,
		In:            os.Stdin,
		Out:           os.Stdout,
		Bus:           b,
		Nodes:         reg,
		Scanner:       tr,
		NewClient:     tr.NewClient,
		Logger:        logger,
	})
	if err != nil {
		zap.L().Error("session setup failed", zap.Error(err))
		return 1
	}

	fmt.Printf("%s %s\n", cfg.AppName, version)
	fmt.Println(strings.Repeat("-", len(cfg.AppName)+len(version)+1))

	if err := sess.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		zap.L().Error("session ended with error", zap.Error(err))
		return 1
	}
	return 0
}
