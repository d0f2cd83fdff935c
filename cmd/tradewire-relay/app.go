package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tradewire/pkg/config"
	"tradewire/pkg/observability"
	"tradewire/pkg/protocol"
	"tradewire/pkg/relay"
	"tradewire/pkg/transport/link"
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

	zap.L().Info("tradewire-relay started", zap.String("app", cfg.AppName))
	zap.L().Info("effective configuration", zap.Any("config", cfg))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var relays []*relay.Relay
	for _, rc := range cfg.Relays {
		rcfg, err := relayConfig(rc, cfg.DataDir)
		if err != nil {
			zap.L().Error("bad relay config", zap.String("domain", rc.Domain), zap.Error(err))
			return 1
		}
		r, err := relay.New(rcfg)
		if err != nil {
			zap.L().Error("failed to create relay", zap.String("domain", rc.Domain), zap.Error(err))
			return 1
		}
		relays = append(relays, r)
		for _, addr := range rc.Listen {
			ln, err := link.Listen(ctx, addr)
			if err != nil {
				zap.L().Error("failed to listen", zap.String("addr", addr), zap.Error(err))
				return 1
			}
			go func() {
				<-ctx.Done()
				_ = ln.Close()
			}()
			go func() {
				if err := r.Serve(ctx, ln); err != nil {
					zap.L().Error("relay stopped", zap.String("domain", r.Domain().String()), zap.Error(err))
				}
			}()
		}
	}

	<-ctx.Done()
	zap.L().Info("shutting down")
	for _, r := range relays {
		_ = r.Close()
	}
	return 0
}

// relayConfig resolves a config entry against its domain defaults.
func relayConfig(rc config.RelayConfig, dataDir string) (relay.Config, error) {
	var domain protocol.Domain
	switch rc.Domain {
	case "market_data":
		domain = protocol.DomainMarketData
	case "signal":
		domain = protocol.DomainSignal
	case "execution":
		domain = protocol.DomainExecution
	}
	out := relay.DefaultsForDomain(domain)

	if rc.Policy != "" {
		p, err := relay.ParsePolicy(rc.Policy)
		if err != nil {
			return out, err
		}
		out.Policy = p
	}
	if rc.Backpressure != "" {
		b, err := relay.ParseBackpressure(rc.Backpressure)
		if err != nil {
			return out, err
		}
		out.Backpressure = b
	}
	if rc.QueueSize > 0 {
		out.QueueSize = rc.QueueSize
	}
	if rc.BlockTimeoutMS > 0 {
		out.BlockTimeout = time.Duration(rc.BlockTimeoutMS) * time.Millisecond
	}
	if rc.TopicStrategy != "" {
		s, err := relay.ParseTopicStrategy(rc.TopicStrategy)
		if err != nil {
			return out, err
		}
		out.Strategy = s
	}
	if rc.DefaultTopic != "" {
		out.DefaultTopic = rc.DefaultTopic
	}
	if rc.Audit.Path != "" {
		out.AuditPath = rc.Audit.Path
	}
	if out.AuditPath != "" && !filepath.IsAbs(out.AuditPath) {
		out.AuditPath = filepath.Join(dataDir, out.AuditPath)
	}
	if rc.Audit.MaxSizeMB > 0 {
		out.AuditMaxSizeMB = rc.Audit.MaxSizeMB
	}
	if rc.Audit.MaxBackups > 0 {
		out.AuditMaxBackups = rc.Audit.MaxBackups
	}
	return out, nil
}
