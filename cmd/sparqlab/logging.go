package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"pkt.systems/pslog"
	"pkt.systems/sparqlab/internal/appconfig"
)

// withFileLogging tees structured logs into a rotating file when
// logging.file is set. The returned closer flushes the file.
func withFileLogging(ctx context.Context, cfg appconfig.LoggingConfig) (context.Context, io.Closer, error) {
	path := strings.TrimSpace(cfg.File)
	if path == "" {
		return ctx, nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ctx, nil, err
	}
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(io.MultiWriter(os.Stderr, rotator)),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeStructured, NoColor: true}),
	)
	logger.Info("log file enabled", "path", path, "max_size_mb", cfg.MaxSizeMB, "max_backups", cfg.MaxBackups)
	return pslog.ContextWithLogger(ctx, logger), rotator, nil
}
