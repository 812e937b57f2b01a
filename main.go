package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"keybox/arn"
	"keybox/server"
	"keybox/services/kms"
)

func main() {
	addr := flag.String("addr", "localhost:4599", "Address to listen on")
	persistDir := flag.String("persistDir", "", "Directory to persist keys to. If empty, keys live in memory only.")
	logLevel := flag.String("logLevel", "info", "debug/info/warn/error")
	accountId := flag.String("accountId", "123456789012", "AWS account id used in generated ARNs")
	region := flag.String("region", "us-east-2", "Region used in generated ARNs")

	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("Bad logLevel", "err", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	arnGenerator := arn.Generator{
		AwsAccountId: *accountId,
		Region:       *region,
	}

	methodRegistry := make(map[string]http.HandlerFunc)

	k, err := kms.New(kms.Options{
		Logger:       logger,
		ArnGenerator: arnGenerator,
		PersistDir:   *persistDir,
	})
	if err != nil {
		logger.Error("Creating KMS service", "err", err)
		os.Exit(1)
	}
	k.RegisterHTTPHandlers(logger, methodRegistry)

	listener, err := listen(*addr)
	if err != nil {
		logger.Error("Listening", "addr", *addr, "err", err)
		os.Exit(1)
	}

	srv := server.NewWithHandlerChain(
		server.HandlerFuncFromRegistry(logger, methodRegistry),
	)

	logger.Info("Serving", "addr", *addr)
	if err := srv.Serve(listener); err != nil {
		logger.Error("Serving", "err", err)
		os.Exit(1)
	}
}
