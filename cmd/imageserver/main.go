package main

import (
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/halstead/image-delivery-backend/cmd/flags"
	"github.com/halstead/image-delivery-backend/httpserver"
	"github.com/halstead/image-delivery-backend/interfaces"
	"github.com/halstead/image-delivery-backend/registry"
	"github.com/halstead/image-delivery-backend/storage"
)

var flagListenAddr = &cli.StringFlag{
	Name:  "listen-addr",
	Value: "127.0.0.1:8080",
	Usage: "address to listen on for the image API",
}
var flagImageManifest = &cli.StringFlag{
	Name:  "image-manifest",
	Usage: "JSON manifest file listing served images and their storage locations",
}
var flagIndexURL = &cli.StringFlag{
	Name:  "index-url",
	Usage: "base URL of a remote image metadata service, used instead of a local manifest",
}

func main() {
	app := &cli.App{
		Name:  "image-server",
		Usage: "Serve disk images from scheme-dispatched storage backends",
		Flags: append([]cli.Flag{
			flagListenAddr,
			flagImageManifest,
			flagIndexURL,
			flags.FilesystemRootFlag,
		}, flags.CommonFlags...),
		Action: runServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runServer(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)

	index, err := buildIndex(cCtx, logger)
	if err != nil {
		logger.Error("Failed to set up image index", "err", err)
		return err
	}

	backends, err := storage.NewBackendRegistry(storage.Config{
		FilesystemRoot: cCtx.String(flags.FilesystemRootFlag.Name),
	}, logger)
	if err != nil {
		logger.Error("Failed to set up storage backends", "err", err)
		return err
	}
	logger.Info("Storage backends ready", "schemes", backends.Schemes())

	handler := httpserver.NewHandler(index, backends, logger)

	cfg := flags.ConfigureServer(cCtx, logger, cCtx.String(flagListenAddr.Name))
	server, err := httpserver.New(cfg, handler)
	if err != nil {
		logger.Error("Failed to create server", "err", err)
		return err
	}

	server.RunInBackground()

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM)

	logger.Info("Server is running, press Ctrl+C to stop")
	<-exit
	logger.Info("Shutdown signal received")

	server.Shutdown()
	logger.Info("Server shutdown complete")

	return nil
}

func buildIndex(cCtx *cli.Context, logger *slog.Logger) (interfaces.ImageIndex, error) {
	manifestPath := cCtx.String(flagImageManifest.Name)
	indexURL := cCtx.String(flagIndexURL.Name)

	switch {
	case manifestPath != "" && indexURL != "":
		return nil, errors.New("image-manifest and index-url are mutually exclusive")
	case manifestPath != "":
		index, err := registry.LoadStaticIndex(manifestPath)
		if err != nil {
			return nil, err
		}
		logger.Info("Serving images from manifest", "file", manifestPath, "images", index.Len())
		return index, nil
	case indexURL != "":
		logger.Info("Resolving image metadata remotely", "url", indexURL)
		return registry.NewClient(indexURL, nil), nil
	default:
		return nil, errors.New("either image-manifest or index-url is required")
	}
}
