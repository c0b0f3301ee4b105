package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/halstead/image-delivery-backend/cmd/flags"
	"github.com/halstead/image-delivery-backend/interfaces"
	"github.com/halstead/image-delivery-backend/storage"
)

var flagURI = &cli.StringFlag{
	Name:     "uri",
	Required: true,
	Usage:    "storage location URI of the image to fetch, for example file:///var/lib/images/debian.img",
}
var flagExpectedSize = &cli.Int64Flag{
	Name:  "expected-size",
	Value: interfaces.SizeUnknown,
	Usage: "expected image size in bytes; object store backends refuse objects that do not match (-1 disables the check)",
}
var flagOutput = &cli.StringFlag{
	Name:  "output",
	Usage: "file to write the image into (defaults to standard output)",
}
var flagFilesystemRoot = &cli.StringFlag{
	Name:  "filesystem-root",
	Value: "/",
	Usage: "directory that file:// image locations resolve under",
}

func main() {
	app := &cli.App{
		Name:  "image-fetch",
		Usage: "Fetch a single image from its storage location URI",
		Flags: []cli.Flag{
			flagURI,
			flagExpectedSize,
			flagOutput,
			flagFilesystemRoot,
			flags.LogDebugFlag,
		},
		Action: func(cCtx *cli.Context) error {
			fetcher, err := NewFetcher(cCtx)
			if err != nil {
				return err
			}
			return fetcher.Do(context.Background())
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type Fetcher struct {
	URI          string
	ExpectedSize int64
	OutputPath   string
	Retriever    interfaces.Retriever
	Log          *slog.Logger
}

func NewFetcher(cCtx *cli.Context) (*Fetcher, error) {
	logLevel := slog.LevelInfo
	if cCtx.Bool(flags.LogDebugFlag.Name) {
		logLevel = slog.LevelDebug
	}
	// Image bytes go to stdout, so diagnostics stay on stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	backends, err := storage.NewBackendRegistry(storage.Config{
		FilesystemRoot: cCtx.String(flagFilesystemRoot.Name),
	}, logger)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		URI:          cCtx.String(flagURI.Name),
		ExpectedSize: cCtx.Int64(flagExpectedSize.Name),
		OutputPath:   cCtx.String(flagOutput.Name),
		Retriever:    backends,
		Log:          logger,
	}, nil
}

func (f *Fetcher) Do(ctx context.Context) error {
	out := io.Writer(os.Stdout)
	if f.OutputPath != "" {
		file, err := os.Create(f.OutputPath)
		if err != nil {
			return fmt.Errorf("could not create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	stream, err := f.Retriever.GetFromBackend(ctx, f.URI, f.ExpectedSize)
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	defer stream.Close()

	var written int64
	var chunks int
	for {
		chunk, err := stream.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("transfer failed after %d bytes: %w", written, err)
		}
		n, err := out.Write(chunk)
		written += int64(n)
		if err != nil {
			return fmt.Errorf("could not write image data: %w", err)
		}
		chunks++
	}

	f.Log.Info("Image fetched", "bytes", written, "chunks", chunks)
	return nil
}
