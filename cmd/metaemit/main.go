package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rpattn/metaemit/internal/config"
	"github.com/rpattn/metaemit/internal/emitter"
	"github.com/rpattn/metaemit/internal/ingestion"
	"github.com/rpattn/metaemit/internal/logger"
	"github.com/rpattn/metaemit/internal/transport"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const usage = `usage: metaemit [flags] <command> [args]

commands:
  apply <manifest>             emit every entity in a yaml, json, csv or xlsx manifest
  add-tag <dataset> <tag>      attach a tag to a dataset
  remove-tag <dataset> <tag>   detach a tag from a dataset
  ping                         check the catalog is reachable

flags:
`

var errUsage = errors.New("invalid arguments")

type options struct {
	configDir   string
	dryRun      bool
	stopOnError bool
}

func main() {
	var opts options
	fs := flag.NewFlagSet("metaemit", flag.ExitOnError)
	fs.StringVar(&opts.configDir, "config", "", "directory containing config.yaml")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "print change proposals instead of sending them")
	fs.BoolVar(&opts.stopOnError, "stop-on-error", false, "stop applying a manifest at the first failed entity")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, fs.Args(), os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fs.Usage()
		}
		fmt.Fprintf(os.Stderr, "metaemit: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cfg, err := config.Load(opts.configDir)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	var (
		sender   emitter.Sender
		poster   emitter.Poster
		client   *transport.Client
		recorder *transport.Recorder
	)
	if opts.dryRun {
		recorder = transport.NewRecorder()
		sender, poster = recorder, recorder
	} else {
		client = transport.NewClient(cfg.Client, log)
		sender, poster = client, client
	}
	e := emitter.New(cfg.Emitter, sender, poster, log)

	switch cmd, rest := args[0], args[1:]; cmd {
	case "apply":
		if len(rest) != 1 {
			return errUsage
		}
		err = apply(ctx, e, log, rest[0], opts, out)
	case "add-tag", "remove-tag":
		if len(rest) != 2 {
			return errUsage
		}
		if cmd == "add-tag" {
			err = e.AddDatasetTag(ctx, rest[0], rest[1])
		} else {
			err = e.RemoveDatasetTag(ctx, rest[0], rest[1])
		}
		if err == nil && !opts.dryRun {
			fmt.Fprintf(out, "%s %s on %s\n", cmd, rest[1], e.DatasetResourceURN(rest[0]))
		}
	case "ping":
		if len(rest) != 0 {
			return errUsage
		}
		if client == nil {
			return errors.New("ping needs a live connection; drop -dry-run")
		}
		if _, err = client.TestConnection(ctx); err == nil {
			fmt.Fprintf(out, "connected to %s\n", client.Server())
		}
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	if err != nil {
		return err
	}

	if recorder != nil {
		return printRecorded(out, recorder)
	}
	return nil
}

func apply(ctx context.Context, e *emitter.Emitter, log *zap.Logger, path string, opts options, out io.Writer) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	summary, err := ingestion.NewService(e, log).IngestFile(ctx, filepath.Base(path), payload, ingestion.Options{StopOnError: opts.stopOnError})
	if err != nil && summary.Total == 0 {
		return err
	}
	if !opts.dryRun {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(summary); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d entities failed", summary.Failed, summary.Total)
	}
	return nil
}

// printRecorded writes one ingest envelope per line, followed by any GraphQL
// bodies that would have been posted.
func printRecorded(out io.Writer, recorder *transport.Recorder) error {
	for _, proposal := range recorder.Proposals() {
		payload, err := transport.EncodeProposal(proposal)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(out, string(payload)); err != nil {
			return err
		}
	}
	for _, post := range recorder.Posts() {
		payload, err := json.Marshal(post.Body)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(out, "%s %s\n", post.Endpoint, payload); err != nil {
			return err
		}
	}
	return nil
}
