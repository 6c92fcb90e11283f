// Command translate converts LMS log events to xAPI statements offline.
//
// Events are read as NDJSON from a file (zstd-compressed when it ends in
// .zst) or stdin, and statements are written as NDJSON to stdout. Records are
// looked up in a JSON fixtures file or an LMS PostgreSQL database.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/klauspost/compress/zstd"
	_ "github.com/lib/pq"

	"github.com/V4T54L/xapi-bridge/internal/adapter/repository/memory"
	"github.com/V4T54L/xapi-bridge/internal/adapter/repository/postgres"
	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/pkg/logger"
	"github.com/V4T54L/xapi-bridge/internal/transformer"
	"github.com/V4T54L/xapi-bridge/internal/usecase"
)

type options struct {
	input       string
	fixtures    string
	postgresURL string
	tablePrefix string
	appURL      string
	sourceName  string
	sourceURL   string
	sendMbox    bool
	sendUser    bool
	list        bool
	strict      bool
	logLevel    string
}

func main() {
	var opts options
	flag.StringVar(&opts.input, "in", "-", "NDJSON event file, .zst for zstd, - for stdin")
	flag.StringVar(&opts.fixtures, "fixtures", "", "JSON fixtures file {table: [rows]}")
	flag.StringVar(&opts.postgresURL, "postgres", "", "LMS PostgreSQL URL, used when -fixtures is empty")
	flag.StringVar(&opts.tablePrefix, "prefix", "mdl_", "LMS table prefix")
	flag.StringVar(&opts.appURL, "app-url", "http://localhost", "LMS base URL")
	flag.StringVar(&opts.sourceName, "source-name", "Moodle", "platform name")
	flag.StringVar(&opts.sourceURL, "source-url", "http://moodle.org", "source platform URL")
	flag.BoolVar(&opts.sendMbox, "send-mbox", false, "identify actors by email")
	flag.BoolVar(&opts.sendUser, "send-username", false, "identify actors by username")
	flag.BoolVar(&opts.list, "list", false, "print supported events and exit")
	flag.BoolVar(&opts.strict, "strict", false, "stop at the first event that fails")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "log level")
	flag.Parse()

	log := logger.New(opts.logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout, log); err != nil {
		log.Error("translate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer, log *slog.Logger) error {
	repo, closeRepo, err := openRepository(opts, log)
	if err != nil {
		return err
	}
	defer closeRepo()

	cfg := &domain.TransformConfig{
		Repo:         repo,
		SourceName:   opts.sourceName,
		AppURL:       strings.TrimRight(opts.appURL, "/"),
		SourceURL:    opts.sourceURL,
		SendMbox:     opts.sendMbox,
		SendUsername: opts.sendUser,
	}
	t := transformer.New(cfg, log)

	w := bufio.NewWriter(out)
	defer w.Flush()

	if opts.list {
		for _, k := range t.Supported() {
			fmt.Fprintln(w, k.String())
		}
		return nil
	}

	in, closeIn, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer closeIn()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	var translated, failed int
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 16<<20)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}

		var event domain.Event
		if err := json.Unmarshal([]byte(raw), &event); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		stmts, err := t.Transform(ctx, event)
		if err != nil {
			if opts.strict || !domain.IsPermanent(err) {
				return fmt.Errorf("line %d: %w", line, err)
			}
			failed++
			log.Warn("skipping event", "line", line, "error", err)
			continue
		}
		for i := range stmts {
			stmts[i].ID = usecase.StatementID(cfg.AppURL, event, i).String()
			if err := enc.Encode(stmts[i]); err != nil {
				return err
			}
		}
		translated++
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	log.Info("translation finished", "translated", translated, "skipped", failed)
	return nil
}

func openRepository(opts options, log *slog.Logger) (domain.RecordRepository, func(), error) {
	switch {
	case opts.fixtures != "":
		f, err := os.Open(opts.fixtures)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		repo, err := memory.LoadFixtures(f)
		if err != nil {
			return nil, nil, fmt.Errorf("load fixtures: %w", err)
		}
		return repo, func() {}, nil
	case opts.postgresURL != "":
		db, err := sql.Open("postgres", opts.postgresURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewRecordRepository(db, opts.tablePrefix, log), func() { db.Close() }, nil
	}
	return nil, nil, errors.New("one of -fixtures or -postgres is required")
}

func openInput(path string) (io.Reader, func(), error) {
	var (
		r       io.Reader = os.Stdin
		closeFn           = func() {}
	)
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		r, closeFn = f, func() { f.Close() }
	}
	if !strings.HasSuffix(path, ".zst") {
		return r, closeFn, nil
	}

	dec, err := zstd.NewReader(r)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("open zstd stream: %w", err)
	}
	return dec, func() { dec.Close(); closeFn() }, nil
}
