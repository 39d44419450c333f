package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-retry"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/config"
	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/logger"
)

// The bridge sits between a serial/USB RFID reader and the API. It reads
// raw scanner output line by line, extracts UIDs, debounces repeats and
// forwards each read as an authenticated scan event.
func main() {
	logg := logger.New(logger.Options{ServiceName: "bridge"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "bridge",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if cfg.Bridge.ReaderCode == "" || cfg.Bridge.ReaderKey == "" {
		logg.Error(context.Background(), "SAT_BRIDGE_READER_CODE and SAT_BRIDGE_READER_KEY are required", nil)
		os.Exit(1)
	}

	mode := strings.ToLower(cfg.Bridge.Mode)
	if mode != "event" && mode != "push" {
		logg.Error(context.Background(), fmt.Sprintf("unknown bridge mode %q (want event or push)", cfg.Bridge.Mode), nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fwd := &forwarder{
		http: resty.New().
			SetBaseURL(strings.TrimRight(cfg.Bridge.APIBase, "/")).
			SetTimeout(cfg.Bridge.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("X-Reader-Code", cfg.Bridge.ReaderCode).
			SetHeader("X-Reader-Key", cfg.Bridge.ReaderKey),
		mode:    mode,
		retries: cfg.Bridge.Retries,
		logg:    logg,
	}
	debounce := newDebouncer(cfg.Bridge.Debounce)

	ctx = logg.WithFields(ctx, map[string]any{
		"reader": cfg.Bridge.ReaderCode,
		"mode":   mode,
		"api":    cfg.Bridge.APIBase,
	})

	if cfg.Bridge.Listen != "" {
		runTCP(ctx, cfg.Bridge.Listen, fwd, debounce, logg)
		return
	}
	logg.Info(ctx, "bridge reading scanner output from stdin")
	feedLines(ctx, bufio.NewScanner(os.Stdin), fwd, debounce, logg)
}

// runTCP accepts scanner connections, one goroutine per feed. Network
// readers (ESP32 with WiFi) connect here instead of a serial pipe.
func runTCP(ctx context.Context, addr string, fwd *forwarder, debounce *debouncer, logg *logger.Logger) {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		logg.Error(ctx, "bridge failed to listen", err)
		os.Exit(1)
	}
	defer ln.Close()
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	logg.Info(logg.WithField(ctx, "addr", addr), "bridge listening for scanner connections")

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logg.Warn(ctx, "bridge accept failed")
			continue
		}
		go func(c net.Conn) {
			defer c.Close()
			feedLines(ctx, bufio.NewScanner(c), fwd, debounce, logg)
		}(conn)
	}
}

func feedLines(ctx context.Context, scanner *bufio.Scanner, fwd *forwarder, debounce *debouncer, logg *logger.Logger) {
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		uid, ok := extractUID(scanner.Text())
		if !ok {
			continue
		}
		if !debounce.Allow(uid) {
			continue
		}
		if err := fwd.Send(ctx, uid); err != nil {
			logg.Error(logg.WithField(ctx, "uid", uid), "bridge failed to deliver scan", err)
			continue
		}
		logg.Info(logg.WithField(ctx, "uid", uid), "scan delivered")
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		logg.Error(ctx, "bridge feed closed with error", err)
	}
}

type forwarder struct {
	http    *resty.Client
	mode    string
	retries int
	logg    *logger.Logger
}

// Send posts one UID, retrying transient failures with backoff. 4xx
// responses are not retried: a rejected scan stays rejected.
func (f *forwarder) Send(ctx context.Context, uid string) error {
	path := "/api/ardloc/event"
	if f.mode == "push" {
		path = "/api/ardloc/push-uid"
	}

	backoff := retry.WithMaxRetries(uint64(f.retries), retry.NewExponential(500*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := f.http.R().
			SetContext(ctx).
			SetBody(map[string]string{"uid": uid}).
			Post(path)
		if err != nil {
			return retry.RetryableError(err)
		}
		status := resp.StatusCode()
		switch {
		case status < 300:
			return nil
		case status >= 500:
			return retry.RetryableError(fmt.Errorf("api returned %d: %s", status, resp.String()))
		default:
			return fmt.Errorf("api rejected scan with %d: %s", status, resp.String())
		}
	})
}
