package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/perimap/internal/adapters/nats"
	"github.com/samirrijal/perimap/internal/core/domain"
	"github.com/samirrijal/perimap/internal/pkg/config"
	"github.com/samirrijal/perimap/internal/pkg/logging"
)

// ---------------------------------------------------------------------------
// Script types
// ---------------------------------------------------------------------------

// Script is a recorded sequence of map interactions for one or more sessions.
type Script struct {
	DelayMS  int            `json:"delay_ms"`
	Sessions []SessionEntry `json:"sessions"`
}

type SessionEntry struct {
	SessionID    string               `json:"session_id"`
	Interactions []domain.Interaction `json:"interactions"`
}

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	for i, e := range s.Sessions {
		if e.SessionID == "" {
			return nil, fmt.Errorf("sessions[%d]: session_id is required", i)
		}
	}
	return &s, nil
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("perimap-replay")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	scriptPath := "replay.json"
	if len(os.Args) > 1 {
		scriptPath = os.Args[1]
	}
	script, err := loadScript(scriptPath)
	if err != nil {
		log.Fatalf("%v", err)
	}

	nc, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-quit
		slog.Info("received signal, stopping replay", "signal", sig.String())
		cancel()
	}()

	slog.Info("replaying interactions", "sessions", len(script.Sessions), "script", scriptPath)
	failed := replayAll(ctx, natsadapter.NewRequester(nc), script)
	if failed > 0 {
		slog.Warn("replay finished with rejected interactions", "rejected", failed)
		os.Exit(1)
	}
	slog.Info("replay finished")
}

// sender is satisfied by natsadapter.Requester.
type sender interface {
	Send(ctx context.Context, in *domain.Interaction) error
}

// replayAll replays every session concurrently. Interactions within a
// session are sent in order. It returns the number of rejected interactions.
func replayAll(ctx context.Context, s sender, script *Script) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	sem := make(chan struct{}, 8) // max 8 sessions in flight
	delay := time.Duration(script.DelayMS) * time.Millisecond

	for _, entry := range script.Sessions {
		wg.Add(1)
		go func(e SessionEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			n := replaySession(ctx, s, e, delay)
			mu.Lock()
			failed += n
			mu.Unlock()
		}(entry)
	}

	wg.Wait()
	return failed
}

func replaySession(ctx context.Context, s sender, e SessionEntry, delay time.Duration) int {
	failed := 0
	for i := range e.Interactions {
		if ctx.Err() != nil {
			return failed
		}
		in := e.Interactions[i]
		in.SessionID = e.SessionID

		reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := s.Send(reqCtx, &in)
		cancel()
		if err != nil {
			slog.Warn("interaction rejected", "session_id", e.SessionID, "index", i, "type", in.Type, "error", err)
			failed++
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return failed
			}
		}
	}
	return failed
}
