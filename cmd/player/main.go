package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vertigo/internal/config"
	"vertigo/internal/feed"
	"vertigo/internal/gate"
	"vertigo/internal/player"
	"vertigo/internal/session"
	"vertigo/internal/source"
)

func main() {
	// 1. Parse Flags
	api := flag.String("api", "http://localhost:8080", "Feed API base URL")
	token := flag.String("token", "", "JWT for an authenticated viewer (optional)")
	role := flag.String("role", "viewer", "Viewer role for gating: viewer, member, admin")
	dwell := flag.Duration("dwell", 5*time.Second, "How long to sit on a markup slide before advancing")
	runFor := flag.Duration("for", 0, "Stop after this long (0 = run until interrupted)")
	clipLen := flag.Duration("clip", 15*time.Second, "Simulated length of every video")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("🎬 Starting Headless Feed Player...")

	// 2. Load Config
	cfg := config.Load()

	// 3. Metrics
	feed.RegisterMetrics()
	player.RegisterMetrics()
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 4. Wire the session: remote source, two simulated decoder slots
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := source.New(*api, *token, slog.Default())
	decA := player.NewSimDecoder(*clipLen)
	decB := player.NewSimDecoder(*clipLen)

	viewer := gate.Viewer{LoggedIn: *token != "", Role: *role}

	sessCfg := session.Config{
		Scroller: feed.ScrollerConfig{
			WindowRadius:      cfg.Player.WindowRadius,
			ApproachThreshold: cfg.Player.ApproachThreshold,
		},
		RecycleCooldown: cfg.RecycleCooldown(),
	}
	sess := session.New(src, decA, decB, viewer, sessCfg)
	defer sess.Close()

	if err := sess.Start(ctx); err != nil {
		log.Fatalf("❌ Session failed to start: %v", err)
	}

	// 5. Live counter patches from the platform
	go streamCounters(ctx, src, sess)

	// 6. Progress readout, throttled to once a second
	progress := make(chan player.Tick, 64)
	if err := sess.Bus.Subscribe("console", progress); err != nil {
		log.Fatalf("❌ Bus subscribe: %v", err)
	}
	go func() {
		var lastPrint time.Time
		for t := range progress {
			if time.Since(lastPrint) < time.Second {
				continue
			}
			lastPrint = time.Now()
			log.Printf("▶️ %s %.1fs / %.1fs", t.ItemID, t.Current, t.Duration)
		}
	}()

	if *runFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *runFor)
		defer cancel()
	}

	runLoop(ctx, cfg, sess, decA, decB, *dwell)
	log.Println("👋 Session closed")
}

// runLoop is the display-refresh stand-in: every tick it advances the
// simulated decoders, publishes progress, and auto-swipes when the active
// item is finished (videos) or has dwelt long enough (markup).
func runLoop(ctx context.Context, cfg *config.Config, sess *session.Session, decA, decB *player.SimDecoder, dwell time.Duration) {
	interval := cfg.TickInterval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var dwelt time.Duration
	lastID := ""

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		decA.Step(interval)
		decB.Step(interval)
		sess.Player.Tick()

		st := sess.Store.Snapshot()
		if st.Active == nil {
			continue
		}

		if st.Active.ID != lastID {
			lastID = st.Active.ID
			dwelt = 0
			kind := "video"
			if !st.Active.IsVideo() {
				kind = "markup"
			}
			obscured := ""
			if sess.Obscured() {
				obscured = " 🔒"
			}
			log.Printf("📺 Now showing %s (%s)%s ❤️ %d 💬 %d",
				st.Active.ID, kind, obscured, st.Active.Counters.Likes, st.Active.Counters.Comments)
		}

		if st.Active.IsVideo() {
			if st.Playing && st.Progress.Duration > 0 && st.Progress.Current >= st.Progress.Duration {
				sess.Advance()
			}
			continue
		}

		dwelt += interval
		if dwelt >= dwell {
			sess.Advance()
		}
	}
}

// streamCounters keeps one SSE subscription alive, feeding patches into the
// session. Reconnects with a flat delay; the stream is best-effort.
func streamCounters(ctx context.Context, src *source.Client, sess *session.Session) {
	for ctx.Err() == nil {
		err := src.StreamCounters(ctx, func(p source.CounterPatch) {
			sess.ApplyCounterPatch(p.ItemID, feed.Counters{Likes: p.Likes, Comments: p.Comments})
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Printf("⚠️ Counter stream dropped: %v", err)
		}
		time.Sleep(5 * time.Second)
	}
}
