// Command demo walks through the history engine against the in-memory store:
// recording, duplicate and self-copy suppression, pinning, eviction and
// recovery from the backup snapshot.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/yiblet/clipq/internal/digest"
	"github.com/yiblet/clipq/internal/queue"
	"github.com/yiblet/clipq/internal/recovery"
	"github.com/yiblet/clipq/internal/router"
	"github.com/yiblet/clipq/internal/store/memstore"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	fmt.Println("clipq history demo")

	history := memstore.NewMemoryHistoryStore()
	engine := queue.New(history, queue.Options{
		Capacity: 3,
		Logger:   logger,
		Notifier: queue.NotifierFunc(func(count int) {
			fmt.Printf("  [badge] %d\n", count)
		}),
	})
	r := router.New(engine, nil, logger)

	step("Recording three copies")
	for _, text := range []string{
		"Hello, World!",
		"SELECT * FROM users ORDER BY created_at DESC LIMIT 10;",
		"func main() {\n    fmt.Println(\"Hello, Go!\")\n}",
	} {
		must(r.Dispatch(ctx, router.RecordTextCopy{Content: text}))
	}
	show(engine)

	step("Copying the same text again is ignored")
	must(r.Dispatch(ctx, router.RecordTextCopy{Content: "Hello, World!"}))
	show(engine)

	step("Pinning the oldest entry")
	oldest := engine.Queue()[engine.Len()-1]
	must(r.Dispatch(ctx, router.PinItem{ID: oldest.ID}))
	show(engine)

	step("A fourth copy evicts the oldest unpinned entry")
	must(r.Dispatch(ctx, router.RecordTextCopy{Content: "https://example.com/docs"}))
	show(engine)

	step("Writing to the clipboard from clipq is not recorded back")
	must(r.Dispatch(ctx, router.RegisterInternalCopy{Hash: digest.String("pasted by clipq")}))
	must(r.Dispatch(ctx, router.RecordTextCopy{Content: "pasted by clipq"}))
	show(engine)

	step("The same operations over JSON")
	fmt.Printf("  %s\n", r.HandleJSON(ctx, []byte(`{"operation":"getCount"}`)))
	fmt.Printf("  %s\n", r.HandleJSON(ctx, []byte(`{"operation":"shred"}`)))

	step("Restarting from the backup snapshot")
	if err := history.Clear(ctx); err != nil {
		log.Fatalf("failed to clear store: %v", err)
	}
	restarted := queue.New(history, queue.Options{Capacity: 3, Logger: logger})
	report := recovery.New(restarted, logger).Start(ctx)
	fmt.Printf("  restored %d entries from %s\n", report.Count, report.Source)
	show(restarted)

	fmt.Println("\nDemo complete! (Using in-memory store)")
}

func step(title string) {
	fmt.Printf("\n== %s\n", title)
}

func must(resp router.Response) {
	if !resp.Success {
		log.Fatalf("request failed: %s %s", resp.Error.Code, resp.Error.Message)
	}
}

func show(engine *queue.Engine) {
	for i, e := range engine.Queue() {
		pin := " "
		if e.Pinned {
			pin = "*"
		}
		fmt.Printf("  %d %s %-6s %s\n", i, pin, e.Kind, queue.Preview(e, 50))
	}
}
