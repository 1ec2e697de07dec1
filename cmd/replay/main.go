package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"tickarena.ai/internal/diff"
	"tickarena.ai/internal/persistence/replay"
	"tickarena.ai/internal/sim/coins"
)

func main() {
	var (
		path = flag.String("replay", "", "path to .jsonl.zst replay log")
		tick = flag.Int("tick", -1, "tick to seek to (default: last)")
		dump = flag.Bool("dump", false, "print the state at -tick as JSON")
	)
	flag.Parse()

	if *path == "" {
		fmt.Fprintln(os.Stderr, "missing -replay")
		os.Exit(2)
	}
	if err := inspect(*path, *tick, *dump); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func inspect(path string, tick int, dump bool) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	r, err := replay.Open(path)
	if err != nil {
		return fmt.Errorf("open replay: %w", err)
	}
	defer r.Close()

	start := time.Now()
	h, errc, err := coins.Load(r)
	if err != nil {
		return fmt.Errorf("read replay: %w", err)
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("read replay: %w", err)
	}
	loadTime := time.Since(start)

	seed := "none"
	if r.Header.Seed != nil {
		seed = fmt.Sprint(*r.Header.Seed)
	}
	last := h.Len() - 1
	fmt.Printf("replay v%d game=%s seed=%s ticks=%d file=%s loaded in %s\n",
		r.Header.Version, r.Header.Game, seed, last, humanize.Bytes(uint64(fi.Size())), loadTime.Round(time.Millisecond))

	if tick < 0 || tick > last {
		tick = last
	}
	start = time.Now()
	h.GoTo(tick, false)
	cur := h.Current()
	raw := diff.EncodedSize(cur.Game)
	fmt.Printf("tick %d: seek %s, state %s (x%d ticks = %s uncompressed)\n",
		cur.Tick, time.Since(start).Round(time.Microsecond), humanize.Bytes(uint64(raw)),
		last+1, humanize.Bytes(uint64(raw*(last+1))))
	fmt.Printf("scores=%v events=%d\n", cur.Game.Scores, len(cur.Events))

	if dump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Tick   int           `json:"tick"`
			State  *coins.State  `json:"state"`
			Trails *coins.Trails `json:"trails"`
			Events []coins.Event `json:"events"`
		}{cur.Tick, cur.Game, cur.Extra, cur.Events})
	}
	return nil
}
