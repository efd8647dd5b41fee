// Package interactive provides the command-line console of cm-demo.
package interactive

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"github.com/graphcache/consistency-go/pkg/consistency"
	"github.com/graphcache/consistency-go/pkg/examples"
	"github.com/graphcache/consistency-go/pkg/model"
)

// changeContext tags instructions issued from the console.
const changeContext = "console"

// Console drives a stream view and any number of detail views over one
// manager. Manager callbacks arrive on the event loop; commands run on the
// console goroutine.
type Console struct {
	manager *consistency.Manager
	loop    *consistency.EventLoop
	feed    *examples.Feed
	rl      *readline.Instance

	mu       sync.Mutex
	stream   *examples.StreamView
	details  map[string]*examples.DetailView
	watching bool
	watchID  consistency.GlobalListenerID
}

// New creates a console. The manager must dispatch on loop.
func New(m *consistency.Manager, loop *consistency.EventLoop, feed *examples.Feed) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "demo> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{
		manager: m,
		loop:    loop,
		feed:    feed,
		rl:      rl,
		stream:  examples.NewStreamView(m),
		details: make(map[string]*examples.DetailView),
	}

	c.stream.OnChange(c.streamChanged)
	m.OnCriticalError(func(err *consistency.CriticalError) {
		fmt.Fprintf(c.rl.Stderr(), "[error] %v\n", err)
	})
	m.OnGarbageCollection(func(phase consistency.GCPhase) {
		if phase == consistency.GCFinished {
			fmt.Fprintln(c.rl.Stdout(), "[gc] collection finished")
		}
	})

	return c, nil
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that properly coordinates with the readline input.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "load":
			c.cmdLoad(ctx)

		case "list", "ls":
			c.cmdList()

		case "like", "l":
			c.cmdLike(args)

		case "open", "o":
			c.cmdOpen(args)

		case "close":
			c.cmdClose(args)

		case "hide":
			c.cmdHide(args)

		case "show":
			c.cmdShow(args)

		case "delete", "del":
			c.cmdDelete(args)

		case "watch":
			c.cmdWatch()

		case "unwatch":
			c.cmdUnwatch()

		case "gc":
			c.cmdGC()

		case "stats":
			c.cmdStats()

		case "clear":
			c.cmdClear()

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Consistency Demo Commands:
  Stream:
    load               - Fetch the stream and start listening
    list               - Show the stream
    like <id>          - Toggle the liked state of an update

  Detail views:
    open <id>          - Open a detail view on an update
    close <id>         - Close a detail view
    hide <id>          - Pause a detail view
    show <id>          - Resume a detail view
    delete <id>        - Delete an update

  Manager:
    watch / unwatch    - Print every change the manager commits
    gc                 - Run a garbage collection pass
    stats              - Show manager counters
    clear              - Drop all listeners and queued changes

  Other:
    help               - Show this help
    quit               - Exit`)
}

func (c *Console) cmdLoad(ctx context.Context) {
	fmt.Fprintln(c.rl.Stdout(), "Fetching stream...")
	c.feed.FetchAsync(ctx, c.loop, func(stream *examples.StreamModel, err error) {
		if err != nil {
			fmt.Fprintf(c.rl.Stderr(), "Fetch failed: %v\n", err)
			return
		}
		if err := c.streamView().Load(stream); err != nil {
			fmt.Fprintf(c.rl.Stderr(), "Load failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.rl.Stdout(), "Loaded stream %s with %d updates\n", stream.ID(), len(stream.Updates))
	})
}

func (c *Console) cmdList() {
	stream := c.streamView().Stream()
	if stream == nil {
		fmt.Fprintln(c.rl.Stdout(), "No stream loaded (use 'load')")
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Stream %s:\n", stream.ID())
	for _, u := range stream.Updates {
		fmt.Fprintf(c.rl.Stdout(), "  %s\n", u)
	}
}

func (c *Console) cmdLike(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: like <id>")
		return
	}
	if err := c.streamView().ToggleLike(args[0], changeContext); err != nil {
		// The update may be open in a detail view after being dropped
		// from the stream.
		if d := c.detail(args[0]); d != nil {
			err = d.ToggleLike(changeContext)
		}
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		}
	}
}

func (c *Console) cmdOpen(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: open <id>")
		return
	}
	id := args[0]
	if c.detail(id) != nil {
		fmt.Fprintf(c.rl.Stdout(), "Detail %s is already open\n", id)
		return
	}

	stream := c.streamView().Stream()
	if stream == nil {
		fmt.Fprintln(c.rl.Stdout(), "No stream loaded (use 'load')")
		return
	}
	u, ok := stream.Update(id)
	if !ok {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", examples.ErrUnknownUpdate)
		return
	}

	d, err := examples.NewDetailView(c.manager, u)
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	d.OnChange(func(u *examples.UpdateModel, deleted bool) {
		if deleted {
			fmt.Fprintf(c.rl.Stdout(), "[detail %s] deleted\n", id)
			return
		}
		fmt.Fprintf(c.rl.Stdout(), "[detail %s] %s\n", id, u)
	})

	c.mu.Lock()
	c.details[id] = d
	c.mu.Unlock()
	fmt.Fprintf(c.rl.Stdout(), "Opened detail %s: %s\n", id, u)
}

func (c *Console) cmdClose(args []string) {
	d := c.requireDetail("close", args)
	if d == nil {
		return
	}
	d.Close()

	c.mu.Lock()
	delete(c.details, args[0])
	c.mu.Unlock()
	fmt.Fprintf(c.rl.Stdout(), "Closed detail %s\n", args[0])
}

func (c *Console) cmdHide(args []string) {
	d := c.requireDetail("hide", args)
	if d == nil {
		return
	}
	if err := d.Hide(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "Detail %s hidden; changes are held until 'show'\n", args[0])
}

func (c *Console) cmdShow(args []string) {
	d := c.requireDetail("show", args)
	if d == nil {
		return
	}
	if err := d.Show(); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
	}
}

func (c *Console) cmdDelete(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(c.rl.Stdout(), "Usage: delete <id>")
		return
	}
	var err error
	if d := c.detail(args[0]); d != nil {
		err = d.Delete(changeContext)
	} else {
		err = c.manager.DeleteModel(examples.NewUpdate(args[0], false), changeContext)
	}
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
	}
}

func (c *Console) cmdWatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.watching {
		fmt.Fprintln(c.rl.Stdout(), "Already watching")
		return
	}
	c.watchID = c.manager.AddGlobalListener(consistency.GlobalListenerFunc(c.modelsChanged))
	c.watching = true
	fmt.Fprintln(c.rl.Stdout(), "Watching all changes")
}

func (c *Console) cmdUnwatch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.watching {
		fmt.Fprintln(c.rl.Stdout(), "Not watching")
		return
	}
	c.manager.RemoveGlobalListener(c.watchID)
	c.watching = false
	fmt.Fprintln(c.rl.Stdout(), "Stopped watching")
}

func (c *Console) cmdGC() {
	r := c.manager.CleanMemory()
	fmt.Fprintf(c.rl.Stdout(), "Buckets: %d -> %d, pruned %d slots, dropped %d paused records\n",
		r.BucketsBefore, r.BucketsAfter, r.SlotsPruned, r.PausedDropped)
}

func (c *Console) cmdStats() {
	s := c.manager.Stats()
	fmt.Fprintf(c.rl.Stdout(), "Manager %s\n", c.manager.ID())
	fmt.Fprintf(c.rl.Stdout(), "  Listeners:        %d\n", s.Listeners)
	fmt.Fprintf(c.rl.Stdout(), "  Global listeners: %d\n", s.GlobalListeners)
	fmt.Fprintf(c.rl.Stdout(), "  Buckets:          %d\n", s.Buckets)
	fmt.Fprintf(c.rl.Stdout(), "  Slots:            %d\n", s.Slots)
	fmt.Fprintf(c.rl.Stdout(), "  Paused:           %d\n", s.Paused)
	fmt.Fprintf(c.rl.Stdout(), "  Queued:           %d\n", s.Queued)
	fmt.Fprintf(c.rl.Stdout(), "  Processed:        %d\n", s.Processed)
	fmt.Fprintf(c.rl.Stdout(), "  Collections:      %d\n", s.Collections)
}

func (c *Console) cmdClear() {
	err := c.manager.ClearAllAndCancel(func() {
		fmt.Fprintln(c.rl.Stdout(), "Cleared all listeners")
	})
	if err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}

	// Views are no longer registered; global listeners are.
	stream := examples.NewStreamView(c.manager)
	stream.OnChange(c.streamChanged)

	c.mu.Lock()
	c.details = make(map[string]*examples.DetailView)
	c.stream = stream
	c.mu.Unlock()
}

func (c *Console) streamView() *examples.StreamView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

func (c *Console) detail(id string) *examples.DetailView {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.details[id]
}

func (c *Console) requireDetail(cmd string, args []string) *examples.DetailView {
	if len(args) != 1 {
		fmt.Fprintf(c.rl.Stdout(), "Usage: %s <id>\n", cmd)
		return nil
	}
	d := c.detail(args[0])
	if d == nil {
		fmt.Fprintf(c.rl.Stdout(), "No open detail %s (use 'open %s')\n", args[0], args[0])
	}
	return d
}

func (c *Console) streamChanged(stream *examples.StreamModel, updates model.ModelUpdates) {
	if stream == nil {
		fmt.Fprintln(c.rl.Stdout(), "[stream] deleted")
		return
	}
	fmt.Fprintf(c.rl.Stdout(), "[stream] %s\n", updates)
}

func (c *Console) modelsChanged(_ model.Node, changes map[string]model.ModelChange, ctx any) {
	ids := make([]string, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(c.rl.Stdout(), "[watch] %s %s (ctx=%v)\n", id, changes[id].Kind, ctx)
	}
}
