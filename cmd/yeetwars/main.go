// Command yeetwars is a headless demonstration harness: it loads one
// yeetcode program per player from a directory (or, with no directory
// argument, stages them by hand from interactive input), injects each as
// a thread, and ticks the match until a tick limit is reached while
// printing the event surface to the terminal.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/cadulceus/yeetwars/asm"
	"github.com/cadulceus/yeetwars/player"
	"github.com/cadulceus/yeetwars/scheduler"
)

const (
	defaultCoreSize     = 8192
	defaultMaxProcesses = 16
	loadInterval        = 256
	secondsPerTick      = 50 * time.Millisecond
)

func main() {
	fmt.Println("yeetwars — headless match runner")

	maxTicks := uint64(200)
	if len(os.Args) > 2 {
		if n, err := parseTickLimit(os.Args[2]); err == nil {
			maxTicks = n
		}
	}

	var programs []program
	var err error
	if len(os.Args) < 2 {
		fmt.Println("no directory given — staging programs by hand (one .yeet path per line, blank line to start)")
		programs, err = loadStagedPrograms(bufio.NewReader(os.Stdin))
	} else {
		programs, err = loadPrograms(os.Args[1])
	}
	if err != nil {
		glog.Fatalf("loading programs: %v", err)
	}
	if len(programs) == 0 {
		fmt.Println("no .yeet programs found")
		os.Exit(1)
	}

	s := newMatch(programs)

	// The core has no lock of its own, so every program is written before
	// the tick loop starts running against it.
	for i, prog := range programs {
		s.Core.WriteBytes(uint32((i+1)*loadInterval), prog.code, uint32(i))
	}

	staging := make(chan *player.Thread)
	group, ctx := errgroup.WithContext(contextWithInterrupt())

	group.Go(func() error {
		for s.TickCount() < maxTicks {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			s.Tick()
			if s.TickCount() >= maxTicks {
				return nil
			}
		}
		return nil
	})

	group.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case t, ok := <-staging:
				if !ok {
					return nil
				}
				s.SpawnNewThread(t)
			}
		}
	})

	for i := range programs {
		addr := uint32((i + 1) * loadInterval)
		staging <- player.NewThread(addr, 0, 0, uint32(i))
	}
	close(staging)

	if err := group.Wait(); err != nil {
		glog.Warningf("match runner stopped: %v", err)
	}

	dumpCore(s)
}

type program struct {
	name string
	code []byte
}

func loadPrograms(dir string) ([]program, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []program
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yeet") {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		code, err := asm.Assemble(string(src))
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", e.Name(), err)
		}
		out = append(out, program{name: e.Name(), code: code})
	}
	return out, nil
}

// loadStagedPrograms reads one .yeet file path per line from r until a
// blank line, assembling each into a program — the hand-staging path used
// when main is invoked with no directory argument.
func loadStagedPrograms(r *bufio.Reader) ([]program, error) {
	var out []program
	for {
		path, err := stagePrompt(r)
		if path == "" {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		code, err := asm.Assemble(string(src))
		if err != nil {
			return nil, fmt.Errorf("assembling %s: %w", path, err)
		}
		out = append(out, program{name: filepath.Base(path), code: code})
	}
}

func newMatch(programs []program) *scheduler.Scheduler {
	s := scheduler.New(defaultCoreSize, defaultMaxProcesses, secondsPerTick, scheduler.Callbacks{
		RuntimeEvent: func(msg string) { fmt.Println("runtime:", msg) },
		KillThread:   func(id uint64) { fmt.Printf("thread %d killed\n", id) },
		UpdateThread: func(id uint64, pc uint32, color string) {
			glog.V(2).Infof("thread %d now at pc=%d color=%s", id, pc, color)
		},
	})
	for i, p := range programs {
		s.Players.Add(uint32(i), p.name, randomToken())
	}
	return s
}

func randomToken() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 16)
	for i := range b {
		b[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(b)
}

func parseTickLimit(s string) (uint64, error) {
	var n uint64
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

// dumpCore prints the owner map, wrapped to the terminal width when stdout
// is a real terminal and left at a sane default otherwise.
func dumpCore(s *scheduler.Scheduler) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	var line strings.Builder
	for addr := uint32(0); addr < s.Core.Size() && addr < 4096; addr++ {
		owner := s.Core.Owner(addr)
		if owner < 0 {
			line.WriteByte('.')
		} else {
			line.WriteByte(byte('A' + owner%26))
		}
		if line.Len() >= width {
			fmt.Println(line.String())
			line.Reset()
		}
	}
	if line.Len() > 0 {
		fmt.Println(line.String())
	}
}

// stagePrompt reads one payload file path from an interactive terminal in
// raw mode, falling back to a plain buffered line read when stdin isn't a
// terminal. loadStagedPrograms calls it in a loop to stage a match by hand
// when no directory is given on the command line.
func stagePrompt(r *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := r.ReadString('\n')
		return strings.TrimSpace(line), err
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(fd, oldState)

	var b strings.Builder
	for {
		ch, err := r.ReadByte()
		if err != nil {
			return b.String(), err
		}
		if ch == '\r' || ch == '\n' {
			return b.String(), nil
		}
		b.WriteByte(ch)
	}
}
