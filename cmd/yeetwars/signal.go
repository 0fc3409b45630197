package main

import (
	"context"
	"os"
	"os/signal"
)

// contextWithInterrupt returns a context canceled on SIGINT, so the tick
// loop and staging-intake goroutine both unwind cleanly on Ctrl-C.
func contextWithInterrupt() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		cancel()
	}()
	return ctx
}
