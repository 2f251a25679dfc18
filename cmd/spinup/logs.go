package main

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// logPump merges the log channels of the running parts into one.
type logPump struct {
	out  chan string
	srcs []<-chan string

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func newLogPump(size int, srcs ...<-chan string) *logPump {
	ctx, cancel := context.WithCancel(context.Background())
	p := &logPump{out: make(chan string, size), srcs: srcs, cancel: cancel}
	for _, src := range srcs {
		p.wg.Add(1)
		go p.forward(ctx, src)
	}
	return p
}

func (p *logPump) forward(ctx context.Context, src <-chan string) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-src:
			p.send(msg)
		}
	}
}

func (p *logPump) send(msg string) {
	select {
	case p.out <- msg:
	default:
		// Drop if channel full
	}
}

// Out returns the merged channel.
func (p *logPump) Out() <-chan string {
	return p.out
}

// Logf adds a timestamped line of our own.
func (p *logPump) Logf(format string, args ...any) {
	p.send(fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...)))
}

// Stop stops forwarding. Unread lines stay buffered.
func (p *logPump) Stop() {
	p.once.Do(func() {
		p.cancel()
		p.wg.Wait()
	})
}

// Flush stops forwarding and passes every line still buffered, merged or
// not yet forwarded, to emit.
func (p *logPump) Flush(emit func(string)) {
	p.Stop()
	drain(p.out, emit)
	for _, src := range p.srcs {
		drain(src, emit)
	}
}

func drain(ch <-chan string, emit func(string)) {
	for {
		select {
		case msg := <-ch:
			emit(msg)
		default:
			return
		}
	}
}
