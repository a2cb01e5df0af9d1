//go:build linux

package buttons

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sys/unix"
)

const evKey = 0x01

type evdevLogger interface {
	Infof(string, string, ...interface{})
	Errorf(string, string, ...interface{})
}

// EvdevButtons watches /dev/input/event* and emits an event for every mapped
// key press. Missing devices are logged, not fatal.
type EvdevButtons struct {
	Keymap Keymap
	Logger evdevLogger
	// Glob defaults to /dev/input/event*.
	Glob string

	ch     chan Event
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func NewEvdevButtons(logger evdevLogger) *EvdevButtons {
	return &EvdevButtons{Keymap: DefaultKeymap, Logger: logger, ch: make(chan Event, 8)}
}

func (b *EvdevButtons) Events() <-chan Event { return b.ch }

func (b *EvdevButtons) Start(ctx context.Context) error {
	glob := b.Glob
	if glob == "" {
		glob = "/dev/input/event*"
	}
	paths, err := filepath.Glob(glob)
	if err != nil || len(paths) == 0 {
		if b.Logger != nil {
			b.Logger.Infof("input", "no evdev devices found for hotkeys")
		}
		return nil
	}

	ctx, b.cancel = context.WithCancel(ctx)
	for _, path := range paths {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.watch(ctx, path)
		}()
	}
	if b.Logger != nil {
		b.Logger.Infof("input", "watching %d evdev devices", len(paths))
	}
	return nil
}

func (b *EvdevButtons) Stop() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	b.once.Do(func() { close(b.ch) })
	return nil
}

func (b *EvdevButtons) watch(ctx context.Context, path string) {
	// input_event = timeval + u16 type + u16 code + s32 value.
	tvSize := int(binary.Size(unix.Timeval{}))
	eventSize := tvSize + 2 + 2 + 4
	if eventSize <= 0 {
		eventSize = 24
	}

	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return
	}
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollFds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		if _, err := unix.Poll(pollFds, 250); err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}
		if pollFds[0].Revents&unix.POLLIN == 0 {
			continue
		}

		n, err := unix.Read(fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			return
		}
		for off := 0; off+eventSize <= n; off += eventSize {
			if ev, ok := b.decode(buf[off:off+eventSize], tvSize); ok {
				b.emit(ctx, ev)
			}
		}
	}
}

// decode maps one input_event record to an event. Only key presses count;
// releases and repeats are ignored.
func (b *EvdevButtons) decode(rec []byte, tvSize int) (Event, bool) {
	typ := binary.LittleEndian.Uint16(rec[tvSize : tvSize+2])
	code := binary.LittleEndian.Uint16(rec[tvSize+2 : tvSize+4])
	value := int32(binary.LittleEndian.Uint32(rec[tvSize+4 : tvSize+8]))
	if typ != evKey || value != 1 {
		return "", false
	}
	ev, ok := b.Keymap[code]
	return ev, ok
}

func (b *EvdevButtons) emit(ctx context.Context, ev Event) {
	if b.Logger != nil {
		b.Logger.Infof("input", "hotkey %s", ev)
	}
	select {
	case b.ch <- ev:
	case <-ctx.Done():
	}
}
