package pulse

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/teranos/harvest/errors"
	"github.com/teranos/harvest/logger"
)

// Stop sources set a StopToken from outside the batch loop. Each one runs
// until ctx is done.

// WatchSignals stops token on the first SIGINT or SIGTERM and calls cancel on
// the second, aborting the contract in flight. The returned function
// unregisters the handler.
func WatchSignals(ctx context.Context, token *StopToken, cancel context.CancelFunc) func() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go relaySignals(ctx, done, sigs, token, cancel, func() { signal.Stop(sigs) })

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigs)
			close(done)
		})
	}
}

// relaySignals calls release after the second signal so a third one reaches
// the runtime's default handler and kills the process.
func relaySignals(ctx context.Context, done <-chan struct{}, sigs <-chan os.Signal, token *StopToken, cancel context.CancelFunc, release func()) {
	count := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case sig := <-sigs:
			count++
			if count == 1 {
				if token.Stop("signal " + sig.String()) {
					logger.PulseCloseInfow("Stop requested, finishing current contract",
						logger.FieldReason, sig.String())
				}
				continue
			}
			logger.PulseWarnw("Second signal, aborting current contract", logger.FieldReason, sig.String())
			release()
			cancel()
			return
		}
	}
}

// WatchStopFile stops token when path appears (or is written). An existing
// file stops the token immediately.
func WatchStopFile(ctx context.Context, path string, token *StopToken) error {
	if _, err := os.Stat(path); err == nil {
		token.Stop("stop file " + path)
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create stop file directory %s", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create fsnotify watcher")
	}
	// Watch the directory: the file does not exist yet
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	want := filepath.Clean(path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-token.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != want {
					continue
				}
				if event.Op&fsnotify.Create == fsnotify.Create || event.Op&fsnotify.Write == fsnotify.Write {
					if token.Stop("stop file " + path) {
						logger.PulseCloseInfow("Stop file detected, finishing current contract", logger.FieldPath, path)
					}
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.PulseWarnw("Stop file watcher error", logger.FieldError, err.Error())
			}
		}
	}()
	return nil
}

const (
	// DefaultStopWord is used when no stop word is configured.
	DefaultStopWord = "stop"
	// StopKey is the single key operators of the old tool pressed. It is
	// accepted alongside whatever word is configured.
	StopKey = "Ç"
)

// WatchInput stops token when a line read from r equals one of words or
// StopKey, ignoring case and surrounding space. Blank words never match; with
// none left DefaultStopWord applies. It returns when r is exhausted or ctx is
// done; a blocked read on r is not interrupted.
func WatchInput(ctx context.Context, r io.Reader, token *StopToken, words ...string) {
	words = stopWords(words)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-token.Done():
				return
			case line, ok := <-lines:
				if !ok {
					return
				}
				if matchesStopWord(line, words) {
					if token.Stop("stop word " + strings.TrimSpace(line)) {
						logger.PulseCloseInfow("Stop word received, finishing current contract")
					}
					return
				}
			}
		}
	}()
}

func stopWords(configured []string) []string {
	var words []string
	for _, w := range configured {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		words = append(words, DefaultStopWord)
	}
	return append(words, StopKey)
}

func matchesStopWord(line string, words []string) bool {
	line = strings.TrimSpace(line)
	for _, w := range words {
		if strings.EqualFold(line, w) {
			return true
		}
	}
	return false
}
