package assetpipe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cortesi/moddwatch"
	"github.com/stretchr/testify/require"
)

func startLoop(ctx context.Context, changes <-chan *moddwatch.Mod, run func(context.Context) error) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		watchLoop(ctx, changes, run)
	}()
	return done
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out")
	}
}

func TestWatchLoopCoalescesChanges(t *testing.T) {
	changes := make(chan *moddwatch.Mod, 16)
	started := make(chan struct{}, 16)
	release := make(chan struct{})
	var runs int32

	run := func(context.Context) error {
		atomic.AddInt32(&runs, 1)
		started <- struct{}{}
		<-release
		return nil
	}

	done := startLoop(testContext(t), changes, run)

	changes <- &moddwatch.Mod{Changed: []string{"_assets/css/a.css"}}
	waitFor(t, started)

	// both arrive while the first run is still busy
	changes <- &moddwatch.Mod{Changed: []string{"_assets/css/a.css"}}
	changes <- &moddwatch.Mod{Added: []string{"_assets/css/b.css"}}
	release <- struct{}{}

	waitFor(t, started)
	release <- struct{}{}

	close(changes)
	waitFor(t, done)
	require.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestWatchLoopSurvivesFailedRuns(t *testing.T) {
	changes := make(chan *moddwatch.Mod)
	finished := make(chan struct{}, 4)
	var runs int32

	run := func(context.Context) error {
		n := atomic.AddInt32(&runs, 1)
		finished <- struct{}{}
		if n == 1 {
			return newError(ParseError, "a.css", errors.New("unexpected '}'"))
		}
		return nil
	}

	done := startLoop(testContext(t), changes, run)

	changes <- &moddwatch.Mod{Changed: []string{"_assets/css/a.css"}}
	waitFor(t, finished)

	changes <- &moddwatch.Mod{Changed: []string{"_assets/css/a.css"}}
	waitFor(t, finished)

	close(changes)
	waitFor(t, done)
	require.Equal(t, int32(2), atomic.LoadInt32(&runs))
}

func TestWatchLoopStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	changes := make(chan *moddwatch.Mod)

	done := startLoop(ctx, changes, func(context.Context) error {
		t.Error("unexpected run")
		return nil
	})

	cancel()
	waitFor(t, done)
}

func TestWatchLoopLetsRunFinish(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	changes := make(chan *moddwatch.Mod, 1)
	started := make(chan struct{})
	release := make(chan struct{})
	var runErr atomic.Value

	done := startLoop(ctx, changes, func(runCtx context.Context) error {
		close(started)
		<-release
		runErr.Store(runCtx.Err() == nil)
		return nil
	})

	changes <- &moddwatch.Mod{Deleted: []string{"_assets/css/a.css"}}
	waitFor(t, started)

	cancel()
	close(release)
	waitFor(t, done)
	require.Equal(t, true, runErr.Load())
}

func TestDrain(t *testing.T) {
	changes := make(chan *moddwatch.Mod, 4)
	changes <- &moddwatch.Mod{Added: []string{"b"}, Deleted: []string{"c"}}

	paths, closed := drain(changes, []string{"a"})
	require.False(t, closed)
	require.Equal(t, []string{"a", "b", "c"}, paths)

	close(changes)
	_, closed = drain(changes, nil)
	require.True(t, closed)
}

func TestWatchRebuildsOnChange(t *testing.T) {
	cfg := testConfig(t, map[string]string{"_assets/css/a.css": ".a { color: red; }"})
	cfg.Lull = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(testContext(t))
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- newTestRunner(cfg).Watch(ctx)
	}()

	combinedIs := func(want string) func() bool {
		return func() bool {
			content, err := os.ReadFile(cfg.Combined)
			return err == nil && string(content) == want
		}
	}

	require.Eventually(t, combinedIs("/*! mypkg 2024-01-01 */\n.a{color:red}"), 5*time.Second, 20*time.Millisecond)

	err := os.WriteFile(filepath.Join(cfg.SourceDir, "a.css"), []byte(".a { color: blue; }"), 0644)
	require.NoError(t, err)
	require.Eventually(t, combinedIs("/*! mypkg 2024-01-01 */\n.a{color:blue}"), 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-result:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
