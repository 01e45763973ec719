package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/freekieb7/greeter/config"
	"github.com/freekieb7/greeter/test"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func startServer(t *testing.T, cfg *config.Config) (string, *syncBuffer, func() error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	logs := &syncBuffer{}
	addrCh := make(chan net.Addr, 1)
	errCh := make(chan error, 1)

	go func() {
		errCh <- run(ctx, cfg, logs, func(addr net.Addr) { addrCh <- addr })
	}()

	select {
	case addr := <-addrCh:
		return "http://" + addr.String(), logs, func() error {
			cancel()
			return <-errCh
		}
	case err := <-errCh:
		cancel()
		t.Fatalf("server did not start: %v", err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("server did not start in time")
	}

	return "", nil, nil
}

func fetch(t *testing.T, url string) (int, string, http.Header) {
	t.Helper()

	res, err := http.Get(url)
	test.AssertNoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	test.AssertNoError(t, err)

	return res.StatusCode, string(body), res.Header
}

func TestRunServesGreetings(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"

	base, logs, stop := startServer(t, cfg)

	status, body, header := fetch(t, base+"/")
	test.AssertEqual(t, http.StatusOK, status)
	test.AssertEqual(t, "Hello, world!\n", body)
	test.AssertEqual(t, 36, len(header.Get("X-Request-Id")))

	status, body, _ = fetch(t, base+"/hello/Ada")
	test.AssertEqual(t, http.StatusOK, status)
	test.AssertEqual(t, "Hello, Ada!\n", body)

	status, _, _ = fetch(t, base+"/nope")
	test.AssertEqual(t, http.StatusNotFound, status)

	test.AssertNoError(t, stop())

	test.AssertContains(t, logs.String(), "Listening and serving")
	test.AssertContains(t, logs.String(), "path=/hello/Ada")
	test.AssertContains(t, logs.String(), "Shutting down")
}

func TestRunIncludesHostname(t *testing.T) {
	host, err := os.Hostname()
	if err != nil || host == "" {
		t.Skip("hostname unavailable")
	}

	cfg := config.DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.IncludeHostname = true

	base, _, stop := startServer(t, cfg)

	_, body, _ := fetch(t, base+"/hello/Ada")
	test.AssertEqual(t, "Hello, Ada, from "+host+"!\n", body)

	_, body, _ = fetch(t, base+"/")
	test.AssertEqual(t, "Hello, world, from "+host+"!\n", body)

	test.AssertNoError(t, stop())
}

func TestRunListenError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	test.AssertNoError(t, err)
	defer listener.Close()

	cfg := config.DefaultConfig()
	cfg.Addr = listener.Addr().String()

	err = run(context.Background(), cfg, io.Discard, nil)
	test.AssertError(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	test.AssertNoError(t, rootCmd.Execute())
	test.AssertEqual(t, "greeter version dev\n", out.String())
}
