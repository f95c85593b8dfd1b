package systemd

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"
)

func listenNotify(t *testing.T) *net.UnixConn {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notify.sock")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	t.Setenv("NOTIFY_SOCKET", path)
	return conn
}

func read(t *testing.T, conn *net.UnixConn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(buf[:n])
}

func TestNotifications(t *testing.T) {
	conn := listenNotify(t)

	tests := []struct {
		name string
		send func() (bool, error)
		want string
	}{
		{name: "ready", send: Ready, want: "READY=1"},
		{name: "status", send: func() (bool, error) { return Status("checking") }, want: "STATUS=checking"},
		{name: "stopping", send: Stopping, want: "STOPPING=1"},
	}
	for _, tt := range tests {
		sent, err := tt.send()
		if err != nil || !sent {
			t.Fatalf("%s: sent=%v err=%v", tt.name, sent, err)
		}
		if got := read(t, conn); got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNoSocketIsNoop(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	sent, err := Ready()
	if err != nil || sent {
		t.Fatalf("Ready outside systemd: sent=%v err=%v", sent, err)
	}
}

func TestWatchdogDisabledReturns(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := Watchdog(ctx); err != nil {
		t.Fatalf("Watchdog: %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("Watchdog should return immediately when disabled")
	}
}
