package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestResolveOptions(t *testing.T) {
	tests := []struct {
		addr     string
		wantAddr string
		wantDB   int
		wantErr  bool
	}{
		{addr: "127.0.0.1:6379", wantAddr: "127.0.0.1:6379"},
		{addr: "redis://cache.local:6380/2", wantAddr: "cache.local:6380", wantDB: 2},
		{addr: "", wantErr: true},
		{addr: "redis://%zz", wantErr: true},
	}

	for _, tt := range tests {
		opts, err := resolveOptions(tt.addr)
		if tt.wantErr {
			if err == nil {
				t.Errorf("resolveOptions(%q): expected error", tt.addr)
			}
			continue
		}
		if err != nil {
			t.Errorf("resolveOptions(%q): unexpected error %v", tt.addr, err)
			continue
		}
		if opts.Addr != tt.wantAddr || opts.DB != tt.wantDB {
			t.Errorf("resolveOptions(%q): got addr=%s db=%d", tt.addr, opts.Addr, opts.DB)
		}
	}
}

func TestPing(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := NewClient(server.Addr())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := Ping(context.Background(), client); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	server.Close()
	if err := Ping(context.Background(), client); err == nil {
		t.Fatal("expected ping to fail after server shutdown")
	}
}
