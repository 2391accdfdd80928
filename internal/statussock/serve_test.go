package statussock

import (
	"bufio"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeology-limited/hypercube/internal/container"
	"github.com/codeology-limited/hypercube/internal/cube"
)

func startTestServer(t *testing.T) (sockPath string, containerPath string) {
	t.Helper()
	dir := t.TempDir()
	containerPath = filepath.Join(dir, "test.vhc")
	sockPath = filepath.Join(dir, "status.sock")

	h, err := cube.New(1, 8, 8, 64, 256)
	if err != nil {
		t.Fatalf("cube.New: %v", err)
	}
	if err := container.Write(containerPath, h, nil); err != nil {
		t.Fatalf("container.Write: %v", err)
	}

	listener, err := Listen(sockPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	go Serve(listener, containerPath)
	t.Cleanup(func() { listener.Close() })

	return sockPath, containerPath
}

func request(t *testing.T, sockPath, op string) Response {
	t.Helper()
	conn, err := net.DialTimeout("unix", sockPath, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	reqBytes, err := json.Marshal(Request{Op: op})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if _, err := conn.Write(reqBytes); err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return resp
}

func TestServeHeaderRequest(t *testing.T) {
	sockPath, _ := startTestServer(t)

	resp := request(t, sockPath, "header")
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	var h cube.Header
	if err := json.Unmarshal(resp.Header, &h); err != nil {
		t.Fatalf("unmarshal header: %v", err)
	}
	if h.Dimension != 8 || h.BlockSize != 64 {
		t.Errorf("unexpected header: %+v", h)
	}
}

func TestServeBlockCountRequest(t *testing.T) {
	sockPath, _ := startTestServer(t)

	resp := request(t, sockPath, "block_count")
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.BlockCount == nil || *resp.BlockCount != 0 {
		t.Errorf("BlockCount = %v, want 0", resp.BlockCount)
	}
}

func TestServeRejectsUnknownOp(t *testing.T) {
	sockPath, _ := startTestServer(t)

	resp := request(t, sockPath, "delete_everything")
	if resp.Error == "" {
		t.Error("expected an error response for an unknown op")
	}
}
