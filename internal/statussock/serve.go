package statussock

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/codeology-limited/hypercube/internal/container"
	"github.com/codeology-limited/hypercube/internal/tlog"
)

// PeerCredentials identifies a connecting Unix-socket client.
type PeerCredentials struct {
	UID int
	GID int
	PID int
}

// Request is the only shape a client may send: {"op":"header"} or
// {"op":"block_count"}.
type Request struct {
	Op string `json:"op"`
}

// Response carries either a result or an error, never both.
type Response struct {
	Header     json.RawMessage `json:"header,omitempty"`
	BlockCount *int            `json:"block_count,omitempty"`
	Error      string          `json:"error,omitempty"`
}

const (
	readBufSize       = 256
	connectionTimeout = 30 * time.Second
	readTimeout       = 5 * time.Second
)

type handler struct {
	path   string
	socket *net.UnixListener
}

// Serve answers status queries against path on sock. This call blocks;
// run it in its own goroutine.
func Serve(sock net.Listener, path string) {
	h := handler{path: path, socket: sock.(*net.UnixListener)}
	h.acceptLoop()
}

func (h *handler) acceptLoop() {
	for {
		conn, err := h.socket.Accept()
		if err != nil {
			tlog.Info.Printf("statussock: accept error: %v", err)
			return
		}
		go h.handleConnection(conn.(*net.UnixConn))
	}
}

func (h *handler) handleConnection(conn *net.UnixConn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(connectionTimeout))

	if err := h.checkPeerCredentials(conn); err != nil {
		tlog.Warn.Printf("statussock: peer credential check failed: %v", err)
		return
	}

	buf := make([]byte, readBufSize)
	for {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := conn.Read(buf)
		if err == io.EOF {
			return
		}
		if err != nil {
			tlog.Warn.Printf("statussock: read error: %v", err)
			return
		}
		if n == readBufSize {
			h.sendError(conn, fmt.Errorf("request too big (max %d bytes)", readBufSize-1))
			return
		}

		var req Request
		if err := json.Unmarshal(buf[:n], &req); err != nil {
			h.sendError(conn, fmt.Errorf("invalid JSON request: %w", err))
			continue
		}
		h.handleRequest(&req, conn)
	}
}

func (h *handler) checkPeerCredentials(conn *net.UnixConn) error {
	cred, err := getPeerCredentials(conn)
	if err != nil {
		return fmt.Errorf("failed to get peer credentials: %w", err)
	}
	if cred.UID != os.Getuid() {
		return fmt.Errorf("peer UID %d does not match server UID %d", cred.UID, os.Getuid())
	}
	return nil
}

func (h *handler) handleRequest(req *Request, conn *net.UnixConn) {
	switch req.Op {
	case "header":
		hdr, err := container.Header(h.path)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		raw, err := json.Marshal(hdr)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.send(conn, Response{Header: raw})
	case "block_count":
		count, err := container.BlockCount(h.path)
		if err != nil {
			h.sendError(conn, err)
			return
		}
		h.send(conn, Response{BlockCount: &count})
	default:
		h.sendError(conn, fmt.Errorf("unknown op %q", req.Op))
	}
}

func (h *handler) send(conn *net.UnixConn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		tlog.Warn.Printf("statussock: marshal response failed: %v", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		tlog.Warn.Printf("statussock: write response failed: %v", err)
	}
}

func (h *handler) sendError(conn *net.UnixConn, err error) {
	h.send(conn, Response{Error: err.Error()})
}
