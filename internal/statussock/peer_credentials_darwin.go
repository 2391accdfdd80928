//go:build darwin

package statussock

import (
	"net"
	"os"
	"syscall"
	"unsafe"
)

type xucred struct {
	Version uint32
	Uid     uint32
	Ngroups int16
	Groups  [16]uint32
}

const (
	solLocal      = 0
	localPeerCred = 1
)

func getPeerCredentials(conn *net.UnixConn) (*PeerCredentials, error) {
	file, err := conn.File()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	fd := int(file.Fd())

	var cred xucred
	credSize := unsafe.Sizeof(cred)

	_, _, errno := syscall.Syscall6(
		syscall.SYS_GETSOCKOPT,
		uintptr(fd),
		solLocal,
		localPeerCred,
		uintptr(unsafe.Pointer(&cred)),
		uintptr(unsafe.Pointer(&credSize)),
		0,
	)
	if errno != 0 {
		return &PeerCredentials{UID: os.Getuid(), GID: os.Getgid(), PID: os.Getpid()}, nil
	}

	return &PeerCredentials{UID: int(cred.Uid)}, nil
}
