package primitive

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net"
	"os"
	"time"
)

// OSProvider covers file and process-wait operations.
type OSProvider interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte, perm os.FileMode) error
	WaitProcess(ctx context.Context, p *os.Process) (*os.ProcessState, error)
}

// Selector waits for the first of several readiness channels.
// It returns the index of the ready channel, or -1 when timeout elapsed.
// A timeout <= 0 waits without limit.
type Selector interface {
	Select(ctx context.Context, timeout time.Duration, ready ...<-chan struct{}) (int, error)
}

// Sockets opens network connections and listeners.
type Sockets interface {
	Dial(ctx context.Context, network, address string) (net.Conn, error)
	Listen(ctx context.Context, network, address string) (net.Listener, error)
}

// Clock provides wall time and delays.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SubprocessRunner runs child processes to completion.
type SubprocessRunner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// TLS performs client handshakes over an established connection.
type TLS interface {
	Client(ctx context.Context, conn net.Conn, cfg *tls.Config) (*tls.Conn, error)
}

// Database opens a connection pool through a database/sql driver.
type Database interface {
	Driver() string
	Open(ctx context.Context, dsn string) (*sql.DB, error)
}

// ThreadHandle is the native-thread capability set. Every accessor has a legacy
// alias that observes the same underlying state.
type ThreadHandle interface {
	Name() string
	GetName() string
	SetName(name string)
	Rename(name string)

	Ident() uint64
	GetIdent() uint64

	IsAlive() bool
	Alive() bool

	IsDaemon() bool
	Daemon() bool

	// Join waits for the thread to finish. A timeout <= 0 waits without
	// limit. It reports false when the timeout elapsed first.
	Join(timeout time.Duration) bool
}

// Threads creates and introspects thread-like handles.
type Threads interface {
	Start(name string, fn func(ctx context.Context)) ThreadHandle
	Current(ctx context.Context) (ThreadHandle, bool)
	Enumerate() []ThreadHandle
	ActiveCount() int
}
