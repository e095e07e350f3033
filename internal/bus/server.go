package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// Conn is the part of *dbus.Conn the server uses
type Conn interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	Close() error
}

// ConnectSession connects to the session bus
func ConnectSession() (*dbus.Conn, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return conn, nil
}

// Server exports search providers on a bus connection
type Server struct {
	conn  Conn
	paths []dbus.ObjectPath
	names []string
}

// NewServer creates a server on conn
func NewServer(conn Conn) *Server {
	return &Server{conn: conn}
}

// Export registers searcher at path. All providers must be exported before
// RequestNames, so the shell never sees a name without its objects.
func (s *Server) Export(ctx context.Context, path string, searcher Searcher) error {
	objPath := dbus.ObjectPath(path)
	if !objPath.IsValid() {
		return fmt.Errorf("invalid object path %q", path)
	}

	provider := NewProvider(ctx, objPath, searcher)
	if err := s.conn.Export(provider, objPath, SearchProviderInterface); err != nil {
		return fmt.Errorf("failed to export %s: %w", path, err)
	}
	if err := s.conn.Export(introspect.Introspectable(introspectXML), objPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection at %s: %w", path, err)
	}

	s.paths = append(s.paths, objPath)
	busLog.Debug("provider_exported", slog.String("path", path))
	return nil
}

// RequestNames acquires every bus name without queueing. Failing to become
// the primary owner of any name is an error.
func (s *Server) RequestNames(names []string) error {
	for _, name := range names {
		reply, err := s.conn.RequestName(name, dbus.NameFlagDoNotQueue)
		if err != nil {
			return fmt.Errorf("failed to request bus name %s: %w", name, err)
		}
		if reply != dbus.RequestNameReplyPrimaryOwner {
			return fmt.Errorf("bus name %s already taken", name)
		}
		s.names = append(s.names, name)
		busLog.Info("bus_name_acquired", slog.String("name", name))
	}
	return nil
}

// Exported returns the object paths exported so far
func (s *Server) Exported() []string {
	out := make([]string, len(s.paths))
	for i, p := range s.paths {
		out[i] = string(p)
	}
	return out
}

// Close unexports all providers and closes the connection
func (s *Server) Close() error {
	for _, p := range s.paths {
		_ = s.conn.Export(nil, p, SearchProviderInterface)
		_ = s.conn.Export(nil, p, "org.freedesktop.DBus.Introspectable")
	}
	s.paths = nil
	return s.conn.Close()
}
