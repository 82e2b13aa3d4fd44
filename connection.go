package psycopg

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/The-One-And-Only-H/psycopg/adapt"
	"github.com/The-One-And-Only-H/psycopg/oids"
	"github.com/The-One-And-Only-H/psycopg/pq"
)

// Config contains the options used to set up a Connection.
type Config struct {
	// ClientEncoding is the initial client_encoding. Defaults to UTF8.
	ClientEncoding string

	// Parameters seeds the server parameter map with the values reported by
	// the session's ParameterStatus messages, such as server_version.
	Parameters map[string]string

	Logger   Logger
	LogLevel LogLevel
}

// Connection is the connection-level adaptation scope. It tracks the runtime
// parameters an outer driver feeds it and owns dumper and loader registries
// that shadow the process-wide ones. It is safe for concurrent use.
type Connection struct {
	mu       sync.RWMutex
	params   map[string]string
	encoding string

	serverVersion *semver.Version
	escaping      *pq.Escaping

	dumpers *adapt.DumpersMap
	loaders *adapt.LoadersMap

	logger   Logger
	logLevel LogLevel
}

// NewConnection returns a Connection set up from config. It fails when the
// requested client encoding is not one the library can decode.
func NewConnection(config Config) (*Connection, error) {
	logLevel := config.LogLevel
	if logLevel == 0 {
		logLevel = LogLevelDebug
	}

	c := &Connection{
		params:   make(map[string]string, len(config.Parameters)),
		encoding: "UTF8",
		dumpers:  adapt.NewDumpersMap(),
		loaders:  adapt.NewLoadersMap(),
		logger:   config.Logger,
		logLevel: logLevel,
	}

	for name, value := range config.Parameters {
		c.ApplyParameterStatus(name, value)
	}
	if config.ClientEncoding != "" {
		if err := c.SetClientEncoding(config.ClientEncoding); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Dumpers returns the connection's own dumper registry.
func (c *Connection) Dumpers() *adapt.DumpersMap { return c.dumpers }

// Loaders returns the connection's own loader registry.
func (c *Connection) Loaders() *adapt.LoadersMap { return c.loaders }

// ClientEncoding returns the normalized name of the connection's client
// encoding, such as "UTF8".
func (c *Connection) ClientEncoding() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.encoding
}

// SetClientEncoding changes the encoding used to decode text results and
// encode string parameters. It fails on encodings the library cannot decode.
// The caller is responsible for issuing the matching SET client_encoding on
// the wire.
func (c *Connection) SetClientEncoding(name string) error {
	if !pq.KnownEncoding(name) {
		return fmt.Errorf("unknown client encoding %q", name)
	}
	c.mu.Lock()
	c.params["client_encoding"] = name
	c.encoding = pq.NormalizeEncoding(name)
	c.mu.Unlock()

	if c.shouldLog(LogLevelDebug) {
		c.log(context.Background(), LogLevelDebug, "client encoding changed",
			map[string]interface{}{"encoding": c.ClientEncoding()})
	}
	return nil
}

// ParameterStatus returns the last reported value of a runtime parameter, or
// the empty string when the parameter was never reported.
func (c *Connection) ParameterStatus(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params[name]
}

// ApplyParameterStatus records a runtime parameter reported by the server.
// Reports of client_encoding and server_version update the derived encoding
// and escaping state.
func (c *Connection) ApplyParameterStatus(name, value string) {
	c.mu.Lock()
	c.params[name] = value
	switch name {
	case "client_encoding":
		if pq.KnownEncoding(value) {
			c.encoding = pq.NormalizeEncoding(value)
		}
	case "server_version":
		c.serverVersion = nil
		c.escaping = nil
	}
	c.mu.Unlock()

	if c.shouldLog(LogLevelTrace) {
		c.log(context.Background(), LogLevelTrace, "parameter status",
			map[string]interface{}{"name": name, "value": value})
	}
}

// ServerVersion returns the version from the reported server_version
// parameter, or nil when none was reported or the value cannot be parsed.
func (c *Connection) ServerVersion() *semver.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverVersionLocked()
}

func (c *Connection) serverVersionLocked() *semver.Version {
	if c.serverVersion != nil {
		return c.serverVersion
	}
	raw, ok := c.params["server_version"]
	if !ok {
		return nil
	}
	// Strip vendor suffixes such as "14.5 (Debian 14.5-1.pgdg110+1)".
	if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[:i]
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return nil
	}
	c.serverVersion = v
	return v
}

// Escaping returns the escape helper matching the reported server version.
// Servers older than 9.0 get octal bytea escaping instead of hex.
func (c *Connection) Escaping() *pq.Escaping {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.escaping == nil {
		c.escaping = pq.NewEscaping(c.serverVersionLocked())
	}
	return c.escaping
}

// RegisterDumper registers a dumper constructor in the connection scope. See
// adapt.DumpersMap.Register for the accepted forms of src.
func (c *Connection) RegisterDumper(src interface{}, format pq.Format, fn adapt.DumperFunc) error {
	if err := adapt.RegisterDumper(src, c, format, fn); err != nil {
		return err
	}
	if c.shouldLog(LogLevelDebug) {
		c.log(context.Background(), LogLevelDebug, "dumper registered",
			map[string]interface{}{"src": fmt.Sprintf("%v", src), "format": format.String()})
	}
	return nil
}

// RegisterLoader registers a loader constructor in the connection scope.
func (c *Connection) RegisterLoader(oid oids.Oid, format pq.Format, fn adapt.LoaderFunc) error {
	if err := adapt.RegisterLoader(oid, c, format, fn); err != nil {
		return err
	}
	if c.shouldLog(LogLevelDebug) {
		c.log(context.Background(), LogLevelDebug, "loader registered",
			map[string]interface{}{"oid": uint32(oid), "format": format.String()})
	}
	return nil
}

// Cursor returns a new cursor on the connection.
func (c *Connection) Cursor() *Cursor {
	return &Cursor{
		conn:    c,
		dumpers: adapt.NewDumpersMap(),
		loaders: adapt.NewLoadersMap(),
	}
}

func (c *Connection) shouldLog(lvl LogLevel) bool {
	return c.logger != nil && c.logLevel >= lvl
}

func (c *Connection) log(ctx context.Context, lvl LogLevel, msg string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	c.logger.Log(ctx, lvl, msg, data)
}
