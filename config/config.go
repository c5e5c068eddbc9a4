package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/panjf2000/gnet"

	"cobble/internal/logging"
	"cobble/protocol"
)

// UnknownPacketPolicy decides what a server does with a well-formed frame
// whose packet ID or variant discriminant it does not know.
type UnknownPacketPolicy string

const (
	Disconnect = UnknownPacketPolicy("disconnect")
	Skip       = UnknownPacketPolicy("skip")
)

// DefaultMaxFrameSize is the largest length a three byte VarInt prefix can
// carry.
const DefaultMaxFrameSize = 2097151

var ErrInvalidConfig = errors.New("config: invalid")

type ServerConfig struct {
	Addr         string
	Port         int32
	Multicore    bool
	EventLoopNum int32
	TcpKeepAlive time.Duration
	LoadBalance  gnet.LoadBalancing
	Logger       logging.Logger

	PrintBanner bool

	Version           protocol.ProtocolVersion
	MOTD              string
	MaxPlayers        int
	UnknownPackets    UnknownPacketPolicy
	MaxFrameSize      int
	PacketsPerSecond  float64
	PacketBurst       int
	KeepAliveInterval time.Duration
	MetricsAddr       string
}

func NewDefaultServerConfig(port int32) *ServerConfig {
	return &ServerConfig{
		Addr:              fmt.Sprintf("tcp://:%d", port),
		Port:              port,
		Multicore:         true,
		EventLoopNum:      8,
		TcpKeepAlive:      5 * time.Second,
		Logger:            logging.DefaultLogger,
		PrintBanner:       true,
		Version:           protocol.CurrentVersion,
		MOTD:              "A cobble server",
		MaxPlayers:        20,
		UnknownPackets:    Disconnect,
		MaxFrameSize:      DefaultMaxFrameSize,
		PacketsPerSecond:  500,
		PacketBurst:       1000,
		KeepAliveInterval: 15 * time.Second,
	}
}

func (c *ServerConfig) Validate() error {
	switch c.UnknownPackets {
	case Disconnect, Skip:
	default:
		return fmt.Errorf("%w: unknown_packets must be %q or %q, got %q", ErrInvalidConfig, Disconnect, Skip, c.UnknownPackets)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxFrameSize <= 0 || c.MaxFrameSize > DefaultMaxFrameSize {
		return fmt.Errorf("%w: max_frame_size must be in (0, %d]", ErrInvalidConfig, DefaultMaxFrameSize)
	}
	if c.PacketsPerSecond <= 0 || c.PacketBurst <= 0 {
		return fmt.Errorf("%w: packet rate and burst must be positive", ErrInvalidConfig)
	}
	if c.EventLoopNum < 0 {
		return fmt.Errorf("%w: event_loops must not be negative", ErrInvalidConfig)
	}
	return nil
}

type fileConfig struct {
	Port              int32   `toml:"port"`
	Multicore         bool    `toml:"multicore"`
	EventLoops        int32   `toml:"event_loops"`
	TCPKeepAlive      string  `toml:"tcp_keepalive"`
	LoadBalance       string  `toml:"load_balance"`
	PrintBanner       bool    `toml:"print_banner"`
	Version           string  `toml:"version"`
	MOTD              string  `toml:"motd"`
	MaxPlayers        int     `toml:"max_players"`
	UnknownPackets    string  `toml:"unknown_packets"`
	MaxFrameSize      int     `toml:"max_frame_size"`
	PacketsPerSecond  float64 `toml:"packets_per_second"`
	PacketBurst       int     `toml:"packet_burst"`
	KeepAliveInterval string  `toml:"keepalive_interval"`
	MetricsAddr       string  `toml:"metrics_addr"`
}

// LoadServerConfig reads a TOML file and overlays the keys it defines on the
// defaults.
func LoadServerConfig(path string) (*ServerConfig, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}

	port := int32(25565)
	if meta.IsDefined("port") {
		port = raw.Port
	}
	cfg := NewDefaultServerConfig(port)

	if meta.IsDefined("multicore") {
		cfg.Multicore = raw.Multicore
	}
	if meta.IsDefined("event_loops") {
		cfg.EventLoopNum = raw.EventLoops
	}
	if meta.IsDefined("tcp_keepalive") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.TCPKeepAlive))
		if err != nil {
			return nil, fmt.Errorf("parse tcp_keepalive: %w", err)
		}
		cfg.TcpKeepAlive = d
	}
	if meta.IsDefined("load_balance") {
		lb, err := ParseLoadBalance(raw.LoadBalance)
		if err != nil {
			return nil, err
		}
		cfg.LoadBalance = lb
	}
	if meta.IsDefined("print_banner") {
		cfg.PrintBanner = raw.PrintBanner
	}
	if meta.IsDefined("version") {
		v, err := protocol.ParseVersion(raw.Version)
		if err != nil {
			return nil, fmt.Errorf("parse version: %w", err)
		}
		cfg.Version = v
	}
	if meta.IsDefined("motd") {
		cfg.MOTD = raw.MOTD
	}
	if meta.IsDefined("max_players") {
		cfg.MaxPlayers = raw.MaxPlayers
	}
	if meta.IsDefined("unknown_packets") {
		cfg.UnknownPackets = UnknownPacketPolicy(strings.ToLower(strings.TrimSpace(raw.UnknownPackets)))
	}
	if meta.IsDefined("max_frame_size") {
		cfg.MaxFrameSize = raw.MaxFrameSize
	}
	if meta.IsDefined("packets_per_second") {
		cfg.PacketsPerSecond = raw.PacketsPerSecond
	}
	if meta.IsDefined("packet_burst") {
		cfg.PacketBurst = raw.PacketBurst
	}
	if meta.IsDefined("keepalive_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.KeepAliveInterval))
		if err != nil {
			return nil, fmt.Errorf("parse keepalive_interval: %w", err)
		}
		cfg.KeepAliveInterval = d
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseLoadBalance(s string) (gnet.LoadBalancing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "round-robin":
		return gnet.RoundRobin, nil
	case "least-connections":
		return gnet.LeastConnections, nil
	case "source-addr-hash":
		return gnet.SourceAddrHash, nil
	}
	return 0, fmt.Errorf("%w: unknown load_balance %q", ErrInvalidConfig, s)
}

type ClientConfig struct {
	Logger         logging.Logger
	Version        protocol.ProtocolVersion
	MaxFrameSize   int
	RequestTimeout time.Duration
}

func NewClientConfig() *ClientConfig {
	return &ClientConfig{
		Logger:         logging.DefaultLogger,
		Version:        protocol.CurrentVersion,
		MaxFrameSize:   DefaultMaxFrameSize,
		RequestTimeout: 5 * time.Second,
	}
}
