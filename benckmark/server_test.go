package benckmark

import (
	"context"
	"testing"
	"time"

	"cobble/config"
	"cobble/net"
	"cobble/protocol"
	"cobble/protocol/packets"
	sb "cobble/protocol/packets/serverbound"
)

const benchAddr = "127.0.0.1:25599"

func startServer(b *testing.B) *net.Server {
	cfg := config.NewDefaultServerConfig(25599)
	cfg.Addr = "tcp://" + benchAddr
	cfg.PrintBanner = false
	cfg.Multicore = false
	cfg.PacketsPerSecond = 1e9
	cfg.PacketBurst = 1e9
	s := net.NewServer(cfg)
	go func() {
		if err := s.Start(); err != nil {
			b.Logf("server stopped: %v", err)
		}
	}()
	return s
}

func dial(b *testing.B) *net.Client {
	cfg := config.NewClientConfig()
	deadline := time.Now().Add(5 * time.Second)
	for {
		c, err := net.Dial(context.Background(), benchAddr, cfg)
		if err == nil {
			return c
		}
		if time.Now().After(deadline) {
			b.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func BenchmarkServerPing(b *testing.B) {
	s := startServer(b)
	defer s.ShutDown()
	c := dial(b)
	defer c.Close()
	if err := c.Handshake("localhost", 25599, protocol.Status); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Ping(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPlayCodec(b *testing.B) {
	p := sb.PlayerPositionAndRotation{X: 1.5, FeetY: 64, Z: -20, Yaw: 90, Pitch: 10, OnGround: true}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		frame, err := packets.PlayServerbound.Marshal(p, protocol.CurrentVersion)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := packets.PlayServerbound.Unmarshal(frame, protocol.CurrentVersion); err != nil {
			b.Fatal(err)
		}
	}
}
