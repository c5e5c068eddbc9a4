// Command cobble runs the protocol server.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"cobble/config"
	"cobble/internal/logging"
	"cobble/net"
	"cobble/protocol/packets"
	cb "cobble/protocol/packets/clientbound"
	sb "cobble/protocol/packets/serverbound"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a TOML config file")
		port       = flag.Int("port", 25565, "listen port, ignored when -config is set")
	)
	flag.Parse()
	defer logging.Cleanup()
	logger := logging.DefaultLogger

	cfg := config.NewDefaultServerConfig(int32(*port))
	if *configPath != "" {
		loaded, err := config.LoadServerConfig(*configPath)
		if err != nil {
			logger.Fatalf("%v", err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("%v", err)
	}

	s := net.NewServer(cfg)
	net.Handle(s, func(sess *net.Session, p sb.ChatMessage) []any {
		msg := cb.ChatMessage{JSONData: packets.Chat("<" + sess.Username() + "> " + p.Message), Sender: sess.UUID()}
		s.Broadcast(msg)
		return nil
	})

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		s.ShutDown()
	}()

	if err := s.Start(); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
