package sync

import (
	"bufio"
	"context"
	"errors"
	"net"
)

// Server exposes the hub over raw TCP for line-oriented clients.
type Server struct {
	Addr string
	Hub  *Hub
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

// Run accepts clients until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := s.Hub.logger.WithPrefix("tcp-sync")
	logger.Info("listening", "addr", ln.Addr().String())

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			logger.Warn("accept failed", "err", err)
			continue
		}

		s.Hub.Welcome(conn)
		s.Hub.Add(conn)
		logger.Info("client connected", "addr", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				logger.Info("client disconnected", "addr", c.RemoteAddr())
			}()

			// incoming lines are ignored; reading only detects disconnects
			sc := bufio.NewScanner(c)
			for sc.Scan() {
			}
		}(conn)
	}
}
