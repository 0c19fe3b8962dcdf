package control

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/golang/glog"
)

// Server is the HTTP side of the control API.
type Server struct {
	API *API
	Hub *Hub
	// StatusPeriod is how often the hub broadcasts.
	StatusPeriod time.Duration
	// Advertise announces the server over mDNS.
	Advertise bool
}

// Handler routes the GraphQL endpoints and the /ws status stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.API.Register(mux)
	mux.Handle("/ws", s.Hub)
	return mux
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: s.Handler()}
	glog.Infof("control API on %s", ln.Addr())

	go s.Hub.Run(ctx, s.StatusPeriod)
	if s.Advertise {
		_, p, _ := net.SplitHostPort(ln.Addr().String())
		port, _ := strconv.Atoi(p)
		if err := Advertise(ctx, port); err != nil {
			glog.Warningf("mdns: %v", err)
		}
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
