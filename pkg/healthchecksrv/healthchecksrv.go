package healthchecksrv

import (
	"context"
	"net/http"

	"connectrpc.com/grpchealth"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"gorm.io/gorm"

	"github.com/pramodksahoo/jenkins-production/pkg/watch"
)

type Server struct {
	logger     *zap.Logger
	listenAddr string
	watcher    *watch.Watcher
	db         *gorm.DB
}

func NewHealthCheckServer(listenAddr string, watcher *watch.Watcher, db *gorm.DB, logger *zap.Logger) *Server {
	return &Server{
		logger:     logger,
		listenAddr: listenAddr,
		watcher:    watcher,
		db:         db,
	}
}

func (s *Server) Serve() {
	go func() {
		s.logger.Info("starting health check server", zap.String("address", s.listenAddr))
		mux := http.NewServeMux()
		mux.Handle(grpchealth.NewHandler(s))
		if err := http.ListenAndServe(s.listenAddr, h2c.NewHandler(mux, &http2.Server{})); err != nil {
			s.logger.Error("failed to start health check server", zap.Error(err))
		}
	}()
}

// Check reports SERVING once every informer synced and the revision
// store answers pings.
func (s *Server) Check(ctx context.Context, _ *grpchealth.CheckRequest) (*grpchealth.CheckResponse, error) {
	sqlDb, err := s.db.DB()
	if err != nil {
		s.logger.Error("failed to resolve db handle", zap.Error(err))
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}
	if err := sqlDb.PingContext(ctx); err != nil {
		s.logger.Error("revision store unreachable", zap.Error(err))
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}
	if !s.watcher.Synced() {
		return &grpchealth.CheckResponse{Status: grpchealth.StatusNotServing}, nil
	}
	return &grpchealth.CheckResponse{Status: grpchealth.StatusServing}, nil
}
