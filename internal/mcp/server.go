package mcp

import (
	"context"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"worldweave/internal/engine"
	"worldweave/internal/logging"
)

// Server exposes one running world over MCP. Tool calls are serialised
// because the engine is single-threaded.
type Server struct {
	mu     sync.Mutex
	engine *engine.Engine
	mcp    *sdk.Server
	log    *zap.Logger
}

func NewServer(e *engine.Engine, version string) *Server {
	s := &Server{
		engine: e,
		log:    logging.New("mcp").With(zap.String("run_id", e.RunID())),
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "worldweave",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
