package mcp

import (
	"context"
	"fmt"

	"recimpact/internal/config"
	"recimpact/internal/visits"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server exposes the estimators as MCP tools.
type Server struct {
	cfg    *config.AppConfig
	sdk    *sdk.Server
	loader func(path string) (*visits.Dataset, error)
}

// NewServer creates a new MCP server with every estimator tool registered.
func NewServer(cfg *config.AppConfig, version string) *Server {
	s := &Server{
		cfg:    cfg,
		sdk:    sdk.NewServer(&sdk.Implementation{Name: "recimpact", Version: version}, nil),
		loader: visits.LoadFile,
	}
	s.registerTools()
	return s
}

// Serve runs the MCP protocol over stdio until the client disconnects or ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Msg("MCP server listening on stdio")
	return s.sdk.Run(ctx, &sdk.StdioTransport{})
}

func (s *Server) load(dataset string) (*visits.Dataset, error) {
	if dataset == "" {
		return nil, fmt.Errorf("dataset is required (path, or A/B for the configured logs)")
	}
	path := s.cfg.ResolveDataset(dataset)
	ds, err := s.loader(path)
	if err != nil {
		return nil, err
	}
	return ds, nil
}
