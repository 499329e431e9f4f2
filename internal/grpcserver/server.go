package grpcserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"iiifhub/internal/apperr"
	"iiifhub/internal/logging"
	"iiifhub/internal/manifest"
	"iiifhub/pkg/models"
)

const ServiceName = "iiifhub.ManifestService"

// Manifests creates and loads stored manifests.
type Manifests interface {
	Create(ctx context.Context, resources []models.ImageResource, meta models.DescriptiveMetadata, fileIDs []string) (*models.Manifest, error)
	Get(ctx context.Context, id string) (json.RawMessage, error)
}

// Importer extracts images from a remote manifest.
type Importer interface {
	Import(ctx context.Context, url string) ([]models.ImageResource, error)
}

type Server struct {
	Manifests Manifests
	Importer  Importer
	Logger    *log.Logger
}

func NewServer(manifests Manifests, importer Importer, logger *log.Logger) *Server {
	return &Server{Manifests: manifests, Importer: importer, Logger: logging.Or(logger).WithPrefix("grpc")}
}

// Register attaches the service to s.
func Register(s grpc.ServiceRegistrar, srv *Server) {
	s.RegisterService(&serviceDesc, srv)
}

func (s *Server) Assemble(ctx context.Context, req *AssembleRequest) (*AssembleResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}

	m, err := s.Manifests.Create(ctx, req.Resources, req.Metadata, req.FileIDs)
	if err != nil {
		return nil, s.toStatus("Assemble", err)
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode manifest failed")
	}
	return &AssembleResponse{ID: manifest.RecordID(m), Manifest: body}, nil
}

func (s *Server) Import(ctx context.Context, req *ImportRequest) (*ImportResponse, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" {
		return nil, status.Error(codes.InvalidArgument, "url required")
	}

	resources, err := s.Importer.Import(ctx, req.URL)
	if err != nil {
		return nil, s.toStatus("Import", err)
	}
	return &ImportResponse{Resources: resources, Count: len(resources)}, nil
}

func (s *Server) GetManifest(ctx context.Context, req *GetManifestRequest) (*GetManifestResponse, error) {
	id := ""
	if req != nil {
		id = strings.TrimSpace(req.ID)
	}
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "id required")
	}

	body, err := s.Manifests.Get(ctx, id)
	if err != nil {
		return nil, s.toStatus("GetManifest", err)
	}
	return &GetManifestResponse{ID: id, Manifest: body}, nil
}

func (s *Server) toStatus(method string, err error) error {
	code := Code(err)
	if code == codes.Internal {
		s.Logger.Error("request failed", "method", method, "err", err)
	}
	return status.Error(code, err.Error())
}

// Code maps an error kind onto a gRPC status code.
func Code(err error) codes.Code {
	kind, _ := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation:
		return codes.InvalidArgument
	case apperr.KindFetch:
		return codes.Unavailable
	case apperr.KindFormat:
		return codes.FailedPrecondition
	case apperr.KindNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}
