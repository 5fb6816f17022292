// Package registry composes the token service and the registry store
// into the six externally observable operations — authorize, register,
// deregister, find, keep-alive, report — and adapts their plain Go
// request/reply records (proto.*) to and from handler calls. This is
// component D (operation handlers) and component E (service façade) of
// the design, following the shape of dexidp/dex's server/api.go
// (NewAPI(storage, logger, ...) api.DexServer), generalized from one
// gRPC-generated interface to our hand-rolled proto records.
package registry

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bill-habermaas/grpc-registry/internal/status"
	"github.com/bill-habermaas/grpc-registry/internal/store"
	"github.com/bill-habermaas/grpc-registry/internal/token"
	"github.com/bill-habermaas/grpc-registry/proto"
)

const (
	clientTokenTTL = 6 * time.Hour
	serverTokenTTL = 12 * time.Hour
)

// Service is the process-wide façade: it owns the store and the token
// service for the life of the process and exposes the six operations.
// Reimplementations should construct this explicitly (constructor
// injection) rather than relying on a package-level singleton — the
// source's singleton is an accident of refactoring, not a requirement
// (spec.md section 9).
type Service struct {
	tokens *token.Service
	store  *store.Registry
	logger *slog.Logger
}

// New builds a Service around an already-initialized token service and
// an empty registry store.
func New(tokens *token.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tokens: tokens,
		store:  store.New(),
		logger: logger.With("component", "registry"),
	}
}

// Authorize implements spec.md section 4.D's authorize operation.
func (s *Service) Authorize(req *proto.AuthorizeRequest) *proto.AuthorizeResponse {
	tok, err := s.tokens.SignClient(req.ProtobufName, clientTokenTTL)
	if err != nil {
		s.logger.Error("authorize: failed to mint client token", "interface", req.ProtobufName, "error", err)
		return &proto.AuthorizeResponse{
			Status: wireStatus(status.BADTOKEN, "failed to create jwt token"),
		}
	}

	// The client token is only recorded if the interface already has a
	// registered group; minting happens first so a signing failure never
	// leaves partial state, mirroring register's ordering rationale.
	if err := s.store.Authorize(req.ProtobufName, []byte(tok)); errors.Is(err, store.ErrNotFound) {
		return &proto.AuthorizeResponse{
			Status: wireStatus(status.NOTFOUND, "no matching protobuf definition"),
		}
	}

	return &proto.AuthorizeResponse{Token: tok}
}

// Register implements spec.md section 4.D's register operation.
func (s *Service) Register(req *proto.RegisterRequest) *proto.RegisterResponse {
	// Minted before the store is touched: a signing failure must leave no
	// partial state (spec.md section 4.D, step 1).
	tok, err := s.tokens.SignServer(req.ProtobufName, req.ProtobufURL, serverTokenTTL)
	if err != nil {
		s.logger.Error("register: failed to mint server token", "interface", req.ProtobufName, "error", err)
		return &proto.RegisterResponse{
			Status: wireStatus(status.BADTOKEN, "failed to create jwt token"),
		}
	}

	if err := s.store.RegisterEndpoint(req.ProtobufName, req.ProtobufURL, []byte(tok)); errors.Is(err, store.ErrDuplicateURL) {
		// The taxonomy has a DUPLICATE code, but the baseline handler
		// reports SERVERROR here — see DESIGN.md's open-question
		// resolution and spec.md section 9.
		return &proto.RegisterResponse{
			Status: wireStatus(status.SERVERROR, "duplicate url in service"),
		}
	}

	return &proto.RegisterResponse{Token: tok}
}

// Deregister implements spec.md section 4.D's deregister operation.
func (s *Service) Deregister(req *proto.DeRegisterRequest) *proto.DeRegisterResponse {
	claims, err := s.tokens.Verify(req.Token)
	if err != nil {
		return &proto.DeRegisterResponse{Status: wireStatus(status.AUTHERROR, err.Error())}
	}

	if err := s.store.Deregister(claims.Subject, claims.UserName); errors.Is(err, store.ErrNotFound) {
		return &proto.DeRegisterResponse{Status: wireStatus(status.NOTFOUND, "protobuf not found")}
	}

	return &proto.DeRegisterResponse{}
}

// Find implements spec.md section 4.D's find operation.
func (s *Service) Find(req *proto.FindProviderRequest) *proto.FindProviderResponse {
	if _, err := s.tokens.Verify(req.RegistryToken); err != nil {
		return &proto.FindProviderResponse{Status: wireStatus(status.AUTHERROR, err.Error())}
	}

	url, err := s.store.Find(req.ProtobufName, store.SelectionPolicy{
		ByLowestUse:  req.ByLowestUse,
		ByRoundRobin: req.ByRoundRobin,
	})
	if errors.Is(err, store.ErrNotFound) {
		return &proto.FindProviderResponse{Status: wireStatus(status.NOTFOUND, "protobuf does not exist")}
	}

	return &proto.FindProviderResponse{ServiceURL: url}
}

// KeepAlive implements spec.md section 4.D's keep_alive operation.
func (s *Service) KeepAlive(req *proto.KeepaliveReport) *proto.KeepAliveResponse {
	claims, err := s.tokens.Verify(req.Token)
	if err != nil {
		return &proto.KeepAliveResponse{Status: wireStatus(status.AUTHERROR, err.Error())}
	}

	if err := s.store.KeepAlive(claims.Subject, claims.UserName, req.NumberRequests); errors.Is(err, store.ErrNotFound) {
		return &proto.KeepAliveResponse{Status: wireStatus(status.NOTFOUND, "protobuf does not exist")}
	}

	// An unmatched url within an existing group is still a success, per
	// spec.md section 4.D / section 9's recorded open question.
	return &proto.KeepAliveResponse{}
}

// Report implements spec.md section 4.D's report operation.
func (s *Service) Report(req *proto.ProviderReportRequest) *proto.ProviderReportResponse {
	if _, err := s.tokens.Verify(req.Token); err != nil {
		return &proto.ProviderReportResponse{Status: wireStatus(status.AUTHERROR, err.Error())}
	}

	snap := s.store.Snapshot()
	providers := make([]proto.ProviderEntry, 0, len(snap))
	for _, g := range snap {
		instances := make([]proto.ProviderInstance, 0, len(g.Endpoints))
		for _, ep := range g.Endpoints {
			instances = append(instances, proto.ProviderInstance{
				ServiceURL: ep.URL,
				Requests:   ep.RequestCounter,
			})
		}
		providers = append(providers, proto.ProviderEntry{
			ProtobufName: g.Name,
			Instances:    instances,
		})
	}

	return &proto.ProviderReportResponse{Providers: providers}
}

// HealthCheck proves the store is actually reachable — not merely that
// the process is up — by round-tripping its lock within
// store.HealthTimeout, the in-memory analogue of dexidp/dex's
// storage/health.go create-then-delete probe against a real backend.
func (s *Service) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, store.HealthTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

func wireStatus(code status.Code, message string) *proto.StatusPacket {
	s := status.New(code, message)
	return &proto.StatusPacket{Code: int32(s.Code), ErrorMessage: s.Error()}
}
