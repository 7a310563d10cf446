package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/quantum-portal/api/internal/di"
	"github.com/quantum-portal/api/internal/platform/config"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/platform/observability"
	"github.com/quantum-portal/api/internal/platform/secrets"
	"github.com/quantum-portal/api/internal/repositories"
	firestoreRepo "github.com/quantum-portal/api/internal/repositories/firestore"
	"github.com/quantum-portal/api/internal/repositories/memory"
	"github.com/quantum-portal/api/internal/services"
)

// OpenContainer wires services over the selected backend. The memory backend lives only for
// the duration of the command and is meant for dry runs.
func OpenContainer(ctx context.Context, backend string, logger *zap.Logger) (*di.Container, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	infra := di.Infrastructure{
		Logger: services.EventLogger(observability.NewEventLogger(logger.Named("services"))),
		Clock:  time.Now,
		NewID:  func() string { return ulid.Make().String() },
	}

	var (
		cfg config.Config
		reg repositories.Registry
	)
	switch backend {
	case backendMemory:
		reg = memory.NewRegistry()
	case backendFirestore, "":
		fetcher, err := secrets.NewFetcher(ctx, secrets.WithLogger(logger.Named("secrets")))
		if err != nil {
			return nil, fmt.Errorf("init secret fetcher: %w", err)
		}
		defer func() { _ = fetcher.Close() }()
		cfg, err = config.Load(ctx, config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)))
		if err != nil {
			return nil, fmt.Errorf("load configuration: %w", err)
		}
		firestoreReg, err := firestoreRepo.NewRegistry(pfirestore.NewProvider(cfg.Firestore))
		if err != nil {
			return nil, err
		}
		reg = firestoreReg
	default:
		return nil, errors.New("unknown backend " + backend)
	}
	return di.NewContainer(ctx, cfg, reg, infra)
}
