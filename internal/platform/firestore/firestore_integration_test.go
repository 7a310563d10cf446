package firestore_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"

	pconfig "github.com/quantum-portal/api/internal/platform/config"
	pfirestore "github.com/quantum-portal/api/internal/platform/firestore"
	"github.com/quantum-portal/api/internal/platform/requestctx"
)

type sampleEntity struct {
	Name  string `firestore:"name"`
	Order int    `firestore:"order"`
}

func newEmulatorProvider(t *testing.T) *pfirestore.Provider {
	t.Helper()
	host := os.Getenv("FIRESTORE_EMULATOR_HOST")
	if host == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	provider := pfirestore.NewProvider(pconfig.FirestoreConfig{
		ProjectID:    fmt.Sprintf("it-%d", time.Now().UnixNano()),
		EmulatorHost: host,
	})
	t.Cleanup(func() { _ = provider.Close(context.Background()) })
	return provider
}

func TestTenantRepositoryIsolatesTenants(t *testing.T) {
	provider := newEmulatorProvider(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := provider.Ping(ctx); err != nil {
		t.Fatalf("ping failed: %v", err)
	}

	repo := pfirestore.NewTenantRepository[sampleEntity](provider, "samples")
	acme := requestctx.WithTenantID(ctx, "acme")
	globex := requestctx.WithTenantID(ctx, "globex")

	if err := repo.Create(acme, "s1", sampleEntity{Name: "alpha", Order: 1}); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(acme, "s1", sampleEntity{Name: "dup"}); err == nil {
		t.Fatalf("expected conflict on duplicate create")
	} else {
		var repoErr *pfirestore.Error
		if !errors.As(err, &repoErr) || !repoErr.IsConflict() {
			t.Fatalf("expected conflict classification, got %v", err)
		}
	}

	if _, err := repo.Get(globex, "s1"); err == nil {
		t.Fatalf("expected other tenant to miss the document")
	}
	if _, err := repo.Get(ctx, "s1"); !errors.Is(err, requestctx.ErrNoTenant) {
		t.Fatalf("expected ErrNoTenant without tenant scope, got %v", err)
	}

	if err := repo.Replace(acme, "s1", sampleEntity{Name: "beta", Order: 2}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := repo.Replace(acme, "missing", sampleEntity{}); err == nil {
		t.Fatalf("expected not found when replacing a missing document")
	}
	doc, err := repo.Get(acme, "s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc.Data.Name != "beta" {
		t.Fatalf("expected replaced data, got %#v", doc.Data)
	}

	if err := repo.Delete(acme, "s1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.Delete(acme, "s1"); err == nil {
		t.Fatalf("expected not found deleting twice")
	}
}

func TestPageReportsMore(t *testing.T) {
	provider := newEmulatorProvider(t)
	ctx := requestctx.WithTenantID(context.Background(), "acme")
	repo := pfirestore.NewTenantRepository[sampleEntity](provider, "samples")

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, fmt.Sprintf("s%d", i), sampleEntity{Name: "n", Order: i}); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	order := func(q firestore.Query) firestore.Query { return q.OrderBy("order", firestore.Asc) }
	first, more, err := repo.Page(ctx, order, 2, nil)
	if err != nil {
		t.Fatalf("page failed: %v", err)
	}
	if len(first) != 2 || !more {
		t.Fatalf("expected 2 docs with more, got %d more=%v", len(first), more)
	}
	rest, more, err := repo.Page(ctx, order, 2, []any{first[1].Data.Order})
	if err != nil {
		t.Fatalf("second page failed: %v", err)
	}
	if len(rest) != 1 || more || rest[0].ID != "s2" {
		t.Fatalf("unexpected second page: %+v more=%v", rest, more)
	}
}
