package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/quantum-portal/api/internal/di"
	"github.com/quantum-portal/api/internal/domain"
	"github.com/quantum-portal/api/internal/platform/requestctx"
	"github.com/quantum-portal/api/internal/services"
)

// SeedFile is the YAML fixture layout accepted by `cmsctl seed`.
type SeedFile struct {
	Tenants []SeedTenant `yaml:"tenants"`
}

type SeedTenant struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Domains       []string       `yaml:"domains"`
	DefaultLocale string         `yaml:"defaultLocale"`
	Suspended     bool           `yaml:"suspended"`
	Categories    []SeedCategory `yaml:"categories"`
	Brands        []SeedBrand    `yaml:"brands"`
	Pages         []SeedPage     `yaml:"pages"`
}

type SeedCategory struct {
	Name        string         `yaml:"name"`
	Slug        string         `yaml:"slug"`
	Description string         `yaml:"description"`
	Inactive    bool           `yaml:"inactive"`
	Children    []SeedCategory `yaml:"children"`
}

type SeedBrand struct {
	Name       string `yaml:"name"`
	Slug       string `yaml:"slug"`
	WebsiteURL string `yaml:"websiteUrl"`
	Featured   bool   `yaml:"featured"`
}

type SeedPage struct {
	Title   string `yaml:"title"`
	Slug    string `yaml:"slug"`
	Format  string `yaml:"format"`
	Content string `yaml:"content"`
	Publish bool   `yaml:"publish"`
}

// SeedSummary counts what a seed run created.
type SeedSummary struct {
	Tenants, Categories, Brands, Pages int
}

// LoadSeedFile parses a fixture file.
func LoadSeedFile(path string) (SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SeedFile{}, fmt.Errorf("read seed file: %w", err)
	}
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return SeedFile{}, fmt.Errorf("parse seed file: %w", err)
	}
	if len(file.Tenants) == 0 {
		return SeedFile{}, errors.New("seed file declares no tenants")
	}
	return file, nil
}

func (c Commands) newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create tenants and starter content from a YAML fixture",
		Example: `  cmsctl seed --file fixtures/acme.yaml
  cmsctl seed --backend memory --file fixtures/acme.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := LoadSeedFile(file)
			if err != nil {
				return err
			}
			return c.withContainer(cmd, func(ctx context.Context, container *di.Container) error {
				summary, err := Seed(ctx, container.Services, seed, c.Logger)
				if err != nil {
					return err
				}
				fmt.Fprintf(c.Out, "seeded tenants=%d categories=%d brands=%d pages=%d\n",
					summary.Tenants, summary.Categories, summary.Brands, summary.Pages)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the YAML fixture (required)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// Seed creates every tenant in file together with its content. Tenants that already exist are
// reused; their content is still created.
func Seed(ctx context.Context, svc di.Services, file SeedFile, logger *zap.Logger) (SeedSummary, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var summary SeedSummary
	for _, t := range file.Tenants {
		status := domain.TenantStatusActive
		if t.Suspended {
			status = domain.TenantStatusSuspended
		}
		_, err := svc.Tenants.CreateTenant(ctx, services.TenantInput{
			ID:            t.ID,
			Name:          t.Name,
			Domains:       t.Domains,
			DefaultLocale: t.DefaultLocale,
			Status:        status,
		})
		switch {
		case err == nil:
			summary.Tenants++
		case errors.Is(err, services.ErrConflict):
			logger.Info("tenant exists; seeding content only", zap.String("tenantId", t.ID))
		default:
			return summary, fmt.Errorf("tenant %s: %w", t.ID, err)
		}

		tctx := requestctx.WithTenantID(ctx, t.ID)
		for _, category := range t.Categories {
			n, err := seedCategory(tctx, svc.Categories, category, "")
			summary.Categories += n
			if err != nil {
				return summary, fmt.Errorf("tenant %s: %w", t.ID, err)
			}
		}
		for _, b := range t.Brands {
			if _, err := svc.Brands.CreateBrand(tctx, services.BrandInput{
				Name:       b.Name,
				Slug:       b.Slug,
				WebsiteURL: b.WebsiteURL,
				IsFeatured: b.Featured,
			}); err != nil {
				return summary, fmt.Errorf("tenant %s: brand %s: %w", t.ID, b.Slug, err)
			}
			summary.Brands++
		}
		for _, p := range t.Pages {
			if err := seedPage(tctx, svc.StaticPages, p); err != nil {
				return summary, fmt.Errorf("tenant %s: page %s: %w", t.ID, p.Slug, err)
			}
			summary.Pages++
		}
	}
	return summary, nil
}

func seedCategory(ctx context.Context, categories services.CategoryService, seed SeedCategory, parentID string) (int, error) {
	active := !seed.Inactive
	created, err := categories.CreateCategory(ctx, services.CategoryInput{
		Name:        seed.Name,
		Slug:        seed.Slug,
		Description: seed.Description,
		ParentID:    parentID,
		IsActive:    &active,
	})
	if err != nil {
		return 0, fmt.Errorf("category %s: %w", seed.Slug, err)
	}
	count := 1
	for _, child := range seed.Children {
		n, err := seedCategory(ctx, categories, child, created.ID)
		count += n
		if err != nil {
			return count, err
		}
	}
	return count, nil
}

func seedPage(ctx context.Context, pages services.StaticPageService, seed SeedPage) error {
	format := domain.ContentFormat(seed.Format)
	if format == "" {
		format = domain.ContentFormatMarkdown
	}
	page, err := pages.CreateStaticPage(ctx, services.StaticPageInput{
		Title:   seed.Title,
		Slug:    seed.Slug,
		Format:  format,
		Content: seed.Content,
	})
	if err != nil {
		return err
	}
	if seed.Publish {
		_, err = pages.PublishStaticPage(ctx, page.ID)
	}
	return err
}
