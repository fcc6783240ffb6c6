package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alanyoungcy/domainmart/internal/domain"
)

// CategoryInput is the admin-editable part of a category.
type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (in CategoryInput) validate() error {
	v := &domain.ValidationError{}
	if strings.TrimSpace(in.Name) == "" || domain.Slugify(in.Name) == "" {
		v.Add("name", "is required")
	}
	return v.Err()
}

// CreateCategory adds a storefront category.
func (s *CatalogService) CreateCategory(ctx context.Context, actor string, in CategoryInput) (domain.Category, error) {
	if err := in.validate(); err != nil {
		return domain.Category{}, err
	}
	c := domain.Category{
		ID:          newID(),
		Name:        strings.TrimSpace(in.Name),
		Slug:        domain.Slugify(in.Name),
		Description: strings.TrimSpace(in.Description),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return domain.Category{}, fmt.Errorf("catalog_service: create category: %w", err)
	}
	s.fx.record(ctx, "category.create", actor, map[string]any{"category_id": c.ID, "name": c.Name})
	return c, nil
}

// UpdateCategory renames or re-describes a category.
func (s *CatalogService) UpdateCategory(ctx context.Context, actor, id string, in CategoryInput) (domain.Category, error) {
	if err := in.validate(); err != nil {
		return domain.Category{}, err
	}
	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return domain.Category{}, fmt.Errorf("catalog_service: get category %s: %w", id, err)
	}
	c.Name = strings.TrimSpace(in.Name)
	c.Slug = domain.Slugify(in.Name)
	c.Description = strings.TrimSpace(in.Description)
	if err := s.categories.Update(ctx, c); err != nil {
		return domain.Category{}, fmt.Errorf("catalog_service: update category %s: %w", id, err)
	}
	s.Invalidate(ctx)
	s.fx.record(ctx, "category.update", actor, map[string]any{"category_id": c.ID, "name": c.Name})
	return c, nil
}

// DeleteCategory removes a category. Its domains become uncategorised.
func (s *CatalogService) DeleteCategory(ctx context.Context, actor, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return fmt.Errorf("catalog_service: delete category %s: %w", id, err)
	}
	s.Invalidate(ctx)
	s.fx.record(ctx, "category.delete", actor, map[string]any{"category_id": id})
	return nil
}

// CreateTag adds a tag.
func (s *CatalogService) CreateTag(ctx context.Context, actor, name string) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" || domain.Slugify(name) == "" {
		v := &domain.ValidationError{}
		v.Add("name", "is required")
		return domain.Tag{}, v.Err()
	}
	t := domain.Tag{ID: newID(), Name: name, Slug: domain.Slugify(name), CreatedAt: time.Now().UTC()}
	if err := s.tags.Create(ctx, t); err != nil {
		return domain.Tag{}, fmt.Errorf("catalog_service: create tag: %w", err)
	}
	s.fx.record(ctx, "tag.create", actor, map[string]any{"tag_id": t.ID, "name": t.Name})
	return t, nil
}

// UpdateTag renames a tag.
func (s *CatalogService) UpdateTag(ctx context.Context, actor, id, name string) (domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" || domain.Slugify(name) == "" {
		v := &domain.ValidationError{}
		v.Add("name", "is required")
		return domain.Tag{}, v.Err()
	}
	t, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return domain.Tag{}, fmt.Errorf("catalog_service: get tag %s: %w", id, err)
	}
	t.Name, t.Slug = name, domain.Slugify(name)
	if err := s.tags.Update(ctx, t); err != nil {
		return domain.Tag{}, fmt.Errorf("catalog_service: update tag %s: %w", id, err)
	}
	s.Invalidate(ctx)
	s.fx.record(ctx, "tag.update", actor, map[string]any{"tag_id": t.ID, "name": t.Name})
	return t, nil
}

// DeleteTag removes a tag from every domain.
func (s *CatalogService) DeleteTag(ctx context.Context, actor, id string) error {
	if err := s.tags.Delete(ctx, id); err != nil {
		return fmt.Errorf("catalog_service: delete tag %s: %w", id, err)
	}
	s.Invalidate(ctx)
	s.fx.record(ctx, "tag.delete", actor, map[string]any{"tag_id": id})
	return nil
}
