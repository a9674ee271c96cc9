package service

import (
	"context"
	"strings"

	"weighit/internal/models"
	"weighit/internal/repository"
)

// Built-in reference data used until an operator customizes the database.
var (
	defaultSources = []models.Source{
		{Name: "NFCC"},
		{Name: "SHOAF"},
		{Name: "GBFB"},
		{Name: "ACFB"},
		{Name: "Other"},
	}

	defaultFoodTypes = []models.FoodType{
		{Name: "Produce", RequiresTemp: false, SortOrder: 1},
		{Name: "Dairy", RequiresTemp: true, SortOrder: 2},
		{Name: "Meat", RequiresTemp: true, SortOrder: 3},
		{Name: "Frozen", RequiresTemp: true, SortOrder: 4},
		{Name: "Bread", RequiresTemp: false, SortOrder: 5},
		{Name: "Canned", RequiresTemp: false, SortOrder: 6},
		{Name: "Dry Goods", RequiresTemp: false, SortOrder: 7},
		{Name: "Other", RequiresTemp: false, SortOrder: 8},
	}
)

type CatalogService struct {
	repo repository.CatalogRepo
}

func NewCatalogService(repo repository.CatalogRepo) *CatalogService {
	return &CatalogService{repo: repo}
}

// Sources lists donation sources, falling back to the built-in defaults
// when the table is empty.
func (s *CatalogService) Sources(ctx context.Context) ([]models.Source, error) {
	sources, err := s.repo.Sources(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return defaultSources, nil
	}
	return sources, nil
}

// FoodTypes lists food types in display order, falling back to the
// built-in defaults when the table is empty.
func (s *CatalogService) FoodTypes(ctx context.Context) ([]models.FoodType, error) {
	types, err := s.repo.FoodTypes(ctx)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return defaultFoodTypes, nil
	}
	return types, nil
}

// RequiresTemp reports whether the named food type must carry pickup and
// dropoff temperatures. Unknown types do not require them; callers pass
// the result to the ledger as the append contract.
func (s *CatalogService) RequiresTemp(ctx context.Context, typeName string) (bool, error) {
	types, err := s.FoodTypes(ctx)
	if err != nil {
		return false, err
	}
	name := strings.TrimSpace(typeName)
	for _, ft := range types {
		if ft.Name == name {
			return ft.RequiresTemp, nil
		}
	}
	return false, nil
}

// EnsureDefaults seeds the catalog tables with the built-in reference data
// when they are empty. Idempotent; called once at startup.
func (s *CatalogService) EnsureDefaults(ctx context.Context) error {
	return s.repo.SeedDefaults(ctx, defaultSources, defaultFoodTypes)
}
