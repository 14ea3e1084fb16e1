package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/logger"
)

// SettingsRepository reads and writes the star tier setting.
type SettingsRepository interface {
	engine.SettingsStore
	SaveStarTierTable(ctx context.Context, raw []byte) error
}

type SettingsService struct {
	repo SettingsRepository
}

func NewSettingsService(repo SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// StarTiersView is the admin view of the configured tiers.
type StarTiersView struct {
	Version          string            `json:"version,omitempty"`
	Tiers            []engine.StarTier `json:"tiers"`
	DefaultKmPerStar int               `json:"default_km_per_star"`
	Invalid          bool              `json:"invalid,omitempty"` // stored value does not parse; default rule applies
}

func (s *SettingsService) StarTiers(ctx context.Context) (StarTiersView, error) {
	raw, err := s.repo.FetchStarTierTable(ctx)
	if err != nil {
		return StarTiersView{}, err
	}
	table, perr := engine.ParseStarTiers(raw)
	view := StarTiersView{
		Version:          table.Version,
		Tiers:            table.Rows(),
		DefaultKmPerStar: engine.DefaultKmPerStar,
		Invalid:          perr != nil,
	}
	return view, nil
}

// UpdateStarTiers validates and stores a new tier table.
func (s *SettingsService) UpdateStarTiers(ctx context.Context, raw []byte) (StarTiersView, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return StarTiersView{}, fmt.Errorf("%w: empty star tier table", ErrInvalidInput)
	}
	table, err := engine.ParseStarTiers(raw)
	if err != nil {
		return StarTiersView{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return StarTiersView{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.repo.SaveStarTierTable(ctx, buf.Bytes()); err != nil {
		return StarTiersView{}, err
	}

	logger.Info().Str("version", table.Version).Int("tiers", len(table.Tiers)).Msg("star tiers updated")
	return StarTiersView{
		Version:          table.Version,
		Tiers:            table.Rows(),
		DefaultKmPerStar: engine.DefaultKmPerStar,
	}, nil
}

// --- Handlers ---

// GetStarTiers: GET /admin/settings/star-tiers
func (s *SettingsService) GetStarTiers(c *fiber.Ctx) error {
	view, err := s.StarTiers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// PutStarTiers: PUT /admin/settings/star-tiers
func (s *SettingsService) PutStarTiers(c *fiber.Ctx) error {
	view, err := s.UpdateStarTiers(c.UserContext(), c.Body())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}
