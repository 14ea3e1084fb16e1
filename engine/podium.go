package engine

import (
	"context"
	"fmt"

	"github.com/hieuntrw/hlr-sub001/logger"
)

// PodiumResolver looks up the podium reward an admin assigned to a race result.
// Ranks are never detected automatically.
type PodiumResolver struct {
	store RaceStore
}

func NewPodiumResolver(store RaceStore) *PodiumResolver {
	return &PodiumResolver{store: store}
}

// Resolve returns the active config referenced by the result, or nil when the result has no
// assignment or the config is missing or inactive. Only lookup I/O errors are returned.
func (r *PodiumResolver) Resolve(ctx context.Context, result RaceResult) (*PodiumConfig, error) {
	if result.PodiumConfigID == nil || *result.PodiumConfigID == "" {
		return nil, nil
	}
	id := *result.PodiumConfigID

	cfg, err := r.store.FetchPodiumConfig(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch podium config %s: %w", id, err)
	}
	if cfg == nil {
		logger.Warn().Str("result_id", result.ID).Str("podium_config_id", id).Msg("podium config not found, skipping")
		return nil, nil
	}
	if !cfg.Active {
		logger.Warn().Str("result_id", result.ID).Str("podium_config_id", id).Msg("podium config inactive, skipping")
		return nil, nil
	}
	return cfg, nil
}
