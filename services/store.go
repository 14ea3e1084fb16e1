package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore backs every engine store interface with postgres through gorm.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

var (
	_ engine.ChallengeStore = (*GormStore)(nil)
	_ engine.SettingsStore  = (*GormStore)(nil)
	_ engine.RaceStore      = (*GormStore)(nil)
	_ engine.LedgerStore    = (*GormStore)(nil)
)

// --- Challenges ---

func (s *GormStore) GetChallenge(ctx context.Context, id string) (*engine.Challenge, error) {
	var c models.Challenge
	if err := s.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engine.ErrChallengeNotFound
		}
		return nil, err
	}
	return &engine.Challenge{ID: c.ID, Title: c.Title, IsLocked: c.IsLocked}, nil
}

func (s *GormStore) FetchParticipants(ctx context.Context, challengeID, participantID string) ([]engine.Participant, error) {
	q := s.DB.WithContext(ctx).Where("challenge_id = ?", challengeID)
	if participantID != "" {
		q = q.Where("id = ?", participantID)
	}

	var rows []models.ChallengeParticipant
	if err := q.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]engine.Participant, len(rows))
	for i := range rows {
		out[i] = participantFromModel(&rows[i])
	}
	return out, nil
}

type activityRow struct {
	ChallengeParticipantID string
	Distance               float64
	MovingTime             float64
}

// FetchActivities loads the activities of all participants in one query.
func (s *GormStore) FetchActivities(ctx context.Context, participantIDs []string) (map[string][]engine.ActivityRecord, error) {
	out := make(map[string][]engine.ActivityRecord, len(participantIDs))
	if len(participantIDs) == 0 {
		return out, nil
	}

	var rows []activityRow
	err := s.DB.WithContext(ctx).
		Model(&models.Activity{}).
		Select("challenge_participant_id, distance, moving_time").
		Where("challenge_participant_id IN ?", participantIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		out[r.ChallengeParticipantID] = append(out[r.ChallengeParticipantID], engine.ActivityRecord{
			ParticipantID:     r.ChallengeParticipantID,
			DistanceMeters:    r.Distance,
			MovingTimeSeconds: r.MovingTime,
		})
	}
	return out, nil
}

func (s *GormStore) UpdateParticipant(ctx context.Context, id string, u engine.ParticipantUpdate) error {
	fields := map[string]interface{}{
		"actual_km":        u.TotalKm,
		"avg_pace_seconds": u.AvgPaceSeconds,
		"total_activities": u.ActivityCount,
		"completion_rate":  u.CompletionRate,
		"completed":        u.Completed,
		"last_synced_at":   u.LastSyncedAt,
	}
	if u.Completed {
		fields["status"] = models.ParticipantStatusCompleted
	}

	res := s.DB.WithContext(ctx).
		Model(&models.ChallengeParticipant{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("participant %s: %w", id, engine.ErrNotFound)
	}
	return nil
}

// IncrementMemberStars records the grant and bumps the member's counter in one transaction.
// The unique participant id on member_star_awards rejects a second grant.
func (s *GormStore) IncrementMemberStars(ctx context.Context, g engine.StarGrant) (int, error) {
	var total int
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		award := models.MemberStarAward{
			UserID:                 g.UserID,
			ChallengeID:            g.ChallengeID,
			ChallengeParticipantID: g.ParticipantID,
			StarsAwarded:           g.Stars,
			TierVersion:            g.TierVersion,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "challenge_participant_id"}},
			DoNothing: true,
		}).Create(&award)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return engine.ErrStarsAlreadyGranted
		}

		upd := tx.Raw(
			"UPDATE profiles SET total_stars = total_stars + ?, updated_at = ? WHERE id = ? RETURNING total_stars",
			g.Stars, time.Now(), g.UserID,
		).Scan(&total)
		if upd.Error != nil {
			return upd.Error
		}
		if upd.RowsAffected == 0 {
			return fmt.Errorf("profile %s: %w", g.UserID, engine.ErrNotFound)
		}
		return nil
	})
	return total, err
}

// ListUnlockedChallengeIDs returns the challenges still open for recomputes.
func (s *GormStore) ListUnlockedChallengeIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).
		Model(&models.Challenge{}).
		Where("is_locked = ?", false).
		Order("start_date DESC").
		Pluck("id", &ids).Error
	return ids, err
}

// CountParticipants recounts enrollments and stores the result on the challenge row.
func (s *GormStore) CountParticipants(ctx context.Context, challengeID string) (int, error) {
	var count int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ChallengeParticipant{}).
			Where("challenge_id = ?", challengeID).
			Count(&count).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Challenge{}).
			Where("id = ?", challengeID).
			Update("participant_count", count)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return engine.ErrChallengeNotFound
		}
		return nil
	})
	return int(count), err
}

// ListChallengeIDs returns every challenge id, newest first.
func (s *GormStore) ListChallengeIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.DB.WithContext(ctx).Model(&models.Challenge{}).Order("start_date DESC").Pluck("id", &ids).Error
	return ids, err
}

// ParticipantNames maps user ids to profile names for leaderboard display.
func (s *GormStore) ParticipantNames(ctx context.Context, userIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := s.DB.WithContext(ctx).Select("id, full_name").Where("id IN ?", userIDs).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p.FullName
	}
	return out, nil
}

// --- Settings ---

func (s *GormStore) FetchStarTierTable(ctx context.Context) ([]byte, error) {
	var setting models.SystemSetting
	err := s.DB.WithContext(ctx).First(&setting, "key = ?", models.SettingStarTiers).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(setting.Value), nil
}

// SaveStarTierTable upserts the raw star tier setting.
func (s *GormStore) SaveStarTierTable(ctx context.Context, raw []byte) error {
	setting := models.SystemSetting{
		Key:         models.SettingStarTiers,
		Value:       string(raw),
		Description: "Stars granted on challenge completion, by target km",
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
}

// --- Races ---

func (s *GormStore) GetRace(ctx context.Context, id string) (*engine.Race, error) {
	var r models.Race
	if err := s.DB.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, engine.ErrRaceNotFound
		}
		return nil, err
	}
	return &engine.Race{ID: r.ID, Name: r.Name, Date: r.Date}, nil
}

type raceResultRow struct {
	ID              string
	RaceID          string
	UserID          string
	Distance        string
	ChipTimeSeconds *int
	PodiumConfigID  *string
	Gender          *string
}

// FetchRaceResults loads a race's results with the athlete's profile gender.
func (s *GormStore) FetchRaceResults(ctx context.Context, raceID string) ([]engine.RaceResult, error) {
	var rows []raceResultRow
	err := s.DB.WithContext(ctx).
		Table("race_results AS rr").
		Select("rr.id, rr.race_id, rr.user_id, rr.distance, rr.chip_time_seconds, rr.podium_config_id, p.gender").
		Joins("LEFT JOIN profiles p ON p.id = rr.user_id").
		Where("rr.race_id = ? AND rr.deleted_at IS NULL", raceID).
		Order("rr.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]engine.RaceResult, len(rows))
	for i, r := range rows {
		res := engine.RaceResult{
			ID:             r.ID,
			RaceID:         r.RaceID,
			UserID:         r.UserID,
			Distance:       r.Distance,
			PodiumConfigID: r.PodiumConfigID,
		}
		if r.ChipTimeSeconds != nil {
			res.FinishSeconds = *r.ChipTimeSeconds
		}
		if r.Gender != nil {
			res.Gender = engine.AthleteGender(*r.Gender)
		}
		out[i] = res
	}
	return out, nil
}

func (s *GormStore) FetchActiveMilestoneDefinitions(ctx context.Context, raceType engine.RaceCategory) ([]engine.MilestoneDefinition, error) {
	var rows []models.RewardMilestone
	err := s.DB.WithContext(ctx).
		Where("race_type = ? AND is_active = ?", string(raceType), true).
		Order("priority DESC, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]engine.MilestoneDefinition, len(rows))
	for i, m := range rows {
		def := engine.MilestoneDefinition{
			ID:          m.ID,
			RaceType:    engine.RaceCategory(m.RaceType),
			Gender:      engine.GenderAny,
			Name:        m.MilestoneName,
			TimeSeconds: m.TimeSeconds,
			CashAmount:  m.CashAmount,
			Description: m.RewardDescription,
			Priority:    m.Priority,
			Active:      m.IsActive,
		}
		if m.Gender != nil {
			def.Gender = engine.NormalizeGender(*m.Gender)
		}
		out[i] = def
	}
	return out, nil
}

func (s *GormStore) FetchPodiumConfig(ctx context.Context, id string) (*engine.PodiumConfig, error) {
	var pc models.RewardPodiumConfig
	err := s.DB.WithContext(ctx).First(&pc, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &engine.PodiumConfig{
		ID:          pc.ID,
		PodiumType:  pc.PodiumType,
		Rank:        pc.Rank,
		CashAmount:  pc.CashAmount,
		Description: pc.RewardDescription,
		Active:      pc.IsActive,
	}, nil
}

func (s *GormStore) HasRewardAward(ctx context.Context, raceResultID string, kind engine.RewardKind) (bool, error) {
	var model interface{}
	switch kind {
	case engine.RewardMilestone:
		model = &models.MemberMilestoneReward{}
	case engine.RewardPodium:
		model = &models.MemberPodiumReward{}
	default:
		return false, fmt.Errorf("unknown reward kind %q", kind)
	}

	// soft-deleted awards still hold the unique race_result_id
	var count int64
	err := s.DB.WithContext(ctx).Unscoped().Model(model).Where("race_result_id = ?", raceResultID).Count(&count).Error
	return count > 0, err
}

// RaceRewards lists the awards written for a race.
func (s *GormStore) RaceRewards(ctx context.Context, raceID string) ([]models.MemberMilestoneReward, []models.MemberPodiumReward, error) {
	var milestones []models.MemberMilestoneReward
	if err := s.DB.WithContext(ctx).Where("race_id = ?", raceID).Order("created_at").Find(&milestones).Error; err != nil {
		return nil, nil, err
	}
	var podiums []models.MemberPodiumReward
	if err := s.DB.WithContext(ctx).Where("race_id = ?", raceID).Order("podium_type, rank").Find(&podiums).Error; err != nil {
		return nil, nil, err
	}
	return milestones, podiums, nil
}

// --- Ledger ---

func (s *GormStore) CreateLedgerEntry(ctx context.Context, e engine.LedgerEntry) (string, error) {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", fmt.Errorf("marshal ledger metadata: %w", err)
	}

	txn := models.Transaction{
		UserID:          e.UserID,
		Type:            e.Type,
		Amount:          e.Amount,
		Description:     e.Description,
		TransactionDate: e.Date.Truncate(24 * time.Hour),
		PaymentStatus:   string(e.Status),
		Metadata:        datatypes.JSON(meta),
	}
	if err := s.DB.WithContext(ctx).Create(&txn).Error; err != nil {
		return "", err
	}
	return txn.ID, nil
}

func (s *GormStore) CreateRewardAward(ctx context.Context, a engine.RewardAward) (string, error) {
	db := s.DB.WithContext(ctx)
	switch a.Kind {
	case engine.RewardMilestone:
		row := models.MemberMilestoneReward{
			MemberID:             a.MemberID,
			RaceID:               a.RaceID,
			RaceResultID:         a.RaceResultID,
			MilestoneID:          a.SourceID,
			AchievedTimeSeconds:  a.AchievedSeconds,
			RewardDescription:    a.Description,
			CashAmount:           a.CashAmount,
			Status:               string(a.Status),
			RelatedTransactionID: a.LedgerEntryID,
		}
		if err := db.Create(&row).Error; err != nil {
			return "", err
		}
		return row.ID, nil
	case engine.RewardPodium:
		row := models.MemberPodiumReward{
			MemberID:             a.MemberID,
			RaceID:               a.RaceID,
			RaceResultID:         a.RaceResultID,
			PodiumConfigID:       a.SourceID,
			PodiumType:           a.PodiumType,
			Rank:                 a.Rank,
			RewardDescription:    a.Description,
			CashAmount:           a.CashAmount,
			Status:               string(a.Status),
			RelatedTransactionID: a.LedgerEntryID,
		}
		if err := db.Create(&row).Error; err != nil {
			return "", err
		}
		return row.ID, nil
	}
	return "", fmt.Errorf("unknown reward kind %q", a.Kind)
}

// --- Batch runs ---

func (s *GormStore) SaveBatchRun(ctx context.Context, run *models.BatchRun) error {
	return s.DB.WithContext(ctx).Save(run).Error
}

func (s *GormStore) GetBatchRun(ctx context.Context, id string) (*models.BatchRun, error) {
	var run models.BatchRun
	if err := s.DB.WithContext(ctx).First(&run, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("batch %s: %w", id, engine.ErrNotFound)
		}
		return nil, err
	}
	return &run, nil
}

func participantFromModel(m *models.ChallengeParticipant) engine.Participant {
	return engine.Participant{
		ID:             m.ID,
		UserID:         m.UserID,
		ChallengeID:    m.ChallengeID,
		TargetKm:       m.TargetKm,
		TotalKm:        m.ActualKm,
		AvgPaceSeconds: m.AvgPaceSeconds,
		ActivityCount:  m.TotalActivities,
		CompletionRate: m.CompletionRate,
		Completed:      m.Completed,
		LastSyncedAt:   m.LastSyncedAt,
	}
}
