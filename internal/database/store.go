package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"studybuddy/backend/internal/match"
	"studybuddy/backend/internal/models"
)

// Store is the gorm-backed implementation of match.Store. It owns the mapping
// between persisted rows and the engine's typed projections; no raw query
// shape crosses this boundary.
type Store struct {
	db *gorm.DB
}

// NewStore wraps a gorm handle. The engine receives this by injection rather
// than reaching for the package-level DB.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HasActiveAssociation(ctx context.Context, userID uint, mc match.Context) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ContextAssociation{}).
		Where("user_id = ? AND context_type = ? AND context_id = ? AND active = ?",
			userID, string(mc.Type), mc.ID, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count associations: %w", err)
	}
	return count > 0, nil
}

// candidateRow is the explicit shape of the candidate projection query.
type candidateRow struct {
	ID         uint
	Nickname   string
	AvatarURL  string
	StudyStyle string
	StudyPace  string
	Location   string
	Bio        string
	CreatedAt  time.Time
}

func (s *Store) CandidatesForContext(ctx context.Context, requesterID uint, mc match.Context) ([]match.CandidateProfile, error) {
	var rows []candidateRow
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.id, users.nickname, users.avatar_url, users.study_style, users.study_pace, users.location, users.bio, users.created_at").
		Joins("JOIN context_associations ca ON ca.user_id = users.id").
		Where("ca.context_type = ? AND ca.context_id = ? AND ca.active = ?", string(mc.Type), mc.ID, true).
		Where("users.id <> ? AND users.active = ? AND users.verified = ?", requesterID, true, true).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	candidates := make([]match.CandidateProfile, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, match.CandidateProfile{
			UserID:      row.ID,
			DisplayName: row.Nickname,
			AvatarRef:   row.AvatarURL,
			StudyStyle:  row.StudyStyle,
			StudyPace:   row.StudyPace,
			Location:    row.Location,
			Bio:         row.Bio,
			JoinedAt:    row.CreatedAt,
		})
	}
	return candidates, nil
}

func (s *Store) AvailabilityFor(ctx context.Context, userIDs []uint) (map[uint][]match.Slot, error) {
	if len(userIDs) == 0 {
		return map[uint][]match.Slot{}, nil
	}

	var slots []models.AvailabilitySlot
	err := s.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&slots).Error
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}

	byUser := make(map[uint][]match.Slot, len(userIDs))
	for _, slot := range slots {
		byUser[slot.UserID] = append(byUser[slot.UserID], match.Slot{
			DayOfWeek:   slot.DayOfWeek,
			StartMinute: slot.StartMinute,
			EndMinute:   slot.EndMinute,
		})
	}
	return byUser, nil
}

func (s *Store) ConnectionsForUser(ctx context.Context, userID uint, mc match.Context) ([]match.ConnectionRecord, error) {
	var conns []models.Connection
	err := s.db.WithContext(ctx).
		Where("(requester_id = ? OR target_id = ?) AND context_type = ? AND context_id = ?",
			userID, userID, string(mc.Type), mc.ID).
		Find(&conns).Error
	if err != nil {
		return nil, fmt.Errorf("query connections: %w", err)
	}

	records := make([]match.ConnectionRecord, 0, len(conns))
	for _, conn := range conns {
		records = append(records, toRecord(conn))
	}
	return records, nil
}

func (s *Store) ConnectionBetween(ctx context.Context, a, b uint, mc match.Context) (*match.ConnectionRecord, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}

	var conn models.Connection
	err := s.db.WithContext(ctx).
		Where("pair_lo = ? AND pair_hi = ? AND context_type = ? AND context_id = ?",
			lo, hi, string(mc.Type), mc.ID).
		First(&conn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query connection: %w", err)
	}

	rec := toRecord(conn)
	return &rec, nil
}

func (s *Store) CreateConnection(ctx context.Context, rec *match.ConnectionRecord) error {
	conn := models.Connection{
		RequesterID: rec.RequesterID,
		TargetID:    rec.TargetID,
		ContextType: string(rec.Context.Type),
		ContextID:   rec.Context.ID,
		Status:      models.ConnectionStatus(rec.Status),
	}
	conn.NormalizePair()

	err := s.db.WithContext(ctx).Create(&conn).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return match.ErrDuplicatePair
	}
	if err != nil {
		return fmt.Errorf("insert connection: %w", err)
	}

	rec.ID = conn.ID
	rec.CreatedAt = conn.CreatedAt
	return nil
}

func (s *Store) ConnectionByID(ctx context.Context, id uint) (*match.ConnectionRecord, error) {
	var conn models.Connection
	err := s.db.WithContext(ctx).First(&conn, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, match.ErrConnectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query connection: %w", err)
	}

	rec := toRecord(conn)
	return &rec, nil
}

func (s *Store) AcceptConnection(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Update("status", models.ConnectionAccepted).Error
}

// DeleteConnection removes the row outright. Declines must not leave a
// soft-deleted row behind, or the pair+context unique index would block any
// future request between the same users.
func (s *Store) DeleteConnection(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).
		Unscoped().
		Delete(&models.Connection{}, id).Error
}

func toRecord(conn models.Connection) match.ConnectionRecord {
	return match.ConnectionRecord{
		ID:          conn.ID,
		RequesterID: conn.RequesterID,
		TargetID:    conn.TargetID,
		Context: match.Context{
			Type: match.ContextType(conn.ContextType),
			ID:   conn.ContextID,
		},
		Status:    match.ConnectionStatus(conn.Status),
		CreatedAt: conn.CreatedAt,
	}
}
