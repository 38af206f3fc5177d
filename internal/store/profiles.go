package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/kanishkaditya/DinemateBackend/internal/common/errors"
	"github.com/kanishkaditya/DinemateBackend/internal/common/logger"
	"github.com/kanishkaditya/DinemateBackend/internal/models"
)

// ProfileStore persists GroupProfile and MemberPreference documents in
// postgres with a redis read-through cache in front of group profiles.
// The cache is best-effort: a broken cache degrades to database reads, never
// to request failures.
type ProfileStore struct {
	db    *sql.DB
	cache *redis.Client
	ttl   time.Duration
	log   logger.Logger
}

func NewProfileStore(db *sql.DB, cache *redis.Client, ttl time.Duration, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		db:    db,
		cache: cache,
		ttl:   ttl,
		log:   log.WithFields(map[string]interface{}{"component": "profile-store"}),
	}
}

func groupProfileKey(groupID string) string {
	return fmt.Sprintf("group:profile:%s", groupID)
}

// GetGroupProfile loads a profile, trying the cache first.
func (s *ProfileStore) GetGroupProfile(ctx context.Context, groupID string) (*models.GroupProfile, error) {
	if cached := s.readCache(ctx, groupID); cached != nil {
		return cached, nil
	}

	var document []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM group_profiles WHERE group_id = $1`,
		groupID,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewGroupProfileNotFoundError(groupID)
	}
	if err != nil {
		return nil, apperrors.NewProfileLoadFailedError(groupID, err)
	}

	var profile models.GroupProfile
	if err := json.Unmarshal(document, &profile); err != nil {
		return nil, apperrors.NewProfileLoadFailedError(groupID, err)
	}
	if profile.Members == nil {
		profile.Members = make(map[string]models.MemberPreference)
	}

	s.writeCache(ctx, &profile)
	return &profile, nil
}

// SaveGroupProfile upserts a profile and invalidates its cache entry.
func (s *ProfileStore) SaveGroupProfile(ctx context.Context, profile *models.GroupProfile) error {
	document, err := json.Marshal(profile)
	if err != nil {
		return apperrors.NewProfileSaveFailedError(profile.GroupID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO group_profiles (group_id, schema_version, document, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (group_id)
		 DO UPDATE SET schema_version = $2, document = $3, updated_at = $4`,
		profile.GroupID, profile.SchemaVersion, document, profile.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewProfileSaveFailedError(profile.GroupID, err)
	}

	s.invalidateCache(ctx, profile.GroupID)
	return nil
}

// GetMemberPreference loads one member's stored contribution.
func (s *ProfileStore) GetMemberPreference(ctx context.Context, groupID, userID string) (*models.MemberPreference, error) {
	var document []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM member_preferences WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewMemberPreferenceNotFoundError(groupID, userID)
	}
	if err != nil {
		return nil, apperrors.NewProfileLoadFailedError(groupID, err)
	}

	var member models.MemberPreference
	if err := json.Unmarshal(document, &member); err != nil {
		return nil, apperrors.NewProfileLoadFailedError(groupID, err)
	}
	return &member, nil
}

// SaveMemberPreference upserts a member contribution. The owning group's
// cached profile is invalidated because its derived fields embed the member.
func (s *ProfileStore) SaveMemberPreference(ctx context.Context, member *models.MemberPreference) error {
	document, err := json.Marshal(member)
	if err != nil {
		return apperrors.NewProfileSaveFailedError(member.GroupID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO member_preferences (group_id, user_id, schema_version, document, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (group_id, user_id)
		 DO UPDATE SET schema_version = $3, document = $4, updated_at = $5`,
		member.GroupID, member.UserID, member.SchemaVersion, document, member.UpdatedAt,
	)
	if err != nil {
		return apperrors.NewProfileSaveFailedError(member.GroupID, err)
	}

	s.invalidateCache(ctx, member.GroupID)
	return nil
}

// DeleteMemberPreference removes a member's stored contribution.
func (s *ProfileStore) DeleteMemberPreference(ctx context.Context, groupID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM member_preferences WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	)
	if err != nil {
		return apperrors.NewProfileSaveFailedError(groupID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return apperrors.NewMemberPreferenceNotFoundError(groupID, userID)
	}

	s.invalidateCache(ctx, groupID)
	return nil
}

// ListStaleMembers returns member preferences whose learned keywords were
// last refreshed before the cutoff, optionally restricted to one group.
func (s *ProfileStore) ListStaleMembers(ctx context.Context, groupID string, cutoff time.Time, limit int) ([]models.MemberPreference, error) {
	query := `SELECT document FROM member_preferences WHERE updated_at < $1`
	args := []interface{}{cutoff}
	if groupID != "" {
		query += ` AND group_id = $2`
		args = append(args, groupID)
	}
	query += fmt.Sprintf(` ORDER BY updated_at ASC LIMIT %d`, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewProfileLoadFailedError(groupID, err)
	}
	defer rows.Close()

	var members []models.MemberPreference
	for rows.Next() {
		var document []byte
		if err := rows.Scan(&document); err != nil {
			return nil, apperrors.NewProfileLoadFailedError(groupID, err)
		}
		var member models.MemberPreference
		if err := json.Unmarshal(document, &member); err != nil {
			return nil, apperrors.NewProfileLoadFailedError(groupID, err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewProfileLoadFailedError(groupID, err)
	}
	return members, nil
}

func (s *ProfileStore) readCache(ctx context.Context, groupID string) *models.GroupProfile {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, groupProfileKey(groupID)).Result()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("profile cache read failed", map[string]interface{}{
				"groupId": groupID,
				"error":   err.Error(),
			})
		}
		return nil
	}

	var profile models.GroupProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		s.log.Warn("profile cache entry corrupt, dropping", map[string]interface{}{
			"groupId": groupID,
			"error":   err.Error(),
		})
		s.invalidateCache(ctx, groupID)
		return nil
	}
	if profile.Members == nil {
		profile.Members = make(map[string]models.MemberPreference)
	}
	return &profile
}

func (s *ProfileStore) writeCache(ctx context.Context, profile *models.GroupProfile) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, groupProfileKey(profile.GroupID), raw, s.ttl).Err(); err != nil {
		s.log.Warn("profile cache write failed", map[string]interface{}{
			"groupId": profile.GroupID,
			"error":   err.Error(),
		})
	}
}

func (s *ProfileStore) invalidateCache(ctx context.Context, groupID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, groupProfileKey(groupID)).Err(); err != nil {
		s.log.Warn("profile cache invalidation failed", map[string]interface{}{
			"groupId": groupID,
			"error":   err.Error(),
		})
	}
}
