package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/repository"
)

// ProfileRepository implements profile.Repository for SQLite
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `
	id, display_name, bio, interests, languages, lat, lng, location_mode, timezone,
	hours_per_week, experience_level, notify_applications, notify_matches, notify_meetings,
	embedding, created_at, updated_at`

// Upsert creates or replaces a profile together with its skills.
func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	interests, err := json.Marshal(nonNil(p.Interests))
	if err != nil {
		return fmt.Errorf("failed to encode interests: %w", err)
	}
	languages, err := json.Marshal(nonNil(p.Languages))
	if err != nil {
		return fmt.Errorf("failed to encode languages: %w", err)
	}

	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO profiles (` + profileColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				display_name = excluded.display_name,
				bio = excluded.bio,
				interests = excluded.interests,
				languages = excluded.languages,
				lat = excluded.lat,
				lng = excluded.lng,
				location_mode = excluded.location_mode,
				timezone = excluded.timezone,
				hours_per_week = excluded.hours_per_week,
				experience_level = excluded.experience_level,
				notify_applications = excluded.notify_applications,
				notify_matches = excluded.notify_matches,
				notify_meetings = excluded.notify_meetings,
				updated_at = excluded.updated_at
		`
		_, err := tx.ExecContext(ctx, query,
			p.ID,
			p.DisplayName,
			p.Bio,
			string(interests),
			string(languages),
			p.Location.Lat,
			p.Location.Lng,
			p.Location.Mode,
			p.Timezone,
			p.HoursPerWeek,
			p.ExperienceLevel,
			p.NotifyPrefs.Applications,
			p.NotifyPrefs.Matches,
			p.NotifyPrefs.Meetings,
			nullVector(p.Embedding),
			p.CreatedAt,
			p.UpdatedAt,
		)
		if err != nil {
			return writeError(err, "upsert profile")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM profile_skills WHERE profile_id = ?`, p.ID); err != nil {
			return fmt.Errorf("failed to clear profile skills: %w", err)
		}
		for _, sk := range p.Skills {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO profile_skills (profile_id, skill_id, level) VALUES (?, ?, ?)`,
				p.ID, sk.SkillID, sk.Level)
			if err != nil {
				return writeError(err, "insert profile skill")
			}
		}
		return nil
	})
}

// Get retrieves a profile by ID
func (r *ProfileRepository) Get(ctx context.Context, id string) (*profile.Profile, error) {
	list, err := queryProfiles(ctx, r.db, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, repository.ErrNotFound
	}
	return &list[0], nil
}

// Timezone returns the IANA zone of a profile.
func (r *ProfileRepository) Timezone(ctx context.Context, profileID string) (string, error) {
	var tz string
	err := r.db.QueryRowContext(ctx, `SELECT timezone FROM profiles WHERE id = ?`, profileID).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get timezone: %w", err)
	}
	return tz, nil
}

// NotificationPrefs returns which notification categories a profile receives.
func (r *ProfileRepository) NotificationPrefs(ctx context.Context, profileID string) (profile.NotificationPrefs, error) {
	var prefs profile.NotificationPrefs
	err := r.db.QueryRowContext(ctx,
		`SELECT notify_applications, notify_matches, notify_meetings FROM profiles WHERE id = ?`,
		profileID,
	).Scan(&prefs.Applications, &prefs.Matches, &prefs.Meetings)
	if errors.Is(err, sql.ErrNoRows) {
		return profile.NotificationPrefs{}, repository.ErrNotFound
	}
	if err != nil {
		return profile.NotificationPrefs{}, fmt.Errorf("failed to get notification prefs: %w", err)
	}
	return prefs, nil
}

func queryProfiles(ctx context.Context, q querier, query string, args ...any) ([]profile.Profile, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	var (
		list  []profile.Profile
		index = map[string]int{}
	)
	for rows.Next() {
		var (
			p                    profile.Profile
			interests, languages string
			embedding            *string
		)
		err := rows.Scan(
			&p.ID,
			&p.DisplayName,
			&p.Bio,
			&interests,
			&languages,
			&p.Location.Lat,
			&p.Location.Lng,
			&p.Location.Mode,
			&p.Timezone,
			&p.HoursPerWeek,
			&p.ExperienceLevel,
			&p.NotifyPrefs.Applications,
			&p.NotifyPrefs.Matches,
			&p.NotifyPrefs.Meetings,
			&embedding,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if err := json.Unmarshal([]byte(interests), &p.Interests); err != nil {
			return nil, fmt.Errorf("failed to decode interests: %w", err)
		}
		if err := json.Unmarshal([]byte(languages), &p.Languages); err != nil {
			return nil, fmt.Errorf("failed to decode languages: %w", err)
		}
		if p.Embedding, err = scanVector(embedding); err != nil {
			return nil, err
		}
		p.Skills = []profile.Skill{}
		index[p.ID] = len(list)
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("failed to close profile rows: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]any, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID)
	}
	skillRows, err := q.QueryContext(ctx,
		`SELECT profile_id, skill_id, level FROM profile_skills
		 WHERE profile_id IN (`+placeholders(len(ids))+`)
		 ORDER BY profile_id, skill_id`, ids...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profile skills: %w", err)
	}
	defer skillRows.Close()
	for skillRows.Next() {
		var (
			profileID string
			sk        profile.Skill
		)
		if err := skillRows.Scan(&profileID, &sk.SkillID, &sk.Level); err != nil {
			return nil, fmt.Errorf("failed to scan profile skill: %w", err)
		}
		i := index[profileID]
		list[i].Skills = append(list[i].Skills, sk)
	}
	if err := skillRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile skill rows: %w", err)
	}
	return list, nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
