package mocks

import (
	"context"
	"time"

	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/meeting"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/embedding"
	"github.com/stretchr/testify/mock"
)

// PostingRepository is a mock for posting.Repository.
type PostingRepository struct {
	mock.Mock
}

func (m *PostingRepository) Create(ctx context.Context, p *posting.Posting) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PostingRepository) Get(ctx context.Context, id string) (*posting.Posting, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*posting.Posting); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PostingRepository) UpdateStatus(ctx context.Context, actorID, id string, from, to posting.Status) error {
	args := m.Called(ctx, actorID, id, from, to)
	return args.Error(0)
}

func (m *PostingRepository) Reschedule(ctx context.Context, actorID, id string, from, to posting.Status, expiresAt time.Time) error {
	args := m.Called(ctx, actorID, id, from, to, expiresAt)
	return args.Error(0)
}

func (m *PostingRepository) Repost(ctx context.Context, actorID, id string, expiresAt time.Time) error {
	args := m.Called(ctx, actorID, id, expiresAt)
	return args.Error(0)
}

func (m *PostingRepository) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *PostingRepository) Team(ctx context.Context, postingID string) (*posting.Team, error) {
	args := m.Called(ctx, postingID)
	if t, ok := args.Get(0).(*posting.Team); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

// TeamRepository is a mock for the team lookups of availability and meeting.
type TeamRepository struct {
	mock.Mock
}

func (m *TeamRepository) Team(ctx context.Context, postingID string) (*posting.Team, error) {
	args := m.Called(ctx, postingID)
	if t, ok := args.Get(0).(*posting.Team); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

// ProfileRepository is a mock for profile.Repository.
type ProfileRepository struct {
	mock.Mock
}

func (m *ProfileRepository) Get(ctx context.Context, id string) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*profile.Profile); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// Embedder is a mock for the embedding enqueuers of profile and posting.
type Embedder struct {
	mock.Mock
}

func (m *Embedder) Enqueue(kind embedding.Kind, id, text string) {
	m.Called(kind, id, text)
}

// WindowRepository is a mock for availability.WindowRepository.
type WindowRepository struct {
	mock.Mock
}

func (m *WindowRepository) ListByOwner(ctx context.Context, owner availability.OwnerKind, ownerID string) ([]availability.Window, error) {
	args := m.Called(ctx, owner, ownerID)
	if list, ok := args.Get(0).([]availability.Window); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WindowRepository) ReplaceForOwner(ctx context.Context, owner availability.OwnerKind, ownerID string, windows []availability.Window) error {
	args := m.Called(ctx, owner, ownerID, windows)
	return args.Error(0)
}

// BusyBlockRepository is a mock for availability.BusyBlockRepository.
type BusyBlockRepository struct {
	mock.Mock
}

func (m *BusyBlockRepository) ReplaceForConnection(ctx context.Context, profileID, connectionID string, blocks []availability.BusyBlock) error {
	args := m.Called(ctx, profileID, connectionID, blocks)
	return args.Error(0)
}

func (m *BusyBlockRepository) ListByProfile(ctx context.Context, profileID string) ([]availability.BusyBlock, error) {
	args := m.Called(ctx, profileID)
	if list, ok := args.Get(0).([]availability.BusyBlock); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// TimezoneRepository is a mock for availability.TimezoneRepository.
type TimezoneRepository struct {
	mock.Mock
}

func (m *TimezoneRepository) Timezone(ctx context.Context, profileID string) (string, error) {
	args := m.Called(ctx, profileID)
	return args.String(0), args.Error(1)
}

// MatchRepository is a mock for matching.Repository. CreateIfAbsent also
// accepts a function return value so tests can echo the input back.
type MatchRepository struct {
	mock.Mock
}

func (m *MatchRepository) CreateIfAbsent(ctx context.Context, match *matching.Match) (*matching.Match, bool, error) {
	args := m.Called(ctx, match)
	if fn, ok := args.Get(0).(func(context.Context, *matching.Match) (*matching.Match, bool, error)); ok {
		return fn(ctx, match)
	}
	stored, _ := args.Get(0).(*matching.Match)
	return stored, args.Bool(1), args.Error(2)
}

func (m *MatchRepository) Upsert(ctx context.Context, match *matching.Match) (*matching.Match, error) {
	args := m.Called(ctx, match)
	if stored, ok := args.Get(0).(*matching.Match); ok {
		return stored, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MatchRepository) Get(ctx context.Context, id string) (*matching.Match, error) {
	args := m.Called(ctx, id)
	if match, ok := args.Get(0).(*matching.Match); ok {
		return match, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MatchRepository) ListForPosting(ctx context.Context, postingID string) ([]matching.Match, error) {
	args := m.Called(ctx, postingID)
	if list, ok := args.Get(0).([]matching.Match); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MatchRepository) ListForProfile(ctx context.Context, profileID string) ([]matching.Match, error) {
	args := m.Called(ctx, profileID)
	if list, ok := args.Get(0).([]matching.Match); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MatchRepository) UpdateStatus(ctx context.Context, actorID, id string, from, to matching.Status) error {
	args := m.Called(ctx, actorID, id, from, to)
	return args.Error(0)
}

// CandidateRepository is a mock for matching.CandidateRepository.
type CandidateRepository struct {
	mock.Mock
}

func (m *CandidateRepository) Candidates(ctx context.Context, postingID string, limit int) ([]profile.Profile, error) {
	args := m.Called(ctx, postingID, limit)
	if list, ok := args.Get(0).([]profile.Profile); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// SimilarityRepository is a mock for matching.SimilarityRepository.
type SimilarityRepository struct {
	mock.Mock
}

func (m *SimilarityRepository) Similarities(ctx context.Context, postingID string, profileIDs []string) (map[string]float64, error) {
	args := m.Called(ctx, postingID, profileIDs)
	if scores, ok := args.Get(0).(map[string]float64); ok {
		return scores, args.Error(1)
	}
	return nil, args.Error(1)
}

// ApplicationRepository is a mock for application.Repository.
type ApplicationRepository struct {
	mock.Mock
}

func (m *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *ApplicationRepository) Get(ctx context.Context, id string) (*application.Application, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).(*application.Application); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) ListForPosting(ctx context.Context, postingID string) ([]application.Application, error) {
	args := m.Called(ctx, postingID)
	if list, ok := args.Get(0).([]application.Application); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) CountAccepted(ctx context.Context, postingID string) (int, error) {
	args := m.Called(ctx, postingID)
	return args.Int(0), args.Error(1)
}

func (m *ApplicationRepository) UpdateStatus(ctx context.Context, actorID, id string, from, to application.Status) error {
	args := m.Called(ctx, actorID, id, from, to)
	return args.Error(0)
}

func (m *ApplicationRepository) Accept(ctx context.Context, req application.AcceptRequest) (*application.AcceptResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*application.AcceptResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) Withdraw(ctx context.Context, req application.WithdrawRequest) (*application.WithdrawResult, error) {
	args := m.Called(ctx, req)
	if res, ok := args.Get(0).(*application.WithdrawResult); ok {
		return res, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) PromoteNext(ctx context.Context, postingID string, now time.Time) (*application.Application, error) {
	args := m.Called(ctx, postingID, now)
	if a, ok := args.Get(0).(*application.Application); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) ListVacancies(ctx context.Context) ([]application.Vacancy, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]application.Vacancy); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ApplicationRepository) ReconcileStatuses(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

// MeetingRepository is a mock for meeting.Repository.
type MeetingRepository struct {
	mock.Mock
}

func (m *MeetingRepository) CreateCapped(ctx context.Context, p *meeting.Proposal, max int) error {
	args := m.Called(ctx, p, max)
	return args.Error(0)
}

func (m *MeetingRepository) Get(ctx context.Context, id string) (*meeting.Proposal, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*meeting.Proposal); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MeetingRepository) ListForPosting(ctx context.Context, postingID string) ([]meeting.Proposal, error) {
	args := m.Called(ctx, postingID)
	if list, ok := args.Get(0).([]meeting.Proposal); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MeetingRepository) Respond(ctx context.Context, proposalID string, r meeting.Response) error {
	args := m.Called(ctx, proposalID, r)
	return args.Error(0)
}

func (m *MeetingRepository) UpdateStatus(ctx context.Context, id string, from, to meeting.Status) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

// NotificationRepository is a mock for notification.Repository.
type NotificationRepository struct {
	mock.Mock
}

func (m *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *NotificationRepository) List(ctx context.Context, profileID string, opts notification.ListOptions) ([]notification.Notification, error) {
	args := m.Called(ctx, profileID, opts)
	if list, ok := args.Get(0).([]notification.Notification); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, profileID, id string) error {
	args := m.Called(ctx, profileID, id)
	return args.Error(0)
}

// PrefsReader is a mock for notification.PrefsReader.
type PrefsReader struct {
	mock.Mock
}

func (m *PrefsReader) NotificationPrefs(ctx context.Context, profileID string) (profile.NotificationPrefs, error) {
	args := m.Called(ctx, profileID)
	prefs, _ := args.Get(0).(profile.NotificationPrefs)
	return prefs, args.Error(1)
}

// Notifier is a mock for notification.Notifier.
type Notifier struct {
	mock.Mock
}

func (m *Notifier) Notify(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
