package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/domain/notification"
	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/testserver"
	"github.com/meshit/meshit/internal/transport"
)

type env struct {
	*testserver.TestServer
	t *testing.T
}

func newEnv(t *testing.T, profiles ...string) *env {
	t.Helper()
	e := &env{TestServer: testserver.New(t), t: t}
	for _, id := range profiles {
		e.saveProfile(id, profile.SaveRequest{DisplayName: id, Timezone: "UTC"})
	}
	return e
}

func (e *env) saveProfile(actorID string, req profile.SaveRequest) {
	e.t.Helper()
	var p profile.Profile
	require.Equal(e.t, http.StatusOK, e.Do(e.t, actorID, http.MethodPut, "/profile", req, &p))
	require.Equal(e.t, actorID, p.ID)
}

func (e *env) createPosting(actorID string, req posting.CreateRequest) *posting.Posting {
	e.t.Helper()
	var p posting.Posting
	require.Equal(e.t, http.StatusCreated, e.Do(e.t, actorID, http.MethodPost, "/postings", req, &p))
	return &p
}

func (e *env) posting(id string) *posting.Posting {
	e.t.Helper()
	var p posting.Posting
	require.Equal(e.t, http.StatusOK, e.Do(e.t, "alice", http.MethodGet, "/postings/"+id, nil, &p))
	return &p
}

func (e *env) apply(actorID, postingID string) *application.Application {
	e.t.Helper()
	var a application.Application
	require.Equal(e.t, http.StatusCreated, e.Do(e.t, actorID, http.MethodPost, "/postings/"+postingID+"/applications", map[string]string{}, &a))
	return &a
}

func (e *env) withdraw(actorID, applicationID string) *application.Application {
	e.t.Helper()
	var a application.Application
	require.Equal(e.t, http.StatusOK, e.Do(e.t, actorID, http.MethodPatch, "/applications/"+applicationID+"/withdraw", nil, &a))
	return &a
}

func (e *env) application(actorID, id string) *application.Application {
	e.t.Helper()
	var a application.Application
	require.Equal(e.t, http.StatusOK, e.Do(e.t, actorID, http.MethodGet, "/applications/"+id, nil, &a))
	return &a
}

func (e *env) notificationTypes(actorID string) []notification.Type {
	e.t.Helper()
	var list []notification.Notification
	require.Equal(e.t, http.StatusOK, e.Do(e.t, actorID, http.MethodGet, "/notifications", nil, &list))
	types := make([]notification.Type, 0, len(list))
	for _, n := range list {
		types = append(types, n.Type)
	}
	return types
}

func autoAcceptPosting(max int) posting.CreateRequest {
	return posting.CreateRequest{
		Title:       "Hack night",
		Description: "Build a mesh network dashboard",
		TeamSizeMin: 1,
		TeamSizeMax: max,
		AutoAccept:  true,
	}
}

func TestAutoAcceptFillsAtCapacity(t *testing.T) {
	e := newEnv(t, "alice", "bob", "carol", "dave")
	p := e.createPosting("alice", autoAcceptPosting(2))
	require.Equal(t, posting.StatusOpen, p.Status)

	require.Equal(t, application.StatusAccepted, e.apply("bob", p.ID).Status)
	require.Equal(t, posting.StatusOpen, e.posting(p.ID).Status)

	require.Equal(t, application.StatusAccepted, e.apply("carol", p.ID).Status)
	require.Equal(t, posting.StatusFilled, e.posting(p.ID).Status)

	require.Equal(t, application.StatusWaitlisted, e.apply("dave", p.ID).Status)

	var list []application.Application
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodGet, "/postings/"+p.ID+"/applications", nil, &list))
	accepted := 0
	for _, a := range list {
		if a.Status == application.StatusAccepted {
			accepted++
		}
	}
	require.Equal(t, 2, accepted)

	require.Contains(t, e.notificationTypes("bob"), notification.TypeApplicationAccepted)
	require.Contains(t, e.notificationTypes("dave"), notification.TypeApplicationWaitlisted)
}

func TestWithdrawPromotesWaitlisted(t *testing.T) {
	e := newEnv(t, "alice", "bob", "carol", "dave")
	p := e.createPosting("alice", autoAcceptPosting(2))

	bob := e.apply("bob", p.ID)
	e.apply("carol", p.ID)
	dave := e.apply("dave", p.ID)
	require.Equal(t, application.StatusWaitlisted, dave.Status)

	require.Equal(t, application.StatusWithdrawn, e.withdraw("bob", bob.ID).Status)

	require.Equal(t, application.StatusAccepted, e.application("dave", dave.ID).Status)
	require.Equal(t, posting.StatusFilled, e.posting(p.ID).Status)
	require.Contains(t, e.notificationTypes("dave"), notification.TypeApplicationPromoted)
	require.Contains(t, e.notificationTypes("alice"), notification.TypeApplicationWithdrawn)
}

func TestWithdrawReopensWhenNobodyWaits(t *testing.T) {
	e := newEnv(t, "alice", "bob", "carol")
	p := e.createPosting("alice", autoAcceptPosting(2))

	e.apply("bob", p.ID)
	carol := e.apply("carol", p.ID)
	require.Equal(t, posting.StatusFilled, e.posting(p.ID).Status)

	e.withdraw("carol", carol.ID)
	require.Equal(t, posting.StatusOpen, e.posting(p.ID).Status)

	// Withdrawing twice is an invalid transition.
	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusBadRequest, e.Do(t, "carol", http.MethodPatch, "/applications/"+carol.ID+"/withdraw", nil, &errResp))
}

func TestManualAcceptRespectsCapacity(t *testing.T) {
	e := newEnv(t, "alice", "bob", "carol")
	req := autoAcceptPosting(1)
	req.AutoAccept = false
	p := e.createPosting("alice", req)

	bob := e.apply("bob", p.ID)
	carol := e.apply("carol", p.ID)
	require.Equal(t, application.StatusPending, bob.Status)
	require.Equal(t, application.StatusPending, carol.Status)

	// Only the creator decides.
	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusForbidden, e.Do(t, "bob", http.MethodPatch, "/applications/"+bob.ID+"/decide", map[string]string{"status": "accepted"}, &errResp))

	var a application.Application
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodPatch, "/applications/"+bob.ID+"/decide", map[string]string{"status": "accepted"}, &a))
	require.Equal(t, application.StatusAccepted, a.Status)
	require.Equal(t, posting.StatusFilled, e.posting(p.ID).Status)

	require.Equal(t, http.StatusBadRequest, e.Do(t, "alice", http.MethodPatch, "/applications/"+carol.ID+"/decide", map[string]string{"status": "accepted"}, &errResp))
	require.Equal(t, "VALIDATION", string(errResp.Error.Code))
}

func TestDuplicateApplicationConflicts(t *testing.T) {
	e := newEnv(t, "alice", "bob")
	p := e.createPosting("alice", autoAcceptPosting(3))
	e.apply("bob", p.ID)

	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusConflict, e.Do(t, "bob", http.MethodPost, "/postings/"+p.ID+"/applications", map[string]string{}, &errResp))

	// Applying to your own posting is rejected.
	require.Equal(t, http.StatusBadRequest, e.Do(t, "alice", http.MethodPost, "/postings/"+p.ID+"/applications", map[string]string{}, &errResp))
}

func TestCommonAvailability(t *testing.T) {
	e := newEnv(t, "alice", "bob", "carol")
	p := e.createPosting("alice", autoAcceptPosting(3))
	e.apply("bob", p.ID)
	e.apply("carol", p.ID)

	setWeekly := func(actorID string, day, start, end int) {
		t.Helper()
		windows := map[string]any{"windows": []availability.Window{{
			Kind:         availability.KindRecurring,
			DayOfWeek:    day,
			StartMinutes: start,
			EndMinutes:   end,
		}}}
		require.Equal(t, http.StatusOK, e.Do(t, actorID, http.MethodPut, "/profile/availability", windows, nil))
	}

	setWeekly("alice", 0, 9*60, 12*60)
	setWeekly("bob", 0, 10*60, 14*60)
	setWeekly("carol", 0, 11*60, 17*60)

	var common availability.CommonResult
	require.Equal(t, http.StatusOK, e.Do(t, "bob", http.MethodGet, "/postings/"+p.ID+"/common-availability", nil, &common))
	require.Equal(t, []availability.CommonWindow{{DayOfWeek: 0, StartMinutes: 11 * 60, EndMinutes: 12 * 60}}, common.Windows)

	// Carol moves to Tuesday: no time is shared by all three.
	setWeekly("carol", 1, 11*60, 17*60)
	var raw map[string]json.RawMessage
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodGet, "/postings/"+p.ID+"/common-availability", nil, &raw))
	require.JSONEq(t, `[]`, string(raw["windows"]))

	// Outsiders cannot look.
	e.saveProfile("mallory", profile.SaveRequest{DisplayName: "mallory"})
	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusForbidden, e.Do(t, "mallory", http.MethodGet, "/postings/"+p.ID+"/common-availability", nil, &errResp))
}

func TestMatchesAreStable(t *testing.T) {
	e := newEnv(t)
	e.SeedSkill(t, "software", "", "Software")
	e.SeedSkill(t, "go", "software", "Go")

	e.saveProfile("alice", profile.SaveRequest{DisplayName: "alice"})
	for i, id := range []string{"bob", "carol", "dave"} {
		e.saveProfile(id, profile.SaveRequest{
			DisplayName:     id,
			Skills:          []profile.Skill{{SkillID: "go", Level: 3 + i}},
			HoursPerWeek:    10,
			ExperienceLevel: 2 + i,
		})
	}

	p := e.createPosting("alice", posting.CreateRequest{
		Title:           "Mesh router",
		Description:     "Firmware in Go",
		TeamSizeMin:     1,
		TeamSizeMax:     3,
		HoursPerWeek:    10,
		ExperienceLevel: 4,
		RequiredSkills:  []posting.RequiredSkill{{SkillID: "software"}},
	})
	e.SetEmbedding(t, "postings", p.ID, "[1,0]")
	e.SetEmbedding(t, "profiles", "bob", "[1,0]")
	e.SetEmbedding(t, "profiles", "carol", "[0,1]")

	var first []matching.RankedMatch
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodGet, "/matches-for-posting/"+p.ID, nil, &first))
	require.Len(t, first, 3)
	for i := 1; i < len(first); i++ {
		require.GreaterOrEqual(t, first[i-1].Score, first[i].Score)
	}
	for _, m := range first {
		require.InDelta(t, 1.0, m.ScoreBreakdown.SkillsOverlap, 1e-9, "go descends from software")
		require.GreaterOrEqual(t, m.Score, 0.0)
		require.LessOrEqual(t, m.Score, 1.0)
	}

	var second []matching.RankedMatch
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodGet, "/matches-for-posting/"+p.ID, nil, &second))
	require.Equal(t, first, second)

	// Candidates see their own matches; others may not list the posting's.
	var mine []matching.RankedMatch
	require.Equal(t, http.StatusOK, e.Do(t, "bob", http.MethodGet, "/matches", nil, &mine))
	require.Len(t, mine, 1)
	require.Equal(t, p.ID, mine[0].PostingID)

	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusForbidden, e.Do(t, "bob", http.MethodGet, "/matches-for-posting/"+p.ID, nil, &errResp))
}

func TestMatchApplyAndDecide(t *testing.T) {
	e := newEnv(t, "alice", "bob")
	p := e.createPosting("alice", autoAcceptPosting(2))

	var list []matching.RankedMatch
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodGet, "/matches-for-posting/"+p.ID, nil, &list))
	require.Len(t, list, 1)
	matchID := list[0].MatchID

	var m matching.Match
	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusBadRequest, e.Do(t, "alice", http.MethodPatch, "/matches/"+matchID+"/decide", map[string]string{"status": "accepted"}, &errResp))

	require.Equal(t, http.StatusOK, e.Do(t, "bob", http.MethodPatch, "/matches/"+matchID+"/apply", nil, &m))
	require.Equal(t, matching.StatusApplied, m.Status)

	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodPatch, "/matches/"+matchID+"/decide", map[string]string{"status": "accepted"}, &m))
	require.Equal(t, matching.StatusAccepted, m.Status)
	require.Contains(t, e.notificationTypes("bob"), notification.TypeMatchAccepted)
}

func TestPostingLifecycle(t *testing.T) {
	e := newEnv(t, "alice", "bob")
	p := e.createPosting("alice", autoAcceptPosting(2))

	var got posting.Posting
	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusForbidden, e.Do(t, "bob", http.MethodPatch, "/postings/"+p.ID+"/close", nil, &errResp))

	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodPatch, "/postings/"+p.ID+"/close", nil, &got))
	require.Equal(t, posting.StatusClosed, got.Status)

	// Closed postings take no applications.
	require.Equal(t, http.StatusBadRequest, e.Do(t, "bob", http.MethodPost, "/postings/"+p.ID+"/applications", map[string]string{}, &errResp))

	// Closing is final: only expired postings come back.
	require.Equal(t, http.StatusBadRequest, e.Do(t, "alice", http.MethodPatch, "/postings/"+p.ID+"/reactivate", nil, &errResp))
	require.Equal(t, http.StatusBadRequest, e.Do(t, "alice", http.MethodPatch, "/postings/"+p.ID+"/repost", nil, &errResp))
	require.Equal(t, posting.StatusClosed, e.posting(p.ID).Status)

	require.Equal(t, http.StatusNotFound, e.Do(t, "alice", http.MethodGet, "/postings/missing", nil, &errResp))
	require.Equal(t, "NOT_FOUND", string(errResp.Error.Code))
}

func TestScheduledExpiry(t *testing.T) {
	e := newEnv(t, "alice")
	p := e.createPosting("alice", autoAcceptPosting(2))

	_, err := e.DB.Exec(`UPDATE postings SET expires_at = ? WHERE id = ?`, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), p.ID)
	require.NoError(t, err)

	n, err := e.App.Postings.ExpireDue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, posting.StatusExpired, e.posting(p.ID).Status)

	var got posting.Posting
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodPatch, "/postings/"+p.ID+"/repost", nil, &got))
	require.Equal(t, posting.StatusOpen, got.Status)
	require.True(t, got.ExpiresAt.After(got.UpdatedAt), fmt.Sprintf("expires_at %s", got.ExpiresAt))
}

func TestMeetingsAndNotifications(t *testing.T) {
	e := newEnv(t, "alice", "bob")
	p := e.createPosting("alice", autoAcceptPosting(2))
	e.apply("bob", p.ID)

	body := map[string]string{"starts_at": "2099-03-02T15:00:00Z", "ends_at": "2099-03-02T16:00:00Z"}
	var proposal struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusCreated, e.Do(t, "bob", http.MethodPost, "/postings/"+p.ID+"/meetings", body, &proposal))
	require.Equal(t, "proposed", proposal.Status)

	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodPatch, "/meetings/"+proposal.ID+"/respond", map[string]bool{"available": true}, nil))
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodPatch, "/meetings/"+proposal.ID+"/confirm", nil, &proposal))
	require.Equal(t, "confirmed", proposal.Status)

	var list []notification.Notification
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodGet, "/notifications?unread_only=true", nil, &list))
	require.NotEmpty(t, list)
	require.Equal(t, http.StatusNoContent, e.Do(t, "alice", http.MethodPatch, "/notifications/"+list[0].ID+"/read", nil, nil))

	var after []notification.Notification
	require.Equal(t, http.StatusOK, e.Do(t, "alice", http.MethodGet, "/notifications?unread_only=true", nil, &after))
	require.Len(t, after, len(list)-1)
}

func TestUnauthenticated(t *testing.T) {
	e := newEnv(t)

	var errResp transport.ErrorResponse
	require.Equal(t, http.StatusUnauthorized, e.Do(t, "", http.MethodGet, "/matches", nil, &errResp))
	require.Equal(t, "UNAUTHORIZED", string(errResp.Error.Code))
}
