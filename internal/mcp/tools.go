package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/meshit/meshit/internal/domain/application"
	"github.com/meshit/meshit/internal/domain/availability"
	"github.com/meshit/meshit/internal/domain/matching"
	"github.com/meshit/meshit/internal/errcode"
)

type postingArgs struct {
	PostingID string `json:"posting_id" jsonschema:"the posting id"`
}

type noArgs struct{}

type decideApplicationArgs struct {
	ApplicationID string `json:"application_id" jsonschema:"the application id"`
	Status        string `json:"status" jsonschema:"accepted or rejected"`
}

type applicationArgs struct {
	ApplicationID string `json:"application_id" jsonschema:"the application id"`
}

type commonAvailabilityArgs struct {
	PostingID string `json:"posting_id" jsonschema:"the posting id"`
	Scope     string `json:"scope,omitempty" jsonschema:"recurring (default) or this_week"`
}

type skillArgs struct {
	SkillID string `json:"skill_id" jsonschema:"the skill node id"`
}

type proposeMeetingArgs struct {
	PostingID string `json:"posting_id" jsonschema:"the posting id"`
	StartsAt  string `json:"starts_at" jsonschema:"RFC 3339 start time"`
	EndsAt    string `json:"ends_at" jsonschema:"RFC 3339 end time"`
}

type ancestryResult struct {
	ID         string   `json:"id"`
	Ancestors  []string `json:"ancestors"`
	Breadcrumb string   `json:"breadcrumb"`
}

func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "matches_for_posting",
		Description: "Ranked candidate matches for a posting you created. Generated on first call, stable afterwards.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in postingArgs) (*sdkmcp.CallToolResult, any, error) {
		list, err := svc.Matches.MatchesForPosting(ctx, actorID(ctx), in.PostingID)
		if list == nil {
			list = []matching.RankedMatch{}
		}
		return toolResult(list, err)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "my_matches",
		Description: "Postings matched to your profile, best first.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, _ noArgs) (*sdkmcp.CallToolResult, any, error) {
		list, err := svc.Matches.MatchesForProfile(ctx, actorID(ctx))
		if list == nil {
			list = []matching.RankedMatch{}
		}
		return toolResult(list, err)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "decide_application",
		Description: "Accept or reject an application to a posting you created.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in decideApplicationArgs) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(svc.Applications.Decide(ctx, actorID(ctx), in.ApplicationID, application.Status(in.Status)))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "withdraw_application",
		Description: "Withdraw your own application. A freed seat goes to the waitlist.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in applicationArgs) (*sdkmcp.CallToolResult, any, error) {
		return toolResult(svc.Applications.Withdraw(ctx, actorID(ctx), in.ApplicationID))
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "common_availability",
		Description: "Weekly windows when every team member of a posting is free. Empty means no shared time.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in commonAvailabilityArgs) (*sdkmcp.CallToolResult, any, error) {
		scope, err := availability.ParseScope(in.Scope)
		if err != nil {
			return toolResult(nil, err)
		}
		common, err := svc.Availability.CommonAvailability(ctx, actorID(ctx), in.PostingID, scope)
		if err != nil {
			return toolResult(nil, err)
		}
		return toolResult(availability.NewCommonResult(common), nil)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "skill_ancestry",
		Description: "The path from the skill tree root down to a skill, with a readable breadcrumb.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in skillArgs) (*sdkmcp.CallToolResult, any, error) {
		ancestors, err := svc.Skills.Ancestry(ctx, in.SkillID)
		if err != nil {
			return toolResult(nil, err)
		}
		crumb, err := svc.Skills.Breadcrumb(ctx, in.SkillID)
		if ancestors == nil {
			ancestors = []string{}
		}
		return toolResult(ancestryResult{ID: in.SkillID, Ancestors: ancestors, Breadcrumb: crumb}, err)
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "propose_meeting",
		Description: "Propose a meeting time to the team of a posting.",
	}, func(ctx context.Context, _ *sdkmcp.CallToolRequest, in proposeMeetingArgs) (*sdkmcp.CallToolResult, any, error) {
		startsAt, err := parseTime("starts_at", in.StartsAt)
		if err != nil {
			return toolResult(nil, err)
		}
		endsAt, err := parseTime("ends_at", in.EndsAt)
		if err != nil {
			return toolResult(nil, err)
		}
		return toolResult(svc.Meetings.Propose(ctx, actorID(ctx), in.PostingID, startsAt, endsAt))
	})
}

// invalidArgument is reported as a validation failure.
type invalidArgument struct {
	name string
	err  error
}

func (e *invalidArgument) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.name, e.err)
}

func parseTime(name, v string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, &invalidArgument{name: name, err: err}
	}
	return t, nil
}

// toolResult renders v as JSON text, or err as an APIError with IsError set.
func toolResult(v any, err error) (*sdkmcp.CallToolResult, any, error) {
	if err != nil {
		apiErr := MapError(err)
		if _, ok := err.(*invalidArgument); ok {
			apiErr.Code = errcode.Validation
			apiErr.RecoveryHint = recoveryHints[errcode.Validation]
		}
		data, _ := json.Marshal(apiErr)
		return &sdkmcp.CallToolResult{
			IsError: true,
			Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		}, nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
