package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `meshit matches people to project postings by skills, experience, commitment and schedule.

Core concepts:
- Posting: a project looking for up to team_size_max members. Status open | filled | closed | expired.
- Profile: a person with skills (nodes of a skill tree), experience level, weekly hours and a timezone.
- Match: a scored profile/posting pair, generated once and then stable.
- Application: a request to join. Accepted applications hold seats; the rest wait.

Default workflow:
1) my_matches or matches_for_posting to see ranked fits. Scores are in [0,1].
2) decide_application to accept or reject; withdraw_application to leave.
3) common_availability to find weekly time every team member shares.
4) propose_meeting inside one of those windows.

Docs:
- meshit://docs/matching (score weights and state machines)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "meshit://docs/matching",
		Name:        "docs_matching",
		Title:       "Matching and lifecycle rules",
		Description: "How match scores are composed and which status transitions each entity allows.",
		Content: `# Matching and lifecycle rules

## Score

overall = 0.4 * semantic + 0.3 * skills_overlap + 0.15 * experience + 0.15 * commitment

- semantic: cosine similarity of the profile and posting embeddings. Missing embeddings score 0.
- skills_overlap: fraction of required skills the profile holds, counting any descendant
  in the skill tree and honoring the minimum level.
- experience: profile level over required level, capped at 1.
- commitment: profile hours over posting hours, capped at 1. Undeclared hours score 0.5.

Matches are generated once per pair. Asking again returns the stored rows;
regenerating refreshes scores but keeps each match's status.

## Posting

open -> filled (last seat taken) -> open (a seat frees and nobody waits)
open | filled -> closed (creator, final)
open -> expired (deadline passed) -> open (reactivate keeps applications, repost clears applications and matches)

## Application

pending -> accepted | rejected (creator)
pending -> waitlisted (applied while the posting was full)
waitlisted -> accepted (seat frees on an auto-accept posting, or creator decides)
pending | accepted | waitlisted -> withdrawn

A posting never holds more accepted applications than team_size_max.

## Match

pending -> applied (candidate) -> accepted | declined (creator)

## Availability

Windows are in minutes of the week, Monday 00:00 = 0. Common availability is
the intersection of every team member's windows minus their busy blocks.
An empty result means the team has no shared time.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
