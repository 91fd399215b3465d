package matching

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/meshit/meshit/internal/domain/posting"
	"github.com/meshit/meshit/internal/domain/profile"
	"github.com/meshit/meshit/internal/domain/skilltree"
)

// Weights sets how much each sub-score contributes to the overall score.
type Weights struct {
	Semantic      float64
	SkillsOverlap float64
	Experience    float64
	Commitment    float64
}

// DefaultWeights is the production weighting.
var DefaultWeights = Weights{Semantic: 0.4, SkillsOverlap: 0.3, Experience: 0.15, Commitment: 0.15}

const weightTolerance = 1e-9

// Validate checks the weights are non-negative and sum to one.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Semantic, w.SkillsOverlap, w.Experience, w.Commitment} {
		if v < 0 || math.IsNaN(v) {
			return ErrInvalidWeights
		}
	}
	if math.Abs(w.Semantic+w.SkillsOverlap+w.Experience+w.Commitment-1) > weightTolerance {
		return ErrInvalidWeights
	}
	return nil
}

// Score is a weighted composite in [0,1] plus the inputs it came from.
type Score struct {
	Overall   float64
	Breakdown Breakdown
}

// SkillResolver expands a skill node into its subtree.
type SkillResolver interface {
	Descendants(ctx context.Context, nodeID string) (map[string]struct{}, error)
}

// Scorer computes match scores. It reads the skill tree but never writes.
type Scorer struct {
	skills  SkillResolver
	weights Weights
}

// NewScorer creates a Scorer, refusing weights that do not sum to one.
func NewScorer(skills SkillResolver, weights Weights) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{skills: skills, weights: weights}, nil
}

// Requirements is a posting with its required skills expanded through the
// skill tree, ready to score many profiles against.
type Requirements struct {
	posting *posting.Posting
	skills  []expandedSkill
	weights Weights
}

type expandedSkill struct {
	accepts  map[string]struct{}
	minLevel *int
}

// Prepare expands the posting's required skills. A required node missing
// from the tree only accepts itself.
func (s *Scorer) Prepare(ctx context.Context, p *posting.Posting) (*Requirements, error) {
	req := &Requirements{posting: p, weights: s.weights}
	for _, skill := range p.RequiredSkills {
		accepts, err := s.skills.Descendants(ctx, skill.SkillID)
		if err != nil {
			if !errors.Is(err, skilltree.ErrNodeNotFound) {
				return nil, fmt.Errorf("expanding skill %s: %w", skill.SkillID, err)
			}
			accepts = map[string]struct{}{skill.SkillID: {}}
		}
		req.skills = append(req.skills, expandedSkill{accepts: accepts, minLevel: skill.MinLevel})
	}
	return req, nil
}

// Score computes the composite for one profile/posting pair. semantic is the
// storage layer's cosine similarity of the two embeddings.
func (s *Scorer) Score(ctx context.Context, pr *profile.Profile, p *posting.Posting, semantic float64) (Score, error) {
	req, err := s.Prepare(ctx, p)
	if err != nil {
		return Score{}, err
	}
	return req.Score(pr, semantic), nil
}

// Score computes the composite for pr against the prepared posting.
func (r *Requirements) Score(pr *profile.Profile, semantic float64) Score {
	b := Breakdown{
		Semantic:        clamp(semantic),
		SkillsOverlap:   r.skillsOverlap(pr),
		ExperienceMatch: r.experienceMatch(pr),
		CommitmentMatch: r.commitmentMatch(pr),
	}
	overall := b.Semantic*r.weights.Semantic +
		b.SkillsOverlap*r.weights.SkillsOverlap +
		b.ExperienceMatch*r.weights.Experience +
		b.CommitmentMatch*r.weights.Commitment
	return Score{Overall: clamp(overall), Breakdown: b}
}

// skillsOverlap is the fraction of required skills the profile satisfies at
// or above the minimum level. No requirements is vacuously 1.
func (r *Requirements) skillsOverlap(pr *profile.Profile) float64 {
	if len(r.skills) == 0 {
		return 1
	}
	satisfied := 0
	for _, req := range r.skills {
		for _, held := range pr.Skills {
			if _, ok := req.accepts[held.SkillID]; !ok {
				continue
			}
			if req.minLevel != nil && held.Level < *req.minLevel {
				continue
			}
			satisfied++
			break
		}
	}
	return float64(satisfied) / float64(len(r.skills))
}

// experienceMatch compares the profile's level with the posting's. When the
// posting sets no level, the mean of the stated minimum skill levels is used.
func (r *Requirements) experienceMatch(pr *profile.Profile) float64 {
	required := float64(r.posting.ExperienceLevel)
	if required == 0 {
		var sum, n float64
		for _, skill := range r.posting.RequiredSkills {
			if skill.MinLevel != nil {
				sum += float64(*skill.MinLevel)
				n++
			}
		}
		if n > 0 {
			required = sum / n
		}
	}
	if required <= 0 {
		return 1
	}
	return clamp(float64(pr.ExperienceLevel) / required)
}

// commitmentMatch compares available hours with requested hours. A profile
// that declares no hours gets a neutral 0.5.
func (r *Requirements) commitmentMatch(pr *profile.Profile) float64 {
	if r.posting.HoursPerWeek <= 0 {
		return 1
	}
	if pr.HoursPerWeek <= 0 {
		return 0.5
	}
	return clamp(float64(pr.HoursPerWeek) / float64(r.posting.HoursPerWeek))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
