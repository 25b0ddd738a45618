// Package career compares the skill sets of two jobs and quantifies the
// gap between them.
package career

import (
	"context"
	"fmt"
	"sort"

	"github.com/gkf-org/skillgraph/recommend"
)

// GapReport describes the skill distance between a start and an end job.
// Transient computed output; never persisted.
type GapReport struct {
	CommonSkills    []string                      `json:"common_skills"`
	SkillsToAcquire []string                      `json:"skills_to_acquire"`
	GapPercentage   float64                       `json:"gap_percentage"`
	LearningPath    []recommend.LearningPathStep `json:"learning_path"`
}

// Analyzer performs skill-set algebra between jobs. Pure reads, no
// mutation.
type Analyzer struct {
	rec *recommend.Recommender
}

// New creates an Analyzer on top of a Recommender.
func New(rec *recommend.Recommender) *Analyzer {
	return &Analyzer{rec: rec}
}

// AnalyzePath computes common skills, skills to acquire and the gap
// percentage between two jobs, plus a concrete learning path toward the
// end job. An end job with no required skills yields a zero gap.
func (a *Analyzer) AnalyzePath(ctx context.Context, startJobURI, endJobURI string) (*GapReport, error) {
	startSkills, err := a.rec.RequiredSkills(ctx, startJobURI)
	if err != nil {
		return nil, fmt.Errorf("start job skills: %w", err)
	}
	endSkills, err := a.rec.RequiredSkills(ctx, endJobURI)
	if err != nil {
		return nil, fmt.Errorf("end job skills: %w", err)
	}

	startSet := make(map[string]bool, len(startSkills))
	startURIs := make([]string, 0, len(startSkills))
	for _, s := range startSkills {
		startSet[s.URI] = true
		startURIs = append(startURIs, s.URI)
	}

	var common, toAcquire []string
	for _, s := range endSkills {
		if startSet[s.URI] {
			common = append(common, s.URI)
		} else {
			toAcquire = append(toAcquire, s.URI)
		}
	}
	sort.Strings(common)
	sort.Strings(toAcquire)

	// Guard: an end job with no requirements has no gap to measure.
	var gap float64
	if len(endSkills) > 0 {
		gap = float64(len(toAcquire)) / float64(len(endSkills)) * 100
	}

	path, err := a.rec.LearningPath(ctx, endJobURI, startURIs)
	if err != nil {
		return nil, fmt.Errorf("acquisition plan: %w", err)
	}

	return &GapReport{
		CommonSkills:    common,
		SkillsToAcquire: toAcquire,
		GapPercentage:   gap,
		LearningPath:    path,
	}, nil
}
