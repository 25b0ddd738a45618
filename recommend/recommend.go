// Package recommend ranks courses and skills against the knowledge graph:
// job-course matching, learning-path synthesis, collaborative next-skill
// suggestion and the demand/similarity heuristics backing them.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/gkf-org/skillgraph/inference"
	"github.com/gkf-org/skillgraph/rdf"
	"github.com/gkf-org/skillgraph/sparql"
)

// Config bounds recommendation work.
type Config struct {
	// Partition scopes every read; defaults to the foundational graph.
	Partition rdf.IRI

	// MaxCoursesPerSkill limits course options per learning-path step.
	MaxCoursesPerSkill int

	// DefaultTopK is used when a caller passes topK <= 0.
	DefaultTopK int
}

// DefaultConfig returns the standard recommendation bounds.
func DefaultConfig() Config {
	return Config{
		Partition:          rdf.GraphFoundational,
		MaxCoursesPerSkill: 3,
		DefaultTopK:        5,
	}
}

// Recommender computes derived recommendations. Stateless per call; every
// result is transient and never persisted.
type Recommender struct {
	store sparql.Querier
	inf   *inference.Inferencer
	cfg   Config
}

// New creates a Recommender. Zero config fields get defaults.
func New(store sparql.Querier, inf *inference.Inferencer, cfg Config) *Recommender {
	def := DefaultConfig()
	if cfg.Partition == "" {
		cfg.Partition = def.Partition
	}
	if cfg.MaxCoursesPerSkill == 0 {
		cfg.MaxCoursesPerSkill = def.MaxCoursesPerSkill
	}
	if cfg.DefaultTopK == 0 {
		cfg.DefaultTopK = def.DefaultTopK
	}
	return &Recommender{store: store, inf: inf, cfg: cfg}
}

// SkillRef identifies a skill with its display name.
type SkillRef struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// CourseRecommendation is one course matched to a job, carrying every
// required skill the course teaches.
type CourseRecommendation struct {
	URI     string     `json:"uri"`
	Name    string     `json:"name"`
	Teaches []SkillRef `json:"teaches"`
}

// CourseOption is a course candidate within a learning-path step.
type CourseOption struct {
	URI        string `json:"uri"`
	Name       string `json:"name"`
	Difficulty string `json:"difficulty,omitempty"`
}

// LearningPathStep covers one missing skill: its prerequisite closure and
// up to MaxCoursesPerSkill courses teaching it. An empty course list marks
// a coverage gap in the catalog, not an error.
type LearningPathStep struct {
	SkillURI      string         `json:"skill_uri"`
	SkillName     string         `json:"skill_name"`
	Prerequisites []string       `json:"prerequisites"`
	Courses       []CourseOption `json:"courses"`
}

// SkillSuggestion is one ranked next-skill candidate.
type SkillSuggestion struct {
	SkillURI     string  `json:"skill_uri"`
	SkillName    string  `json:"skill_name"`
	Reason       string  `json:"reason"`
	CoOccurrence int     `json:"cooccurrence"`
	DemandScore  float64 `json:"demand_score"`
}

const requiredSkillsTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT ?skill ?skillName
WHERE {
  GRAPH %s {
    %s gkf:requires ?skill .
    ?skill gkf:skillName ?skillName .
  }
}`

// RequiredSkills returns the skills a job requires.
func (r *Recommender) RequiredSkills(ctx context.Context, jobURI string) ([]SkillRef, error) {
	q, err := sparql.Bind(requiredSkillsTmpl, sparql.IRI(string(r.cfg.Partition)), sparql.IRI(jobURI))
	if err != nil {
		return nil, err
	}
	rows, err := r.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching required skills: %w", err)
	}

	seen := make(map[string]bool, len(rows))
	var out []SkillRef
	for _, row := range rows {
		uri := row["skill"].Value
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		out = append(out, SkillRef{URI: uri, Name: row["skillName"].Value})
	}
	return out, nil
}

const coursesForJobTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT DISTINCT ?course ?courseName ?skill ?skillName
WHERE {
  GRAPH %s {
    %s gkf:requires ?skill .
    ?skill gkf:skillName ?skillName .
    ?course a gkf:Course ;
            gkf:courseName ?courseName ;
            gkf:teaches ?skill .
  }
}`

// CoursesForJob joins a job's required skills against courses teaching
// them. Rows are grouped by course, so each course appears exactly once
// with all of its matched skills, in first-seen order.
func (r *Recommender) CoursesForJob(ctx context.Context, jobURI string) ([]CourseRecommendation, error) {
	q, err := sparql.Bind(coursesForJobTmpl, sparql.IRI(string(r.cfg.Partition)), sparql.IRI(jobURI))
	if err != nil {
		return nil, err
	}
	rows, err := r.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("matching courses for job: %w", err)
	}

	byCourse := make(map[string]*CourseRecommendation)
	var order []string
	for _, row := range rows {
		courseURI := row["course"].Value
		if courseURI == "" {
			continue
		}
		rec, ok := byCourse[courseURI]
		if !ok {
			rec = &CourseRecommendation{URI: courseURI, Name: row["courseName"].Value}
			byCourse[courseURI] = rec
			order = append(order, courseURI)
		}
		rec.Teaches = append(rec.Teaches, SkillRef{
			URI:  row["skill"].Value,
			Name: row["skillName"].Value,
		})
	}

	out := make([]CourseRecommendation, 0, len(order))
	for _, uri := range order {
		out = append(out, *byCourse[uri])
	}
	return out, nil
}

const coursesForSkillTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT ?course ?courseName ?difficulty
WHERE {
  GRAPH %s {
    ?course a gkf:Course ;
            gkf:courseName ?courseName ;
            gkf:teaches %s .
    OPTIONAL { ?course gkf:difficulty ?difficulty }
  }
}
ORDER BY ?difficulty
LIMIT %s`

func (r *Recommender) coursesForSkill(ctx context.Context, skillURI string) ([]CourseOption, error) {
	q, err := sparql.Bind(coursesForSkillTmpl,
		sparql.IRI(string(r.cfg.Partition)), sparql.IRI(skillURI), sparql.Int(r.cfg.MaxCoursesPerSkill))
	if err != nil {
		return nil, err
	}
	rows, err := r.store.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetching courses for skill: %w", err)
	}

	out := make([]CourseOption, 0, len(rows))
	for _, row := range rows {
		out = append(out, CourseOption{
			URI:        row["course"].Value,
			Name:       row["courseName"].Value,
			Difficulty: row["difficulty"].Value,
		})
	}
	return out, nil
}

// LearningPath builds the ordered steps from a user's current skills to a
// target job. Skills already held produce no step; skills with no matching
// course still produce a step with an empty course list.
func (r *Recommender) LearningPath(ctx context.Context, targetJobURI string, currentSkills []string) ([]LearningPathStep, error) {
	required, err := r.RequiredSkills(ctx, targetJobURI)
	if err != nil {
		return nil, err
	}

	held := make(map[string]bool, len(currentSkills))
	for _, s := range currentSkills {
		held[s] = true
	}

	var path []LearningPathStep
	for _, skill := range required {
		if held[skill.URI] {
			continue
		}

		prereqs, err := r.inf.Prerequisites(ctx, skill.URI)
		if err != nil {
			return nil, fmt.Errorf("prerequisites for %s: %w", skill.URI, err)
		}
		courses, err := r.coursesForSkill(ctx, skill.URI)
		if err != nil {
			return nil, err
		}
		if len(courses) == 0 {
			slog.Debug("learning path: no course covers skill", "skill", skill.URI)
		}

		path = append(path, LearningPathStep{
			SkillURI:      skill.URI,
			SkillName:     skill.Name,
			Prerequisites: prereqs,
			Courses:       courses,
		})
	}
	return path, nil
}

const demandTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT (COUNT(DISTINCT ?job) AS ?jobCount) (COUNT(DISTINCT ?course) AS ?courseCount)
WHERE {
  GRAPH %s {
    OPTIONAL { ?job gkf:requires %s }
    OPTIONAL { ?course gkf:teaches %s }
  }
}`

// SkillDemand scores a skill's demand in [0,100] as jobCount*2 +
// courseCount, clamped. The two counts come from independent optional
// joins, so a skill missing from one side is not zeroed out overall.
func (r *Recommender) SkillDemand(ctx context.Context, skillURI string) (float64, error) {
	q, err := sparql.Bind(demandTmpl,
		sparql.IRI(string(r.cfg.Partition)), sparql.IRI(skillURI), sparql.IRI(skillURI))
	if err != nil {
		return 0, err
	}
	rows, err := r.store.Select(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("predicting skill demand: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	jobs, err := rows[0]["jobCount"].Int()
	if err != nil {
		return 0, fmt.Errorf("parsing job count: %w", err)
	}
	courses, err := rows[0]["courseCount"].Int()
	if err != nil {
		return 0, fmt.Errorf("parsing course count: %w", err)
	}

	score := float64(jobs*2 + courses)
	if score > 100 {
		score = 100
	}
	return score, nil
}

const similarityTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT (COUNT(DISTINCT ?shared) AS ?count)
WHERE {
  GRAPH %s {
    {
      ?shared gkf:teaches %s .
      ?shared gkf:teaches %s .
    } UNION {
      ?shared gkf:requires %s .
      ?shared gkf:requires %s .
    }
  }
}`

// SkillSimilarity measures how often two skills appear together: entities
// teaching both or requiring both, divided by 10 and clamped to [0,1].
// An explicit count heuristic, not a calibrated probability.
func (r *Recommender) SkillSimilarity(ctx context.Context, a, b string) (float64, error) {
	q, err := sparql.Bind(similarityTmpl,
		sparql.IRI(string(r.cfg.Partition)),
		sparql.IRI(a), sparql.IRI(b), sparql.IRI(a), sparql.IRI(b))
	if err != nil {
		return 0, err
	}
	rows, err := r.store.Select(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("computing skill similarity: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	shared, err := rows[0]["count"].Int()
	if err != nil {
		return 0, fmt.Errorf("parsing shared count: %w", err)
	}

	sim := float64(shared) / 10.0
	if sim > 1 {
		sim = 1
	}
	return sim, nil
}

const coOccurrenceTmpl = `PREFIX gkf: <http://gkf.org/ontology/it#>
SELECT ?skill ?skillName (COUNT(?job) AS ?cooccurrence)
WHERE {
  GRAPH %s {
    ?job gkf:requires %s ;
         gkf:requires ?skill .
    ?skill gkf:skillName ?skillName .
    FILTER(?skill != %s)
  }
}
GROUP BY ?skill ?skillName
ORDER BY DESC(?cooccurrence)
LIMIT %s`

// NextSkills suggests up to topK skills to learn next: skills co-required
// with the user's held skills across jobs, scored by demand. Candidates are
// re-sorted globally by (demand score, co-occurrence) descending after
// collection and deduplicated first-kept, so the ranking does not depend on
// the iteration order of userSkills.
func (r *Recommender) NextSkills(ctx context.Context, userSkills []string, topK int) ([]SkillSuggestion, error) {
	if topK <= 0 {
		topK = r.cfg.DefaultTopK
	}

	held := make(map[string]bool, len(userSkills))
	for _, s := range userSkills {
		held[s] = true
	}

	demandCache := make(map[string]float64)
	var candidates []SkillSuggestion

	for _, current := range userSkills {
		q, err := sparql.Bind(coOccurrenceTmpl,
			sparql.IRI(string(r.cfg.Partition)),
			sparql.IRI(current), sparql.IRI(current), sparql.Int(topK))
		if err != nil {
			return nil, err
		}
		rows, err := r.store.Select(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("co-occurring skills for %s: %w", current, err)
		}

		for _, row := range rows {
			uri := row["skill"].Value
			if uri == "" || held[uri] {
				continue
			}

			demand, ok := demandCache[uri]
			if !ok {
				demand, err = r.SkillDemand(ctx, uri)
				if err != nil {
					return nil, err
				}
				demandCache[uri] = demand
			}

			count, err := row["cooccurrence"].Int()
			if err != nil {
				return nil, fmt.Errorf("parsing co-occurrence count: %w", err)
			}
			candidates = append(candidates, SkillSuggestion{
				SkillURI:     uri,
				SkillName:    row["skillName"].Value,
				Reason:       fmt.Sprintf("often required together with %s", current),
				CoOccurrence: count,
				DemandScore:  demand,
			})
		}
	}

	// Global ranking, then first-kept dedup: a skill reachable from
	// several held skills keeps its best-ranked entry.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].DemandScore != candidates[j].DemandScore {
			return candidates[i].DemandScore > candidates[j].DemandScore
		}
		if candidates[i].CoOccurrence != candidates[j].CoOccurrence {
			return candidates[i].CoOccurrence > candidates[j].CoOccurrence
		}
		return candidates[i].SkillURI < candidates[j].SkillURI
	})

	seen := make(map[string]bool, len(candidates))
	out := make([]SkillSuggestion, 0, topK)
	for _, c := range candidates {
		if seen[c.SkillURI] {
			continue
		}
		seen[c.SkillURI] = true
		out = append(out, c)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}
