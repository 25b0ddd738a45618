package recommend

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/gkf-org/skillgraph/inference"
	"github.com/gkf-org/skillgraph/sparql"
)

type courseRow struct {
	URI        string
	Name       string
	Skill      string
	SkillName  string
	Difficulty string
}

type coRow struct {
	URI   string
	Name  string
	Count int
}

// fakeStore answers the recommendation query shapes from in-memory data.
// Queries are matched on their distinguishing variables and subjects.
type fakeStore struct {
	jobSkills    map[string][]SkillRef   // job -> required skills
	jobCourses   map[string][]courseRow  // job -> (course,skill) join rows
	skillCourses map[string][]courseRow  // skill -> teaching courses
	demand       map[string][2]int       // skill -> {jobCount, courseCount}
	shared       map[string]int          // "a|b" -> shared entity count
	cooccur      map[string][]coRow      // held skill -> co-occurring skills
	prereqs      map[string][]string     // skill -> full prerequisite closure
}

var (
	jobSubjectRe   = regexp.MustCompile(`<([^>]+)> gkf:requires \?skill`)
	teachesIRIRe   = regexp.MustCompile(`gkf:teaches <([^>]+)>`)
	requiresIRIRe  = regexp.MustCompile(`gkf:requires <([^>]+)>`)
	prereqPathRe   = regexp.MustCompile(`<([^>]+)> gkf:prerequisite\+`)
	sharedPairRe   = regexp.MustCompile(`\?shared gkf:teaches <([^>]+)> \.\s*\?shared gkf:teaches <([^>]+)>`)
)

func (f *fakeStore) Select(_ context.Context, q sparql.Query) ([]sparql.Binding, error) {
	text := q.Text()
	switch {
	case strings.Contains(text, "?cooccurrence"):
		m := requiresIRIRe.FindStringSubmatch(text)
		var rows []sparql.Binding
		for _, c := range f.cooccur[m[1]] {
			rows = append(rows, sparql.Binding{
				"skill":        uri(c.URI),
				"skillName":    lit(c.Name),
				"cooccurrence": lit(fmt.Sprintf("%d", c.Count)),
			})
		}
		return rows, nil

	case strings.Contains(text, "?jobCount"):
		m := requiresIRIRe.FindStringSubmatch(text)
		counts := f.demand[m[1]]
		return []sparql.Binding{{
			"jobCount":    lit(fmt.Sprintf("%d", counts[0])),
			"courseCount": lit(fmt.Sprintf("%d", counts[1])),
		}}, nil

	case strings.Contains(text, "?shared"):
		m := sharedPairRe.FindStringSubmatch(text)
		return []sparql.Binding{{
			"count": lit(fmt.Sprintf("%d", f.shared[m[1]+"|"+m[2]])),
		}}, nil

	case strings.Contains(text, "gkf:prerequisite+"):
		m := prereqPathRe.FindStringSubmatch(text)
		var rows []sparql.Binding
		for _, p := range f.prereqs[m[1]] {
			rows = append(rows, sparql.Binding{"prereq": uri(p)})
		}
		return rows, nil

	case strings.Contains(text, "?course a gkf:Course") && strings.Contains(text, "gkf:requires ?skill"):
		m := jobSubjectRe.FindStringSubmatch(text)
		var rows []sparql.Binding
		for _, c := range f.jobCourses[m[1]] {
			rows = append(rows, sparql.Binding{
				"course":     uri(c.URI),
				"courseName": lit(c.Name),
				"skill":      uri(c.Skill),
				"skillName":  lit(c.SkillName),
			})
		}
		return rows, nil

	case strings.Contains(text, "?course a gkf:Course"):
		m := teachesIRIRe.FindStringSubmatch(text)
		var rows []sparql.Binding
		for _, c := range f.skillCourses[m[1]] {
			b := sparql.Binding{"course": uri(c.URI), "courseName": lit(c.Name)}
			if c.Difficulty != "" {
				b["difficulty"] = lit(c.Difficulty)
			}
			rows = append(rows, b)
		}
		return rows, nil

	case strings.Contains(text, "gkf:requires ?skill"):
		m := jobSubjectRe.FindStringSubmatch(text)
		var rows []sparql.Binding
		for _, s := range f.jobSkills[m[1]] {
			rows = append(rows, sparql.Binding{"skill": uri(s.URI), "skillName": lit(s.Name)})
		}
		return rows, nil
	}
	return nil, errors.New("fakeStore: unrecognized query: " + text)
}

func (f *fakeStore) Ask(context.Context, sparql.Query) (bool, error) {
	return false, errors.New("fakeStore: Ask not supported")
}

func uri(v string) sparql.Value { return sparql.Value{Type: "uri", Value: v} }
func lit(v string) sparql.Value { return sparql.Value{Type: "literal", Value: v} }

func newRecommender(store *fakeStore) *Recommender {
	inf := inference.New(store, inference.Config{UsePropertyPaths: true})
	return New(store, inf, Config{})
}

const (
	jobDev = "http://gkf.org/data/Job/dev"
	s1     = "http://gkf.org/data/Skill/s1"
	s2     = "http://gkf.org/data/Skill/s2"
	s3     = "http://gkf.org/data/Skill/s3"
)

func TestCoursesForJobGroupsByCourse(t *testing.T) {
	store := &fakeStore{
		jobCourses: map[string][]courseRow{
			jobDev: {
				{URI: "http://x/c1", Name: "Course 1", Skill: s1, SkillName: "S1"},
				{URI: "http://x/c1", Name: "Course 1", Skill: s2, SkillName: "S2"},
				{URI: "http://x/c2", Name: "Course 2", Skill: s2, SkillName: "S2"},
			},
		},
	}
	rec := newRecommender(store)

	got, err := rec.CoursesForJob(context.Background(), jobDev)
	if err != nil {
		t.Fatalf("CoursesForJob: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d courses, want 2 (one row per course, never per pair)", len(got))
	}
	if got[0].URI != "http://x/c1" || len(got[0].Teaches) != 2 {
		t.Errorf("course 1 = %+v, want both matched skills", got[0])
	}
	if got[1].URI != "http://x/c2" || len(got[1].Teaches) != 1 {
		t.Errorf("course 2 = %+v", got[1])
	}
}

func TestLearningPathExcludesHeldSkills(t *testing.T) {
	store := &fakeStore{
		jobSkills: map[string][]SkillRef{
			jobDev: {{URI: s1, Name: "S1"}, {URI: s2, Name: "S2"}, {URI: s3, Name: "S3"}},
		},
		skillCourses: map[string][]courseRow{
			s1: {{URI: "http://x/c1", Name: "Course 1", Difficulty: "beginner"}},
			// s3 has no courses: the step must still be emitted.
		},
		prereqs: map[string][]string{
			s1: {s2},
		},
	}
	rec := newRecommender(store)

	path, err := rec.LearningPath(context.Background(), jobDev, []string{s2})
	if err != nil {
		t.Fatalf("LearningPath: %v", err)
	}
	if len(path) != 2 {
		t.Fatalf("got %d steps, want 2 (S1 and S3)", len(path))
	}
	if path[0].SkillURI != s1 || path[1].SkillURI != s3 {
		t.Fatalf("steps = %v %v, want S1 then S3", path[0].SkillURI, path[1].SkillURI)
	}
	if len(path[0].Prerequisites) != 1 || path[0].Prerequisites[0] != s2 {
		t.Errorf("S1 prerequisites = %v, want [S2]", path[0].Prerequisites)
	}
	if len(path[0].Courses) != 1 || path[0].Courses[0].Difficulty != "beginner" {
		t.Errorf("S1 courses = %v", path[0].Courses)
	}
	if len(path[1].Courses) != 0 {
		t.Errorf("S3 courses = %v, want empty coverage gap", path[1].Courses)
	}
}

func TestSkillDemandClamp(t *testing.T) {
	store := &fakeStore{demand: map[string][2]int{
		s1: {60, 10}, // raw 130 -> clamp 100
		s2: {3, 4},   // raw 10
		s3: {0, 5},   // raw 5: absent job side must not zero the score
	}}
	rec := newRecommender(store)

	tests := []struct {
		skill string
		want  float64
	}{
		{s1, 100},
		{s2, 10},
		{s3, 5},
	}
	for _, tt := range tests {
		got, err := rec.SkillDemand(context.Background(), tt.skill)
		if err != nil {
			t.Fatalf("SkillDemand(%s): %v", tt.skill, err)
		}
		if got != tt.want {
			t.Errorf("SkillDemand(%s) = %v, want %v", tt.skill, got, tt.want)
		}
	}
}

func TestSkillSimilarity(t *testing.T) {
	store := &fakeStore{shared: map[string]int{
		s1 + "|" + s2: 5,
		s1 + "|" + s3: 25,
	}}
	rec := newRecommender(store)

	got, err := rec.SkillSimilarity(context.Background(), s1, s2)
	if err != nil {
		t.Fatalf("SkillSimilarity: %v", err)
	}
	if got != 0.5 {
		t.Errorf("similarity = %v, want 0.5", got)
	}

	got, err = rec.SkillSimilarity(context.Background(), s1, s3)
	if err != nil {
		t.Fatalf("SkillSimilarity: %v", err)
	}
	if got != 1.0 {
		t.Errorf("similarity = %v, want clamp to 1.0", got)
	}
}

func TestNextSkillsRankingAndDedup(t *testing.T) {
	x, y := "http://x/skillX", "http://x/skillY"
	store := &fakeStore{
		cooccur: map[string][]coRow{
			s1: {{URI: x, Name: "X", Count: 3}, {URI: y, Name: "Y", Count: 9}},
			s2: {{URI: x, Name: "X", Count: 7}, {URI: s1, Name: "S1", Count: 4}},
		},
		demand: map[string][2]int{
			x: {25, 0}, // 50
			y: {5, 0},  // 10
		},
	}
	rec := newRecommender(store)

	got, err := rec.NextSkills(context.Background(), []string{s1, s2}, 5)
	if err != nil {
		t.Fatalf("NextSkills: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2: %+v", len(got), got)
	}
	// X wins on demand; its best-ranked entry is the count-7 one.
	if got[0].SkillURI != x || got[0].CoOccurrence != 7 || got[0].DemandScore != 50 {
		t.Errorf("top suggestion = %+v, want X with cooccurrence 7", got[0])
	}
	if got[1].SkillURI != y {
		t.Errorf("second suggestion = %+v, want Y", got[1])
	}
	// Held skill S1 must never be suggested even though it co-occurs.
	for _, s := range got {
		if s.SkillURI == s1 || s.SkillURI == s2 {
			t.Errorf("held skill %s leaked into suggestions", s.SkillURI)
		}
	}
}

func TestNextSkillsTruncation(t *testing.T) {
	store := &fakeStore{
		cooccur: map[string][]coRow{
			s1: {
				{URI: "http://x/a", Name: "A", Count: 1},
				{URI: "http://x/b", Name: "B", Count: 2},
				{URI: "http://x/c", Name: "C", Count: 3},
			},
		},
		demand: map[string][2]int{},
	}
	rec := newRecommender(store)

	got, err := rec.NextSkills(context.Background(), []string{s1}, 2)
	if err != nil {
		t.Fatalf("NextSkills: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want topK=2", len(got))
	}
	// Equal demand: co-occurrence decides.
	if got[0].CoOccurrence != 3 || got[1].CoOccurrence != 2 {
		t.Errorf("order = %+v", got)
	}
}
