package career

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/gkf-org/skillgraph/inference"
	"github.com/gkf-org/skillgraph/recommend"
	"github.com/gkf-org/skillgraph/sparql"
)

// fakeStore answers the required-skills and learning-path query shapes.
type fakeStore struct {
	jobSkills map[string][]recommend.SkillRef
}

var jobSubjectRe = regexp.MustCompile(`<([^>]+)> gkf:requires \?skill`)

func (f *fakeStore) Select(_ context.Context, q sparql.Query) ([]sparql.Binding, error) {
	text := q.Text()
	switch {
	case strings.Contains(text, "gkf:prerequisite+"):
		return nil, nil
	case strings.Contains(text, "?course a gkf:Course"):
		return nil, nil
	case strings.Contains(text, "gkf:requires ?skill"):
		m := jobSubjectRe.FindStringSubmatch(text)
		var rows []sparql.Binding
		for _, s := range f.jobSkills[m[1]] {
			rows = append(rows, sparql.Binding{
				"skill":     sparql.Value{Type: "uri", Value: s.URI},
				"skillName": sparql.Value{Type: "literal", Value: s.Name},
			})
		}
		return rows, nil
	}
	return nil, errors.New("fakeStore: unrecognized query: " + text)
}

func (f *fakeStore) Ask(context.Context, sparql.Query) (bool, error) {
	return false, errors.New("fakeStore: Ask not supported")
}

func newAnalyzer(store *fakeStore) *Analyzer {
	inf := inference.New(store, inference.Config{UsePropertyPaths: true})
	return New(recommend.New(store, inf, recommend.Config{}))
}

const (
	jobJunior = "http://gkf.org/data/Job/junior"
	jobSenior = "http://gkf.org/data/Job/senior"
	sGo       = "http://gkf.org/data/Skill/go"
	sSQL      = "http://gkf.org/data/Skill/sql"
	sArch     = "http://gkf.org/data/Skill/architecture"
)

func TestAnalyzePathSetAlgebra(t *testing.T) {
	store := &fakeStore{jobSkills: map[string][]recommend.SkillRef{
		jobJunior: {{URI: sGo, Name: "Go"}, {URI: sSQL, Name: "SQL"}},
		jobSenior: {{URI: sGo, Name: "Go"}, {URI: sSQL, Name: "SQL"}, {URI: sArch, Name: "Architecture"}},
	}}

	report, err := newAnalyzer(store).AnalyzePath(context.Background(), jobJunior, jobSenior)
	if err != nil {
		t.Fatalf("AnalyzePath: %v", err)
	}
	if len(report.CommonSkills) != 2 {
		t.Errorf("common = %v, want Go and SQL", report.CommonSkills)
	}
	if len(report.SkillsToAcquire) != 1 || report.SkillsToAcquire[0] != sArch {
		t.Errorf("toAcquire = %v, want [architecture]", report.SkillsToAcquire)
	}
	want := 100.0 / 3.0
	if diff := report.GapPercentage - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("gap = %v, want %v", report.GapPercentage, want)
	}
	// The acquisition plan covers exactly the missing skill.
	if len(report.LearningPath) != 1 || report.LearningPath[0].SkillURI != sArch {
		t.Errorf("learning path = %+v, want single step for architecture", report.LearningPath)
	}
}

func TestAnalyzePathEmptyEndJob(t *testing.T) {
	store := &fakeStore{jobSkills: map[string][]recommend.SkillRef{
		jobJunior: {{URI: sGo, Name: "Go"}},
		// jobSenior requires nothing.
	}}

	report, err := newAnalyzer(store).AnalyzePath(context.Background(), jobJunior, jobSenior)
	if err != nil {
		t.Fatalf("AnalyzePath: %v", err)
	}
	if report.GapPercentage != 0 {
		t.Errorf("gap = %v, want 0 for an end job with no requirements", report.GapPercentage)
	}
	if len(report.SkillsToAcquire) != 0 || len(report.LearningPath) != 0 {
		t.Errorf("report = %+v, want empty acquisition", report)
	}
}

func TestAnalyzePathDisjointJobs(t *testing.T) {
	store := &fakeStore{jobSkills: map[string][]recommend.SkillRef{
		jobJunior: {{URI: sGo, Name: "Go"}},
		jobSenior: {{URI: sArch, Name: "Architecture"}},
	}}

	report, err := newAnalyzer(store).AnalyzePath(context.Background(), jobJunior, jobSenior)
	if err != nil {
		t.Fatalf("AnalyzePath: %v", err)
	}
	if len(report.CommonSkills) != 0 {
		t.Errorf("common = %v, want none", report.CommonSkills)
	}
	if report.GapPercentage != 100 {
		t.Errorf("gap = %v, want 100", report.GapPercentage)
	}
}
