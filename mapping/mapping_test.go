package mapping

import (
	"errors"
	"strings"
	"testing"

	"github.com/gkf-org/skillgraph/acquire"
	"github.com/gkf-org/skillgraph/rdf"
)

func skillRules() Rules {
	return Rules{
		EntityType: "Skill",
		IDField:    "skill_id",
		Fields: map[string]string{
			"name":  "skillName",
			"level": "skillLevel",
		},
	}
}

func TestApplyMapsRecords(t *testing.T) {
	records := []acquire.Record{
		{"skill_id": "go", "name": "Go", "level": "advanced"},
		{"skill_id": "sql", "name": "SQL"},
	}

	g, failed, err := Apply(records, skillRules())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}

	for _, want := range []rdf.Triple{
		{Subject: rdf.Data("Skill/go"), Predicate: rdf.RDFType, Object: rdf.Onto("Skill")},
		{Subject: rdf.Data("Skill/go"), Predicate: rdf.PropSkillName, Object: rdf.String("Go")},
		{Subject: rdf.Data("Skill/go"), Predicate: rdf.PropSkillLevel, Object: rdf.String("advanced")},
		{Subject: rdf.Data("Skill/sql"), Predicate: rdf.PropSkillName, Object: rdf.String("SQL")},
	} {
		if !g.Has(want) {
			t.Errorf("missing triple for %s", want.Subject)
		}
	}
}

func TestApplySkipsEmptyAndUnmappedFields(t *testing.T) {
	records := []acquire.Record{
		{"skill_id": "go", "name": "Go", "level": "", "ignored": "x"},
	}

	g, _, err := Apply(records, skillRules())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if g.Has(rdf.Triple{Subject: rdf.Data("Skill/go"), Predicate: rdf.PropSkillLevel, Object: rdf.String("")}) {
		t.Error("empty field value was mapped")
	}
	if g.Len() != 2 {
		t.Errorf("graph has %d triples, want 2", g.Len())
	}
}

func TestApplyListValues(t *testing.T) {
	records := []acquire.Record{
		{"skill_id": "go", "name": "Go", "level": []any{"basic", "advanced"}},
	}

	g, _, err := Apply(records, skillRules())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for _, level := range []string{"basic", "advanced"} {
		if !g.Has(rdf.Triple{Subject: rdf.Data("Skill/go"), Predicate: rdf.PropSkillLevel, Object: rdf.String(level)}) {
			t.Errorf("missing list value %q", level)
		}
	}
}

func TestApplyCollectsPerRecordFailures(t *testing.T) {
	records := []acquire.Record{
		{"skill_id": "go", "name": "Go"},
		{"skill_id": "bad id!", "name": "Nope"},
		{"skill_id": "sql", "name": "SQL"},
	}

	g, failed, err := Apply(records, skillRules())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(failed) != 1 || failed[0].Index != 1 {
		t.Fatalf("failed = %v, want one failure at index 1", failed)
	}
	if !errors.Is(failed[0].Err, ErrBadRecord) {
		t.Errorf("failure err = %v, want ErrBadRecord", failed[0].Err)
	}
	// The good records still mapped.
	if !g.Has(rdf.Triple{Subject: rdf.Data("Skill/sql"), Predicate: rdf.PropSkillName, Object: rdf.String("SQL")}) {
		t.Error("record after the failure was not mapped")
	}
}

func TestApplyFailedRecordLeavesNoPartialEntity(t *testing.T) {
	records := []acquire.Record{
		{"skill_id": "go", "name": "Go", "level": struct{}{}},
	}

	g, failed, err := Apply(records, skillRules())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("failed = %v, want one failure", failed)
	}
	if g.Len() != 0 {
		t.Fatalf("partial entity left behind: %s", g.NTriples())
	}
}

func TestApplyGeneratesIDWhenMissing(t *testing.T) {
	records := []acquire.Record{{"name": "Go"}}

	g, failed, err := Apply(records, skillRules())
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
	subjects := g.Subjects()
	if len(subjects) != 1 || !strings.HasPrefix(string(subjects[0]), rdf.NSData+"Skill/") {
		t.Fatalf("unexpected subjects: %v", subjects)
	}
}

func TestApplyRejectsBadRules(t *testing.T) {
	tests := []struct {
		name  string
		rules Rules
	}{
		{"bad entity type", Rules{EntityType: "Skill; DROP", Fields: map[string]string{}}},
		{"bad property", Rules{EntityType: "Skill", Fields: map[string]string{"name": "skill name"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Apply(nil, tt.rules); !errors.Is(err, ErrBadRules) {
				t.Fatalf("err = %v, want ErrBadRules", err)
			}
		})
	}
}

func TestTypedHelpers(t *testing.T) {
	g := rdf.NewGraph()

	skill, err := AddSkill(g, Skill{ID: "go", Name: "Go", Level: "advanced"})
	if err != nil {
		t.Fatalf("AddSkill: %v", err)
	}
	course, err := AddCourse(g, Course{ID: "go101", Name: "Go Basics", URL: "https://example.org/go101", Duration: 40, Difficulty: "beginner"})
	if err != nil {
		t.Fatalf("AddCourse: %v", err)
	}
	job, err := AddJob(g, Job{ID: "backend-dev", Title: "Backend Developer", Salary: 85000})
	if err != nil {
		t.Fatalf("AddJob: %v", err)
	}

	if err := AddRelation(g, course, "teaches", skill); err != nil {
		t.Fatalf("AddRelation: %v", err)
	}
	if err := AddRelation(g, job, "requires", skill); err != nil {
		t.Fatalf("AddRelation: %v", err)
	}

	for _, want := range []rdf.Triple{
		{Subject: skill, Predicate: rdf.RDFType, Object: rdf.ClassSkill},
		{Subject: course, Predicate: rdf.PropCourseURL, Object: rdf.AnyURI("https://example.org/go101")},
		{Subject: course, Predicate: rdf.PropTeaches, Object: skill},
		{Subject: job, Predicate: rdf.PropSalary, Object: rdf.Float(85000)},
		{Subject: job, Predicate: rdf.PropRequires, Object: skill},
	} {
		if !g.Has(want) {
			t.Errorf("missing triple: %s %s", want.Subject, want.Predicate)
		}
	}

	if err := AddRelation(g, job, "bad property", skill); !errors.Is(err, ErrBadRules) {
		t.Fatalf("err = %v, want ErrBadRules", err)
	}
}
