// Package ontology holds the vocabulary registry for the knowledge
// ecosystem and validates fragments against it before they reach the
// store.
package ontology

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gkf-org/skillgraph/rdf"
)

// Vocabulary is the closed set of classes and properties a deployment
// accepts. Explicitly constructed; extend a copy of Default for custom
// deployments.
type Vocabulary struct {
	classes    map[rdf.IRI]bool
	properties map[rdf.IRI]bool
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{
		classes:    make(map[rdf.IRI]bool),
		properties: make(map[rdf.IRI]bool),
	}
}

// Default returns the vocabulary of the standard skills ontology.
func Default() *Vocabulary {
	v := NewVocabulary()
	for _, class := range []rdf.IRI{
		rdf.ClassSkill, rdf.ClassCourse, rdf.ClassJob, rdf.ClassUser,
		rdf.ClassInteraction, rdf.ClassFoundationalKnowledge, rdf.ClassExperientialKnowledge,
	} {
		v.AddClass(class)
	}
	for _, property := range []rdf.IRI{
		rdf.PropRequires, rdf.PropTeaches, rdf.PropPrerequisite, rdf.PropRelatedTo,
		rdf.PropHasUser, rdf.PropSkillName, rdf.PropSkillLevel, rdf.PropCourseName,
		rdf.PropCourseURL, rdf.PropDifficulty, rdf.PropDuration, rdf.PropJobTitle,
		rdf.PropSalary, rdf.PropDescription, rdf.PropTimestamp,
		rdf.Onto("interactionType"),
	} {
		v.AddProperty(property)
	}
	return v
}

// AddClass registers a class.
func (v *Vocabulary) AddClass(class rdf.IRI) { v.classes[class] = true }

// AddProperty registers a property.
func (v *Vocabulary) AddProperty(property rdf.IRI) { v.properties[property] = true }

// HasClass reports whether the class is registered.
func (v *Vocabulary) HasClass(class rdf.IRI) bool { return v.classes[class] }

// HasProperty reports whether the property is registered.
func (v *Vocabulary) HasProperty(property rdf.IRI) bool { return v.properties[property] }

// Classes returns the number of registered classes.
func (v *Vocabulary) Classes() int { return len(v.classes) }

// Properties returns the number of registered properties.
func (v *Vocabulary) Properties() int { return len(v.properties) }

// Report is the outcome of validating a fragment. Errors make the
// fragment unacceptable; warnings flag vocabulary drift worth reviewing.
type Report struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Triples  int      `json:"triples"`
	Subjects int      `json:"subjects"`
}

// Validate checks a fragment against the vocabulary. Malformed IRIs are
// errors; unknown ontology terms and untyped subjects are warnings, since
// deployments may run ahead of the registered vocabulary.
func (v *Vocabulary) Validate(g *rdf.Graph) *Report {
	report := &Report{
		Valid:    true,
		Triples:  g.Len(),
		Subjects: len(g.Subjects()),
	}

	typed := make(map[rdf.IRI]bool)
	for _, t := range g.Triples() {
		if !t.Subject.Valid() || !t.Predicate.Valid() {
			report.Errors = append(report.Errors,
				fmt.Sprintf("malformed IRI in triple %s %s", t.Subject, t.Predicate))
			continue
		}

		if t.Predicate == rdf.RDFType {
			typed[t.Subject] = true
			if class, ok := t.Object.(rdf.IRI); ok {
				if inOntologyNS(class) && !v.HasClass(class) {
					report.Warnings = append(report.Warnings,
						fmt.Sprintf("unknown class %s", class))
				}
			} else {
				report.Errors = append(report.Errors,
					fmt.Sprintf("non-IRI class for subject %s", t.Subject))
			}
			continue
		}

		if inOntologyNS(t.Predicate) && !v.HasProperty(t.Predicate) {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("unknown property %s", t.Predicate))
		}
	}

	for _, subject := range g.Subjects() {
		if !typed[subject] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("untyped subject %s", subject))
		}
	}

	report.Valid = len(report.Errors) == 0
	if !report.Valid || len(report.Warnings) > 0 {
		slog.Debug("ontology: fragment validated",
			"valid", report.Valid, "errors", len(report.Errors), "warnings", len(report.Warnings))
	}
	return report
}

func inOntologyNS(iri rdf.IRI) bool {
	return strings.HasPrefix(string(iri), rdf.NSOntology)
}
