package rdf

// Namespaces of the knowledge ecosystem. The ontology namespace holds
// classes and properties; the data namespace holds entity instances.
const (
	NSOntology = "http://gkf.org/ontology/it#"
	NSData     = "http://gkf.org/data/"
)

// Partition (named graph) URIs. Every edge lives in exactly one partition.
const (
	GraphFoundational IRI = "http://gkf.org/graphs/foundational"
	GraphExperiential IRI = "http://gkf.org/graphs/experiential"
)

// RDFType is rdf:type.
const RDFType IRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Ontology classes.
const (
	ClassSkill                 IRI = NSOntology + "Skill"
	ClassCourse                IRI = NSOntology + "Course"
	ClassJob                   IRI = NSOntology + "Job"
	ClassUser                  IRI = NSOntology + "User"
	ClassInteraction           IRI = NSOntology + "Interaction"
	ClassFoundationalKnowledge IRI = NSOntology + "FoundationalKnowledge"
	ClassExperientialKnowledge IRI = NSOntology + "ExperientialKnowledge"
)

// Ontology properties.
const (
	PropRequires     IRI = NSOntology + "requires"
	PropTeaches      IRI = NSOntology + "teaches"
	PropPrerequisite IRI = NSOntology + "prerequisite"
	PropRelatedTo    IRI = NSOntology + "relatedTo"
	PropHasUser      IRI = NSOntology + "hasUser"
	PropSkillName    IRI = NSOntology + "skillName"
	PropSkillLevel   IRI = NSOntology + "skillLevel"
	PropCourseName   IRI = NSOntology + "courseName"
	PropCourseURL    IRI = NSOntology + "courseURL"
	PropDifficulty   IRI = NSOntology + "difficulty"
	PropDuration     IRI = NSOntology + "duration"
	PropJobTitle     IRI = NSOntology + "jobTitle"
	PropSalary       IRI = NSOntology + "salary"
	PropDescription  IRI = NSOntology + "description"
	PropTimestamp    IRI = NSOntology + "timestamp"
)

// Onto returns an IRI in the ontology namespace.
func Onto(local string) IRI { return IRI(NSOntology + local) }

// Data returns an IRI in the data namespace.
func Data(local string) IRI { return IRI(NSData + local) }
