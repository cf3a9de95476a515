package models

// Domain is the department a leader, employee or project belongs to.
type Domain string

const (
	DomainSalesMarketing       Domain = "Sales & Marketing"
	DomainDataAI               Domain = "Data & AI Intelligence"
	DomainHumanResources       Domain = "Human Resources"
	DomainSocialMedia          Domain = "Social Media Management"
	DomainGraphicDesign        Domain = "Graphic Design"
	DomainDigitalMarketing     Domain = "Digital Marketing"
	DomainVideoEditing         Domain = "Video Editing"
	DomainFullStackDevelopment Domain = "Full Stack Development"
	DomainMERNStackDevelopment Domain = "MERN Stack Development"
	DomainEmailOutreaching     Domain = "Email and Outreaching"
	DomainContentWriting       Domain = "Content Writing"
	DomainContentCreator       Domain = "Content Creator"
	DomainUIUXDesigning        Domain = "UI/UX Designing"
	DomainFrontendDeveloper    Domain = "Front-end Developer"
	DomainBackendDeveloper     Domain = "Back-end Developer"
)

// Domains lists every accepted domain.
var Domains = []Domain{
	DomainSalesMarketing,
	DomainDataAI,
	DomainHumanResources,
	DomainSocialMedia,
	DomainGraphicDesign,
	DomainDigitalMarketing,
	DomainVideoEditing,
	DomainFullStackDevelopment,
	DomainMERNStackDevelopment,
	DomainEmailOutreaching,
	DomainContentWriting,
	DomainContentCreator,
	DomainUIUXDesigning,
	DomainFrontendDeveloper,
	DomainBackendDeveloper,
}

func (d Domain) Valid() bool {
	for _, known := range Domains {
		if d == known {
			return true
		}
	}
	return false
}

// Department tags a task with the kind of work involved.
type Department string

var Departments = []Department{
	"Frontend",
	"Backend",
	"Full Stack",
	"Mobile",
	"DevOps",
	"UI/UX",
	"QA/Testing",
	"Data/Analytics",
	"Database",
}

func (d Department) Valid() bool {
	for _, known := range Departments {
		if d == known {
			return true
		}
	}
	return false
}
