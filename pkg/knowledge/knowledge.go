// Package knowledge holds the portfolio owner's profile used to ground
// assistant replies: identity, background, skills, projects and availability.
//
// A Base is loaded from a YAML or JSON file, or taken from Default.
package knowledge

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrIncomplete indicates a loaded base is missing required sections.
var ErrIncomplete = errors.New("knowledge: incomplete knowledge base")

// Base is the assistant's knowledge about the site owner.
type Base struct {
	Identity     Identity     `yaml:"identity" json:"identity"`
	Background   Background   `yaml:"background" json:"background"`
	Skills       Skills       `yaml:"technical_skills" json:"technical_skills"`
	Projects     []Project    `yaml:"projects" json:"projects"`
	Availability Availability `yaml:"availability" json:"availability"`
	Links        Links        `yaml:"links" json:"links"`
}

// Identity describes who the assistant represents.
type Identity struct {
	Name     string `yaml:"name" json:"name"`
	Role     string `yaml:"role" json:"role"`
	Location string `yaml:"location" json:"location"`
	Email    string `yaml:"email" json:"email"`
}

// Background summarizes professional experience.
type Background struct {
	Summary         string   `yaml:"summary" json:"summary"`
	Specializations []string `yaml:"specializations" json:"specializations"`
	YearsExperience int      `yaml:"years_experience" json:"years_experience"`
}

// SkillGroup lists tools and expertise for one area.
type SkillGroup struct {
	Frameworks []string `yaml:"frameworks,omitempty" json:"frameworks,omitempty"`
	Languages  []string `yaml:"languages,omitempty" json:"languages,omitempty"`
	Expertise  []string `yaml:"expertise,omitempty" json:"expertise,omitempty"`
}

// Skills groups technical skills by area.
type Skills struct {
	AIML            SkillGroup `yaml:"ai_ml" json:"ai_ml"`
	DataEngineering SkillGroup `yaml:"data_engineering" json:"data_engineering"`
	Backend         SkillGroup `yaml:"backend" json:"backend"`
	Frontend        SkillGroup `yaml:"frontend" json:"frontend"`
}

// Project is a portfolio project.
type Project struct {
	Name         string   `yaml:"name" json:"name"`
	Description  string   `yaml:"description" json:"description"`
	Achievements []string `yaml:"achievements" json:"achievements"`
}

// Availability describes whether the owner is open to work.
type Availability struct {
	Status      string   `yaml:"status" json:"status"`
	Preferences []string `yaml:"preferences" json:"preferences"`
}

// Links are external profile links.
type Links struct {
	GitHub   string `yaml:"github,omitempty" json:"github,omitempty"`
	LinkedIn string `yaml:"linkedin,omitempty" json:"linkedin,omitempty"`
	Calendly string `yaml:"calendly,omitempty" json:"calendly,omitempty"`
}

// Load reads a knowledge base from path. JSON files are accepted since
// JSON is valid YAML.
func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a knowledge base from YAML or JSON bytes.
func Parse(data []byte) (*Base, error) {
	var kb Base
	if err := yaml.Unmarshal(data, &kb); err != nil {
		return nil, fmt.Errorf("knowledge: parse: %w", err)
	}
	if err := kb.Validate(); err != nil {
		return nil, err
	}
	return &kb, nil
}

// Validate checks the sections the responders depend on.
func (kb *Base) Validate() error {
	switch {
	case kb.Identity.Name == "":
		return fmt.Errorf("%w: identity.name is required", ErrIncomplete)
	case kb.Identity.Role == "":
		return fmt.Errorf("%w: identity.role is required", ErrIncomplete)
	case kb.Background.Summary == "":
		return fmt.Errorf("%w: background.summary is required", ErrIncomplete)
	}
	return nil
}

// Default returns the built-in knowledge base.
func Default() *Base {
	return &Base{
		Identity: Identity{
			Name:     "Jacob Rafal",
			Role:     "AI Engineer",
			Location: "Remote",
			Email:    "rafaljacobmatthew@gmail.com",
		},
		Background: Background{
			Summary: "I'm an AI Engineer specializing in DevTools & Productivity SaaS, agents-first development, NLP, and MLOps.",
			Specializations: []string{
				"NLP",
				"MLOps",
				"AI agent development",
				"DevTools & Productivity SaaS",
			},
			YearsExperience: 3,
		},
		Skills: Skills{
			AIML: SkillGroup{
				Frameworks: []string{"PyTorch", "TensorFlow", "Transformers", "LangChain", "scikit-learn"},
				Expertise:  []string{"natural language processing", "LLM applications", "model deployment", "agent orchestration"},
			},
			DataEngineering: SkillGroup{
				Languages: []string{"Python", "SQL", "Go"},
			},
			Backend: SkillGroup{
				Frameworks: []string{"FastAPI", "Node.js", "PostgreSQL"},
			},
			Frontend: SkillGroup{
				Frameworks: []string{"React", "Next.js", "Tailwind CSS"},
			},
		},
		Projects: []Project{
			{
				Name:        "Customer Support AI Classifier",
				Description: "an NLP pipeline that routes customer support tweets to the right team",
				Achievements: []string{
					"87% accuracy on 3M+ tweets",
					"deployed to production with automated retraining",
				},
			},
			{
				Name:        "DevTools AI Agents",
				Description: "agents that automate repetitive developer workflows",
				Achievements: []string{
					"40% improvement in developer productivity",
					"integrated with existing CI tooling",
				},
			},
		},
		Availability: Availability{
			Status:      "Available for AI engineering opportunities",
			Preferences: []string{"AI engineering roles", "consulting projects", "agent development", "remote work"},
		},
		Links: Links{
			GitHub:   "https://github.com/JakeCob",
			LinkedIn: "https://www.linkedin.com/in/jacob-matthew-rafal-b94399217/",
			Calendly: "https://calendly.com/rafaljacobmatthew/30min",
		},
	}
}
