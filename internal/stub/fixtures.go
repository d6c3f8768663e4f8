package stub

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kiwiq/alpha-cli/internal/domain"
)

// FixtureUser seeds one demo account.
type FixtureUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	IsAdmin  bool   `yaml:"is_admin"`
}

// FixtureAngle seeds one canned content angle.
type FixtureAngle struct {
	PostType         string `yaml:"post_type"`
	ContentPillar    string `yaml:"content_pillar"`
	Hook             string `yaml:"hook"`
	AngleDescription string `yaml:"angle_description"`
}

// FixtureAI holds the canned AI payloads the stub serves.
type FixtureAI struct {
	DraftContent    string                        `yaml:"draft_content"`
	EnhanceFeedback string                        `yaml:"enhance_feedback"`
	Audience        []domain.AudienceAnalysis     `yaml:"audience"`
	Final           domain.FinalAnalysis          `yaml:"final"`
	Copywriter      []domain.CopywriterSuggestion `yaml:"copywriter"`
	Smart           []domain.SmartSuggestion      `yaml:"smart"`
	UsageLimit      int                           `yaml:"usage_limit"`
}

// Fixtures is the canned dataset behind the stub API. The defaults are
// compiled in; a YAML file can overlay them for demos.
type Fixtures struct {
	Users  []FixtureUser  `yaml:"users"`
	Angles []FixtureAngle `yaml:"angles"`
	AI     FixtureAI      `yaml:"ai"`
}

// DefaultFixtures returns the built-in demo dataset.
func DefaultFixtures() Fixtures {
	return Fixtures{
		Users: []FixtureUser{
			{Name: "Ada Admin", Email: "ada@example.com", Password: "admin", IsAdmin: true},
			{Name: "Sam Writer", Email: "sam@example.com", Password: "writer", IsAdmin: false},
		},
		Angles: []FixtureAngle{
			{
				PostType:         "thought_leadership",
				ContentPillar:    "industry_insight",
				Hook:             "Most teams measure the wrong thing first.",
				AngleDescription: "Contrarian take on vanity metrics, anchored in the brief's goals.",
			},
			{
				PostType:         "how_to",
				ContentPillar:    "practical_guide",
				Hook:             "Three questions before your next launch.",
				AngleDescription: "Checklist-style post distilled from the brief's dos and don'ts.",
			},
			{
				PostType:         "story",
				ContentPillar:    "founder_journey",
				Hook:             "The launch that taught us to listen.",
				AngleDescription: "Narrative angle built on the brief's example topics.",
			},
		},
		AI: FixtureAI{
			DraftContent:    "Most teams measure the wrong thing first.\n\nHere is what we learned when we stopped chasing vanity metrics and started talking to customers.",
			EnhanceFeedback: "Tightened the hook and shortened the middle section.",
			Audience: []domain.AudienceAnalysis{
				{
					Segment:     "founders",
					Score:       7,
					Strengths:   []string{"Direct hook", "Concrete example"},
					Weaknesses:  []string{"Call to action is soft"},
					Suggestions: []string{"End with a question to invite replies"},
				},
			},
			Final: domain.FinalAnalysis{
				OverallScore: 8,
				Summary:      "Strong hook and clear structure; the close could be sharper.",
				Strengths:    []string{"Hook", "Specificity"},
				Weaknesses:   []string{"Weak close"},
				Suggestions:  []string{"Close with the one-line takeaway"},
			},
			Copywriter: []domain.CopywriterSuggestion{
				{
					Original:    "Most teams measure the wrong thing first.",
					Suggestion:  "Your dashboard is lying to you.",
					Explanation: "Sharper second-person hook for the same claim.",
				},
			},
			Smart: []domain.SmartSuggestion{
				{Suggestion: "we stopped chasing vanity metrics", Reason: "Active voice reads faster."},
			},
			UsageLimit: 50,
		},
	}
}

// LoadFixtures reads a YAML overlay from path, falling back to the
// defaults for any section the file leaves empty. An empty path returns
// the defaults unchanged.
func LoadFixtures(path string) (Fixtures, error) {
	fixtures := DefaultFixtures()
	if path == "" {
		return fixtures, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fixtures, fmt.Errorf("read fixtures: %w", err)
	}

	var overlay Fixtures
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fixtures, fmt.Errorf("parse fixtures: %w", err)
	}

	if len(overlay.Users) > 0 {
		fixtures.Users = overlay.Users
	}
	if len(overlay.Angles) > 0 {
		fixtures.Angles = overlay.Angles
	}
	if overlay.AI.DraftContent != "" {
		fixtures.AI.DraftContent = overlay.AI.DraftContent
	}
	if overlay.AI.EnhanceFeedback != "" {
		fixtures.AI.EnhanceFeedback = overlay.AI.EnhanceFeedback
	}
	if len(overlay.AI.Audience) > 0 {
		fixtures.AI.Audience = overlay.AI.Audience
	}
	if overlay.AI.Final.OverallScore != 0 {
		fixtures.AI.Final = overlay.AI.Final
	}
	if len(overlay.AI.Copywriter) > 0 {
		fixtures.AI.Copywriter = overlay.AI.Copywriter
	}
	if len(overlay.AI.Smart) > 0 {
		fixtures.AI.Smart = overlay.AI.Smart
	}
	if overlay.AI.UsageLimit > 0 {
		fixtures.AI.UsageLimit = overlay.AI.UsageLimit
	}
	return fixtures, nil
}
