// Package catalog holds the static registry of structured feedback models.
// The registry is fixed at compile time and never mutated.
package catalog

import (
	"errors"
	"fmt"

	"github.com/mhaddad/feedback-assistant/model"
)

var ErrNotFound = errors.New("feedback model not found")

var models = []model.FeedbackModelDef{
	{
		Type:        model.ModelSBI,
		Title:       "SBI Model",
		Description: "Focus on the Situation, Behavior, and Impact of an action.",
		Fields: []model.FeedbackField{
			{
				ID:          "situation",
				Label:       "Situation",
				Placeholder: "e.g., During the weekly project sync on Tuesday morning...",
				Description: "Describe the specific context, time, and place.",
			},
			{
				ID:          "behavior",
				Label:       "Behavior",
				Placeholder: "e.g., You presented the marketing slides and interrupted the design lead twice...",
				Description: "Describe the observable actions and behaviors. Be objective.",
			},
			{
				ID:          "impact",
				Label:       "Impact",
				Placeholder: "e.g., This caused the meeting to lose focus and we couldn't finalize the timeline...",
				Description: "Explain the effect of the behavior on you, the team, or the project.",
			},
			{
				ID:          "recommendation",
				Label:       "Recommendation",
				Placeholder: "e.g., In future meetings, I suggest we allow each person to finish their update...",
				Description: "Suggest a desired future action or alternative behavior.",
				Optional:    true,
			},
		},
	},
	{
		Type:        model.ModelPPP,
		Title:       "3P Model",
		Description: "Describe the Position, Problem, and Possibility for improvement.",
		Fields: []model.FeedbackField{
			{
				ID:          "positive",
				Label:       "Positive (Position)",
				Placeholder: "e.g., Your code quality has significantly improved this sprint...",
				Description: "Acknowledge what is working well.",
			},
			{
				ID:          "problem",
				Label:       "Problem",
				Placeholder: "e.g., However, the ticket updates in Jira are often delayed...",
				Description: "Describe the specific issue clearly.",
			},
			{
				ID:          "possibility",
				Label:       "Possibility",
				Placeholder: "e.g., If we update tickets daily, the PM can track progress more accurately.",
				Description: "Describe the potential positive outcome of changing the behavior.",
			},
		},
	},
	{
		Type:        model.ModelSTAR,
		Title:       "STAR Model",
		Description: "Structure feedback around Situation, Task, Action, and Result.",
		Fields: []model.FeedbackField{
			{
				ID:          "situation_task",
				Label:       "Situation / Task",
				Placeholder: "e.g., We needed to deliver the Q3 report by Friday...",
				Description: "The context or goal you were working towards.",
			},
			{
				ID:          "action",
				Label:       "Action",
				Placeholder: "e.g., You stayed late to consolidate data from three different teams...",
				Description: "What the person specifically did.",
			},
			{
				ID:          "result",
				Label:       "Result",
				Placeholder: "e.g., The report was delivered on time and the client was impressed.",
				Description: "The outcome of their actions.",
			},
			{
				ID:          "suggestion",
				Label:       "Suggestion",
				Placeholder: "e.g., Maybe automate the data pull next time to save effort.",
				Description: "Optional advice for future tasks.",
				Optional:    true,
			},
		},
	},
	{
		Type:        model.ModelCNV,
		Title:       "CNV Model",
		Description: "Communicate based on Compassionate Non-Violent principles.",
		Fields: []model.FeedbackField{
			{
				ID:          "observation",
				Label:       "Observation",
				Placeholder: "e.g., When I saw the email sent to the client without internal review...",
				Description: "Objective facts without judgment.",
			},
			{
				ID:          "feeling",
				Label:       "Feeling",
				Placeholder: "e.g., I felt anxious and concerned...",
				Description: "How this observation made you feel.",
			},
			{
				ID:          "need",
				Label:       "Need",
				Placeholder: "e.g., because I have a need for accuracy and professional reputation.",
				Description: "The value or desire that caused the feeling.",
			},
			{
				ID:          "request",
				Label:       "Request",
				Placeholder: "e.g., Would you be willing to send drafts for review 2 hours before the deadline?",
				Description: "A concrete, doable request.",
			},
		},
	},
}

func init() {
	// A malformed registry is a programming error, not a runtime condition.
	for _, m := range models {
		seen := map[string]bool{}
		required := 0
		for _, f := range m.Fields {
			if seen[f.ID] {
				panic(fmt.Sprintf("catalog: duplicate field id %q in model %s", f.ID, m.Type))
			}
			seen[f.ID] = true
			if !f.Optional {
				required++
			}
		}
		if required == 0 {
			panic(fmt.Sprintf("catalog: model %s has no required fields", m.Type))
		}
	}
}

// List returns all feedback models in declaration order.
func List() []model.FeedbackModelDef {
	out := make([]model.FeedbackModelDef, len(models))
	copy(out, models)
	return out
}

// Get resolves a model definition by type.
func Get(t model.FeedbackModelType) (model.FeedbackModelDef, error) {
	for _, m := range models {
		if m.Type == t {
			return m, nil
		}
	}
	return model.FeedbackModelDef{}, fmt.Errorf("%w: %s", ErrNotFound, t)
}
