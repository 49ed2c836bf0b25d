package genai

import (
	"fmt"
	"strings"

	"github.com/mhaddad/feedback-assistant/catalog"
	"github.com/mhaddad/feedback-assistant/model"
)

// Request is the system-instruction + prompt pair sent to the generation backend.
type Request struct {
	SystemInstruction string
	Prompt            string
}

// BuildRequest deterministically assembles the generation request for a draft.
// Input fields appear in the model's declared order; empty or absent values are
// skipped. Pure function: no network, no state.
func BuildRequest(recipientName, authorName, relationship string, modelType model.FeedbackModelType, inputs map[string]string) (Request, error) {
	def, err := catalog.Get(modelType)
	if err != nil {
		return Request{}, fmt.Errorf("genai.build_request: %w", err)
	}

	var lines []string
	for _, f := range def.Fields {
		value := strings.TrimSpace(inputs[f.ID])
		if value == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", strings.ToUpper(f.ID), value))
	}

	systemInstruction := fmt.Sprintf(`You are an expert HR Coach and Leadership Mentor.
Your task is to draft professional, constructive, and empathetic feedback based on raw notes provided by the user.

The user is using the %s (%s).

Rules:
1. Tone: Professional, objective, yet human and encouraging.
2. Structure: Adhere strictly to the %s structure in the narrative.
3. Perspective: Write from the perspective of %s giving feedback to %s (%s).
4. Output: Return ONLY the drafted feedback text. Do not include introductory phrases like "Here is the feedback" or markdown headers.
5. Formatting: Use paragraphs for readability.
6. Language: Detect the primary language used in the 'Context Inputs'. Generate the response in that SAME language. If the inputs are in Portuguese, the feedback must be in Portuguese.`,
		def.Title, def.Description, def.Title, authorName, recipientName, relationship)

	prompt := fmt.Sprintf("Recipient: %s\nContext Inputs:\n%s\n\nDraft the feedback now.",
		recipientName, strings.Join(lines, "\n"))

	return Request{
		SystemInstruction: systemInstruction,
		Prompt:            prompt,
	}, nil
}
