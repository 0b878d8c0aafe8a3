package vision

import (
	"context"
	"fmt"
	"strings"
)

const awardsPromptTemplate = `Does this book have any major literary awards? List ONLY actual awards won, not nominations.

Title: %s
Author: %s
Published: %s

Major awards include the Pulitzer Prize, National Book Award, Booker Prize,
Nobel Prize in Literature, Hugo Award, Nebula Award, Edgar Award, Newbery Medal,
Caldecott Medal, Costa Book Awards, PEN/Faulkner Award, National Book Critics
Circle Award and the Andrew Carnegie Medal.

If the book won awards, respond with a comma-separated list like:
"Pulitzer Prize for Fiction (2007), National Book Award"
If the book won no major awards, respond with exactly: "None"
Only list awards you are certain about.`

// IdentifyAwards asks the model whether the book won major literary
// awards. Returns an empty string when none are known. Callers treat
// this as best-effort; a failure here never blocks ingestion.
func (c *Client) IdentifyAwards(ctx context.Context, title, author, published string) (string, error) {
	if published == "" {
		published = "Unknown"
	}
	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: fmt.Sprintf(awardsPromptTemplate, title, author, published)},
		},
		MaxTokens:   150,
		Temperature: 0.1,
	}

	content, err := c.complete(ctx, request)
	if err != nil {
		return "", err
	}

	awards := strings.TrimSpace(strings.Trim(content, `"`))
	switch strings.ToLower(awards) {
	case "", "none", "unknown", "n/a", "no awards":
		return "", nil
	}
	return awards, nil
}
