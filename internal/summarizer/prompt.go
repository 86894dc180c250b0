package summarizer

import (
	"fmt"
	"strings"
)

// Mode selects the output shape requested from the model and enforced by
// post-processing.
type Mode string

const (
	ModeParagraph Mode = "paragraph"
	ModeBullets   Mode = "bullets"
)

// DefaultDomain names the corpus in the prompt and the refusal.
const DefaultDomain = "Rigveda"

// Apology is returned in place of a summary when generation fails.
const Apology = "An error occurred while generating the summary."

var creationExample = []string{
	"The origins of the universe are described as beginning in a state of neither existence nor non-existence, shrouded in darkness.",
	"From this void emerged Desire, the primal force of creation.",
	"The hymns reference Hiranyagarbha, the golden womb, as the cosmic source of all, along with deities like Savitar and Visvakarman who shaped the cosmos.",
	"The cycle of creation, sacrifice, and divine order is emphasized, along with Indra's role in defeating chaos and releasing the life-giving waters.",
}

const offTopicExample = "What is computer science"

// Refusal is the verbatim answer for queries unrelated to the corpus domain.
func Refusal(domainName, query string) string {
	return fmt.Sprintf("The entered query '%s' is not relevant to the %s context. Please enter a query related to the %s.",
		query, domainName, domainName)
}

// BannedPreamble is the opening the summary must not start with.
func BannedPreamble(domainName string) string {
	return "The " + domainName + " hymns"
}

// BuildPrompt renders the grounding prompt. The context is appended verbatim
// as the final block.
func BuildPrompt(domainName string, mode Mode, query, context string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.\nInstructions:\n\n", query)
	fmt.Fprintf(&b, "Generate a concise and focused summary based only on the given %s hymns.\n", domainName)
	if mode == ModeBullets {
		b.WriteString("Write the summary as bullet points only. Start every point with \"- \" on its own line. Do not use bold text, headings or numbered lists.\n")
	} else {
		b.WriteString("Do not use bullet points. The summary must be written as a continuous paragraph, using natural language.\n")
	}
	fmt.Fprintf(&b, "Do not start the summary with the phrase %q; instead, return the summary content directly.\n\n", BannedPreamble(domainName))
	b.WriteString("Stay strictly on the topic of the user's query, and include only information that is contextually present in the hymns provided.\n\n")
	fmt.Fprintf(&b, "You are only allowed to use knowledge derived from the %s context.\n", domainName)
	b.WriteString("If the user's query is unrelated or no relevant information is found in the hymns, respond exactly with:\n\n")
	fmt.Fprintf(&b, "\"%s\"\n\n", Refusal(domainName, query))
	b.WriteString("Do not generate any content that is not grounded in the given hymns.\n\n")

	b.WriteString("Example 1 - Query: \"What is Creation\"\n\n")
	if mode == ModeBullets {
		for _, s := range creationExample {
			b.WriteString("- " + s + "\n")
		}
	} else {
		b.WriteString(strings.Join(creationExample, " ") + "\n")
	}
	fmt.Fprintf(&b, "\nExample 2 - Query: %q\n\n", offTopicExample)
	b.WriteString(Refusal(domainName, offTopicExample) + "\n\n")

	b.WriteString(context)
	return b.String()
}
