// Package prompt assembles the system instruction and user turn sent to the
// chat model. Each bot has a fixed instruction; the retrieved records are
// rendered losslessly into the user turn so the model sees every metadata
// field the store returned.
package prompt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/medlink-hq/medbot-go/internal/rag"
)

// BotKind identifies which bot a prompt is composed for.
type BotKind string

const (
	// BotDoctor is the diagnosis-coding bot for medical professionals.
	BotDoctor BotKind = "doctor"
	// BotLanding is the platform question-answering bot on the landing page.
	BotLanding BotKind = "landing"
)

// SupportEmail is the human escalation contact the landing bot may share.
const SupportEmail = "hemankkumar24@gmail.com"

// doctorInstruction is the system instruction for the diagnosis-coding bot.
const doctorInstruction = `You are a medical coding assistant for healthcare professionals. ` +
	`You are given a diagnosis query and a set of retrieved records, each holding an ICD-11 code ` +
	`and title together with the corresponding Ayurveda (NAMC), Siddha (NAMC), and Unani (NUMC) ` +
	`codes and long definitions.

Answer in plain text only. Do not use markdown, bullets, or any other formatting. ` +
	`Group the answer by coding system and put each code with its diagnosis on its own line. ` +
	`When a definition or code is recorded as "Na" or "Not Available", it is missing: ` +
	`say exactly "Not Available" for it and never repeat "Na" in the answer. ` +
	`Only use codes present in the retrieved records. Never invent or guess a code. ` +
	`If none of the retrieved records match the query, say that no matching code was found.`

// landingInstruction is the system instruction for the landing-page bot.
const landingInstruction = `You are the professional assistant for MedLink, a healthcare platform. ` +
	`You are given a visitor question and excerpts from the platform documentation.

Answer in plain text only, without markdown or formatting. Ground your answer in the provided ` +
	`excerpts. When the excerpts do not cover the question, answer from your own baseline knowledge ` +
	`of the platform domain, keeping a professional and helpful tone. Only when you are genuinely ` +
	`uncertain and cannot help, direct the visitor to contact support at ` + SupportEmail + `.`

// Prompt is a composed prompt: the bot's fixed instruction plus the rendered
// user turn carrying the query and retrieved context.
type Prompt struct {
	// Instruction is the system-role message content.
	Instruction string
	// UserTurn is the user-role message content.
	UserTurn string
}

// Compose builds the prompt for the given bot kind, query, and retrieved
// records. Records are rendered in retrieval order.
func Compose(kind BotKind, query string, records []rag.Record) (Prompt, error) {
	var instruction string
	switch kind {
	case BotDoctor:
		instruction = doctorInstruction
	case BotLanding:
		instruction = landingInstruction
	default:
		return Prompt{}, fmt.Errorf("prompt: unknown bot kind %q", kind)
	}

	var b strings.Builder
	b.WriteString("Retrieved context:\n\n")
	b.WriteString(renderContext(records))
	b.WriteString("\nQuery: ")
	b.WriteString(query)

	return Prompt{
		Instruction: instruction,
		UserTurn:    b.String(),
	}, nil
}

// renderContext renders records as numbered blocks. Metadata keys are sorted
// so the rendering is deterministic, and every field is included verbatim.
func renderContext(records []rag.Record) string {
	if len(records) == 0 {
		return "(no records retrieved)\n"
	}

	var b strings.Builder
	for i, rec := range records {
		fmt.Fprintf(&b, "[%d] score: %.3f\n", i+1, rec.Score)

		keys := make([]string, 0, len(rec.Metadata))
		for k := range rec.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "%s: %s\n", k, rec.Metadata[k])
		}
		b.WriteString("\n")
	}
	return b.String()
}
