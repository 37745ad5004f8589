// Package prompts holds the fixed prompt contracts for question generation
// and rubric evaluation, plus the input truncation rules that bound prompt
// size.
package prompts

import (
	"fmt"
	"strings"
)

const (
	// SnippetMaxLen bounds each retrieved ticket snippet.
	SnippetMaxLen = 600
	// TicketBlockMaxLen bounds the joined snippet block.
	TicketBlockMaxLen = 4000
	// DocMaxLen bounds the job description and resume independently.
	DocMaxLen = 6000

	// DefaultFeedbackThreshold is the rubric total (out of 15) below which
	// the evaluator is asked to suggest a follow-up question.
	DefaultFeedbackThreshold = 9
)

// Truncate clips s to at most max runes. Long documents are deliberately
// clipped rather than rejected.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// SystemScreener is the fixed instruction for the question generator.
func SystemScreener() string {
	var sb strings.Builder
	sb.WriteString("You are an HR technical screener. Given a Job Description (JD), a candidate Resume, and optional past tickets,\n")
	sb.WriteString("generate a set of interview questions tailored to the role. Mix foundational, practical, and scenario-based questions.\n")
	sb.WriteString("Label each question with a difficulty (easy/medium/hard) and a concise \"ideal_answer\" (2-5 sentences).\n\n")
	sb.WriteString("Return ONLY a valid JSON ARRAY of objects. Each object must have:\n")
	sb.WriteString("- \"question\": string\n")
	sb.WriteString("- \"difficulty\": \"easy\"|\"medium\"|\"hard\"\n")
	sb.WriteString("- \"rationale\": string\n")
	sb.WriteString("- \"ideal_answer\": string\n")
	sb.WriteString("- \"tags\": array of strings\n")
	sb.WriteString("No extra text. No markdown. JSON array only.")
	return sb.String()
}

// UserScreener builds the question-generation user prompt. The job
// description and resume are clipped to DocMaxLen each; the ticket block is
// expected to be pre-assembled and is clipped to TicketBlockMaxLen.
func UserScreener(jd, resume, tickets string) string {
	var sb strings.Builder
	sb.WriteString("JD:\n")
	sb.WriteString(Truncate(jd, DocMaxLen))
	sb.WriteString("\n\nResume:\n")
	sb.WriteString(Truncate(resume, DocMaxLen))
	sb.WriteString("\n\nRelevant Past Tickets / Knowledge:\n")
	sb.WriteString(Truncate(tickets, TicketBlockMaxLen))
	sb.WriteString("\n\nGuidelines:\n")
	sb.WriteString("- 6-10 questions total: ~2 easy, ~4 medium, ~2 hard.\n")
	sb.WriteString("- Focus on the JD skills; probe resume claims with scenarios.\n")
	sb.WriteString("- Avoid trivia; prefer practical reasoning.\n")
	sb.WriteString("- Keep questions concise (max 2 sentences).\n")
	sb.WriteString("Return JSON array only.\n")
	return sb.String()
}

// SystemEvaluator is the fixed instruction for rubric scoring. The follow-up
// threshold is a policy knob, not part of the scoring math.
func SystemEvaluator(feedbackThreshold int) string {
	if feedbackThreshold <= 0 {
		feedbackThreshold = DefaultFeedbackThreshold
	}
	var sb strings.Builder
	sb.WriteString("You are a strict HR evaluator. Score the candidate answer using 3 criteria from 0-5:\n")
	sb.WriteString("- coverage: matches key points in ideal answer\n")
	sb.WriteString("- correctness: factual/technical correctness\n")
	sb.WriteString("- clarity: structure and articulation\n\n")
	sb.WriteString(fmt.Sprintf("Also give 1-2 sentence feedback and suggested follow-up question if score < %d/15.\n", feedbackThreshold))
	sb.WriteString(`Return JSON: {"coverage":0-5,"correctness":0-5,"clarity":0-5,"feedback":"...","followup":"..."}`)
	return sb.String()
}

// UserEvaluator builds the rubric-scoring user prompt.
func UserEvaluator(question, idealAnswer, candidateAnswer string) string {
	var sb strings.Builder
	sb.WriteString("Question: " + question + "\n")
	sb.WriteString("Ideal Answer: " + idealAnswer + "\n")
	sb.WriteString("Candidate Answer: " + candidateAnswer)
	return sb.String()
}
