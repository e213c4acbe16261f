package assistant

import (
	"encoding/json"
	"regexp"
	"strings"
)

const systemPrompt = `You are MoneyFlow AI, a personal finance assistant with read access to the user's ledger.

Do not output internal thoughts, reasoning traces or <think> tags. Give only the final answer.

## What you do
1. Analyze spending, income, loans and the savings goal using the context provided.
2. Give practical, structured advice with specific numbers from the user's data.
3. Answer general financial questions.

## Rules
- You are a READ-ONLY advisor. You never change the ledger yourself.
- Never shame the user for their financial decisions.
- Avoid specific investment advice (stocks, crypto, forex).
- Always use data from the provided context and explain calculations simply.

## Proposing a change
If the user explicitly asks to record something, you may end your answer with
one line of the form
<<<ACTION>>>{"command": "...", "params": {...}}
where command is one of:
- add_transaction: params type (deposit|expense|give-loan|get-loan|transfer), amount, account, fromAccount, toAccount, fee, person, category, comment
- edit_transaction: params id plus the fields to change
- settle_loan: params person, type (in-loan|liability), amount, account
The user reviews and confirms every proposal before anything happens.`

const banglaInstruction = " IMPORTANT: Please answer in Bangla language."

// LanguageBangla asks the model to answer in Bangla.
const LanguageBangla = "bn"

func buildSystemPrompt(language string) string {
	if strings.EqualFold(language, LanguageBangla) || strings.EqualFold(language, "bangla") {
		return systemPrompt + banglaInstruction
	}
	return systemPrompt
}

func buildUserMessage(context, question string) string {
	return "Context:\n" + context + "\n\nUser Question: " + question
}

var (
	actionPattern = regexp.MustCompile(`<<<ACTION>>>\s*(\{[\s\S]*?\})\s*$`)
	thinkPattern  = regexp.MustCompile(`(?i)<think>[\s\S]*?</think>`)
)

// Action is a change the model proposes.
type Action struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// parseReply splits raw model output into the answer text and an optional
// trailing action. A malformed action is dropped and flagged.
func parseReply(raw string) (text string, action *Action, malformed bool) {
	text = raw
	if m := actionPattern.FindStringSubmatchIndex(raw); m != nil {
		text = raw[:m[0]]
		var a Action
		if err := json.Unmarshal([]byte(raw[m[2]:m[3]]), &a); err != nil || a.Command == "" {
			malformed = true
		} else {
			action = &a
		}
	}
	text = strings.TrimSpace(thinkPattern.ReplaceAllString(text, ""))
	return text, action, malformed
}
