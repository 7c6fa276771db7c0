package robots

import "github.com/temoto/robotstxt"

// AIBotEntry is one row of the AI-bot blocking matrix.
type AIBotEntry struct {
	UserAgent string `json:"user_agent"`
	Company   string `json:"company"`
	Blocked   bool   `json:"blocked"`
}

// AIBotResult is the ai_bot_blocking step's return value.
type AIBotResult struct {
	Agents       []AIBotEntry `json:"agents"`
	BlockedCount int          `json:"blocked_count"`
	TotalCount   int          `json:"total_count"`
}

// aiBotAgents is the closed set of thirteen AI-crawler user agents this step
// evaluates, each mapped to its operating company.
var aiBotAgents = []struct {
	UserAgent string
	Company   string
}{
	{"GPTBot", "OpenAI"},
	{"ChatGPT-User", "OpenAI"},
	{"Google-Extended", "Google"},
	{"anthropic-ai", "Anthropic"},
	{"ClaudeBot", "Anthropic"},
	{"CCBot", "Common Crawl"},
	{"Bytespider", "ByteDance"},
	{"Amazonbot", "Amazon"},
	{"FacebookBot", "Meta"},
	{"Meta-ExternalAgent", "Meta"},
	{"cohere-ai", "Cohere"},
	{"PerplexityBot", "Perplexity"},
	{"Applebot-Extended", "Apple"},
}

// EvaluateAIBotBlocking evaluates can_fetch("/") for every agent in the
// closed set against the robots raw text.
func EvaluateAIBotBlocking(rawText string) AIBotResult {
	result := AIBotResult{TotalCount: len(aiBotAgents)}

	data, err := robotstxt.FromBytes([]byte(rawText))
	for _, agent := range aiBotAgents {
		blocked := true
		if err == nil {
			blocked = !data.TestAgent("/", agent.UserAgent)
		}
		result.Agents = append(result.Agents, AIBotEntry{
			UserAgent: agent.UserAgent,
			Company:   agent.Company,
			Blocked:   blocked,
		})
		if blocked {
			result.BlockedCount++
		}
	}

	return result
}
