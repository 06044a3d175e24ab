package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// judgePrompt asks an impartial judge to score both reports against a
// fixed rubric and reply with a JSON object.
const judgePrompt = `You are an impartial judge. Your task is to score two reports based on a set of criteria.
The original task was: "%s"

**Scoring Criteria:**
1.  **Clarity and Structure (out of 3):** Is the report well-organized, with clear headings and logical flow?
2.  **Depth and Detail (out of 4):** Is the analysis comprehensive and detailed, or superficial?
3.  **Completeness (out of 3):** Does the report fully address all aspects of the original task?

You must evaluate two reports:

**Report 1 (Single-Agent):**
%s

**Report 2 (Multi-Agent):**
%s

Please provide a score for each report out of 10. Your response MUST be a valid JSON object with two keys: "single_agent_score" and "multi_agent_score".

Example Response:
{
  "single_agent_score": 6.5,
  "multi_agent_score": 9.0
}`

// ScoreUnavailable is the sentinel shown when the judge's reply could
// not be parsed.
const ScoreUnavailable = "N/A"

// Scorecard holds the judge's scores as display strings, so "9.0"
// stays "9.0" and a failed parse reads "N/A".
type Scorecard struct {
	SingleAgent string
	MultiAgent  string
}

// ParseScorecard extracts scores from a judge reply.
//
// Models wrap the JSON in prose or markdown fences, so the object is
// located by the first "{" and the last "}" in the reply and the
// inclusive substring is parsed. The search is naive: a brace in
// surrounding prose shifts the substring and the parse fails.
// Parse failures are recoverable. The returned Scorecard always holds
// both fields, with ScoreUnavailable standing in for anything missing
// or unparseable, and the error says what went wrong.
func ParseScorecard(response string) (Scorecard, error) {
	unavailable := Scorecard{SingleAgent: ScoreUnavailable, MultiAgent: ScoreUnavailable}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return unavailable, fmt.Errorf("no JSON object found in response")
	}

	decoder := json.NewDecoder(strings.NewReader(response[start : end+1]))
	decoder.UseNumber()

	var scores map[string]interface{}
	if err := decoder.Decode(&scores); err != nil {
		return unavailable, fmt.Errorf("invalid score JSON: %w", err)
	}

	return Scorecard{
		SingleAgent: scoreString(scores["single_agent_score"]),
		MultiAgent:  scoreString(scores["multi_agent_score"]),
	}, nil
}

// scoreString renders one score value, tolerating models that quote
// their numbers.
func scoreString(v interface{}) string {
	switch s := v.(type) {
	case json.Number:
		return s.String()
	case string:
		return s
	default:
		return ScoreUnavailable
	}
}

// Score asks the judge to rate both reports.
//
// Generation failures are fatal and returned. Parse failures are not:
// the warning prints to the session output and the sentinel scorecard
// comes back with a nil error.
func (p *Pipeline) Score(ctx context.Context, task, singleReport, multiReport string) (Scorecard, error) {
	p.gen.say("\n--- AGENT: SCORER ---")

	prompt := fmt.Sprintf(judgePrompt, task, singleReport, multiReport)
	response, err := p.gen.generate(ctx, "judge", prompt)
	if err != nil {
		return Scorecard{}, err
	}

	card, err := ParseScorecard(response)
	if err != nil {
		p.gen.say(fmt.Sprintf("Error parsing scores: %v", err))
	}
	return card, nil
}
