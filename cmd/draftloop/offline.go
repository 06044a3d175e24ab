package main

import "github.com/dshills/draftloop-go/flow/model"

// offlineModel returns a scripted model that walks the demo task
// through one full revision pass without touching a provider API.
// The script covers, in call order: planner, researcher, writer,
// critic (revise), reviser, critic (approve), single-agent baseline,
// and the judge.
func offlineModel() model.ChatModel {
	responses := []string{
		"1. Define remote work and the productivity metrics in scope.\n" +
			"2. Summarize measured productivity effects since 2020.\n" +
			"3. Summarize well-being effects: burnout, isolation, autonomy.\n" +
			"4. Discuss hybrid models as the emerging equilibrium.\n" +
			"5. Close with recommendations for tech employers.",

		"Key findings: controlled studies report productivity changes between " +
			"-4% and +13% depending on role and measurement method. Surveys show " +
			"higher autonomy and lower commute stress, offset by weaker mentoring " +
			"for junior engineers and a rise in reported isolation. Most large " +
			"tech employers have settled on two to three office days per week.",

		"Remote work has reshaped how the tech industry measures output and " +
			"supports its people. Productivity outcomes vary by role: focused " +
			"individual work often improves, while cross-team coordination " +
			"suffers without deliberate effort. Employee well-being shows a " +
			"similar split between autonomy gains and isolation costs.",

		"1. Add concrete figures for the productivity claims.\n" +
			"2. Expand the well-being section with burnout data.\n" +
			"3. End with actionable recommendations.",

		"Remote work has reshaped how the tech industry measures output and " +
			"supports its people. Controlled studies report productivity shifts " +
			"between -4% and +13% by role: focused individual work often improves, " +
			"while cross-team coordination suffers without deliberate effort. " +
			"On well-being, autonomy and commute relief score highly, but " +
			"isolation and after-hours burnout rose in most surveys, hitting " +
			"junior engineers hardest. Employers should pair flexible schedules " +
			"with structured mentoring, meeting-free focus blocks, and clear " +
			"off-hours norms.",

		"APPROVED",

		"Remote work has had a mixed impact on the tech industry. Productivity " +
			"has held steady or improved for individual work, though " +
			"collaboration overhead increased. Well-being improved through " +
			"flexibility but isolation remains a concern. Hybrid arrangements " +
			"are now the dominant model.",

		`{"single_agent_score": 6.5, "multi_agent_score": 8.5}`,
	}

	out := make([]model.ChatOut, len(responses))
	for i, text := range responses {
		out[i] = model.ChatOut{
			Text:  text,
			Usage: model.Usage{InputTokens: 120, OutputTokens: 80},
		}
	}
	return &model.MockChatModel{Responses: out}
}
