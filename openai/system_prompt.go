package openai

const systemPrompt = `You are an assistant being tested in the dashboard playground.

Reply the way you would to a customer on WhatsApp:
- Keep each bubble short, one paragraph or about 200 characters.
- Split longer answers into several bubbles at natural boundaries.
- Answer in the language the user writes in.

Return the reply as JSON: {"messages": [{"content": "..."}]}.`

// createSystemPrompt scopes the base prompt to the selected assistant.
func createSystemPrompt(assistantID string) string {
	if assistantID == "" {
		return systemPrompt
	}
	return "Assistant id: " + assistantID + "\n\n" + systemPrompt
}
