package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// essayFramework is the fixed narrative structure the co-writer follows.
const essayFramework = `Framework: Use the "Overcoming Adversity" narrative structure:
1. Set the scene with vivid details
2. Describe the challenge authentically
3. Show your growth and learning
4. Connect to your future goals
5. Demonstrate impact and reflection`

func coWriterSystemPrompt(description, essay string) string {
	if strings.TrimSpace(essay) == "" {
		essay = "[Essay is just starting]"
	}
	return fmt.Sprintf(`You are an expert scholarship essay co-writer helping a student craft a compelling essay.

The scholarship description is: %s

The winning framework to follow is:
%s

Current essay draft:
%s

Your task is to continue writing the essay. Write ONE to THREE sentences that advance the narrative naturally. Then stop and ask ONE specific, targeted question to gather the next piece of information you need.

You must respond with ONLY a valid JSON object in this exact format:
{
  "text_to_write": "The actual sentences to add to the essay",
  "question_to_ask": "A specific question to ask the student"
}

Guidelines:
- Write in a natural, authentic voice
- Be specific and vivid in descriptions
- Ask questions that will reveal meaningful details
- Keep the writing flow smooth and engaging
- Don't repeat information already in the essay`, description, essayFramework, essay)
}

const analysisSystemPrompt = `You are an expert scholarship essay strategist and analyst. Your task is to analyze a scholarship description and provide strategic insights about how to approach writing the essay.

Provide a thoughtful analysis that includes:
1. Key themes and values the scholarship is looking for
2. The type of narrative or story that would resonate
3. Common essay structures that work well for this type of prompt
4. Specific elements or details to include
5. Tone and voice recommendations
6. Any potential pitfalls to avoid

Be conversational and encouraging. Start with something like "I've analyzed your scholarship prompt, and here's what I found..." Make it feel like you're thinking through the strategy with the student.`

func analysisUserPrompt(description string) string {
	return fmt.Sprintf(`Here's the scholarship description I need to write about:

%s

Please analyze this and give me strategic insights on how to approach this essay.`, description)
}

const enhancementSystemPrompt = `You are an expert essay writing coach. Your task is to improve and enhance sentences for scholarship essays.

When enhancing a sentence:
1. Maintain the original meaning and intent
2. Make it more vivid, engaging, and impactful
3. Improve clarity and flow
4. Use more sophisticated vocabulary where appropriate
5. Ensure it fits the essay's tone and context

Respond with ONLY the enhanced sentence, nothing else. No explanations, no quotes, just the improved sentence.`

func enhancementUserPrompt(sentence, essayContext string) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Here's the sentence I want to enhance:\n%q\n\n", sentence))
	if essayContext != "" {
		sb.WriteString("Here's the context from my essay:\n")
		sb.WriteString(essayContext)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Please enhance this sentence to make it more impactful and engaging.")
	return sb.String()
}

// analysisContextTurn wraps the strategy analysis when it is replayed as conversation context.
func analysisContextTurn(analysis string) string {
	return "Strategy analysis for this essay:\n\n" + analysis
}

const descriptionExtractorPrompt = `You are an expert analyst specializing in scholarship intelligence, pattern recognition, and weighted attribute extraction.

Your mission is to extract explicit and implicit priorities from a scholarship description and calculate adaptive weights.
Perform all reasoning internally. Do not reveal your reasoning. Output only the final JSON.

1. Identify explicit requirements and eligibility criteria.
2. Infer implicit values and priorities from tone, mission language and thematic emphasis.
3. Extract high, medium and low intensity keywords plus negative keywords; identify tone and storytelling style.
4. Compare this scholarship to typical scholarships of a similar type and note unusual emphasis.
5. Weight these factors so that they sum to 1: academics, leadership, community_service, financial_need,
   innovation, research, resilience, extracurriculars, dei, creativity.
6. Justify every weight with 2-5 short bullet points.
7. Assign ONE archetype: The Academic Purist, The Leadership Catalyst, The Community Builder, The Innovator,
   The Equity Champion, The Research Visionary, The Resilience Storyteller.

Output ONLY this JSON:
{
  "explicit_requirements": [],
  "implicit_values": [],
  "keywords": {"high_intensity": [], "medium_intensity": [], "low_intensity": [], "negative": []},
  "tone": "",
  "story_style": "",
  "comparative_insights": [],
  "weights": {"academics": 0, "leadership": 0, "community_service": 0, "financial_need": 0, "innovation": 0,
              "research": 0, "resilience": 0, "extracurriculars": 0, "dei": 0, "creativity": 0},
  "explanations": {"academics": [], "leadership": [], "community_service": [], "financial_need": [], "innovation": [],
                   "research": [], "resilience": [], "extracurriculars": [], "dei": [], "creativity": []},
  "scholarship_personality": ""
}

Do not output anything outside the JSON.`

const winnerQueriesPrompt = `You plan web searches that find pages listing past winners of a scholarship.
Generate 5 diverse search queries for the scholarship the user names. Focus on official announcements
and university press releases.

Respond ONLY with a JSON object with a single key "queries":
{"queries": ["query 1", "query 2", "query 3"]}`

const winnerPagePrompt = `You are a web content analyst. Decide whether a webpage is a primary source listing or
announcing scholarship winners. Use both the URL and the beginning of the page text.

- URL evidence: keywords such as "winners", "scholars", "directory", "bios", "announcement", "meet-the-class".
- Text evidence: headings such as "Meet the Scholars" or "Class of 2024", or a list of names with universities or majors.

A simple directory or list counts. A general news archive, a staff page, or an article that mentions a single
winner in passing does not.

Respond ONLY with a JSON object: {"is_winner_announcement": true} or {"is_winner_announcement": false}`

const winnerExtractPrompt = `You are a precise data extraction system. From the text of a scholarship winner
announcement, extract the full names of the winners of the scholarship the user names.

1. Only extract names clearly identified as scholars, winners or recipients of that scholarship. Look for phrases
   like "was selected as a scholar", "the winners are:", "joins the cohort of".
2. For each name, give the university, city or field of study mentioned nearby as "context_clue".
3. Do not extract names from navigation links, footers, author bylines or unrelated headlines.
4. If the text contains several articles, only use the main article listing the winners.

Respond ONLY with a JSON object with a single key "winners". Use an empty list when nobody qualifies:
{"winners": [{"winner_name": "John Doe", "context_clue": "Harvard University"}]}`

const winnerVerifyPrompt = `You are a meticulous verification agent. Confirm which candidate names the text
EXPLICITLY identifies as scholarship winners.

1. Read the sentences around each candidate.
2. A name is confirmed only when the text says so directly: "was awarded the scholarship", "is a new scholar",
   "the winners include [Name]", "[Name] was selected for".
3. Reject names mentioned in another role (university president, professor, author) or whose status is ambiguous.

Respond ONLY with a JSON object with a single key "confirmed_winners" listing the confirmed names exactly as given:
{"confirmed_winners": ["John Doe", "Jane Smith"]}`

// winnerPageExcerpt is how much page text the announcement check looks at.
const winnerPageExcerpt = 2000

func winnerPageUserPrompt(url, content string) string {
	return fmt.Sprintf("URL: %s\n\nPage text (beginning):\n---\n%s\n---", url, truncateRunes(content, winnerPageExcerpt))
}

func winnerExtractUserPrompt(scholarship, content string) string {
	return fmt.Sprintf("Scholarship: %s\n\nWebpage text:\n---\n%s\n---", scholarship, content)
}

func winnerVerifyUserPrompt(candidates []string, content string) string {
	quoted := lo.Map(candidates, func(name string, _ int) string { return strconv.Quote(name) })
	return fmt.Sprintf("Candidates: [%s]\n\nText:\n---\n%s\n---", strings.Join(quoted, ", "), content)
}
