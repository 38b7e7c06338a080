package llm

import (
	"strings"
)

const (
	maxResumeChars         = 10000
	maxJobDescriptionChars = 3000

	// HealthPrompt is sent by the health check.
	HealthPrompt = "Say 'OK' in JSON format: {'status': 'ok'}"
)

// BuildPrompt renders the ATS review prompt for one resume.
func BuildPrompt(input AnalyzeInput) string {
	resume := truncateRunes(strings.TrimSpace(input.ResumeText), maxResumeChars)
	desc := truncateRunes(strings.TrimSpace(input.JobDescription), maxJobDescriptionChars)
	title := strings.TrimSpace(input.JobTitle)
	if title == "" {
		title = "Not specified"
	}
	if desc == "" {
		desc = "Not provided"
	}

	var b strings.Builder
	b.WriteString(promptIntro)
	b.WriteString("\nJOB TITLE: ")
	b.WriteString(title)
	b.WriteString("\nJOB DESCRIPTION: ")
	b.WriteString(desc)
	b.WriteString("\n\nRESUME CONTENT:\n")
	b.WriteString(resume)
	b.WriteString("\n\nProvide the feedback using the following EXACT JSON format:\n")
	b.WriteString(promptExample)
	b.WriteString("\n")
	b.WriteString(promptRules)
	return b.String()
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}

const promptIntro = `You are an expert in ATS (Applicant Tracking System) and resume analysis.
Please analyze and rate this resume and suggest how to improve it.
The rating can be low if the resume is bad.
Be thorough and detailed. Don't be afraid to point out any mistakes or areas for improvement.
If there is a lot to improve, don't hesitate to give low scores. This is to help the user to improve their resume.
If available, use the job description for the job user is applying to to give more detailed feedback.
If provided, take the job description into consideration.
`

const promptExample = `{
  "overallScore": 75,
  "ATS": {
    "score": 70,
    "tips": [
      {"type": "good", "tip": "Clear section headings"},
      {"type": "improve", "tip": "Add more keywords from job description"},
      {"type": "improve", "tip": "Improve formatting for ATS"}
    ]
  },
  "toneAndStyle": {
    "score": 80,
    "tips": [
      {"type": "good", "tip": "Professional tone", "explanation": "The resume maintains a professional tone throughout"},
      {"type": "improve", "tip": "Use more action verbs", "explanation": "Incorporate more action verbs to make achievements stand out"},
      {"type": "improve", "tip": "Quantify achievements", "explanation": "Add specific numbers and metrics to demonstrate impact"}
    ]
  },
  "content": {
    "score": 75,
    "tips": [
      {"type": "good", "tip": "Relevant work experience", "explanation": "Work experience is relevant to the target role"},
      {"type": "improve", "tip": "Add quantifiable achievements", "explanation": "Include specific numbers and metrics to demonstrate impact"},
      {"type": "improve", "tip": "Tailor to job description", "explanation": "Customize content to match the specific job requirements"}
    ]
  },
  "structure": {
    "score": 70,
    "tips": [
      {"type": "good", "tip": "Clear chronological order", "explanation": "Work experience is presented in clear reverse chronological order"},
      {"type": "improve", "tip": "Improve spacing", "explanation": "Some sections are too dense and could benefit from better spacing"},
      {"type": "improve", "tip": "Consistent formatting", "explanation": "Ensure consistent formatting throughout the document"}
    ]
  },
  "skills": {
    "score": 85,
    "tips": [
      {"type": "good", "tip": "SQL programming", "explanation": "SQL skills are clearly demonstrated in project experience"},
      {"type": "good", "tip": "Python development", "explanation": "Python programming experience is well-documented"},
      {"type": "improve", "tip": "Power BI visualization", "explanation": "Add experience with data visualization tools like Power BI"},
      {"type": "improve", "tip": "Advanced Excel skills", "explanation": "Include specific Advanced Excel capabilities relevant to the role"}
    ]
  }
}
`

const promptRules = `CRITICAL INSTRUCTIONS:
- Return ONLY the JSON object, no other text
- Do not include markdown formatting or code blocks
- Ensure all scores are integers between 0-100
- For skills tips, be VERY specific about actual technical skills (e.g., "Python", "SQL", "Power BI", not generic terms)
- Provide 3-4 tips for each category
- Be honest and critical - low scores help users improve
- Focus on actionable, specific feedback
`
