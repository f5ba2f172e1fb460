package prompt

import "strings"

// ExtractionSystemPrompt sets the role and rules for lab report extraction.
const ExtractionSystemPrompt = `You are a precise medical data extractor. Your job is to read medical lab reports and structure them into valid JSON.

STRICT RULES:
1. Output ONLY valid JSON. No explanations, no markdown, no code fences.
2. Never invent values. If a field is missing or unclear, use null.
3. Keep tests in the exact order they appear in the report.
4. Copy reference ranges exactly as printed.
5. Use the flag printed by the lab when there is one (NORMAL, HIGH, LOW, ABNORMAL). Use null when the report shows no flag.`

// extractionSchema is the JSON shape the model must return.
const extractionSchema = `{
  "patient": {
    "name": "string or null",
    "dob": "string or null",
    "gender": "string or null",
    "patient_id": "string or null",
    "age": "number or null"
  },
  "clinic": {
    "name": "string or null",
    "doctor": "string or null"
  },
  "report_info": {
    "collection_date": "string or null",
    "report_date": "string or null",
    "report_type": "string or null (e.g. 'Complete Blood Count', 'Metabolic Panel')"
  },
  "tests": [
    {
      "category": "string or null (e.g. 'CBC', 'Lipid Panel')",
      "name": "string (test name, required)",
      "result": "number or string (qualitative results like 'Negative')",
      "unit": "string or null",
      "reference_range": "string or null",
      "flag": "NORMAL | HIGH | LOW | ABNORMAL | null"
    }
  ],
  "comments": "string or null (free text comments from the report, verbatim)",
  "confidence": "number between 0 and 1: how confident you are that the extraction is complete and correct"
}`

// BuildExtractionPrompt returns the user prompt for extraction. When text is
// empty the document is attached separately and the prompt refers to it.
func BuildExtractionPrompt(text string) string {
	var sb strings.Builder
	if text == "" {
		sb.WriteString("Extract structured data from the attached medical lab report.\n")
		sb.WriteString("The document may span multiple pages. Extract every test from every page.\n\n")
	} else {
		sb.WriteString("Extract structured data from this medical lab report:\n\n```\n")
		sb.WriteString(text)
		sb.WriteString("\n```\n\n")
	}
	sb.WriteString("Follow this exact schema:\n")
	sb.WriteString(extractionSchema)
	sb.WriteString("\n\nIf the document contains no lab test results, return an empty \"tests\" array.\n")
	sb.WriteString("Return ONLY the JSON object, no other text.")
	return sb.String()
}
