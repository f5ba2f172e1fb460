package validator

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"labassist/internal/domain"
	"labassist/internal/llm"
	"labassist/internal/prompt"
)

type findingDTO struct {
	TestName    string `json:"test_name" validate:"nonblank"`
	Category    string `json:"category" validate:"finding_category"`
	Explanation string `json:"explanation"`
}

type interpretationDTO struct {
	Summary            string       `json:"summary" validate:"nonblank"`
	Findings           []findingDTO `json:"findings" validate:"dive"`
	QuestionsForDoctor []string     `json:"questions_for_doctor"`
	LifestyleTips      []string     `json:"lifestyle_tips"`
	Disclaimers        []string     `json:"disclaimers"`
}

// DecodeInterpretation parses and validates interpreter model output. Findings
// are de-duplicated by test name, keeping the first.
func DecodeInterpretation(text string) (*domain.Interpretation, error) {
	raw, err := llm.ExtractJSON(text)
	if err != nil {
		return nil, err
	}

	var dto interpretationDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return nil, fmt.Errorf("%w: decoding interpretation JSON: %v (raw: %s)", llm.ErrMalformedResponse, err, llm.Truncate(raw, 200))
	}
	if err := validate.Struct(dto); err != nil {
		return nil, schemaError("interpretation", err)
	}

	interp := &domain.Interpretation{
		Summary:            strings.TrimSpace(dto.Summary),
		Findings:           []domain.Finding{},
		Disclaimers:        nonEmpty(dto.Disclaimers),
		QuestionsForDoctor: nonEmpty(dto.QuestionsForDoctor),
		LifestyleTips:      nonEmpty(dto.LifestyleTips),
	}

	seen := make(map[string]bool, len(dto.Findings))
	for _, f := range dto.Findings {
		name := strings.TrimSpace(f.TestName)
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		category, _ := domain.ParseCategory(f.Category)
		interp.Findings = append(interp.Findings, domain.Finding{
			TestName:    name,
			Category:    category,
			Explanation: strings.TrimSpace(f.Explanation),
		})
	}

	return interp, nil
}

// EnforceCoverage makes every non-NORMAL test in report visible in interp. A
// test the model ignored gets a generated ATTENTION finding; a finding that
// rates a flagged test NORMAL is raised to ATTENTION. It returns the names of
// the tests that needed a generated finding.
func EnforceCoverage(report *domain.StructuredReport, interp *domain.Interpretation) []string {
	var backfilled []string
	for _, t := range report.AbnormalTests() {
		for i := range interp.Findings {
			f := &interp.Findings[i]
			if strings.EqualFold(f.TestName, t.Name) && f.Category == domain.CategoryNormal && t.Flag != domain.FlagUnknown {
				f.Category = domain.CategoryAttention
			}
		}
		if interp.Covers(t.Name) {
			continue
		}
		interp.Findings = append(interp.Findings, domain.Finding{
			TestName:    t.Name,
			Category:    domain.CategoryAttention,
			Explanation: fallbackExplanation(t),
		})
		backfilled = append(backfilled, t.Name)
	}
	return backfilled
}

func fallbackExplanation(t domain.TestResult) string {
	value := strings.TrimSpace(t.Value.String() + " " + t.Unit)
	if value == "" {
		value = "no recorded value"
	}
	var status string
	switch t.Flag {
	case domain.FlagHigh:
		status = "above the reference range"
	case domain.FlagLow:
		status = "below the reference range"
	case domain.FlagAbnormal:
		status = "marked abnormal"
	default:
		status = "not clearly within the reference range"
	}
	msg := fmt.Sprintf("Your %s result (%s) is %s", t.Name, value, status)
	if rr := t.ReferenceRange.String(); rr != "" {
		msg += fmt.Sprintf(" (reference: %s)", rr)
	}
	return msg + ". Please review this result with your doctor."
}

// EnsureDisclaimer appends the mandatory medical disclaimer unless it is already present.
func EnsureDisclaimer(interp *domain.Interpretation) {
	for _, d := range interp.Disclaimers {
		if d == prompt.MedicalDisclaimer {
			return
		}
	}
	interp.Disclaimers = append(interp.Disclaimers, prompt.MedicalDisclaimer)
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
