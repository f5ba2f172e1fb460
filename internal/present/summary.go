// Package present renders sessions for terminal output.
package present

import (
	"fmt"
	"io"
	"strings"

	"labassist/internal/domain"
	"labassist/internal/metrics"
)

const rule = "============================================================"

// ExtractionSummary writes the report grouped by category, marking
// out-of-range values with [!] and unflagged values with [?].
func ExtractionSummary(w io.Writer, r *domain.StructuredReport) {
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "EXTRACTION SUMMARY")
	fmt.Fprintln(w, rule)

	if len(r.PatientInfo) > 0 {
		fmt.Fprintln(w, "\nPATIENT")
		fmt.Fprintf(w, "   Name: %s\n", orNA(r.PatientInfo[domain.PatientName]))
		fmt.Fprintf(w, "   DOB: %s\n", orNA(r.PatientInfo[domain.PatientDOB]))
		fmt.Fprintf(w, "   Sex: %s\n", orNA(r.PatientInfo[domain.PatientSex]))
		fmt.Fprintf(w, "   ID: %s\n", orNA(r.PatientInfo[domain.PatientID]))
	}

	if lab, doctor := r.Metadata[domain.MetaLabName], r.Metadata[domain.MetaDoctor]; lab != "" || doctor != "" {
		fmt.Fprintln(w, "\nCLINIC")
		fmt.Fprintf(w, "   %s\n", orNA(lab))
		fmt.Fprintf(w, "   Doctor: %s\n", orNA(doctor))
	}

	if len(r.TestResults) == 0 {
		if note := r.Metadata[domain.MetaNote]; note != "" {
			fmt.Fprintf(w, "\nNOTE\n   %s\n", note)
		}
		fmt.Fprintln(w, "\n"+rule)
		return
	}

	abnormal := 0
	for _, t := range r.TestResults {
		if outOfRange(t.Flag) {
			abnormal++
		}
	}
	fmt.Fprintf(w, "\nTESTS (%d total)\n", len(r.TestResults))
	fmt.Fprintf(w, "   Abnormal: %d\n", abnormal)

	order, groups := groupByCategory(r.TestResults)
	for _, cat := range order {
		fmt.Fprintf(w, "\n   [%s]\n", cat)
		for _, t := range groups[cat] {
			line := strings.TrimSpace(t.Value.String() + " " + t.Unit)
			fmt.Fprintf(w, "      %s%s: %s [%s]\n", marker(t.Flag), t.Name, line, t.Flag)
		}
	}
	fmt.Fprintln(w, "\n"+rule)
}

// Interpretation writes the summary, findings and guidance of an interpretation.
func Interpretation(w io.Writer, interp *domain.Interpretation) {
	fmt.Fprintln(w, "\n[SUMMARY]")
	fmt.Fprintf(w, "   %s\n", interp.Summary)

	if len(interp.Findings) > 0 {
		fmt.Fprintln(w, "\n[FINDINGS]")
		for _, f := range interp.Findings {
			fmt.Fprintf(w, "   (%s) %s: %s\n", f.Category, f.TestName, f.Explanation)
		}
	}
	writeList(w, "QUESTIONS FOR YOUR DOCTOR", interp.QuestionsForDoctor)
	writeList(w, "LIFESTYLE TIPS", interp.LifestyleTips)
	writeList(w, "DISCLAIMERS", interp.Disclaimers)
}

// Metrics writes one line per recorded metric in name order.
func Metrics(w io.Writer, t *metrics.Tracker) {
	summary := t.Summary()
	if len(summary) == 0 {
		return
	}
	fmt.Fprintln(w, "\n[METRICS]")
	for _, name := range t.Names() {
		s := summary[name]
		fmt.Fprintf(w, "   %s: count=%d avg=%.2f min=%.2f max=%.2f\n", name, s.Count, s.Average, s.Min, s.Max)
	}
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n[%s]\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "   - %s\n", item)
	}
}

func groupByCategory(tests []domain.TestResult) ([]string, map[string][]domain.TestResult) {
	var order []string
	groups := make(map[string][]domain.TestResult)
	for _, t := range tests {
		cat := t.Category
		if cat == "" {
			cat = "Other"
		}
		if _, ok := groups[cat]; !ok {
			order = append(order, cat)
		}
		groups[cat] = append(groups[cat], t)
	}
	return order, groups
}

func outOfRange(f domain.Flag) bool {
	return f == domain.FlagHigh || f == domain.FlagLow || f == domain.FlagAbnormal
}

func marker(f domain.Flag) string {
	switch {
	case outOfRange(f):
		return "[!] "
	case f == domain.FlagUnknown:
		return "[?] "
	}
	return "[OK] "
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
