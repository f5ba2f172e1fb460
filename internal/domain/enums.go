package domain

import "strings"

// Flag indicates where a test result falls relative to its reference range.
type Flag string

const (
	FlagNormal   Flag = "NORMAL"
	FlagLow      Flag = "LOW"
	FlagHigh     Flag = "HIGH"
	FlagAbnormal Flag = "ABNORMAL"
	FlagUnknown  Flag = "UNKNOWN"
)

// flagAliases maps the spellings labs and models commonly use to a canonical Flag.
var flagAliases = map[string]Flag{
	"NORMAL":   FlagNormal,
	"N":        FlagNormal,
	"WNL":      FlagNormal,
	"OK":       FlagNormal,
	"IN RANGE": FlagNormal,
	"LOW":      FlagLow,
	"L":        FlagLow,
	"LL":       FlagLow,
	"↓":        FlagLow,
	"HIGH":     FlagHigh,
	"H":        FlagHigh,
	"HH":       FlagHigh,
	"↑":        FlagHigh,
	"ABNORMAL": FlagAbnormal,
	"A":        FlagAbnormal,
	"ABN":      FlagAbnormal,
	"*":        FlagAbnormal,
	"CRITICAL": FlagAbnormal,
	"POSITIVE": FlagAbnormal,
	"DETECTED": FlagAbnormal,
}

// ParseFlag normalizes a free-form flag string. Unrecognized or empty input yields FlagUnknown.
func ParseFlag(s string) Flag {
	key := strings.ToUpper(strings.TrimSpace(s))
	if f, ok := flagAliases[key]; ok {
		return f
	}
	return FlagUnknown
}

// IsAbnormal reports whether the flag needs a finding in the interpretation.
// UNKNOWN counts: anything not positively NORMAL must not be silently dropped.
func (f Flag) IsAbnormal() bool {
	return f != FlagNormal
}

// Category classifies an interpretation finding.
type Category string

const (
	CategoryNormal    Category = "NORMAL"
	CategoryAttention Category = "ATTENTION"
	CategoryUrgent    Category = "URGENT"
)

// ParseCategory normalizes a category string; ok is false for anything unrecognized.
func ParseCategory(s string) (Category, bool) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryNormal:
		return CategoryNormal, true
	case CategoryAttention, "BORDERLINE", "ABNORMAL":
		return CategoryAttention, true
	case CategoryUrgent, "CRITICAL":
		return CategoryUrgent, true
	}
	return "", false
}

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	StatusEmpty       SessionStatus = "EMPTY"
	StatusExtracted   SessionStatus = "EXTRACTED"
	StatusInterpreted SessionStatus = "INTERPRETED"
	StatusError       SessionStatus = "ERROR"
)

// PipelineStage names the reasoning step that produced an error.
type PipelineStage string

const (
	StageExtraction     PipelineStage = "EXTRACTION"
	StageInterpretation PipelineStage = "INTERPRETATION"
	StageAnswer         PipelineStage = "ANSWER"
)
