package domain

// Severity classifies how dangerous a single risk issue is.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Deduction returns the score penalty for an issue of this severity.
func (s Severity) Deduction() int {
	switch s {
	case SeverityCritical:
		return 50
	case SeverityHigh:
		return 25
	case SeverityMedium:
		return 10
	case SeverityLow:
		return 5
	default:
		return 0
	}
}

// IssueKind enumerates the risk issue taxonomy.
type IssueKind string

const (
	IssueSuspiciousCreator  IssueKind = "SUSPICIOUS_CREATOR"
	IssueMintAuthority      IssueKind = "MINT_AUTHORITY_PRESENT"
	IssueFreezeAuthority    IssueKind = "FREEZE_AUTHORITY_PRESENT"
	IssueLowLiquidity       IssueKind = "LOW_LIQUIDITY"
	IssueWhaleConcentration IssueKind = "WHALE_CONCENTRATION"
	IssueLowHolderCount     IssueKind = "LOW_HOLDER_COUNT"
	IssueScamNamePattern    IssueKind = "SCAM_NAME_PATTERN"
	IssueTooNew             IssueKind = "TOO_NEW"
	IssueAnalysisIncomplete IssueKind = "ANALYSIS_INCOMPLETE"
)

// RiskIssue is a single finding from the risk gate.
type RiskIssue struct {
	Kind        IssueKind
	Severity    Severity
	Description string
}

// RiskLevel is the coarse label derived from score and issues.
// Reported for observability only; other components use Secure.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// RiskAssessment is the result of scoring an asset.
// Score is in [0,100]; higher is safer. Secure is the gate verdict:
// score >= 70 and no CRITICAL issue.
type RiskAssessment struct {
	Score  int
	Issues []RiskIssue
	Secure bool
	Level  RiskLevel
}

// HasCritical reports whether any issue has CRITICAL severity.
func (a *RiskAssessment) HasCritical() bool {
	for _, issue := range a.Issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
