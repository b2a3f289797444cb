package domain

// Audit scoring defaults. Penalties are policy constants, not derived
// properties; deployments tune them through configuration.
const (
	DefaultCitationPenalty    = 25
	DefaultNoCitationPenalty  = 25
	DefaultGroundedBonus      = 5
	DefaultBonusCitationCount = 3
	DefaultPassThreshold      = 80
)

// AuditPolicy configures citation validation and scoring.
type AuditPolicy struct {
	// CitationPenalty is subtracted per unsupported citation or claim.
	CitationPenalty int

	// NoCitationPenalty is subtracted when the answer contains no
	// citations at all; ungrounded prose is itself a failure mode.
	NoCitationPenalty int

	// GroundedBonus is added when the answer cites at least
	// BonusCitationCount identifiers with zero violations.
	GroundedBonus int

	// BonusCitationCount is the citation count required for the bonus.
	BonusCitationCount int

	// PassThreshold is the minimum score considered audit-ready.
	PassThreshold int

	// AllowedInferences lists well-known cross-framework identifiers
	// treated as reasonable inference rather than hallucination.
	// This is externally configured product policy, not a hard-coded
	// list baked into the validator.
	AllowedInferences []string
}

// DefaultAuditPolicy returns the standard scoring policy with an empty
// allow-list.
func DefaultAuditPolicy() AuditPolicy {
	return AuditPolicy{
		CitationPenalty:    DefaultCitationPenalty,
		NoCitationPenalty:  DefaultNoCitationPenalty,
		GroundedBonus:      DefaultGroundedBonus,
		BonusCitationCount: DefaultBonusCitationCount,
		PassThreshold:      DefaultPassThreshold,
	}
}

// AuditFinding records the verdict for a single cited identifier or
// unsupported claim. Findings are data for the caller, not errors.
type AuditFinding struct {
	// CitedIdentifier is the bracketed token or claimed family.
	CitedIdentifier string

	// Grounded is true when the citation is backed by retrieved content
	// or covered by the allow-list.
	Grounded bool

	// Reason explains an ungrounded verdict. Empty for grounded findings.
	Reason string
}

// AuditReport aggregates the findings for one generated answer.
type AuditReport struct {
	// ID identifies this audit run.
	ID string

	// Findings holds one entry per unique citation plus one per
	// unsupported claim. Grounded citations appear with Grounded=true.
	Findings []AuditFinding

	// Score is the grounding score, clamped to [0,100].
	Score int

	// Passed reports whether Score met the policy threshold.
	Passed bool

	// CitationCount is the number of unique bracketed citations found.
	CitationCount int
}

// Violations returns only the ungrounded findings.
func (r AuditReport) Violations() []AuditFinding {
	var out []AuditFinding
	for _, f := range r.Findings {
		if !f.Grounded {
			out = append(out, f)
		}
	}
	return out
}
