package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeegglar/GRCora-sub003/internal/core/domain"
)

func retrievedSet() []domain.RetrievalResult {
	return []domain.RetrievalResult{
		{
			ChunkID:   "iso27001:A.5.1:0000",
			ControlID: "A.5.1",
			Framework: domain.FrameworkISO27001,
			Content:   "Policies for information security shall be defined. The Access Control family governs account provisioning.",
		},
		{
			ChunkID:   "soc2:CC6.1:0000",
			ControlID: "CC6.1",
			Framework: domain.FrameworkSOC2,
			Content:   "Logical access security software restricts access to systems.",
		},
		{
			ChunkID:   "nist-800-53:AC-2:0001",
			ControlID: "AC-2",
			Framework: domain.FrameworkNIST,
			Content:   "The organisation manages information system accounts.",
		},
	}
}

func TestAuditService_Validate_AllGrounded(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	answer := "Provision accounts per [A.5.1] and restrict access per [CC6.1]. " +
		"Account management is covered by [AC-2]."
	report, err := svc.Validate(context.Background(), answer, retrievedSet())
	require.NoError(t, err)

	assert.Equal(t, 3, report.CitationCount)
	assert.Empty(t, report.Violations())
	assert.Equal(t, 100, report.Score, "three grounded citations earn the bonus, clamped at 100")
	assert.True(t, report.Passed)
}

func TestAuditService_Validate_UnsupportedCitation(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	answer := "Access reviews are required by [A.5.1] and also by [A.99.99]."
	report, err := svc.Validate(context.Background(), answer, retrievedSet())
	require.NoError(t, err)

	assert.Equal(t, 2, report.CitationCount)
	violations := report.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "A.99.99", violations[0].CitedIdentifier)
	assert.Contains(t, violations[0].Reason, "not present")
	assert.Equal(t, 75, report.Score)
	assert.False(t, report.Passed)
}

func TestAuditService_Validate_NoCitationsPenalised(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	report, err := svc.Validate(context.Background(),
		"Access must always be reviewed quarterly.", retrievedSet())
	require.NoError(t, err)

	assert.Zero(t, report.CitationCount)
	assert.Equal(t, 75, report.Score)
	assert.False(t, report.Passed)
}

func TestAuditService_Validate_FrameworkQualifiedCitation(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	report, err := svc.Validate(context.Background(),
		"See [nist-800-53 AC-2] and the chunk [iso27001:A.5.1:0000].", retrievedSet())
	require.NoError(t, err)

	assert.Equal(t, 2, report.CitationCount)
	assert.Empty(t, report.Violations())
}

func TestAuditService_Validate_AllowListedInference(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{
		AllowedInferences: []string{"ISO 27001"},
	})

	report, err := svc.Validate(context.Background(),
		"This aligns with [ISO 27001] and [A.5.1].", retrievedSet())
	require.NoError(t, err)

	assert.Empty(t, report.Violations())
	require.Len(t, report.Findings, 2)
	assert.Equal(t, "allow-listed cross-framework identifier", report.Findings[0].Reason)
}

func TestAuditService_Validate_DuplicateCitationsCountOnce(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	answer := "[A.5.1] requires policies. As noted, [a.5.1] also covers reviews. See [A.5.1]."
	report, err := svc.Validate(context.Background(), answer, retrievedSet())
	require.NoError(t, err)

	assert.Equal(t, 1, report.CitationCount)
	require.Len(t, report.Findings, 1)
}

func TestAuditService_Validate_UnsupportedFamilyClaim(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	answer := "The Incident Response family mandates tabletop exercises [A.5.1]."
	report, err := svc.Validate(context.Background(), answer, retrievedSet())
	require.NoError(t, err)

	violations := report.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, "Incident Response", violations[0].CitedIdentifier)
	assert.Equal(t, 75, report.Score)
}

func TestAuditService_Validate_BackedFamilyClaimPasses(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	answer := "The Access Control family governs provisioning [A.5.1]."
	report, err := svc.Validate(context.Background(), answer, retrievedSet())
	require.NoError(t, err)

	assert.Empty(t, report.Violations())
}

func TestAuditService_Validate_ScoreClampedAtZero(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	answer := "[X1] and [X2] and [X3] and [X4] and [X5] prove the point."
	report, err := svc.Validate(context.Background(), answer, retrievedSet())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Score)
	assert.False(t, report.Passed)
}

func TestAuditService_Validate_CustomPolicy(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{
		CitationPenalty:    10,
		NoCitationPenalty:  50,
		PassThreshold:      90,
		BonusCitationCount: 1,
		GroundedBonus:      5,
	})

	report, err := svc.Validate(context.Background(),
		"Access is restricted [CC6.1].", retrievedSet())
	require.NoError(t, err)

	assert.Equal(t, 100, report.Score, "one grounded citation meets the custom bonus bar")
	assert.True(t, report.Passed)

	report, err = svc.Validate(context.Background(),
		"Access is restricted [BOGUS].", retrievedSet())
	require.NoError(t, err)
	assert.Equal(t, 90, report.Score)
	assert.True(t, report.Passed)
}

func TestAuditService_Validate_EmptyAnswer(t *testing.T) {
	svc := NewAuditService(domain.AuditPolicy{})

	report, err := svc.Validate(context.Background(), "", retrievedSet())
	require.NoError(t, err)

	assert.Zero(t, report.CitationCount)
	assert.Equal(t, 75, report.Score)
	assert.NotEmpty(t, report.ID)
}
