package domain

// Framework identifies a compliance standard that scopes control
// identifiers. Control IDs are only unique within a framework.
type Framework string

// Well-known frameworks. The pipeline treats Framework as an open set;
// these constants cover the corpora shipped with GRCora.
const (
	FrameworkISO27001 Framework = "iso27001"
	FrameworkSOC2     Framework = "soc2"
	FrameworkNIST     Framework = "nist-800-53"
	FrameworkCIS      Framework = "cis-v8"
	FrameworkPCIDSS   Framework = "pci-dss"
)

// ControlRecord is a normalised compliance control as supplied by the
// external ingestion collaborator. Records are immutable once ingested;
// a changed body supersedes the old chunk set rather than mutating it.
type ControlRecord struct {
	// ControlID is the identifier, unique within the framework.
	// Example: "A.5.1", "CC6.1", "AC-2".
	ControlID string

	// Framework is the standard this control belongs to.
	Framework Framework

	// Family is the control family or category within the framework.
	// Example: "Access Control", "Incident Response".
	Family string

	// Title is the short human-readable control name.
	Title string

	// Body is the full control text to be segmented.
	Body string
}

// Validate checks that the record carries the fields the pipeline
// depends on. An empty body is NOT an error here; the segmenter handles
// it by producing zero chunks.
func (c ControlRecord) Validate() error {
	if c.ControlID == "" {
		return ErrInvalidInput
	}
	if c.Framework == "" {
		return ErrInvalidInput
	}
	return nil
}
