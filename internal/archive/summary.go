package archive

// StopReason names why a run ended before exhausting the inbox.
type StopReason string

const (
	StopNone      StopReason = ""
	StopDailyCap  StopReason = "daily upload cap reached"
	StopRunLimit  StopReason = "per-run upload limit reached"
	StopQuota     StopReason = "platform quota exhausted"
	StopAuth      StopReason = "platform credentials rejected"
	StopCancelled StopReason = "cancelled"
)

// UploadedItem describes one successful upload.
type UploadedItem struct {
	Bundle     string
	ExternalID string
	Title      string
	RemoteID   string
}

// ItemError is a per-record failure. ExternalID is empty for entries that
// never produced a record.
type ItemError struct {
	Bundle     string
	ExternalID string
	Message    string
}

// BundleError is a failure that prevented a bundle from being processed.
type BundleError struct {
	Bundle  string
	Message string
}

// Summary aggregates the results of a run.
type Summary struct {
	RunID        string
	DryRun       bool
	Uploaded     []UploadedItem
	Duplicates   int
	ItemErrors   []ItemError
	BundleErrors []BundleError
	Processed    []string
	// Pending counts bundles left for a later run.
	Pending int
	Stopped StopReason
}

// StoppedEarly reports whether the run ended early.
func (s *Summary) StoppedEarly() bool {
	return s.Stopped != StopNone
}
