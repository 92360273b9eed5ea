// api/schemas/artifacts.go
package schemas

// CaptureAttempt records one capture strategy execution. The pipeline keeps
// one record per strategy tried, in execution order, regardless of whether
// the pipeline as a whole produced bytes.
type CaptureAttempt struct {
	Strategy   string `json:"strategy"`
	Succeeded  bool   `json:"succeeded"`
	ByteLength int    `json:"byte_length"`
	Error      string `json:"error,omitempty"`
}

// ArtifactDescriptor describes one captured completion document ready for
// persistence. The most authoritative capture is client visible; artifacts
// from the remaining strategies are retained as hidden diagnostics with the
// strategy name suffixed onto the logical name.
type ArtifactDescriptor struct {
	LogicalName   string            `json:"logical_name"`
	RecordID      string            `json:"record_id"`
	ContentType   string            `json:"content_type"`
	ClientVisible bool              `json:"client_visible"`
	ExternalIDs   map[string]string `json:"external_ids,omitempty"`
	Payload       []byte            `json:"-"`
}
