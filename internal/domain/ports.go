package domain

import "context"

// CompletionGateway sends a system prompt and a message list to a language
// model service and returns the generated text.
//
// Implementations return a *CompletionError for non-success responses and a
// *TransportError when the service could not be reached. Callers never retry.
type CompletionGateway interface {
	Complete(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)
}

// DocumentExtractor turns an uploaded document into plain text. Unsupported or
// unreadable documents yield a descriptive placeholder rather than an error.
type DocumentExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) string
}

// ReportArchive stores exported session reports. ListReports returns the
// newest reports first; limit <= 0 means no limit.
type ReportArchive interface {
	SaveReport(ctx context.Context, report *Report) error
	GetReport(ctx context.Context, id ReportID) (*Report, error)
	ListReports(ctx context.Context, limit int) ([]*Report, error)
}
