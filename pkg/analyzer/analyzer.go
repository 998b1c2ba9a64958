package analyzer

import "context"

// HistoryAnalyzer is implemented by analyzers that walk the git history of
// a tracked dataset file inside a repository.
type HistoryAnalyzer[T any] interface {
	// Analyze processes the revisions of file within the repository at
	// repoPath and returns the analysis result.
	Analyze(ctx context.Context, repoPath, file string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
