package domain

// RetrievalStrategy selects how candidate documents are ranked
type RetrievalStrategy string

const (
	RetrievalKeyword  RetrievalStrategy = "keyword"  // term overlap
	RetrievalSemantic RetrievalStrategy = "semantic" // embedding similarity
)

// IsValid returns true for the known strategies
func (s RetrievalStrategy) IsValid() bool {
	switch s {
	case RetrievalKeyword, RetrievalSemantic:
		return true
	default:
		return false
	}
}

// RequiresEmbedding returns true if the strategy needs an embedding backend
func (s RetrievalStrategy) RequiresEmbedding() bool {
	return s == RetrievalSemantic
}
