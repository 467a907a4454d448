package domain

// Hasher fingerprints user input so alerts can reference it without carrying it.
type Hasher interface {
	Hash(data []byte) string
}
