// Package models defines core data structures for the knowledge corpus,
// retrieval results, conversations, and leads.
package models

// Document is one entry of the knowledge corpus. Documents are produced by an
// external ingestion job and loaded wholesale; they are never mutated in place.
type Document struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	URL      string `json:"url"`
}

// RetrievalResult pairs a document with its similarity score for one query.
// Results are ephemeral and never persisted.
type RetrievalResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// DocumentRef is the subset of a document exposed to the chat client.
type DocumentRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}
