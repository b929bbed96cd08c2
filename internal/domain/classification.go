package domain

// CasualSentinel is the model answer meaning "not a complaint".
const CasualSentinel = "casual"

// Classification is the routing decision for a complaint text.
type Classification struct {
	Department string
	Casual     bool
}

// RelevanceVerdict is the outcome of comparing an image to complaint text.
type RelevanceVerdict struct {
	Relevant bool
	Score    float64
}
