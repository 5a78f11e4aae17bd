package backend

import (
	"fmt"
	"math"
)

const compareAndStorePath = "/compare-and-store"

type ComparisonPayload struct {
	Profile1 Profile `json:"profile1"`
	Profile2 Profile `json:"profile2"`
}

type comparisonResponse struct {
	Score   *float64 `json:"score"`
	Message string   `json:"message,omitempty"`
}

// NewComparisonPayload strips passwords from both sides.
func NewComparisonPayload(first, second Profile) ComparisonPayload {
	return ComparisonPayload{
		Profile1: first.WithoutPassword(),
		Profile2: second.WithoutPassword(),
	}
}

// CompareAndStore asks the backend for the compatibility of two profiles.
// The returned score is a fraction in [0,1].
func (c *Client) CompareAndStore(payload ComparisonPayload) (float64, error) {
	if payload.Profile1.Password != "" || payload.Profile2.Password != "" {
		payload = NewComparisonPayload(payload.Profile1, payload.Profile2)
	}

	var resp comparisonResponse
	if err := c.postJSON(c.url(compareAndStorePath), payload, &resp); err != nil {
		return 0, err
	}

	if resp.Score == nil || math.IsNaN(*resp.Score) {
		return 0, fmt.Errorf("backend response has no score")
	}

	return *resp.Score, nil
}
