package core

import "errors"

const (
	Needs   Bucket = "NEEDS"
	Wants   Bucket = "WANTS"
	Savings Bucket = "SAVINGS"
)

// Bucket is one of the three 50/30/20 allocation targets.
type Bucket string

// Buckets lists the allocation targets in canonical order.
var Buckets = []Bucket{Needs, Wants, Savings}

var ErrInvalidBucket = errors.New("invalid budget bucket")

// Percentage returns the recommended share of income for the bucket,
// in whole percent (50/30/20).
func (b Bucket) Percentage() int {
	switch b {
	case Needs:
		return 50
	case Wants:
		return 30
	case Savings:
		return 20
	}
	return 0
}

// IsEssential reports whether the bucket covers essential spending.
func (b Bucket) IsEssential() bool {
	return b == Needs
}

func ParseBucket(s string) (Bucket, error) {
	switch Bucket(s) {
	case Needs, Wants, Savings:
		return Bucket(s), nil
	}
	return "", ErrInvalidBucket
}
