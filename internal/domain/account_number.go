package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// AccountNumberPrefix starts every account number.
const AccountNumberPrefix = "1001"

// AccountNumberGenerator produces candidate account numbers.
// Candidates may collide; uniqueness is enforced by the repository.
type AccountNumberGenerator interface {
	Next() string
}

// AccountNumberGeneratorFunc adapts a function to AccountNumberGenerator.
type AccountNumberGeneratorFunc func() string

func (f AccountNumberGeneratorFunc) Next() string { return f() }

// TimeRandomGenerator builds numbers as prefix + last 5 digits of the unix time + 4 random digits.
type TimeRandomGenerator struct {
	now     func() time.Time
	randInt func(n int) int
}

// NewTimeRandomGenerator creates the default account number generator.
func NewTimeRandomGenerator() *TimeRandomGenerator {
	return &TimeRandomGenerator{
		now:     time.Now,
		randInt: rand.Intn,
	}
}

// Next returns a 13-digit candidate such as "1001738211234".
func (g *TimeRandomGenerator) Next() string {
	return fmt.Sprintf("%s%05d%04d", AccountNumberPrefix, g.now().Unix()%100000, g.randInt(10000))
}
