package utils

import (
	"fmt"
	"math/rand"
	"time"
)

// GenerateOTPCode returns a 6-digit one-time code.
func GenerateOTPCode() string {
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	return fmt.Sprintf("%06d", seededRand.Intn(1000000))
}
