package store

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"sync"
	"time"
)

const idRandLen = 6

var (
	idMu     sync.Mutex
	idLastMs int64
)

// NewID returns base36(unix millis) followed by 6 random base36 characters.
// The time part never goes backwards within a process, so ids sort roughly by
// creation order; the random part gives 36^6 (~2.2e9) combinations per tick.
func NewID() string {
	return strconv.FormatInt(nextMillis(time.Now()), 36) + randomBase36(idRandLen)
}

func nextMillis(now time.Time) int64 {
	ms := now.UnixMilli()
	idMu.Lock()
	defer idMu.Unlock()
	if ms < idLastMs {
		ms = idLastMs
	}
	idLastMs = ms
	return ms
}

var base36Max = big.NewInt(36)

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

func randomBase36(n int) string {
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, base36Max)
		if err != nil {
			// Entropy source failed; the clock still yields a character.
			b[i] = base36Digits[time.Now().UnixNano()%36]
			continue
		}
		b[i] = base36Digits[v.Int64()]
	}
	return string(b)
}
