package service

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// newOrderNumber builds the human-readable order identifier, e.g.
// "BR-LZK3F9QJ-4821". Uniqueness is ultimately guarded by the database
// constraint; the timestamp plus random suffix keeps collisions out of the
// hot path.
func newOrderNumber() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixMilli(), 36))
	suffix := rand.Intn(10000) //nolint:gosec
	return fmt.Sprintf("BR-%s-%04d", ts, suffix)
}
