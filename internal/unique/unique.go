// Package unique allocates human-readable identifiers (URL slugs, invite
// codes) that are unique within a caller-defined scope. The scope is captured
// by the existence and commit callbacks; the allocator only runs the retry
// loop: generate a candidate, check it is free, try to commit, and move on to
// the next candidate if the store's uniqueness constraint rejects the write.
package unique

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ErrExhausted is returned when maxAttempts candidates were tried without success.
var ErrExhausted = errors.New("allocation attempts exhausted")

// ErrTaken is returned by a CommitFunc when the store rejected the candidate
// as a duplicate. Allocate retries with the next candidate instead of failing.
var ErrTaken = errors.New("candidate taken")

// CandidateFunc produces the candidate for the given attempt (0-based).
type CandidateFunc func(seed string, attempt int) (string, error)

// ExistsFunc reports whether a candidate is already live in the scope.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// CommitFunc persists the owning entity under the candidate value. It must
// return ErrTaken (possibly wrapped) if the store's uniqueness constraint
// rejects the candidate.
type CommitFunc func(ctx context.Context, candidate string) error

// Allocate loops over candidates until one passes the existence check and the
// commit succeeds. The existence check and the commit are not atomic; a
// concurrent allocator can claim the same candidate in between, so the commit
// is the final arbiter and an ErrTaken result simply advances the loop.
//
// commit may be nil, in which case the first free candidate is returned and
// the caller performs the write itself (accepting the wider race window).
// maxAttempts <= 0 means unbounded, for candidate streams that cannot collide
// forever (slug numeric suffixes).
func Allocate(ctx context.Context, seed string, next CandidateFunc, exists ExistsFunc, commit CommitFunc, maxAttempts int) (string, error) {
	for attempt := 0; maxAttempts <= 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate, err := next(seed, attempt)
		if err != nil {
			return "", fmt.Errorf("generate candidate: %w", err)
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check candidate %q: %w", candidate, err)
		}
		if taken {
			continue
		}
		if commit == nil {
			return candidate, nil
		}
		err = commit(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, ErrTaken) {
			// Lost the race for this candidate; try the next one.
			continue
		}
		return "", fmt.Errorf("commit candidate %q: %w", candidate, err)
	}
	return "", ErrExhausted
}

// slugFallback is used when a seed slugifies to nothing (e.g. a title with no
// alphanumeric characters), so the candidate stream is never empty.
const slugFallback = "untitled"

// Slugify lowercases the seed, collapses runs of non-alphanumerics into
// single hyphens, and trims leading/trailing hyphens.
func Slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range s {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return slugFallback
	}
	return out
}

// SlugCandidates yields the slugified seed on attempt 0 and seed-N after.
func SlugCandidates(seed string, attempt int) (string, error) {
	base := Slugify(seed)
	if attempt == 0 {
		return base, nil
	}
	return base + "-" + strconv.Itoa(attempt), nil
}

// codeAlphabet excludes visually ambiguous characters (0/O, 1/I/l).
const codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// CodeCandidates returns a CandidateFunc that draws a fresh random code of the
// given length on every attempt, ignoring the seed.
func CodeCandidates(length int) CandidateFunc {
	return func(_ string, _ int) (string, error) {
		return randomCode(length)
	}
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = codeAlphabet[n.Int64()]
	}
	return string(b), nil
}

// DefaultReservedSlugs are path segments that must never become team slugs,
// regardless of store state.
var DefaultReservedSlugs = []string{
	"admin", "api", "app", "settings", "teams", "events",
	"join", "login", "signup", "www",
}

// WithReserved wraps exists so that reserved words always count as taken.
func WithReserved(reserved []string, exists ExistsFunc) ExistsFunc {
	set := make(map[string]struct{}, len(reserved))
	for _, w := range reserved {
		set[strings.ToLower(w)] = struct{}{}
	}
	return func(ctx context.Context, candidate string) (bool, error) {
		if _, ok := set[strings.ToLower(candidate)]; ok {
			return true, nil
		}
		return exists(ctx, candidate)
	}
}
