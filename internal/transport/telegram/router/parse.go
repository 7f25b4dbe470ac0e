package router

import (
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var ridSeq atomic.Uint64

// newReqID returns a short id: base36 timestamp, sequence and two random chars.
func newReqID() string {
	const alpha = "abcdefghijklmnopqrstuvwxyz0123456789"
	n := ridSeq.Add(1)
	ts := time.Now().UnixNano()
	return strconv.FormatInt(ts, 36) + "-" + strconv.FormatUint(n, 36) +
		string([]byte{alpha[rand.Intn(len(alpha))], alpha[rand.Intn(len(alpha))]})
}

// parseCommand splits "/name@bot arg1 arg2" into ("name", args). ok is false
// for text that is not a command.
func parseCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	parts := strings.Fields(text)
	name = strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	if i := strings.IndexByte(name, '@'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return "", nil, false
	}
	return name, parts[1:], true
}

// joinTimeArgs rejoins "HH MM" entries that strings.Fields split apart: a one
// or two digit arg followed by a two digit arg becomes one entry. Other args
// pass through unchanged.
func joinTimeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if i+1 < len(args) && isDigits(a, 1, 2) && isDigits(args[i+1], 2, 2) {
			out = append(out, a+" "+args[i+1])
			i++
			continue
		}
		out = append(out, a)
	}
	return out
}

func isDigits(s string, minLen, maxLen int) bool {
	if len(s) < minLen || len(s) > maxLen {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// normalizeWord lowercases s and strips surrounding punctuation, so "Yes!"
// matches "yes".
func normalizeWord(s string) string {
	return strings.Trim(strings.ToLower(strings.TrimSpace(s)), " .,!?:;\"'")
}
