package signin

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// BackupCodeAttempter verifies single use backup codes against bcrypt
// hashes. A matching hash is consumed.
type BackupCodeAttempter struct {
	mu     sync.Mutex
	hashes [][]byte
}

var _ Attempter = (*BackupCodeAttempter)(nil)

// NewBackupCodeAttempter wraps stored hashes.
func NewBackupCodeAttempter(hashes [][]byte) *BackupCodeAttempter {
	cp := make([][]byte, 0, len(hashes))
	for _, h := range hashes {
		if len(h) > 0 {
			cp = append(cp, h)
		}
	}
	return &BackupCodeAttempter{hashes: cp}
}

// HashBackupCodes hashes plain codes for storage.
func HashBackupCodes(codes []string, cost int) ([][]byte, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	out := make([][]byte, 0, len(codes))
	for _, code := range codes {
		h, err := bcrypt.GenerateFromPassword([]byte(normalizeBackupCode(code)), cost)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

// Remaining returns the number of unused codes.
func (a *BackupCodeAttempter) Remaining() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.hashes)
}

// AttemptSecondFactor implements Attempter.
func (a *BackupCodeAttempter) AttemptSecondFactor(_ context.Context, f SecondFactor, code string) (bool, error) {
	if _, ok := f.(BackupCodeFactor); !ok {
		return false, ErrStrategyMismatch.Clone().WithMetadata(map[string]any{
			"strategy": string(strategyOf(f)),
		})
	}

	code = normalizeBackupCode(code)
	if code == "" {
		return false, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for i, h := range a.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(code)) == nil {
			a.hashes = append(a.hashes[:i], a.hashes[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func normalizeBackupCode(code string) string {
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToLower(code)
}

func strategyOf(f SecondFactor) Strategy {
	if f == nil {
		return ""
	}
	return f.Strategy()
}
