package applock

import (
	"context"
	"sync"
	"time"
)

// BiometricResult is the outcome of a biometric unlock attempt.
type BiometricResult int

const (
	BiometricUnlocked BiometricResult = iota
	BiometricFailed
	BiometricInterrupted
)

func (r BiometricResult) String() string {
	return [...]string{"unlocked", "failed", "interrupted"}[r]
}

// Service is the app lock backend: PIN storage, biometrics and the grace
// period after backgrounding.
type Service interface {
	IsEnabled() bool
	IsMandatory() bool
	BiometricUnlockEnabled() bool
	BiometricUnlockTrusted() bool
	BiometryAvailable() bool
	NeedsUnlock(now time.Time) bool
	DidEnterBackground(at time.Time)
	UnlockWithBiometrics(ctx context.Context) BiometricResult
}

// MemoryService is an in-process Service used by tests and the simulator.
type MemoryService struct {
	mu           sync.Mutex
	enabled      bool
	mandatory    bool
	biometrics   bool
	trusted      bool
	biometry     bool
	gracePeriod  time.Duration
	backgrounded time.Time
	results      []BiometricResult
}

// NewMemoryService returns an enabled service with the given grace period
// and no biometrics.
func NewMemoryService(gracePeriod time.Duration) *MemoryService {
	return &MemoryService{enabled: true, gracePeriod: gracePeriod}
}

// SetEnabled toggles the service.
func (s *MemoryService) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.enabled = enabled
	s.mu.Unlock()
}

// SetMandatory marks app lock as required by policy.
func (s *MemoryService) SetMandatory(mandatory bool) {
	s.mu.Lock()
	s.mandatory = mandatory
	s.mu.Unlock()
}

// SetBiometrics configures biometric unlock. results are returned by
// successive unlock attempts; the last one repeats.
func (s *MemoryService) SetBiometrics(available, enabled bool, results ...BiometricResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.biometry = available
	s.biometrics = enabled
	s.trusted = enabled
	s.results = results
}

func (s *MemoryService) IsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

func (s *MemoryService) IsMandatory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mandatory
}

func (s *MemoryService) BiometricUnlockEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.biometrics
}

func (s *MemoryService) BiometricUnlockTrusted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trusted
}

func (s *MemoryService) BiometryAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.biometry
}

// NeedsUnlock is true on first launch and once the grace period since
// backgrounding has elapsed.
func (s *MemoryService) NeedsUnlock(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backgrounded.IsZero() {
		return true
	}
	return now.Sub(s.backgrounded) >= s.gracePeriod
}

func (s *MemoryService) DidEnterBackground(at time.Time) {
	s.mu.Lock()
	s.backgrounded = at
	s.mu.Unlock()
}

func (s *MemoryService) UnlockWithBiometrics(ctx context.Context) BiometricResult {
	if ctx.Err() != nil {
		return BiometricInterrupted
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return BiometricFailed
	}
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r
}
