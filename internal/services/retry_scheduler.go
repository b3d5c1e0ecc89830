package services

import (
	"log"
	"sync"
	"time"

	"github.com/procurehub/core/internal/database/models"
)

// RetryScheduler periodically re-runs the inbound pipeline for stored
// emails whose processing failed, so transient AI or resolution failures
// heal without redelivery
type RetryScheduler struct {
	inboundService *InboundService
	logService     *LogService
	interval       time.Duration
	stopChan       chan struct{}
	running        bool
	mu             sync.Mutex
	cycle          sync.Mutex // Prevents overlapping retry cycles
}

// NewRetryScheduler creates a new retry scheduler
func NewRetryScheduler(inboundService *InboundService, logService *LogService, interval time.Duration) *RetryScheduler {
	return &RetryScheduler{
		inboundService: inboundService,
		logService:     logService,
		interval:       interval,
		stopChan:       make(chan struct{}),
	}
}

// Start begins the periodic retry process
func (s *RetryScheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Printf("[RetryScheduler] Starting with interval: %v", s.interval)

	go func() {
		// Let the service come fully up before the first pass
		select {
		case <-time.After(10 * time.Second):
			s.runCycle()
		case <-s.stopChan:
			return
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runCycle()
			case <-s.stopChan:
				log.Println("[RetryScheduler] Stopping")
				return
			}
		}
	}()
}

// Stop stops the retry process
func (s *RetryScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	close(s.stopChan)
	s.running = false
}

// runCycle retries unprocessed inbound emails once
func (s *RetryScheduler) runCycle() {
	// Skip this cycle if the previous one is still running
	if !s.cycle.TryLock() {
		log.Println("[RetryScheduler] Previous cycle still running, skipping")
		return
	}
	defer s.cycle.Unlock()

	recovered, err := s.inboundService.RetryUnprocessed(50)
	if err != nil {
		log.Printf("[RetryScheduler] Retry cycle failed: %v", err)
		s.logService.LogWarn(models.LogModuleInbound, "retry_cycle", "Retry cycle failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if recovered > 0 {
		log.Printf("[RetryScheduler] Recovered %d inbound emails", recovered)
		s.logService.LogInfo(models.LogModuleInbound, "retry_cycle", "Recovered unprocessed inbound emails", map[string]interface{}{
			"recovered": recovered,
		})
	}
}
