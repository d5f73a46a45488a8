package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dreamtoapp/amwaj-messaging/internal/domain"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
	"github.com/dreamtoapp/amwaj-messaging/pkg/webhook"
)

const alertTimeout = 10 * time.Second

// messageProcessor is the slice of MessageService the scheduler drives.
type messageProcessor interface {
	ProcessPendingMessages(ctx context.Context) ([]domain.SendResult, error)
}

type alertPoster interface {
	Post(ctx context.Context, url string, alert webhook.Alert) error
}

// Scheduler drains the outbox: every interval it sends one batch of pending
// messages.
type Scheduler struct {
	messageService  messageProcessor
	alerts          alertPoster
	interval        time.Duration
	alertWebhook    string
	alertThreshold  int // Number of consecutive all-fail iterations before alert
	lastAlertSentAt time.Time

	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
	mu       sync.RWMutex

	lastRunAt    time.Time
	messagesSent int64
	runsCount    int64

	consecutiveAllFailCount int
}

func NewScheduler(messageService messageProcessor, alerts alertPoster, interval time.Duration) *Scheduler {
	return &Scheduler{
		messageService: messageService,
		alerts:         alerts,
		interval:       interval,
	}
}

func (s *Scheduler) StartWithParams(
	ctx context.Context,
	intervalMinutes int,
	alertWebhook string,
	alertThreshold int,
) error {
	if intervalMinutes <= 0 {
		intervalMinutes = 2
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is already running")
		return nil
	}
	s.interval = time.Duration(intervalMinutes) * time.Minute
	s.alertWebhook = alertWebhook
	s.alertThreshold = alertThreshold
	s.consecutiveAllFailCount = 0
	s.mu.Unlock()

	return s.Start(ctx)
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()

	if s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is already running")
		return nil
	}

	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})
	interval := s.interval
	stopChan, doneChan := s.stopChan, s.doneChan
	s.mu.Unlock()

	logger.Infof("Starting scheduler with interval: %v", interval)

	go s.run(ctx, interval, stopChan, doneChan)

	return nil
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration, stopChan, doneChan chan struct{}) {
	defer close(doneChan)

	s.processMessages(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Infof("Scheduler running. Next execution in %v", interval)

	for {
		select {
		case <-ticker.C:
			s.processMessages(ctx)
			logger.Debugf("Next execution in %v", interval)

		case <-stopChan:
			logger.Warnf("Scheduler received stop signal")
			return

		case <-ctx.Done():
			logger.Warnf("Scheduler context cancelled")
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}
	}
}

func (s *Scheduler) processMessages(ctx context.Context) {
	s.mu.Lock()
	s.lastRunAt = time.Now()
	s.runsCount++
	runNumber := s.runsCount
	startedAt := s.lastRunAt
	alertWebhook := s.alertWebhook
	alertThreshold := s.alertThreshold
	s.mu.Unlock()

	logger.Infof("[Run #%d] Starting outbox processing at %s", runNumber, startedAt.Format(time.RFC3339))

	results, err := s.messageService.ProcessPendingMessages(ctx)
	if err != nil {
		logger.Errorf("[Run #%d] Error processing messages: %v", runNumber, err)
		return
	}

	if len(results) == 0 {
		logger.Debugf("[Run #%d] No messages to process", runNumber)
		return
	}

	successCount := 0
	for _, r := range results {
		if r.Success {
			successCount++
		}
	}
	allFailed := successCount == 0

	s.mu.Lock()
	s.messagesSent += int64(successCount)

	if allFailed {
		s.consecutiveAllFailCount++
		logger.Warnf("[Run #%d] All %d messages failed (consecutive count: %d/%d)",
			runNumber, len(results), s.consecutiveAllFailCount, alertThreshold)

		if alertThreshold > 0 && alertWebhook != "" && s.consecutiveAllFailCount >= alertThreshold && s.alerts != nil {
			go s.sendAlert(alertWebhook, runNumber, s.consecutiveAllFailCount, len(results))
		}
	} else {
		if s.consecutiveAllFailCount > 0 {
			logger.Debugf("[Run #%d] Resetting consecutive failure count (was: %d)",
				runNumber, s.consecutiveAllFailCount)
		}
		s.consecutiveAllFailCount = 0
	}
	s.mu.Unlock()

	logger.Infof("[Run #%d] Processed %d messages, %d successful, %d failed",
		runNumber, len(results), successCount, len(results)-successCount)
}

func (s *Scheduler) Stop() error {
	s.mu.Lock()

	if !s.running {
		s.mu.Unlock()
		logger.Warnf("Scheduler is not running")
		return nil
	}

	s.running = false
	stopChan := s.stopChan
	doneChan := s.doneChan
	s.mu.Unlock()

	close(stopChan)
	<-doneChan

	logger.Infof("Scheduler stopped")
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Scheduler) GetStatus() SchedulerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status := SchedulerStatus{
		Running:                 s.running,
		LastRunAt:               s.lastRunAt,
		MessagesSent:            s.messagesSent,
		RunsCount:               s.runsCount,
		Interval:                s.interval.String(),
		ConsecutiveAllFailCount: s.consecutiveAllFailCount,
		LastAlertSentAt:         s.lastAlertSentAt,
	}

	if s.running && !s.lastRunAt.IsZero() {
		status.NextRunAt = s.lastRunAt.Add(s.interval)
	}

	return status
}

func (s *Scheduler) sendAlert(webhookURL string, runNumber int64, consecutiveFailures int, messagesInBatch int) {
	ctx, cancel := context.WithTimeout(context.Background(), alertTimeout)
	defer cancel()

	alert := webhook.Alert{
		Alert:               "consecutive_all_fail",
		RunNumber:           runNumber,
		ConsecutiveFailures: consecutiveFailures,
		MessagesInBatch:     messagesInBatch,
		Timestamp:           time.Now().UTC(),
		Message: fmt.Sprintf(
			"All %d WhatsApp messages failed for %d consecutive iterations",
			messagesInBatch,
			consecutiveFailures,
		),
	}

	if err := s.alerts.Post(ctx, webhookURL, alert); err != nil {
		logger.Errorf("Failed to send alert: %v", err)
		return
	}

	s.mu.Lock()
	s.lastAlertSentAt = time.Now()
	s.mu.Unlock()

	logger.Infof("Alert sent (consecutive failures: %d)", consecutiveFailures)
}

type SchedulerStatus struct {
	Running                 bool      `json:"running"`
	LastRunAt               time.Time `json:"lastRunAt,omitempty"`
	NextRunAt               time.Time `json:"nextRunAt,omitempty"`
	MessagesSent            int64     `json:"messagesSent"`
	RunsCount               int64     `json:"runsCount"`
	Interval                string    `json:"interval"`
	ConsecutiveAllFailCount int       `json:"consecutiveAllFailCount"`
	LastAlertSentAt         time.Time `json:"lastAlertSentAt,omitempty"`
}
