package observers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/LerianStudio/lib-events/events"
	"github.com/LerianStudio/lib-events/events/log"
)

const (
	securityPriority          = 10
	securityMaxProcessingTime = 2 * time.Second

	defaultMaxAttemptsPerHour   = 10
	defaultMaxFailedBeforeAlert = 3
)

// Alert classifications raised by the security observer.
const (
	AlertBruteForce        = "BRUTE_FORCE_DETECTED"
	AlertRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	AlertUnusualLogin      = "UNUSUAL_LOGIN_PATTERN"
	AlertSystemError       = "SECURITY_SYSTEM_ERROR"
)

// AlertFunc receives security alerts raised while processing events. The
// original event that triggered the alert is passed for correlation.
type AlertFunc func(ctx context.Context, alertType, message string, original *events.Event)

// Security watches authentication and security traffic: it tracks login
// attempts per user and address, raises brute-force and rate-limit alerts,
// and audits configuration changes. It is interested only in
// security-relevant event types.
type Security struct {
	id                   string
	logger               log.Logger
	alert                AlertFunc
	maxAttemptsPerHour   int
	maxFailedBeforeAlert int

	mu       sync.Mutex
	attempts map[string]*loginTracker
}

// Compile-time assertion: *Security implements the lifecycle extension.
var _ events.LifecycleObserver = (*Security)(nil)

var securityEventTypes = map[events.EventType]struct{}{
	events.TypeUserLogin:            {},
	events.TypeUserLogout:           {},
	events.TypeSecurityAlert:        {},
	events.TypeSystemError:          {},
	events.TypeConfigurationChanged: {},
}

// SecurityOption customizes a Security observer.
type SecurityOption func(*Security)

// WithThresholds overrides the brute-force and rate-limit thresholds.
func WithThresholds(maxAttemptsPerHour, maxFailedBeforeAlert int) SecurityOption {
	return func(o *Security) {
		o.maxAttemptsPerHour = maxAttemptsPerHour
		o.maxFailedBeforeAlert = maxFailedBeforeAlert
	}
}

// WithAlertFunc installs a sink for raised alerts. Without one, alerts are
// only logged.
func WithAlertFunc(alert AlertFunc) SecurityOption {
	return func(o *Security) {
		o.alert = alert
	}
}

// NewSecurity builds a security observer with default thresholds: ten login
// attempts per hour, alert after three failures.
func NewSecurity(id string, logger log.Logger, opts ...SecurityOption) *Security {
	if logger == nil {
		logger = log.NewNop()
	}

	o := &Security{
		id:                   id,
		logger:               logger,
		maxAttemptsPerHour:   defaultMaxAttemptsPerHour,
		maxFailedBeforeAlert: defaultMaxFailedBeforeAlert,
		attempts:             make(map[string]*loginTracker),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Receive routes the event to its type-specific handler.
func (o *Security) Receive(ctx context.Context, event *events.Event) error {
	switch event.Type() {
	case events.TypeUserLogin:
		return o.handleLogin(ctx, event)
	case events.TypeUserLogout:
		o.handleLogout(ctx, event)
	case events.TypeSecurityAlert:
		o.handleSecurityAlert(ctx, event)
	case events.TypeSystemError:
		o.handleSystemError(ctx, event)
	case events.TypeConfigurationChanged:
		o.handleConfigurationChange(ctx, event)
	default:
		o.logger.Log(ctx, log.LevelDebug, "ignoring non-security event",
			log.String("event_type", event.Type().String()),
		)
	}

	return nil
}

func (o *Security) handleLogin(ctx context.Context, event *events.Event) error {
	userID, ok := events.MetadataValue[string](event, "userId")
	if !ok {
		o.logger.Log(ctx, log.LevelWarn, "login event missing userId metadata",
			log.String("event_id", event.ID()),
		)

		return nil
	}

	address, ok := events.MetadataValue[string](event, "ipAddress")
	if !ok {
		address = "unknown"
	}

	success, _ := events.MetadataValue[bool](event, "success")

	tracker := o.trackerFor(userID, address)

	if success {
		unusual := tracker.recordSuccess()

		o.logger.Log(ctx, log.LevelInfo, "successful login",
			log.String("user_id", userID),
			log.String("ip_address", address),
			log.String("event_id", event.ID()),
		)

		if unusual {
			o.raiseAlert(ctx, AlertUnusualLogin,
				fmt.Sprintf("unusual login activity for user %s from %s", userID, address), event)
		}

		return nil
	}

	failed, hourly := tracker.recordFailure()

	o.logger.Log(ctx, log.LevelWarn, "failed login attempt",
		log.String("user_id", userID),
		log.String("ip_address", address),
		log.String("event_id", event.ID()),
		log.Int("recent_failures", failed),
	)

	if failed >= o.maxFailedBeforeAlert {
		o.raiseAlert(ctx, AlertBruteForce,
			fmt.Sprintf("possible brute force: %d failed login attempts for user %s from %s",
				failed, userID, address), event)
	}

	if hourly > o.maxAttemptsPerHour {
		o.raiseAlert(ctx, AlertRateLimitExceeded,
			fmt.Sprintf("rate limit exceeded: %d login attempts in the last hour for user %s from %s",
				hourly, userID, address), event)
	}

	return nil
}

func (o *Security) handleLogout(ctx context.Context, event *events.Event) {
	userID, _ := events.MetadataValue[string](event, "userId")

	o.logger.Log(ctx, log.LevelInfo, "user logout",
		log.String("user_id", userID),
		log.String("event_id", event.ID()),
	)
}

func (o *Security) handleSecurityAlert(ctx context.Context, event *events.Event) {
	level := log.LevelWarn
	if event.IsCritical() {
		level = log.LevelError
	}

	o.logger.Log(ctx, level, "security alert received",
		log.String("event_id", event.ID()),
		log.String("message", event.Message()),
	)
}

// securityErrorKeywords flags system errors that touch authentication or
// authorization concerns.
var securityErrorKeywords = []string{"authentication", "authorization", "access denied", "permission"}

func (o *Security) handleSystemError(ctx context.Context, event *events.Event) {
	message := strings.ToLower(event.Message())

	for _, keyword := range securityErrorKeywords {
		if strings.Contains(message, keyword) {
			o.logger.Log(ctx, log.LevelWarn, "security-related system error",
				log.String("event_id", event.ID()),
				log.String("message", event.Message()),
			)

			o.raiseAlert(ctx, AlertSystemError,
				fmt.Sprintf("security-related system error: %s", event.Message()), event)

			return
		}
	}
}

func (o *Security) handleConfigurationChange(ctx context.Context, event *events.Event) {
	changeType, _ := events.MetadataValue[string](event, "changeType")
	changedBy, _ := events.MetadataValue[string](event, "changedBy")

	o.logger.Log(ctx, log.LevelInfo, "configuration change audited",
		log.String("event_id", event.ID()),
		log.String("change_type", changeType),
		log.String("changed_by", changedBy),
	)
}

func (o *Security) trackerFor(userID, address string) *loginTracker {
	key := userID + ":" + address

	o.mu.Lock()
	defer o.mu.Unlock()

	tracker, ok := o.attempts[key]
	if !ok {
		tracker = newLoginTracker()
		o.attempts[key] = tracker
	}

	return tracker
}

func (o *Security) raiseAlert(ctx context.Context, alertType, message string, original *events.Event) {
	o.logger.Log(ctx, log.LevelError, "security alert raised",
		log.String("alert_type", alertType),
		log.String("message", message),
		log.String("original_event_id", original.ID()),
	)

	if o.alert != nil {
		o.alert(ctx, alertType, message, original)
	}
}

// ID returns the observer identity.
func (o *Security) ID() string { return o.id }

// Priority returns the dispatch priority. Security runs first.
func (o *Security) Priority() int { return securityPriority }

// InterestedIn reports whether the event type is security-relevant.
func (o *Security) InterestedIn(eventType events.EventType) bool {
	_, ok := securityEventTypes[eventType]
	return ok
}

// MaxProcessingTime returns the per-delivery budget.
func (o *Security) MaxProcessingTime() time.Duration { return securityMaxProcessingTime }

// OnRegistered implements events.LifecycleObserver.
func (o *Security) OnRegistered() error {
	o.logger.Log(context.Background(), log.LevelInfo, "security monitoring activated",
		log.String("observer_id", o.id),
	)

	return nil
}

// OnUnregistered implements events.LifecycleObserver.
func (o *Security) OnUnregistered() error {
	o.logger.Log(context.Background(), log.LevelWarn, "security monitoring deactivated",
		log.String("observer_id", o.id),
	)

	return nil
}

// loginTracker keeps per user:address attempt counters. The hourly window is
// approximated by resetting the window counter once an hour has passed since
// the window started.
type loginTracker struct {
	mu            sync.Mutex
	recentFailed  int
	windowStart   time.Time
	windowTotal   int
	lastSuccess   time.Time
	sawAnySuccess bool
}

// unusualLoginGap is the inactivity gap after which a successful login is
// considered unusual.
const unusualLoginGap = 30 * 24 * time.Hour

func newLoginTracker() *loginTracker {
	return &loginTracker{windowStart: time.Now()}
}

// recordSuccess registers a successful login and reports whether the pattern
// looks unusual (first success ever, or a long gap since the last one).
func (t *loginTracker) recordSuccess() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	t.bump(now)
	t.recentFailed = 0

	unusual := !t.sawAnySuccess || now.Sub(t.lastSuccess) > unusualLoginGap

	t.sawAnySuccess = true
	t.lastSuccess = now

	return unusual
}

// recordFailure registers a failed login and returns the consecutive failure
// count and the attempt count in the current hourly window.
func (t *loginTracker) recordFailure() (failed, hourly int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.bump(time.Now())
	t.recentFailed++

	return t.recentFailed, t.windowTotal
}

// bump must be called with the mutex held.
func (t *loginTracker) bump(now time.Time) {
	if now.Sub(t.windowStart) > time.Hour {
		t.windowStart = now
		t.windowTotal = 0
	}

	t.windowTotal++
}
