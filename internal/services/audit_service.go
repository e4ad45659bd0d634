package services

import (
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/utils"
)

// AuditService writes security and mutation events to the log stream,
// tagged audit=true so they can be filtered downstream
type AuditService struct {
	logger  *logrus.Logger
	enabled bool
}

// NewAuditService creates a new audit service
func NewAuditService(logger *logrus.Logger, enabled bool) *AuditService {
	return &AuditService{
		logger:  logger,
		enabled: enabled,
	}
}

// AuditEvent represents one event to be logged
type AuditEvent struct {
	Actor     string // Admin email, empty before authentication
	Action    string // e.g. "create", "delete", "login", "logout"
	Entity    string // city, route, session
	EntityID  string
	IPAddress string
	UserAgent string
	Details   map[string]interface{}
}

// LogMutation records an applied itinerary change
func (s *AuditService) LogMutation(actor, action, entity, entityID, ipAddress, userAgent string, details map[string]interface{}) {
	s.logEvent(AuditEvent{
		Actor:     actor,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(email, ipAddress, userAgent string, success bool, reason string) {
	action := "login_success"
	if !success {
		action = "login_failed"
	}

	details := map[string]interface{}{"success": success}
	if reason != "" {
		details["reason"] = reason
	}

	s.logEvent(AuditEvent{
		Actor:     email,
		Action:    action,
		Entity:    "session",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogLogout logs a logout event
func (s *AuditService) LogLogout(email, ipAddress, userAgent string) {
	s.logEvent(AuditEvent{
		Actor:     email,
		Action:    "logout",
		Entity:    "session",
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}

// LogTokenRefresh logs a refresh token usage event
func (s *AuditService) LogTokenRefresh(ipAddress, userAgent string, success bool) {
	action := "token_refresh_success"
	if !success {
		action = "token_refresh_failed"
	}

	s.logEvent(AuditEvent{
		Action:    action,
		Entity:    "token",
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}

// LogConflict logs a mutation rejected because another one was in flight
func (s *AuditService) LogConflict(actor, entity, entityID, ipAddress, userAgent string) {
	s.logEvent(AuditEvent{
		Actor:     actor,
		Action:    "mutation_conflict",
		Entity:    entity,
		EntityID:  entityID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}

func (s *AuditService) logEvent(event AuditEvent) {
	if !s.enabled {
		return
	}

	fields := logrus.Fields{
		"audit":  true,
		"action": event.Action,
		"entity": event.Entity,
		"ip":     event.IPAddress,
		"device": utils.ParseUserAgent(event.UserAgent),
	}
	if event.Actor != "" {
		fields["actor"] = event.Actor
	}
	if event.EntityID != "" {
		fields["entity_id"] = event.EntityID
	}
	for k, v := range event.Details {
		if _, taken := fields[k]; !taken {
			fields[k] = v
		}
	}

	s.logger.WithFields(fields).Info("audit event")
}
