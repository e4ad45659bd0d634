package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/models"
)

// Connect modes as reported to clients
const (
	ConnectModeIdle     = "idle"
	ConnectModeAwaiting = "awaiting_destination"
)

// connectState is either idle or waiting for the destination of a route
// that starts at fromID
type connectState interface {
	mode() string
}

type idleState struct{}

func (idleState) mode() string { return ConnectModeIdle }

type awaitingDestination struct {
	fromID string
}

func (awaitingDestination) mode() string { return ConnectModeAwaiting }

// ConnectService tracks connect mode per admin session. A long press on a
// city marker starts it; picking a second city creates the route.
type ConnectService struct {
	itinerary *ItineraryService
	logger    *logrus.Logger

	mu     sync.Mutex
	states map[string]connectState
}

// NewConnectService creates a new connect service
func NewConnectService(itinerary *ItineraryService, logger *logrus.Logger) *ConnectService {
	return &ConnectService{
		itinerary: itinerary,
		logger:    logger,
		states:    make(map[string]connectState),
	}
}

// State returns the current connect state of the actor
func (s *ConnectService) State(actor string) models.ConnectState {
	s.mu.Lock()
	st := s.stateOf(actor)
	s.mu.Unlock()
	return s.describe(st)
}

// Start enters connect mode with the given origin, replacing any earlier
// origin
func (s *ConnectService) Start(actor, fromID string) (models.ConnectState, error) {
	if _, ok := s.itinerary.City(fromID); !ok {
		return models.ConnectState{}, ErrCityNotFound
	}

	s.mu.Lock()
	s.states[actor] = awaitingDestination{fromID: fromID}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{"actor": actor, "from_id": fromID}).Debug("Connect mode started")
	return s.describe(awaitingDestination{fromID: fromID}), nil
}

// Complete creates a route from the pending origin to toID. Picking the
// origin again is ignored and keeps connect mode active. Any other outcome
// returns the actor to idle, except rejected input, a lock conflict or a
// store failure, which leave the origin in place so the pick can be retried.
func (s *ConnectService) Complete(ctx context.Context, actor, toID string, input models.RouteInput) (*models.Route, models.ConnectState, error) {
	s.mu.Lock()
	st, ok := s.stateOf(actor).(awaitingDestination)
	s.mu.Unlock()
	if !ok {
		return nil, s.describe(idleState{}), ErrNotConnecting
	}
	if st.fromID == toID {
		return nil, s.describe(st), nil
	}

	route, err := s.itinerary.CreateRoute(ctx, models.CreateRouteRequest{
		RouteInput: input,
		FromID:     st.fromID,
		ToID:       toID,
	})
	if err != nil {
		if isRetryable(err) {
			return nil, s.describe(st), err
		}
		s.reset(actor)
		return nil, s.describe(idleState{}), err
	}

	s.reset(actor)
	return route, s.describe(idleState{}), nil
}

// Cancel leaves connect mode
func (s *ConnectService) Cancel(actor string) models.ConnectState {
	s.reset(actor)
	return s.describe(idleState{})
}

func (s *ConnectService) reset(actor string) {
	s.mu.Lock()
	delete(s.states, actor)
	s.mu.Unlock()
}

// stateOf expects mu to be held
func (s *ConnectService) stateOf(actor string) connectState {
	if st, ok := s.states[actor]; ok {
		return st
	}
	return idleState{}
}

func (s *ConnectService) describe(st connectState) models.ConnectState {
	out := models.ConnectState{Mode: st.mode()}
	if a, ok := st.(awaitingDestination); ok {
		out.FromID = a.fromID
		if c, found := s.itinerary.City(a.fromID); found {
			out.FromCity = c.City
		}
	}
	return out
}

func isRetryable(err error) bool {
	var storeErr *StoreError
	var validationErr *ValidationError
	return errors.Is(err, ErrOperationInProgress) || errors.As(err, &storeErr) || errors.As(err, &validationErr)
}
