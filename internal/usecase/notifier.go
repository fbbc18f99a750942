package usecase

import (
	"log/slog"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

// EventSink is the write path into the fan-out layer. Implemented by
// ws.Dispatcher.
type EventSink interface {
	Dispatch(typ domain.EventType, payload any, target domain.Target) error
}

// Notifier exposes the named trigger points the marketplace backend calls
// when domain state changes. Each trigger maps a domain happening to the
// target selector(s) it implies; payloads pass through opaquely.
//
// Triggers that name two targets issue two independent dispatches. There
// is no cross-target atomicity, so a client in both audiences may observe
// the same logical event twice (once per group). Clients de-duplicate by
// event id if they care.
type Notifier struct {
	sink   EventSink
	logger *slog.Logger
}

// NewNotifier creates a notifier writing into sink
func NewNotifier(sink EventSink, logger *slog.Logger) *Notifier {
	return &Notifier{
		sink:   sink,
		logger: logger.With(slog.String("component", "notifier")),
	}
}

// KYCStatusChanged notifies the subject and gives admins visibility of the
// status change
func (n *Notifier) KYCStatusChanged(userID string, payload any) error {
	if err := n.sink.Dispatch(domain.EventKYCStatusChanged, payload,
		domain.GroupTarget(domain.PersonalGroup(userID))); err != nil {
		return err
	}
	return n.sink.Dispatch(domain.EventKYCStatusChanged, payload,
		domain.GroupTarget(domain.AdminGroup()))
}

// JobApproved notifies every connected student of a newly approved job.
// The student role group is the authoritative target; use
// JobApprovedBroadcast for the legacy everyone-and-self-filter behavior.
func (n *Notifier) JobApproved(payload any) error {
	return n.sink.Dispatch(domain.EventJobApproved, payload,
		domain.GroupTarget(domain.RoleGroup(domain.RoleStudent)))
}

// JobApprovedBroadcast delivers a job approval to every open connection,
// leaving filtering to the clients
func (n *Notifier) JobApprovedBroadcast(payload any) error {
	return n.sink.Dispatch(domain.EventJobApproved, payload,
		domain.BroadcastTarget())
}

// JobRejected notifies the posting employer that their job was rejected
func (n *Notifier) JobRejected(employerID string, payload any) error {
	return n.sink.Dispatch(domain.EventJobRejected, payload,
		domain.GroupTarget(domain.PersonalGroup(employerID)))
}

// NewApplication notifies the employer and anyone watching the job's topic
// that an application came in
func (n *Notifier) NewApplication(employerID, jobID string, payload any) error {
	if err := n.sink.Dispatch(domain.EventNewApplication, payload,
		domain.GroupTarget(domain.PersonalGroup(employerID))); err != nil {
		return err
	}
	return n.sink.Dispatch(domain.EventNewApplication, payload,
		domain.GroupTarget(domain.JobTopic(jobID)))
}

// ApplicationStatusUpdated notifies the applying student of a decision on
// their application
func (n *Notifier) ApplicationStatusUpdated(studentID string, payload any) error {
	return n.sink.Dispatch(domain.EventApplicationStatusUpdated, payload,
		domain.GroupTarget(domain.PersonalGroup(studentID)))
}
