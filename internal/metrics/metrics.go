package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registrations_total",
			Help: "number of committed registrations",
		},
		[]string{"type"},
	)

	ParticipantsRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "participants_registered_total",
			Help: "number of participants registered",
		},
	)

	NotificationsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_published_total",
			Help: "number of notification messages published to the queue",
		},
		[]string{"type", "result"},
	)

	EmailsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "emails_processed_total",
			Help: "number of queued notifications processed by the email worker",
		},
		[]string{"outcome"},
	)
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RegistrationsTotal,
			ParticipantsRegistered,
			NotificationsPublished,
			EmailsProcessed,
		)
	})
}
