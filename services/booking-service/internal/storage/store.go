package storage

import (
	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/outbox"
)

// Store bundles the repositories so one value satisfies every component's
// repository interface.
type Store struct {
	*HoursRepository
	*CatalogRepository
	*AppointmentRepository
}

func NewStore(pool *db.Pool, outboxRepo *outbox.Repository) *Store {
	return &Store{
		HoursRepository:       NewHoursRepository(pool),
		CatalogRepository:     NewCatalogRepository(pool),
		AppointmentRepository: NewAppointmentRepository(pool, outboxRepo),
	}
}
