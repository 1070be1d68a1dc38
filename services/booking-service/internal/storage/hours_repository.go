package storage

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/db"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type HoursRepository struct {
	pool *db.Pool
}

func NewHoursRepository(pool *db.Pool) *HoursRepository {
	return &HoursRepository{pool: pool}
}

func (r *HoursRepository) GetBusiness(ctx context.Context, businessID string) (model.Business, error) {
	var b model.Business
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, timezone
		FROM businesses
		WHERE id = $1::uuid
	`, businessID).Scan(&b.ID, &b.Name, &b.Timezone)
	if err != nil {
		return model.Business{}, notFound("storage.GetBusiness", "business", err)
	}
	return b, nil
}

func (r *HoursRepository) GetSpecialHours(ctx context.Context, businessID string, date time.Time) (model.SpecialHours, bool, error) {
	s := model.SpecialHours{BusinessID: businessID}
	var open, close *int
	err := r.pool.QueryRow(ctx, `
		SELECT date, is_closed, open_minute, close_minute, reason
		FROM special_hours
		WHERE business_id = $1::uuid AND date = $2
	`, businessID, date).Scan(&s.Date, &s.IsClosed, &open, &close, &s.Reason)
	if err != nil {
		if IsNotFound(err) {
			return model.SpecialHours{}, false, nil
		}
		return model.SpecialHours{}, false, translate("storage.GetSpecialHours", err)
	}
	s.OpenTime, s.CloseTime = clockPtr(open), clockPtr(close)
	return s, true, nil
}

func (r *HoursRepository) GetBusinessHours(ctx context.Context, businessID string, dayOfWeek int) (model.BusinessHours, bool, error) {
	h := model.BusinessHours{BusinessID: businessID, DayOfWeek: dayOfWeek}
	var open, close *int
	err := r.pool.QueryRow(ctx, `
		SELECT is_closed, open_minute, close_minute
		FROM business_hours
		WHERE business_id = $1::uuid AND day_of_week = $2
	`, businessID, dayOfWeek).Scan(&h.IsClosed, &open, &close)
	if err != nil {
		if IsNotFound(err) {
			return model.BusinessHours{}, false, nil
		}
		return model.BusinessHours{}, false, translate("storage.GetBusinessHours", err)
	}
	h.OpenTime, h.CloseTime = clockPtr(open), clockPtr(close)
	return h, true, nil
}

func clockPtr(minutes *int) *model.Clock {
	if minutes == nil {
		return nil
	}
	c := model.Clock(*minutes)
	return &c
}
