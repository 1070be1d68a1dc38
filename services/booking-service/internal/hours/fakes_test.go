package hours

import (
	"context"
	"time"

	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/salonbook/services/booking-service/internal/model"
)

type fakeRepo struct {
	businesses map[string]model.Business
	special    map[string]model.SpecialHours
	weekly     map[int]model.BusinessHours
	err        error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		businesses: map[string]model.Business{"biz-1": {ID: "biz-1", Name: "Salon", Timezone: "UTC"}},
		special:    map[string]model.SpecialHours{},
		weekly:     map[int]model.BusinessHours{},
	}
}

func (f *fakeRepo) GetBusiness(_ context.Context, id string) (model.Business, error) {
	b, ok := f.businesses[id]
	if !ok {
		return model.Business{}, apperr.NotFound("fake", "business")
	}
	return b, nil
}

func (f *fakeRepo) GetSpecialHours(_ context.Context, _ string, date time.Time) (model.SpecialHours, bool, error) {
	if f.err != nil {
		return model.SpecialHours{}, false, f.err
	}
	s, ok := f.special[date.Format(model.DateLayout)]
	return s, ok, nil
}

func (f *fakeRepo) GetBusinessHours(_ context.Context, _ string, dow int) (model.BusinessHours, bool, error) {
	h, ok := f.weekly[dow]
	return h, ok, nil
}

func clockPtr(h, m int) *model.Clock {
	c := model.NewClock(h, m)
	return &c
}

func (f *fakeRepo) open(dow int, from, to *model.Clock) {
	f.weekly[dow] = model.BusinessHours{BusinessID: "biz-1", DayOfWeek: dow, OpenTime: from, CloseTime: to}
}
