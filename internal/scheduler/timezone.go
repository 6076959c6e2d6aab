package scheduler

import (
	"time"

	"hcbot/internal/domain"
)

// Converter переводит местное время суток в опорное (UTC).
type Converter struct {
	loc *time.Location
	now func() time.Time
}

func NewConverter(loc *time.Location, now func() time.Time) *Converter {
	if now == nil {
		now = time.Now
	}
	return &Converter{loc: loc, now: now}
}

func (c *Converter) Location() *time.Location { return c.loc }

// ToReference считает local как время *сегодняшнего* дня в зоне c.loc, т.е. смещение летнего
// времени берётся на дату регистрации. Если зона переходит на летнее время позже, задача
// продолжает срабатывать в то же время UTC и местное время срабатывания сдвигается.
func (c *Converter) ToReference(local string) (domain.Clock, error) {
	clk, err := domain.ParseLocalTime(local)
	if err != nil {
		return domain.Clock{}, err
	}
	today := c.now().In(c.loc)
	lt := time.Date(today.Year(), today.Month(), today.Day(), clk.Hour, clk.Minute, 0, 0, c.loc)
	utc := lt.UTC()
	return domain.Clock{Hour: utc.Hour(), Minute: utc.Minute()}, nil
}
