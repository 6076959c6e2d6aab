package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidTime = errors.New("неверный формат времени, должен быть HH:MM")

// Entry описывает одну ежедневную рассылку чата.
type Entry struct {
	Time     string `json:"time"`
	Type     Kind   `json:"type"`
	Location string `json:"location,omitempty"`
}

// Clock: время суток без даты и зоны.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseLocalTime разбирает "HH:MM" (24 часа, без секунд).
func ParseLocalTime(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	h, err := parseTwoDigits(parts[0])
	if err != nil || h > 23 {
		return Clock{}, fmt.Errorf("%w: час %q", ErrInvalidTime, parts[0])
	}
	m, err := parseTwoDigits(parts[1])
	if err != nil || m > 59 {
		return Clock{}, fmt.Errorf("%w: минуты %q", ErrInvalidTime, parts[1])
	}
	return Clock{Hour: h, Minute: m}, nil
}

func parseTwoDigits(s string) (int, error) {
	if len(s) == 0 || len(s) > 2 {
		return 0, errors.New("expected 1-2 digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("expected digits")
		}
	}
	return strconv.Atoi(s)
}

// JobName строит составное имя задачи chat:type:time:location.
func JobName(chatID int64, e Entry) string {
	return fmt.Sprintf("%d:%s:%s:%s", chatID, e.Type, e.Time, e.Location)
}

// ChatPrefix возвращает префикс имён всех задач чата.
func ChatPrefix(chatID int64) string {
	return strconv.FormatInt(chatID, 10) + ":"
}

// Validate проверяет запись так же, как это делается при восстановлении задач после рестарта.
func (e Entry) Validate() error {
	if _, err := ParseLocalTime(e.Time); err != nil {
		return err
	}
	if _, err := ParseKind(string(e.Type)); err != nil {
		return err
	}
	if e.Type.LocationRequired() && e.Location == "" {
		return fmt.Errorf("для типа %s нужен location", e.Type)
	}
	return nil
}
