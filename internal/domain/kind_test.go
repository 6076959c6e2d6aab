package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindParameters(t *testing.T) {
	tests := []struct {
		kind     Kind
		param    bool
		required bool
	}{
		{KindNews, false, false},
		{KindHoroscope, false, false},
		{KindWeather, true, false},
		{KindExchange, false, false},
		{KindBicho, false, false},
		{KindRU, true, true},
		{KindRSS, true, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.param, tt.kind.Parameterized())
			assert.Equal(t, tt.required, tt.kind.LocationRequired())
			assert.NotEqual(t, string(tt.kind), tt.kind.Title())
		})
	}
	assert.Len(t, Kinds(), len(tests))
}

func TestRULocationName(t *testing.T) {
	assert.Equal(t, "Jardim Botânico", RULocationName("botanico"))
	assert.Equal(t, "novo", RULocationName("novo"))
	assert.Equal(t, "lottery", Kind("lottery").Title())
}
