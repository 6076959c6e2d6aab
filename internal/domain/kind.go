package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownKind = errors.New("неизвестный тип контента")

// Kind: тип контента, который бот умеет доставлять в чат.
type Kind string

const (
	KindNews      Kind = "news"
	KindHoroscope Kind = "horoscope"
	KindWeather   Kind = "weather"
	KindExchange  Kind = "exchange"
	KindBicho     Kind = "bicho"
	KindRU        Kind = "ru"
	KindRSS       Kind = "rss"
)

var kinds = []Kind{
	KindNews,
	KindHoroscope,
	KindWeather,
	KindExchange,
	KindBicho,
	KindRU,
	KindRSS,
}

var kindTitles = map[Kind]string{
	KindNews:      "📰 Notícias",
	KindHoroscope: "🔮 Horóscopo",
	KindWeather:   "🌤️ Previsão do Tempo",
	KindExchange:  "💱 Cotações",
	KindBicho:     "🎲 Jogo do Bicho",
	KindRU:        "🍽️ Cardápio RU",
	KindRSS:       "🌐 RSS",
}

// Kinds возвращает полный (закрытый) список типов в порядке отображения в меню.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

func ParseKind(s string) (Kind, error) {
	for _, k := range kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) Title() string {
	if t, ok := kindTitles[k]; ok {
		return t
	}
	return string(k)
}

// Parameterized сообщает, принимает ли тип параметр location.
func (k Kind) Parameterized() bool {
	switch k {
	case KindRU, KindRSS, KindWeather:
		return true
	}
	return false
}

// LocationRequired: для ru и rss без location доставлять нечего.
func (k Kind) LocationRequired() bool {
	return k == KindRU || k == KindRSS
}

// Коды столовых UFPR и их названия.
var RULocations = []Location{
	{Code: "politecnico", Name: "Politécnico"},
	{Code: "agrarias", Name: "Agrárias"},
	{Code: "botanico", Name: "Jardim Botânico"},
	{Code: "central", Name: "Central"},
	{Code: "toledo", Name: "Toledo"},
	{Code: "mirassol", Name: "Mirassol"},
	{Code: "jandaia", Name: "Jandaia do Sul"},
	{Code: "palotina", Name: "Palotina"},
	{Code: "cem", Name: "CEM"},
	{Code: "matinhos", Name: "Matinhos"},
}

type Location struct {
	Code string
	Name string
}

// RULocationName возвращает название столовой или сам код, если он неизвестен.
func RULocationName(code string) string {
	for _, l := range RULocations {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}

// Знаки в порядке меню; Code совпадает с маркером в выводе horoscopo.sh.
var ZodiacSigns = []Location{
	{Code: "aries", Name: "♈ Áries"},
	{Code: "touro", Name: "♉ Touro"},
	{Code: "gemeos", Name: "♊ Gêmeos"},
	{Code: "cancer", Name: "♋ Câncer"},
	{Code: "leao", Name: "♌ Leão"},
	{Code: "virgem", Name: "♍ Virgem"},
	{Code: "libra", Name: "♎ Libra"},
	{Code: "escorpiao", Name: "♏ Escorpião"},
	{Code: "sagitario", Name: "♐ Sagitário"},
	{Code: "capricornio", Name: "♑ Capricórnio"},
	{Code: "aquario", Name: "♒ Aquário"},
	{Code: "peixes", Name: "♓ Peixes"},
}
