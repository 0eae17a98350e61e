package models

import "time"

const (
	// DateLayout формат даты на публичной границе (DD.MM.YYYY)
	DateLayout = "02.01.2006"

	// ProviderDateLayout формат даты, который ожидает и возвращает eBuSy
	ProviderDateLayout = "01/02/2006"

	// ClockLayout формат времени суток (24 часа)
	ClockLayout = "15:04"
)

const (
	// DefaultOpenHour первый час операционного окна
	DefaultOpenHour = 7

	// DefaultCloseHour час закрытия (в сетку не входит)
	DefaultCloseHour = 22

	// DefaultDuration длительность игры по умолчанию
	DefaultDuration = 60 * time.Minute

	// DefaultSearchRadiusHours радиус поиска альтернатив в часах
	DefaultSearchRadiusHours = 2
)

const (
	FetchStatusOK          = "ok"
	FetchStatusUnavailable = "unavailable"
	FetchStatusCached      = "cached"
)
