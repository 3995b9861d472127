package models

import "time"

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

const (
	// DefaultHoldTTL время жизни неоплаченной брони
	DefaultHoldTTL = 15 * time.Minute

	// DefaultMaxAdvanceDays насколько далеко вперёд можно бронировать
	DefaultMaxAdvanceDays = 365

	// MaxRangeNights upper bound for a single stay or calendar operation
	MaxRangeNights = 366

	// DefaultPageSize размер страницы поиска по умолчанию
	DefaultPageSize = 20

	// MaxPageSize максимальный размер страницы поиска
	MaxPageSize = 100

	// MaxPageNumber номер страницы дальше которого поиск не листается
	MaxPageNumber = 100000

	// DefaultSweepBatchSize сколько просроченных броней обрабатывается за проход
	DefaultSweepBatchSize = 100

	// DefaultMaxStay используется, если владелец не задал max_stay
	DefaultMaxStay = 30

	// MaxPrice upper bound for any money field, in minor units
	MaxPrice = 10_000_000_000
)
