package database

// Calendar nights and stay boundaries are stored as YYYY-MM-DD text in both
// dialects; lexical order equals date order.

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            owner_id INTEGER NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL,
            country TEXT NOT NULL,
            city TEXT NOT NULL,
            address TEXT NOT NULL,
            property_type TEXT NOT NULL,
            guests_cnt INTEGER NOT NULL,
            bedrooms INTEGER NOT NULL,
            beds INTEGER NOT NULL,
            bathrooms INTEGER NOT NULL,
            base_price INTEGER NOT NULL,
            currency TEXT NOT NULL,
            cleaning_fee INTEGER NOT NULL DEFAULT 0,
            security_deposit INTEGER NOT NULL DEFAULT 0,
            weekend_multiplier REAL NOT NULL DEFAULT 1,
            min_stay INTEGER NOT NULL DEFAULT 1,
            max_stay INTEGER NOT NULL DEFAULT 30,
            status TEXT NOT NULL DEFAULT 'active',
            is_available BOOLEAN NOT NULL DEFAULT 1,
            last_booked_at DATETIME,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            CHECK (min_stay >= 1 AND min_stay <= max_stay)
        )`,
	`CREATE TABLE IF NOT EXISTS bookings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_number TEXT NOT NULL UNIQUE,
            room_id INTEGER NOT NULL REFERENCES rooms(id),
            guest_id INTEGER NOT NULL,
            guest_cnt INTEGER NOT NULL,
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'created',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            price_per_night INTEGER NOT NULL,
            total_amount INTEGER NOT NULL,
            currency TEXT NOT NULL,
            cancelled_by INTEGER,
            expires_at DATETIME NOT NULL,
            version INTEGER NOT NULL DEFAULT 1,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL,
            CHECK (check_in < check_out)
        )`,
	`CREATE TABLE IF NOT EXISTS calendar_days (
            room_id INTEGER NOT NULL REFERENCES rooms(id),
            night TEXT NOT NULL,
            price INTEGER,
            is_available BOOLEAN NOT NULL DEFAULT 1,
            is_blocked BOOLEAN NOT NULL DEFAULT 0,
            booking_id INTEGER REFERENCES bookings(id),
            PRIMARY KEY (room_id, night)
        )`,

	`CREATE INDEX IF NOT EXISTS idx_rooms_location ON rooms(country, city)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_owner_id ON rooms(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_room_id ON bookings(room_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_guest_id ON bookings(guest_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status_expires ON bookings(status, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_days_booking_id ON calendar_days(booking_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
            id BIGSERIAL PRIMARY KEY,
            owner_id BIGINT NOT NULL,
            title TEXT NOT NULL,
            description TEXT NOT NULL,
            country TEXT NOT NULL,
            city TEXT NOT NULL,
            address TEXT NOT NULL,
            property_type TEXT NOT NULL,
            guests_cnt INTEGER NOT NULL,
            bedrooms INTEGER NOT NULL,
            beds INTEGER NOT NULL,
            bathrooms INTEGER NOT NULL,
            base_price BIGINT NOT NULL,
            currency TEXT NOT NULL,
            cleaning_fee BIGINT NOT NULL DEFAULT 0,
            security_deposit BIGINT NOT NULL DEFAULT 0,
            weekend_multiplier DOUBLE PRECISION NOT NULL DEFAULT 1,
            min_stay INTEGER NOT NULL DEFAULT 1,
            max_stay INTEGER NOT NULL DEFAULT 30,
            status TEXT NOT NULL DEFAULT 'active',
            is_available BOOLEAN NOT NULL DEFAULT TRUE,
            last_booked_at TIMESTAMPTZ,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            CHECK (min_stay >= 1 AND min_stay <= max_stay)
        )`,
	`CREATE TABLE IF NOT EXISTS bookings (
            id BIGSERIAL PRIMARY KEY,
            booking_number TEXT NOT NULL UNIQUE,
            room_id BIGINT NOT NULL REFERENCES rooms(id),
            guest_id BIGINT NOT NULL,
            guest_cnt INTEGER NOT NULL,
            check_in TEXT NOT NULL,
            check_out TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'created',
            payment_status TEXT NOT NULL DEFAULT 'pending',
            price_per_night BIGINT NOT NULL,
            total_amount BIGINT NOT NULL,
            currency TEXT NOT NULL,
            cancelled_by BIGINT,
            expires_at TIMESTAMPTZ NOT NULL,
            version BIGINT NOT NULL DEFAULT 1,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL,
            CHECK (check_in < check_out)
        )`,
	`CREATE TABLE IF NOT EXISTS calendar_days (
            room_id BIGINT NOT NULL REFERENCES rooms(id),
            night TEXT NOT NULL,
            price BIGINT,
            is_available BOOLEAN NOT NULL DEFAULT TRUE,
            is_blocked BOOLEAN NOT NULL DEFAULT FALSE,
            booking_id BIGINT REFERENCES bookings(id),
            PRIMARY KEY (room_id, night)
        )`,

	`CREATE INDEX IF NOT EXISTS idx_rooms_location ON rooms(country, city)`,
	`CREATE INDEX IF NOT EXISTS idx_rooms_owner_id ON rooms(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_room_id ON bookings(room_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_guest_id ON bookings(guest_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status_expires ON bookings(status, expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_calendar_days_booking_id ON calendar_days(booking_id)`,
}
