package database

import (
	"context"
	"strings"
	"time"

	"stayhub/internal/domain"
	"stayhub/internal/models"

	"github.com/jmoiron/sqlx"
)

const roomColumns = `id, owner_id, title, description, country, city, address, property_type,
	guests_cnt, bedrooms, beds, bathrooms, base_price, currency, cleaning_fee,
	security_deposit, weekend_multiplier, min_stay, max_stay, status, is_available,
	last_booked_at, created_at, updated_at`

func (s *store) CreateRoom(ctx context.Context, room *models.Room) error {
	now := time.Now().UTC()
	room.CreatedAt = now
	room.UpdatedAt = now

	query := `INSERT INTO rooms (
				owner_id, title, description, country, city, address, property_type,
				guests_cnt, bedrooms, beds, bathrooms, base_price, currency, cleaning_fee,
				security_deposit, weekend_multiplier, min_stay, max_stay, status, is_available,
				last_booked_at, created_at, updated_at
			) VALUES (
				:owner_id, :title, :description, :country, :city, :address, :property_type,
				:guests_cnt, :bedrooms, :beds, :bathrooms, :base_price, :currency, :cleaning_fee,
				:security_deposit, :weekend_multiplier, :min_stay, :max_stay, :status, :is_available,
				:last_booked_at, :created_at, :updated_at
			) RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, s.q, query, room)
	if err != nil {
		return domain.Storage("insert room", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.Storage("insert room", err)
		}
		return domain.Storage("insert room", errNoReturnedID)
	}
	if err := rows.Scan(&room.ID); err != nil {
		return domain.Storage("scan room id", err)
	}
	return nil
}

func (s *store) GetRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.getRoom(ctx, id, "")
}

func (s *store) LockRoom(ctx context.Context, id int64) (*models.Room, error) {
	return s.getRoom(ctx, id, s.forUpdate)
}

func (s *store) getRoom(ctx context.Context, id int64, suffix string) (*models.Room, error) {
	var room models.Room
	query := s.rebind(`SELECT ` + roomColumns + ` FROM rooms WHERE id = ?` + suffix)
	if err := sqlx.GetContext(ctx, s.q, &room, query, id); err != nil {
		return nil, notFoundOr(err, "room", id, "get room")
	}
	return &room, nil
}

func (s *store) UpdateRoom(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now().UTC()

	query := `UPDATE rooms SET
				title = :title, description = :description, country = :country, city = :city,
				address = :address, property_type = :property_type, guests_cnt = :guests_cnt,
				bedrooms = :bedrooms, beds = :beds, bathrooms = :bathrooms, base_price = :base_price,
				currency = :currency, cleaning_fee = :cleaning_fee, security_deposit = :security_deposit,
				weekend_multiplier = :weekend_multiplier, min_stay = :min_stay, max_stay = :max_stay,
				status = :status, is_available = :is_available, updated_at = :updated_at
			WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, s.q, query, room)
	if err != nil {
		return domain.Storage("update room", err)
	}
	n, err := rowsAffected(res, "update room")
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.NotFound("room", room.ID)
	}
	return nil
}

func (s *store) TouchLastBooked(ctx context.Context, id int64, at time.Time) error {
	query := s.rebind(`UPDATE rooms SET last_booked_at = ?, updated_at = ? WHERE id = ?`)
	if _, err := s.q.ExecContext(ctx, query, at.UTC(), time.Now().UTC(), id); err != nil {
		return domain.Storage("touch room", err)
	}
	return nil
}

// SearchRooms lists active rooms matching f. Rooms with no seeded nights are
// never listed. With a date range only rooms whose every night in r is seeded
// and free qualify.
func (s *store) SearchRooms(ctx context.Context, f models.RoomFilter, r *models.DateRange, p models.Page) ([]*models.Room, error) {
	var (
		where = []string{"r.status = ?", "r.is_available"}
		args  = []any{models.RoomStatusActive}
	)

	if f.Country != "" {
		where = append(where, "LOWER(r.country) = LOWER(?)")
		args = append(args, strings.TrimSpace(f.Country))
	}
	if f.City != "" {
		where = append(where, "LOWER(r.city) = LOWER(?)")
		args = append(args, strings.TrimSpace(f.City))
	}
	if f.Guests > 0 {
		where = append(where, "r.guests_cnt >= ?")
		args = append(args, f.Guests)
	}
	if f.MinPrice > 0 {
		where = append(where, "r.base_price >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where = append(where, "r.base_price <= ?")
		args = append(args, f.MaxPrice)
	}
	if r != nil {
		nights := r.Nights()
		where = append(where,
			"r.min_stay <= ?",
			"r.max_stay >= ?",
			`(SELECT COUNT(*) FROM calendar_days c
				WHERE c.room_id = r.id AND c.night >= ? AND c.night < ? AND `+bookableClause("c")+`) = ?`,
		)
		args = append(args, nights, nights, models.FormatDate(r.CheckIn), models.FormatDate(r.CheckOut), nights)
	} else {
		where = append(where, "EXISTS (SELECT 1 FROM calendar_days c WHERE c.room_id = r.id)")
	}

	query := `SELECT ` + prefixColumns("r", roomColumns) + ` FROM rooms r WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY r.id LIMIT ? OFFSET ?`
	args = append(args, p.Size, p.Offset())

	rooms := []*models.Room{}
	if err := sqlx.SelectContext(ctx, s.q, &rooms, s.rebind(query), args...); err != nil {
		return nil, domain.Storage("search rooms", err)
	}
	return rooms, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}
