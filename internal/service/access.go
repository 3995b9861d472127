package service

import (
	"stayhub/internal/domain"
	"stayhub/internal/models"
)

func ownsRoom(p models.Principal, room *models.Room) bool {
	return room.OwnerID == p.UserID
}

// canManageRoom: room owner or admin.
func canManageRoom(p models.Principal, room *models.Room) error {
	if p.IsAdmin() || ownsRoom(p, room) {
		return nil
	}
	return domain.Forbidden("user %d does not manage room %d", p.UserID, room.ID)
}

// canViewBooking: the guest, the room owner or an admin.
func canViewBooking(p models.Principal, b *models.Booking, room *models.Room) error {
	if p.IsAdmin() || b.GuestID == p.UserID || ownsRoom(p, room) {
		return nil
	}
	return domain.Forbidden("user %d has no access to booking %d", p.UserID, b.ID)
}

func canConfirm(p models.Principal, b *models.Booking, _ *models.Room) error {
	if p.IsAdmin() || b.GuestID == p.UserID {
		return nil
	}
	return domain.Forbidden("only the guest can confirm booking %d", b.ID)
}

func canReject(p models.Principal, b *models.Booking, room *models.Room) error {
	if p.IsAdmin() || ownsRoom(p, room) {
		return nil
	}
	return domain.Forbidden("only the room owner can reject booking %d", b.ID)
}

// canSeeRoom hides non-active listings from everyone but their managers.
func canSeeRoom(p models.Principal, room *models.Room) bool {
	return room.Status == models.RoomStatusActive || p.IsAdmin() || ownsRoom(p, room)
}
