package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"medislot/internal/database"
	"medislot/internal/domain"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	// One connection: concurrent transactions serialize on the pool, which
	// stands in for the row-lock serialization Postgres provides.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func createSlot(t *testing.T, db *gorm.DB) *domain.Slot {
	t.Helper()

	doctor := &domain.Doctor{Name: "Dr. Test", Specialization: "General"}
	require.NoError(t, db.Create(doctor).Error)

	slot := &domain.Slot{
		DoctorID:  doctor.ID,
		StartTime: time.Now().UTC().Add(24 * time.Hour),
	}
	require.NoError(t, db.Create(slot).Error)
	return slot
}

func createUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()

	u := &domain.User{Email: email, PasswordHash: "x", Role: domain.RolePatient, Name: "Test"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func slotByID(t *testing.T, db *gorm.DB, id int64) *domain.Slot {
	t.Helper()

	var s domain.Slot
	require.NoError(t, db.First(&s, id).Error)
	return &s
}

func backdate(t *testing.T, db *gorm.DB, bookingID int64, age time.Duration) {
	t.Helper()

	require.NoError(t, db.Exec(
		"UPDATE bookings SET status_changed_at = ? WHERE id = ?",
		time.Now().UTC().Add(-age), bookingID,
	).Error)
}

func TestReserve_Success(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, slot.ID, b.SlotID)
	assert.True(t, slotByID(t, db, slot.ID).IsBooked)
}

func TestReserve_SlotNotFound(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	user := createUser(t, db, "a@test.dev")

	_, err := repo.Reserve(context.Background(), 12345, user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestReserve_AlreadyBooked(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	a := createUser(t, db, "a@test.dev")
	b := createUser(t, db, "b@test.dev")

	_, err := repo.Reserve(context.Background(), slot.ID, a.ID)
	require.NoError(t, err)

	_, err = repo.Reserve(context.Background(), slot.ID, b.ID)
	assert.ErrorIs(t, err, ErrSlotTaken)
}

func TestReserve_NoDoubleBookingUnderConcurrency(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)

	const n = 8
	users := make([]*domain.User, n)
	for i := range users {
		users[i] = createUser(t, db, string(rune('a'+i))+"@test.dev")
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Reserve(context.Background(), slot.ID, users[i].ID)
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, ErrSlotTaken)
		}
	}
	assert.Equal(t, 1, won, "exactly one concurrent reserve must win")

	var confirmed int64
	require.NoError(t, db.Model(&domain.Booking{}).
		Where("slot_id = ? AND status = ?", slot.ID, domain.BookingConfirmed).
		Count(&confirmed).Error)
	assert.EqualValues(t, 1, confirmed)
	assert.True(t, slotByID(t, db, slot.ID).IsBooked)
}

func TestHoldAndConfirm(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Hold(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.True(t, slotByID(t, db, slot.ID).IsBooked, "a hold keeps the slot unavailable")

	confirmed, err := repo.Confirm(context.Background(), b.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, confirmed.Status)

	// a second confirm finds the booking no longer pending
	_, err = repo.Confirm(context.Background(), b.ID, user.ID)
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestConfirm_WrongUser(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	a := createUser(t, db, "a@test.dev")
	b := createUser(t, db, "b@test.dev")

	held, err := repo.Hold(context.Background(), slot.ID, a.ID)
	require.NoError(t, err)

	_, err = repo.Confirm(context.Background(), held.ID, b.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestCancelOwn_ReleasesSlotImmediately(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)

	slotID, err := repo.CancelOwn(context.Background(), b.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, slotID)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.False(t, slotByID(t, db, slot.ID).IsBooked, "user cancel releases the slot in the same transaction")
}

func TestCancelOwn_NotOwner(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	a := createUser(t, db, "a@test.dev")
	other := createUser(t, db, "b@test.dev")

	b, err := repo.Reserve(context.Background(), slot.ID, a.ID)
	require.NoError(t, err)

	_, err = repo.CancelOwn(context.Background(), b.ID, other.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status, "failed cancel must not change state")
	assert.True(t, slotByID(t, db, slot.ID).IsBooked)
}

func TestBuffer_KeepsSlotHeld(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	before := time.Now().UTC()

	slotID, err := repo.Buffer(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, slot.ID, slotID)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingBuffer, got.Status)
	assert.False(t, got.StatusChangedAt.Before(before), "buffer must reset the deadline anchor")
	assert.True(t, slotByID(t, db, slot.ID).IsBooked, "admin cancel must not release the slot")
}

func TestBuffer_TerminalBookingRejected(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	_, err = repo.CancelOwn(context.Background(), b.ID, user.ID)
	require.NoError(t, err)

	_, err = repo.Buffer(context.Background(), b.ID)
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestSweep_FailsStalePending(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Hold(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	backdate(t, db, b.ID, 3*time.Minute)

	now := time.Now().UTC()
	res, err := repo.Sweep(context.Background(), now.Add(-2*time.Minute), now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.Released)
	assert.Equal(t, []int64{slot.ID}, res.FreedSlotIDs)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingFailed, got.Status)
	assert.False(t, slotByID(t, db, slot.ID).IsBooked)
}

func TestSweep_ReleasesStaleBuffer(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	_, err = repo.Buffer(context.Background(), b.ID)
	require.NoError(t, err)

	now := time.Now().UTC()

	// inside the buffer window: nothing to do
	res, err := repo.Sweep(context.Background(), now.Add(-2*time.Minute), now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 0, res.Released)
	assert.True(t, slotByID(t, db, slot.ID).IsBooked)

	backdate(t, db, b.ID, 11*time.Minute)

	res, err = repo.Sweep(context.Background(), now.Add(-2*time.Minute), now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 1, res.Released)

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingCancelled, got.Status)
	assert.False(t, slotByID(t, db, slot.ID).IsBooked)

	// released slot is bookable again
	b2, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, b2.Status)
}

func TestSweep_Idempotent(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Hold(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	backdate(t, db, b.ID, 3*time.Minute)

	now := time.Now().UTC()
	res, err := repo.Sweep(context.Background(), now.Add(-2*time.Minute), now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	res, err = repo.Sweep(context.Background(), now.Add(-2*time.Minute), now.Add(-10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 0, res.Released)
	assert.Empty(t, res.FreedSlotIDs)
}

func TestListByUser(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	_, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)

	rows, err := repo.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.BookingConfirmed, rows[0].Status)
	assert.Equal(t, "Dr. Test", rows[0].DoctorName)
	assert.Equal(t, "General", rows[0].Specialization)

	other, err := repo.ListByUser(context.Background(), user.ID+1)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestActiveBookingIndex_BlocksSecondInsert(t *testing.T) {
	db := setupDB(t)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	repo := NewBookingRepository(db)
	_, err := repo.Reserve(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)

	// bypass the engine: a direct insert of a second active booking must be
	// rejected by the partial unique index
	err = db.Create(&domain.Booking{
		SlotID:          slot.ID,
		UserID:          user.ID,
		Status:          domain.BookingConfirmed,
		StatusChangedAt: time.Now().UTC(),
	}).Error
	assert.Error(t, err)

	// a terminal historical booking for the same slot is fine
	err = db.Create(&domain.Booking{
		SlotID:          slot.ID,
		UserID:          user.ID,
		Status:          domain.BookingCancelled,
		StatusChangedAt: time.Now().UTC(),
	}).Error
	assert.NoError(t, err)
}

func TestReserveError_LeavesNoPartialState(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Reserve(ctx, slot.ID, user.ID)
	require.Error(t, err)

	var bookings int64
	require.NoError(t, db.Model(&domain.Booking{}).
		Where("slot_id = ?", slot.ID).
		Count(&bookings).Error)
	assert.Zero(t, bookings, "failed reserve must not leave a booking row")
	assert.False(t, slotByID(t, db, slot.ID).IsBooked)
}

func TestSweepError_RollsBackWholeBatch(t *testing.T) {
	db := setupDB(t)
	repo := NewBookingRepository(db)
	slot := createSlot(t, db)
	user := createUser(t, db, "a@test.dev")

	b, err := repo.Hold(context.Background(), slot.ID, user.ID)
	require.NoError(t, err)
	backdate(t, db, b.ID, 3*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = repo.Sweep(ctx, time.Now().UTC(), time.Now().UTC())
	require.Error(t, err)
	assert.False(t, errors.Is(err, gorm.ErrRecordNotFound))

	got, err := repo.GetByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingPending, got.Status, "failed sweep must leave state untouched")
	assert.True(t, slotByID(t, db, slot.ID).IsBooked)
}
