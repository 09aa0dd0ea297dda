package ledger

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/rewear-exchange/internal/model"
	"github.com/iliyamo/rewear-exchange/internal/repository"
)

// In-memory stores standing in for the SQL repositories.  They ignore
// the *sql.Tx argument; transaction boundaries themselves are checked
// through the sqlmock expectations on Begin/Commit/Rollback.

type memUsers struct {
	users map[uint64]model.User
}

func (m *memUsers) GetTx(_ context.Context, _ *sql.Tx, id uint64) (model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return model.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *memUsers) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (model.User, error) {
	return m.GetTx(ctx, tx, id)
}

func (m *memUsers) SetPointsTx(_ context.Context, _ *sql.Tx, id uint64, points uint32) error {
	u := m.users[id]
	u.Points = points
	m.users[id] = u
	return nil
}

func (m *memUsers) CreditPointsTx(_ context.Context, _ *sql.Tx, id uint64, delta uint32) error {
	u := m.users[id]
	u.Points += delta
	m.users[id] = u
	return nil
}

type memItems struct {
	items map[uint64]model.Item
}

func (m *memItems) GetByID(_ context.Context, id uint64) (model.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return model.Item{}, repository.ErrItemNotFound
	}
	return it, nil
}

func (m *memItems) GetForUpdateTx(ctx context.Context, _ *sql.Tx, id uint64) (model.Item, error) {
	return m.GetByID(ctx, id)
}

func (m *memItems) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status string) error {
	it := m.items[id]
	it.Status = status
	m.items[id] = it
	return nil
}

func (m *memItems) BulkUpdateStatusTx(ctx context.Context, tx *sql.Tx, ids []uint64, status string) error {
	for _, id := range ids {
		if err := m.UpdateStatusTx(ctx, tx, id, status); err != nil {
			return err
		}
	}
	return nil
}

func (m *memItems) ApproveTx(_ context.Context, _ *sql.Tx, id uint64, pointsCost uint32) error {
	it := m.items[id]
	it.Status = model.ItemStatusAvailable
	it.PointsCost = pointsCost
	m.items[id] = it
	return nil
}

func (m *memItems) Delete(_ context.Context, id uint64) error {
	delete(m.items, id)
	return nil
}

type memSwaps struct {
	reqs     map[uint64]model.SwapRequest
	nextID   uint64
	messages []model.ChatMessage
}

func (m *memSwaps) CreateTx(_ context.Context, _ *sql.Tx, req *model.SwapRequest) error {
	m.nextID++
	req.ID = m.nextID
	m.reqs[req.ID] = *req
	return nil
}

func (m *memSwaps) GetForUpdateTx(_ context.Context, _ *sql.Tx, id uint64) (model.SwapRequest, error) {
	r, ok := m.reqs[id]
	if !ok {
		return model.SwapRequest{}, repository.ErrSwapNotFound
	}
	return r, nil
}

func (m *memSwaps) UpdateStatusTx(_ context.Context, _ *sql.Tx, id uint64, status string) error {
	r := m.reqs[id]
	r.Status = status
	m.reqs[id] = r
	return nil
}

func (m *memSwaps) SetDeliveredByTx(_ context.Context, _ *sql.Tx, id, actorID uint64) error {
	r := m.reqs[id]
	actor := actorID
	r.DeliveredBy = &actor
	m.reqs[id] = r
	return nil
}

func (m *memSwaps) AppendMessageTx(_ context.Context, _ *sql.Tx, msg *model.ChatMessage) error {
	msg.ID = uint64(len(m.messages) + 1)
	m.messages = append(m.messages, *msg)
	return nil
}

type memCategories struct {
	points map[string]uint32
}

func (m *memCategories) GetTx(_ context.Context, _ *sql.Tx, category string) (uint32, error) {
	v, ok := m.points[category]
	if !ok {
		return 0, repository.ErrCategoryNotFound
	}
	return v, nil
}

func (m *memCategories) Upsert(_ context.Context, category string, points uint32) error {
	m.points[category] = points
	return nil
}

type memRedemptions struct {
	rows []model.Redemption
}

func (m *memRedemptions) CreateTx(_ context.Context, _ *sql.Tx, red *model.Redemption) error {
	red.ID = uint64(len(m.rows) + 1)
	m.rows = append(m.rows, *red)
	return nil
}

type fixture struct {
	ledger *Ledger
	users  *memUsers
	items  *memItems
	swaps  *memSwaps
	cats   *memCategories
	reds   *memRedemptions
	mock   sqlmock.Sqlmock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	f := &fixture{
		users: &memUsers{users: map[uint64]model.User{}},
		items: &memItems{items: map[uint64]model.Item{}},
		swaps: &memSwaps{reqs: map[uint64]model.SwapRequest{}},
		cats:  &memCategories{points: map[string]uint32{}},
		reds:  &memRedemptions{},
		mock:  mock,
	}
	f.ledger = New(db, f.users, f.items, f.swaps, f.cats, f.reds)
	return f
}

func (f *fixture) verify(t *testing.T) {
	t.Helper()
	if err := f.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("transaction expectations: %v", err)
	}
}

func addr(city string) ShippingAddress {
	return ShippingAddress{FullName: "Asha Rao", Phone: "555-0101", Address: "12 Mill Rd", City: city, PostalCode: "411001"}
}

func TestRedeemInsufficientPointsLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.users.users[7] = model.User{ID: 7, Points: 30, City: "Pune"}
	f.users.users[8] = model.User{ID: 8, City: "Pune"}
	f.items.items[9] = model.Item{ID: 9, OwnerID: 8, PointsCost: 100, Status: model.ItemStatusAvailable}

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.ledger.Redeem(context.Background(), 7, 9, addr("Pune"))
	var ipe *InsufficientPointsError
	if !errors.As(err, &ipe) {
		t.Fatalf("err = %v, want InsufficientPointsError", err)
	}
	if ipe.Required != 100 || ipe.Available != 30 {
		t.Errorf("required/available = %d/%d, want 100/30", ipe.Required, ipe.Available)
	}
	if got := f.users.users[7].Points; got != 30 {
		t.Errorf("balance mutated on failure: %d", got)
	}
	if got := f.items.items[9].Status; got != model.ItemStatusAvailable {
		t.Errorf("item status mutated on failure: %s", got)
	}
	if len(f.reds.rows) != 0 {
		t.Errorf("redemption recorded on failure")
	}
	f.verify(t)
}

func TestRedeemDebitsTotalAndReservesItem(t *testing.T) {
	f := newFixture(t)
	f.users.users[7] = model.User{ID: 7, Points: 200, City: ""}
	f.users.users[8] = model.User{ID: 8, City: "Mumbai"}
	f.items.items[9] = model.Item{ID: 9, OwnerID: 8, PointsCost: 100, Status: model.ItemStatusAvailable}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	red, err := f.ledger.Redeem(context.Background(), 7, 9, addr("Pune"))
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if red.Surcharge != IntercitySurcharge || red.TotalDebit != 150 {
		t.Errorf("surcharge/total = %d/%d, want 50/150", red.Surcharge, red.TotalDebit)
	}
	if got := f.users.users[7].Points; got != 50 {
		t.Errorf("balance = %d, want exactly the total debited", got)
	}
	if got := f.items.items[9].Status; got != model.ItemStatusReserved {
		t.Errorf("item status = %s, want reserved", got)
	}
	if len(f.reds.rows) != 1 || f.reds.rows[0].City != "Pune" {
		t.Errorf("redemption row not recorded with destination city")
	}
	f.verify(t)
}

// The surcharge is priced from the shipping destination, not the
// profile city: an empty or same-city profile must not waive the
// intercity fee for a parcel going elsewhere.
func TestRedeemSurchargeFollowsShippingDestination(t *testing.T) {
	cases := []struct {
		name        string
		profileCity string
		shipCity    string
		surcharge   uint32
	}{
		{"destination matches uploader", "", "Mumbai", 0},
		{"intercity despite matching profile", "Mumbai", "Pune", IntercitySurcharge},
		{"intercity despite empty profile", "", "Pune", IntercitySurcharge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.users.users[7] = model.User{ID: 7, Points: 500, City: tc.profileCity}
			f.users.users[8] = model.User{ID: 8, City: "Mumbai"}
			f.items.items[9] = model.Item{ID: 9, OwnerID: 8, PointsCost: 100, Status: model.ItemStatusAvailable}

			f.mock.ExpectBegin()
			f.mock.ExpectCommit()

			red, err := f.ledger.Redeem(context.Background(), 7, 9, addr(tc.shipCity))
			if err != nil {
				t.Fatalf("redeem: %v", err)
			}
			if red.Surcharge != tc.surcharge {
				t.Errorf("surcharge = %d, want %d", red.Surcharge, tc.surcharge)
			}
			f.verify(t)
		})
	}
}

func TestRedeemRejectsMissingShippingCity(t *testing.T) {
	f := newFixture(t)
	f.users.users[7] = model.User{ID: 7, Points: 500}

	_, err := f.ledger.Redeem(context.Background(), 7, 9, addr(""))
	if err == nil {
		t.Fatalf("redeem without a destination city must fail")
	}
	f.verify(t)
}

func TestCreateSwapRequestLeavesItemsOnMarket(t *testing.T) {
	f := newFixture(t)
	f.items.items[5] = model.Item{ID: 5, OwnerID: 8, Title: "Wool coat", PointsCost: 120, Status: model.ItemStatusAvailable}
	f.items.items[2] = model.Item{ID: 2, OwnerID: 7, Title: "Denim jacket", PointsCost: 60, Status: model.ItemStatusAvailable}
	f.items.items[3] = model.Item{ID: 3, OwnerID: 7, Title: "Scarf", PointsCost: 30, Status: model.ItemStatusAvailable}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	req, err := f.ledger.CreateSwapRequest(context.Background(), 7, 5, []uint64{2, 3}, "interested?")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != model.SwapStatusProposed {
		t.Errorf("status = %s, want proposed", req.Status)
	}
	if req.PointsDifference != 30 {
		t.Errorf("points difference = %d, want 30", req.PointsDifference)
	}
	for _, id := range []uint64{5, 2, 3} {
		if got := f.items.items[id].Status; got != model.ItemStatusAvailable {
			t.Errorf("item %d status = %s, a proposal must not take items off the market", id, got)
		}
	}
	f.verify(t)
}

// Two users may propose against the same listing; only acceptance
// settles who gets it.
func TestCreateSwapRequestAllowsCompetingOffers(t *testing.T) {
	f := newFixture(t)
	f.items.items[5] = model.Item{ID: 5, OwnerID: 8, Title: "Wool coat", PointsCost: 120, Status: model.ItemStatusAvailable}
	f.items.items[2] = model.Item{ID: 2, OwnerID: 7, Title: "Denim jacket", PointsCost: 60, Status: model.ItemStatusAvailable}
	f.items.items[4] = model.Item{ID: 4, OwnerID: 6, Title: "Linen shirt", PointsCost: 40, Status: model.ItemStatusAvailable}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	if _, err := f.ledger.CreateSwapRequest(context.Background(), 7, 5, []uint64{2}, ""); err != nil {
		t.Fatalf("first proposal: %v", err)
	}
	if _, err := f.ledger.CreateSwapRequest(context.Background(), 6, 5, []uint64{4}, ""); err != nil {
		t.Fatalf("second proposal on the same listing: %v", err)
	}
	f.verify(t)
}

func seedSwap(f *fixture, status string) uint64 {
	f.items.items[5] = model.Item{ID: 5, OwnerID: 8, Title: "Wool coat", PointsCost: 120, Status: model.ItemStatusAvailable}
	f.items.items[2] = model.Item{ID: 2, OwnerID: 7, Title: "Denim jacket", PointsCost: 60, Status: model.ItemStatusAvailable}
	f.items.items[3] = model.Item{ID: 3, OwnerID: 7, Title: "Scarf", PointsCost: 30, Status: model.ItemStatusAvailable}
	f.swaps.nextID++
	id := f.swaps.nextID
	f.swaps.reqs[id] = model.SwapRequest{
		ID:            id,
		RequesterID:   7,
		TargetItemID:  5,
		TargetOwnerID: 8,
		Status:        status,
		OfferedItems: []model.OfferedItem{
			{ItemID: 2, Title: "Denim jacket", PointsCost: 60},
			{ItemID: 3, Title: "Scarf", PointsCost: 30},
		},
	}
	return id
}

func TestAcceptReservesTargetAndOfferedItems(t *testing.T) {
	f := newFixture(t)
	id := seedSwap(f, model.SwapStatusProposed)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	req, err := f.ledger.UpdateSwapStatus(context.Background(), id, 8, model.SwapStatusAccepted)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if req.Status != model.SwapStatusAccepted {
		t.Errorf("status = %s, want accepted", req.Status)
	}
	for _, itemID := range []uint64{5, 2, 3} {
		if got := f.items.items[itemID].Status; got != model.ItemStatusReserved {
			t.Errorf("item %d status = %s, want reserved after acceptance", itemID, got)
		}
	}
	if n := len(f.swaps.messages); n != 1 || f.swaps.messages[0].Kind != model.ChatKindSystem {
		t.Errorf("acceptance must append one system message, got %d", n)
	}
	f.verify(t)
}

func TestAcceptFailsWhenAnItemWasTaken(t *testing.T) {
	f := newFixture(t)
	id := seedSwap(f, model.SwapStatusProposed)
	it := f.items.items[2]
	it.Status = model.ItemStatusReserved // redeemed or promised elsewhere meanwhile
	f.items.items[2] = it

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.ledger.UpdateSwapStatus(context.Background(), id, 8, model.SwapStatusAccepted)
	if !errors.Is(err, ErrItemNotAvailable) {
		t.Fatalf("err = %v, want ErrItemNotAvailable", err)
	}
	for _, itemID := range []uint64{5, 3} {
		if got := f.items.items[itemID].Status; got != model.ItemStatusAvailable {
			t.Errorf("item %d status = %s, want untouched on failed acceptance", itemID, got)
		}
	}
	f.verify(t)
}

func TestRejectLeavesItemStatusesAlone(t *testing.T) {
	f := newFixture(t)
	id := seedSwap(f, model.SwapStatusProposed)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	req, err := f.ledger.UpdateSwapStatus(context.Background(), id, 8, model.SwapStatusRejected)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if req.Status != model.SwapStatusRejected {
		t.Errorf("status = %s, want rejected", req.Status)
	}
	for _, itemID := range []uint64{5, 2, 3} {
		if got := f.items.items[itemID].Status; got != model.ItemStatusAvailable {
			t.Errorf("item %d status = %s, rejection must not touch items", itemID, got)
		}
	}
	f.verify(t)
}

func TestRequesterCannotDecideOwnProposal(t *testing.T) {
	f := newFixture(t)
	id := seedSwap(f, model.SwapStatusProposed)

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.ledger.UpdateSwapStatus(context.Background(), id, 7, model.SwapStatusAccepted)
	var ue *UnauthorizedError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UnauthorizedError", err)
	}
	for _, itemID := range []uint64{5, 2, 3} {
		if got := f.items.items[itemID].Status; got != model.ItemStatusAvailable {
			t.Errorf("item %d status = %s, want untouched", itemID, got)
		}
	}
	f.verify(t)
}

func TestCompletedNeedsTheOtherParty(t *testing.T) {
	f := newFixture(t)
	id := seedSwap(f, model.SwapStatusDelivered)
	deliveredBy := uint64(8)
	r := f.swaps.reqs[id]
	r.DeliveredBy = &deliveredBy
	f.swaps.reqs[id] = r

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.ledger.UpdateSwapStatus(context.Background(), id, 8, model.SwapStatusCompleted)
	var ue *UnauthorizedError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want UnauthorizedError for the party that marked delivery", err)
	}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	req, err := f.ledger.UpdateSwapStatus(context.Background(), id, 7, model.SwapStatusCompleted)
	if err != nil {
		t.Fatalf("complete by the other party: %v", err)
	}
	if req.Status != model.SwapStatusCompleted {
		t.Errorf("status = %s, want completed", req.Status)
	}
	for _, itemID := range []uint64{5, 2, 3} {
		if got := f.items.items[itemID].Status; got != model.ItemStatusSwapped {
			t.Errorf("item %d status = %s, want swapped after completion", itemID, got)
		}
	}
	f.verify(t)
}
