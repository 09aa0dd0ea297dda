package ledger

import "testing"

func TestShippingSurcharge(t *testing.T) {
	cases := []struct {
		name     string
		itemCity string
		userCity string
		want     uint32
	}{
		{"same city", "Mumbai", "Mumbai", 0},
		{"different city", "Mumbai", "Delhi", IntercitySurcharge},
		{"case sensitive match", "Mumbai", "mumbai", IntercitySurcharge},
		{"unknown user city", "Mumbai", "", 0},
		{"both empty", "", "", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShippingSurcharge(tc.itemCity, tc.userCity); got != tc.want {
				t.Errorf("ShippingSurcharge(%q, %q) = %d, want %d", tc.itemCity, tc.userCity, got, tc.want)
			}
		})
	}
}

func TestTotalCost(t *testing.T) {
	// 400-point item shipped between cities costs 450
	if got := TotalCost(400, "Mumbai", "Delhi"); got != 450 {
		t.Errorf("intercity total = %d, want 450", got)
	}
	if got := TotalCost(400, "Mumbai", "Mumbai"); got != 400 {
		t.Errorf("same-city total = %d, want 400", got)
	}
	if got := TotalCost(0, "Mumbai", "Delhi"); got != IntercitySurcharge {
		t.Errorf("zero-cost item total = %d, want %d", got, IntercitySurcharge)
	}
}

func TestPointsDifference(t *testing.T) {
	// requester offers 150 + 100 against a 400-point target and owes 150
	if got := PointsDifference(400, []uint32{150, 100}); got != 150 {
		t.Errorf("difference = %d, want 150", got)
	}
	// offering more than the target yields a negative difference
	if got := PointsDifference(200, []uint32{150, 100}); got != -50 {
		t.Errorf("difference = %d, want -50", got)
	}
	if got := PointsDifference(300, nil); got != 300 {
		t.Errorf("difference with no offers = %d, want 300", got)
	}
	// order of offered items must not matter
	a := PointsDifference(500, []uint32{10, 200, 45})
	b := PointsDifference(500, []uint32{45, 10, 200})
	if a != b {
		t.Errorf("difference depends on order: %d vs %d", a, b)
	}
}

func TestQuoteFor(t *testing.T) {
	q := QuoteFor(400, "Mumbai", "Delhi")
	if q.ItemCost != 400 || q.Surcharge != 50 || q.Total != 450 {
		t.Errorf("unexpected quote: %+v", q)
	}
	if q.SurchargeUnknown {
		t.Errorf("surcharge should be known for an authenticated viewer")
	}

	guest := QuoteFor(400, "Mumbai", "")
	if guest.Surcharge != 0 || guest.Total != 400 {
		t.Errorf("unexpected guest quote: %+v", guest)
	}
	if !guest.SurchargeUnknown {
		t.Errorf("guest quote must flag the surcharge as unknown")
	}
}

func TestInsufficientPointsDeficit(t *testing.T) {
	e := &InsufficientPointsError{Required: 450, Available: 300}
	if got := e.Deficit(); got != 150 {
		t.Errorf("deficit = %d, want 150", got)
	}
	ok := &InsufficientPointsError{Required: 100, Available: 100}
	if got := ok.Deficit(); got != 0 {
		t.Errorf("deficit = %d, want 0", got)
	}
}
