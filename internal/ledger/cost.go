package ledger

// IntercitySurcharge is the flat shipping surcharge, in points,
// applied when the item's uploader and the acquiring user live in
// different cities.  There is no distance model; the split is binary.
const IntercitySurcharge uint32 = 50

// ShippingSurcharge returns the points surcharge for shipping an item
// from itemCity to userCity.  Cities compare by case-sensitive exact
// match.  When userCity is empty (no authenticated user) the
// surcharge is 0: the value means "unknown", not "free", and callers
// presenting a quote must label it accordingly.
func ShippingSurcharge(itemCity, userCity string) uint32 {
	if userCity == "" || itemCity == userCity {
		return 0
	}
	return IntercitySurcharge
}

// TotalCost returns the full points price of acquiring an item: its
// points cost plus the shipping surcharge between the uploader's city
// and the acquiring user's city.
func TotalCost(pointsCost uint32, itemCity, userCity string) uint32 {
	return pointsCost + ShippingSurcharge(itemCity, userCity)
}

// PointsDifference returns the advisory balance of a swap proposal:
// the target item's cost minus the summed costs of the offered items.
// A positive result means the requester offers less value than the
// target is worth; a negative result means the requester offers more.
// The value is independent of the order of the offered items.
func PointsDifference(targetCost uint32, offeredCosts []uint32) int64 {
	offered := int64(0)
	for _, c := range offeredCosts {
		offered += int64(c)
	}
	return int64(targetCost) - offered
}
