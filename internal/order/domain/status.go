package domain

// Order status codes. The same integer means a different stage for
// prepaid and non-prepaid orders; DeriveStatus owns the mapping.
const (
	statusAwaitingPickupPrepaid = 4
	statusAwaitingPickup        = 3
	statusInTransitPrepaid      = 3
	statusInTransit             = 2
	statusFinishedPrepaid       = 5
	statusFinished              = 4
)

// DeriveStatus computes an order's status code and terminal flag from
// its package set. It is a pure function: callers recompute it after
// every package mutation instead of setting the status directly.
//
// A package awaiting pickup (arrived in the destination country, not
// yet received) dominates; otherwise a package still in transit
// domestically; otherwise every package has been received and the order
// is finished.
func DeriveStatus(isPrepaid bool, packages []Package) (status int, finished bool) {
	awaitingPickup := false
	inTransit := false
	for _, pkg := range packages {
		if pkg.Received {
			continue
		}
		if pkg.ArrivedDestination {
			awaitingPickup = true
			break
		}
		if pkg.Arrived {
			inTransit = true
		}
	}

	switch {
	case awaitingPickup:
		if isPrepaid {
			return statusAwaitingPickupPrepaid, false
		}
		return statusAwaitingPickup, false
	case inTransit:
		if isPrepaid {
			return statusInTransitPrepaid, false
		}
		return statusInTransit, false
	default:
		if isPrepaid {
			return statusFinishedPrepaid, true
		}
		return statusFinished, true
	}
}
