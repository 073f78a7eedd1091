package domain

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusRefunded},
	StatusConfirmed:  {StatusProcessing, StatusCancelled, StatusRefunded},
	StatusProcessing: {StatusShipped, StatusCancelled, StatusRefunded},
	StatusShipped:    {StatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
		StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// Terminal states are never left again, neither by admins nor by payments.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusRefunded
}

// ReleasesStock reports whether entering s gives reserved stock back.
func (s OrderStatus) ReleasesStock() bool {
	return s == StatusCancelled || s == StatusRefunded
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition returns an *InvalidTransitionError for edges outside the graph.
func CheckTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	}
	return false
}

// rank orders payment statuses so late or replayed webhooks cannot move a
// payment backwards. A failed attempt may still be followed by a paid retry.
func (s PaymentStatus) rank() int {
	switch s {
	case PaymentPending:
		return 0
	case PaymentFailed:
		return 1
	case PaymentPaid:
		return 2
	case PaymentRefunded, PaymentCancelled:
		return 3
	}
	return -1
}

// Supersedes reports whether s may overwrite current.
func (s PaymentStatus) Supersedes(current PaymentStatus) bool {
	return s.rank() > current.rank()
}
