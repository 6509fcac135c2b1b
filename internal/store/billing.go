package store

import (
	"healthsync/internal/client"
	"healthsync/internal/device"
	"healthsync/internal/model"

	"github.com/pkg/errors"
)

// Billing is the slice of the billing adapter the store consumes.
type Billing interface {
	StripeSubscriptionGet(subscriptionID string) (client.StripeSubscription, error)
}

// RefreshSubscription pulls the current billing status and persists it
// under the subscription snapshot, so entitlement checks can render the
// last known state while offline.
func (s *Store) RefreshSubscription(subscriptionID string) (model.Subscription, error) {
	if s.Billing == nil {
		return model.Subscription{}, errors.New("no billing adapter configured")
	}
	userID := s.profileID()
	if userID == "" {
		return model.Subscription{}, ErrNoProfile
	}

	stripeSub, err := s.Billing.StripeSubscriptionGet(subscriptionID)
	if err != nil {
		return model.Subscription{}, errors.Wrapf(err, "error refreshing subscription with ID: %s", subscriptionID)
	}
	sub := model.Subscription{
		UserID:           userID,
		CustomerID:       stripeSub.Customer,
		SubscriptionID:   stripeSub.ID,
		Plan:             stripeSub.Plan.Nickname,
		Status:           stripeSub.Status,
		CurrentPeriodEnd: stripeSub.PeriodEnd(),
	}
	s.Snapshots.Put(device.SnapshotKeySubscription, sub)
	return sub, nil
}

// StoredSubscription returns the last persisted billing state, or
// device.ErrNoSnapshot when none has been refreshed yet.
func (s *Store) StoredSubscription() (model.Subscription, error) {
	var sub model.Subscription
	err := s.Snapshots.Get(device.SnapshotKeySubscription, &sub)
	return sub, err
}
