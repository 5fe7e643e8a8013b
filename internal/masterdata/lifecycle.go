package masterdata

import "context"

// ReferencedEntity abstracts the delete lifecycle shared by every master
// type: a row still referenced by historical records is deactivated, an
// orphaned row is removed outright.
type ReferencedEntity struct {
	IsReferenced func(ctx context.Context) (bool, error)
	SoftDelete   func(ctx context.Context) error
	HardDelete   func(ctx context.Context) error
}

// Delete applies the soft-or-hard delete decision and reports the outcome.
func (e ReferencedEntity) Delete(ctx context.Context) (DeleteOutcome, error) {
	referenced, err := e.IsReferenced(ctx)
	if err != nil {
		return 0, err
	}
	if referenced {
		return OutcomeDeactivated, e.SoftDelete(ctx)
	}
	return OutcomeRemoved, e.HardDelete(ctx)
}
