package appointment

import "context"

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	Delete(ctx context.Context, id int) error
	DeleteByPatient(ctx context.Context, patientID int) error
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	// ListByPatient returns appointments in creation order.
	ListByPatient(ctx context.Context, patientID int) ([]*Appointment, error)
}
