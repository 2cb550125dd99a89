package alert

import "context"

type Repository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id int) (*Alert, error)
	// FindByPatientAndType matches the type ignoring case.
	FindByPatientAndType(ctx context.Context, patientID int, alertType string) (*Alert, error)
	Update(ctx context.Context, a *Alert) error
	Delete(ctx context.Context, id int) error
	DeleteAll(ctx context.Context) (int64, error)
	DeleteByPatient(ctx context.Context, patientID int) error
	List(ctx context.Context) ([]*Alert, error)
	ListByPatient(ctx context.Context, patientID int) ([]*Alert, error)
	ListByType(ctx context.Context, alertType string) ([]*Alert, error)
}
