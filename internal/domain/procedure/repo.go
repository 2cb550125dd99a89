package procedure

import "context"

type Repository interface {
	Create(ctx context.Context, p *Procedure) error
	GetByID(ctx context.Context, id int) (*Procedure, error)
	GetByAppointment(ctx context.Context, appointmentID int) (*Procedure, error)
	Update(ctx context.Context, p *Procedure) error
	Delete(ctx context.Context, id int) error
	DeleteByAppointment(ctx context.Context, appointmentID int) error
	List(ctx context.Context, limit, offset int) ([]*Procedure, int, error)
	// ListByPatient returns the procedures of every appointment of a patient.
	ListByPatient(ctx context.Context, patientID int) ([]*Procedure, error)
}
