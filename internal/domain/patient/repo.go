package patient

import "context"

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int) (*Patient, error)
	GetByCPF(ctx context.Context, cpf string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	ListAll(ctx context.Context) ([]*Patient, error)
	ListByCompany(ctx context.Context, company string) ([]*Patient, error)
	ListCompanies(ctx context.Context) ([]string, error)
	// AdjustConsultations adds delta to the visit counter, flooring at zero.
	AdjustConsultations(ctx context.Context, id int, delta int) error
}
