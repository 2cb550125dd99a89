// Package seed fills an empty database with demo patients, their visit
// history and the procedures billed on each visit.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/smartdent/smartdent/internal/catalog"
	"github.com/smartdent/smartdent/internal/domain/appointment"
	"github.com/smartdent/smartdent/internal/domain/patient"
	"github.com/smartdent/smartdent/internal/domain/procedure"
	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
)

// PreventionCategory supplies the procedure repeated for moderate users.
const PreventionCategory = "Prevenção e Profilaxia"

type PatientCreator interface {
	Create(ctx context.Context, p *patient.Patient) error
}

type CounterAdjuster interface {
	AdjustConsultations(ctx context.Context, id int, delta int) error
}

type AppointmentWriter interface {
	Create(ctx context.Context, a *appointment.Appointment) error
}

type ProcedureWriter interface {
	Create(ctx context.Context, p *procedure.Procedure) error
}

// Stores groups the writers used by the seeder. Appointments and procedures
// go straight to the repositories so that visits may lie in the past.
type Stores struct {
	Patients     PatientCreator
	Counters     CounterAdjuster
	Appointments AppointmentWriter
	Procedures   ProcedureWriter
	Tx           db.Transactor
}

type Options struct {
	Patients int
	// Seed makes a run reproducible; zero picks a random seed.
	Seed uint64
	Now  time.Time
}

type Result struct {
	Patients     int
	Appointments int
	Procedures   int
}

type Seeder struct {
	stores Stores
	cat    *catalog.Catalog
	logger zerolog.Logger
}

func New(stores Stores, cat *catalog.Catalog, logger zerolog.Logger) *Seeder {
	if stores.Tx == nil {
		stores.Tx = db.NopTransactor{}
	}
	return &Seeder{stores: stores, cat: cat, logger: logger}
}

var (
	names = []string{
		"João Almeida", "Larissa Oliveira Silva", "Carlos Pereira",
		"Mariana Santos", "Bruno Costa", "Fernanda Souza",
		"Rafael Lima", "Patrícia Gomes", "André Martins",
		"Carolina Dias", "Eduardo Rocha", "Juliana Barbosa",
		"Diego Carvalho", "Renata Castro", "Victor Mendes",
		"Aline Ferreira", "Leonardo Nascimento", "Camila Figueiredo",
		"Gabriel Teixeira", "Bianca Ramos",
	}
	companies = []string{
		"Petrobras", "Vale", "Itaú Unibanco", "Bradesco", "Banco do Brasil",
		"Ambev", "Embraer", "Magazine Luiza", "Natura", "Gerdau",
		"Santander", "WEG", "Localiza", "Lojas Renner", "Mercado Livre",
		"Stone", "Totvs", "Hering", "Arezzo", "Klabin",
	}
	cities = []string{
		"São Paulo", "Rio de Janeiro", "Brasília", "Salvador", "Fortaleza",
		"Belo Horizonte", "Manaus", "Curitiba", "Recife", "Porto Alegre",
		"Belém", "Goiânia", "Campinas", "Florianópolis", "Santos",
		"Joinville", "Londrina", "Niterói", "Maringá", "Ribeirão Preto",
	}
)

// Run creates opts.Patients patients. Each patient and its history is
// written in one transaction; a failed patient aborts the run.
func (s *Seeder) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	if opts.Patients <= 0 {
		return res, apperr.Validation("number of patients must be positive")
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x5eed))
	g := &generator{rng: rng, cat: s.cat, start: now.AddDate(-1, 0, 0)}

	for i := 0; i < opts.Patients; i++ {
		p := g.patient()
		visits := g.history()
		err := s.stores.Tx.InTx(ctx, func(ctx context.Context) error {
			if err := s.createPatient(ctx, g, p); err != nil {
				return err
			}
			for _, v := range visits {
				v.appt.PatientID = p.ID
				if err := s.stores.Appointments.Create(ctx, v.appt); err != nil {
					return fmt.Errorf("create appointment: %w", err)
				}
				v.proc.AppointmentID = v.appt.ID
				if err := s.stores.Procedures.Create(ctx, v.proc); err != nil {
					return fmt.Errorf("create procedure: %w", err)
				}
			}
			return s.stores.Counters.AdjustConsultations(ctx, p.ID, len(visits))
		})
		if err != nil {
			return res, fmt.Errorf("seed patient %d: %w", i+1, err)
		}
		res.Patients++
		res.Appointments += len(visits)
		res.Procedures += len(visits)
		s.logger.Debug().Int("patient_id", p.ID).Int("appointments", len(visits)).Msg("seeded patient")
	}

	s.logger.Info().
		Uint64("seed", seed).
		Int("patients", res.Patients).
		Int("appointments", res.Appointments).
		Msg("seed complete")
	return res, nil
}

// createPatient draws a fresh CPF when the generated one is taken.
func (s *Seeder) createPatient(ctx context.Context, g *generator, p *patient.Patient) error {
	const attempts = 5
	for i := 0; ; i++ {
		err := s.stores.Patients.Create(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperr.ErrConflict) || i == attempts-1 {
			return fmt.Errorf("create patient: %w", err)
		}
		p.CPF = g.cpf()
	}
}

type visit struct {
	appt *appointment.Appointment
	proc *procedure.Procedure
}

type generator struct {
	rng   *rand.Rand
	cat   *catalog.Catalog
	start time.Time
}

func (g *generator) pick(items []string) string {
	return items[g.rng.IntN(len(items))]
}

func (g *generator) cpf() string {
	return fmt.Sprintf("%011d", 10000000000+g.rng.Int64N(90000000000))
}

func (g *generator) patient() *patient.Patient {
	name := g.pick(names)
	groups := g.cat.PlanGroups()
	group := groups[g.rng.IntN(len(groups))]

	company := patient.IndividualCompany
	if g.rng.Float64() >= 0.20 {
		company = g.pick(companies)
	}
	return &patient.Patient{
		FullName:   name,
		CPF:        g.cpf(),
		BirthDate:  fmt.Sprintf("%02d%02d%d", 1+g.rng.IntN(27), 1+g.rng.IntN(12), 1980+g.rng.IntN(21)),
		Email:      fmt.Sprintf("%s.%d@exemplo.com", emailLocal(name), g.rng.IntN(1000)),
		Phone:      fmt.Sprintf("11%d", 100000000+g.rng.IntN(900000000)),
		Address:    fmt.Sprintf("Rua Exemplo, %d, Bairro %d, %s", 1+g.rng.IntN(499), 1+g.rng.IntN(9), g.pick(cities)),
		DentalPlan: group.Plans[g.rng.IntN(len(group.Plans))],
		Company:    company,
	}
}

// visitCount follows the usage regimes the classifier was trained on:
// 5% light, 73% moderate, 10% borderline, 12% excessive.
func (g *generator) visitCount() (n int, regime float64) {
	regime = g.rng.Float64()
	switch {
	case regime < 0.05:
		n = 1 + g.rng.IntN(3)
	case regime < 0.78:
		n = 4 + g.rng.IntN(4)
	case regime < 0.88:
		n = 8 + g.rng.IntN(3)
	default:
		n = 11 + g.rng.IntN(20)
	}
	return n, regime
}

func (g *generator) history() []visit {
	n, regime := g.visitCount()
	cats := g.cat.ProcedureCategories()

	// Moderate users repeat one prevention procedure on two visits.
	var repeated *catalog.ProcedureType
	repeatAt := map[int]bool{}
	if regime >= 0.10 && regime < 0.90 && n >= 2 {
		for _, c := range cats {
			if c.Name == PreventionCategory && len(c.Procedures) > 0 {
				p := c.Procedures[g.rng.IntN(len(c.Procedures))]
				repeated = &p
			}
		}
		if repeated != nil {
			perm := g.rng.Perm(n)
			repeatAt[perm[0]] = true
			repeatAt[perm[1]] = true
		}
	}

	day := g.start
	out := make([]visit, 0, n)
	for j := 0; j < n; j++ {
		gap := 7 + g.rng.IntN(84)
		if g.rng.Float64() < 0.2 {
			gap = 1 + g.rng.IntN(3)
		}
		day = day.AddDate(0, 0, gap)
		at := time.Date(day.Year(), day.Month(), day.Day(), 8+g.rng.IntN(11), g.rng.IntN(60), 0, 0, appointment.Location)

		appt := &appointment.Appointment{Status: g.status(j == n-1)}
		_ = appt.SetSchedule(at.Format(appointment.ScheduleLayout))

		var pt catalog.ProcedureType
		if repeated != nil && repeatAt[j] {
			pt = *repeated
		} else {
			c := cats[g.rng.IntN(len(cats))]
			pt = c.Procedures[g.rng.IntN(len(c.Procedures))]
		}
		out = append(out, visit{appt: appt, proc: &procedure.Procedure{Type: pt.Name, Cost: pt.Cost}})
	}
	return out
}

// status leaves the last visit open more often than earlier ones.
func (g *generator) status(last bool) appointment.Status {
	r := g.rng.Float64()
	if last {
		switch {
		case r < 0.15:
			return appointment.StatusCancelled
		case r < 0.30:
			return appointment.StatusNotCompleted
		case r < 0.65:
			return appointment.StatusCompleted
		default:
			return appointment.StatusScheduled
		}
	}
	switch {
	case r < 0.075:
		return appointment.StatusCancelled
	case r < 0.15:
		return appointment.StatusNotCompleted
	default:
		return appointment.StatusCompleted
	}
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// emailLocal turns "Patrícia Gomes" into "patricia.gomes".
func emailLocal(name string) string {
	ascii, _, err := transform.String(stripMarks, name)
	if err != nil {
		ascii = name
	}
	return strings.ToLower(strings.Join(strings.Fields(ascii), "."))
}
