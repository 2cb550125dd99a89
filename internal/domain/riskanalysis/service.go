package riskanalysis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/smartdent/smartdent/internal/domain/alert"
	"github.com/smartdent/smartdent/internal/domain/summary"
	"github.com/smartdent/smartdent/internal/platform/apperr"
	"github.com/smartdent/smartdent/internal/platform/db"
	"github.com/smartdent/smartdent/internal/platform/events"
)

// EventAlertUpserted is published once per alert created or refreshed.
const EventAlertUpserted = "alert.upserted"

// RecordSource is satisfied by *summary.Service.
type RecordSource interface {
	Record(ctx context.Context, patientID int) (summary.Record, error)
	IndividualRecords(ctx context.Context) ([]summary.Record, error)
	RecordsByCompany(ctx context.Context, company string) ([]summary.Record, error)
	RecordsByCity(ctx context.Context, city string) ([]summary.Record, error)
	AllRecords(ctx context.Context) ([]summary.Record, error)
}

// AlertUpserter is satisfied by *alert.Service.
type AlertUpserter interface {
	Upsert(ctx context.Context, patientID int, alertType, riskGrade, justification string) (*alert.Alert, bool, error)
}

type Service struct {
	records    RecordSource
	classifier Classifier
	alerts     AlertUpserter
	tx         db.Transactor
	publisher  events.Publisher
	logger     zerolog.Logger
}

func NewService(records RecordSource, classifier Classifier, alerts AlertUpserter, tx db.Transactor, publisher events.Publisher, logger zerolog.Logger) *Service {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &Service{
		records:    records,
		classifier: classifier,
		alerts:     alerts,
		tx:         tx,
		publisher:  publisher,
		logger:     logger,
	}
}

// AlertEvent is the data of an alert.upserted event.
type AlertEvent struct {
	Alert   alert.View `json:"alert"`
	Created bool       `json:"created"`
}

// AnalyseRaw forwards a caller-supplied payload unchanged.
func (s *Service) AnalyseRaw(ctx context.Context, payload json.RawMessage) (Response, error) {
	if !json.Valid(payload) {
		return Response{}, apperr.Validation("payload is not valid JSON")
	}
	return s.analyse(ctx, payload)
}

func (s *Service) AnalysePatient(ctx context.Context, patientID int) (Response, error) {
	r, err := s.records.Record(ctx, patientID)
	if err != nil {
		return Response{}, err
	}
	return s.analyse(ctx, BuildPayload(r))
}

func (s *Service) AnalyseIndividual(ctx context.Context) (Response, error) {
	records, err := s.records.IndividualRecords(ctx)
	if err != nil {
		return Response{}, err
	}
	return s.analyseRecords(ctx, records)
}

func (s *Service) AnalyseCompany(ctx context.Context, company string) (Response, error) {
	records, err := s.records.RecordsByCompany(ctx, company)
	if err != nil {
		return Response{}, err
	}
	return s.analyseRecords(ctx, records)
}

// AnalyseCity selects patients whose address contains city, ignoring case.
func (s *Service) AnalyseCity(ctx context.Context, city string) (Response, error) {
	records, err := s.records.RecordsByCity(ctx, city)
	if err != nil {
		return Response{}, err
	}
	return s.analyseRecords(ctx, records)
}

func (s *Service) AnalyseAll(ctx context.Context) (Response, error) {
	records, err := s.records.AllRecords(ctx)
	if err != nil {
		return Response{}, err
	}
	return s.analyseRecords(ctx, records)
}

// analyseRecords always sends an array, even for a single patient.
func (s *Service) analyseRecords(ctx context.Context, records []summary.Record) (Response, error) {
	if len(records) == 0 {
		return Response{}, apperr.NotFound("no patients to analyse")
	}
	return s.analyse(ctx, BuildPayloads(records))
}

type upserted struct {
	alert   *alert.Alert
	created bool
}

// analyse calls the classifier and reconciles its verdicts inside one
// transaction. Events go out only after the commit.
func (s *Service) analyse(ctx context.Context, payload any) (Response, error) {
	body, err := s.classifier.Classify(ctx, payload)
	if err != nil {
		return Response{}, err
	}

	resp := DecodeResponse(body)
	if resp.Shape == ShapeRaw {
		s.logger.Debug().Int("bytes", len(body)).Msg("classifier answered with an unrecognized shape")
		return resp, nil
	}
	for _, rec := range resp.Records {
		Normalize(rec)
	}

	var done []upserted
	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		done = done[:0]
		for _, rec := range resp.Records {
			v, ok := VerdictOf(rec)
			if !ok {
				s.logger.Debug().Interface("tipoAlerta", rec["tipoAlerta"]).Msg("classification discarded")
				continue
			}
			a, created, err := s.alerts.Upsert(ctx, v.PatientID, v.Type, v.RiskGrade, v.Justification)
			if errors.Is(err, apperr.ErrNotFound) {
				s.logger.Warn().Int("patient_id", v.PatientID).Msg("classifier returned an unknown patient")
				continue
			}
			if err != nil {
				return err
			}
			done = append(done, upserted{alert: a, created: created})
		}
		return nil
	})
	if err != nil {
		return Response{}, err
	}

	s.publish(ctx, done)
	return resp, nil
}

func (s *Service) publish(ctx context.Context, done []upserted) {
	for _, u := range done {
		ev := events.New(EventAlertUpserted, strconv.Itoa(u.alert.PatientID), AlertEvent{
			Alert:   u.alert.View(),
			Created: u.created,
		})
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn().Err(err).Int("alert_id", u.alert.ID).Msg("publish alert event failed")
		}
	}
}
