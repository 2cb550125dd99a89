package summary

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// ExportRow is one appointment of one patient, flattened for analytics.
type ExportRow struct {
	PatientID     int64   `parquet:"patient_id"`
	PatientName   string  `parquet:"patient_name"`
	Company       string  `parquet:"company"`
	DentalPlan    string  `parquet:"dental_plan"`
	AppointmentID int64   `parquet:"appointment_id"`
	ScheduledAt   string  `parquet:"scheduled_at"`
	Status        string  `parquet:"status"`
	Completed     bool    `parquet:"completed"`
	ProcedureType *string `parquet:"procedure_type,optional"`
	CostCents     *int64  `parquet:"cost_cents,optional"`
	PatientSpent  int64   `parquet:"patient_spent_cents"`
}

// Rows flattens records. Patients without appointments produce no rows.
func Rows(records []Record) []ExportRow {
	var rows []ExportRow
	for _, r := range records {
		spent := int64(r.Totals().Spent)
		for _, e := range r.Entries {
			row := ExportRow{
				PatientID:     int64(r.Patient.ID),
				PatientName:   r.Patient.FullName,
				Company:       r.Patient.Company,
				DentalPlan:    r.Patient.DentalPlan,
				AppointmentID: int64(e.Appointment.ID),
				ScheduledAt:   e.Appointment.DisplayTime(),
				Status:        e.Appointment.Status.String(),
				Completed:     e.Appointment.IsCompleted(),
				PatientSpent:  spent,
			}
			if e.Procedure != nil {
				typ, cost := e.Procedure.Type, int64(e.Procedure.Cost)
				row.ProcedureType = &typ
				row.CostCents = &cost
			}
			rows = append(rows, row)
		}
	}
	return rows
}

// WriteParquet writes the flattened records as Snappy-compressed Parquet
// and returns the number of rows written.
func WriteParquet(w io.Writer, records []Record) (int, error) {
	rows := Rows(records)
	writer := parquet.NewGenericWriter[ExportRow](w,
		parquet.Compression(&parquet.Snappy),
		parquet.CreatedBy("smartdent", "1.0", ""),
	)
	n, err := writer.Write(rows)
	if err != nil {
		return n, fmt.Errorf("write export rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return n, fmt.Errorf("close export writer: %w", err)
	}
	return n, nil
}
