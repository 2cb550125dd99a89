package riskanalysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smartdent/smartdent/internal/domain/alert"
	"github.com/smartdent/smartdent/pkg/brfmt"
	"github.com/smartdent/smartdent/pkg/money"
)

// Shape tells which form the classifier answered with.
type Shape uint8

const (
	ShapeRaw Shape = iota
	ShapeObject
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	default:
		return "raw"
	}
}

// Result is one classifier record. Unknown fields are kept as-is.
type Result map[string]any

// Response is the decoded classifier body. Records holds one element for
// ShapeObject; Raw holds the untouched body for ShapeRaw.
type Response struct {
	Shape   Shape
	Records []Result
	Raw     []byte
}

// DecodeResponse picks the shape from the first non-space byte. Bodies that
// are not an object or an array of objects come back as ShapeRaw.
func DecodeResponse(body []byte) Response {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Response{Shape: ShapeRaw, Raw: body}
	}
	switch trimmed[0] {
	case '{':
		var rec Result
		if err := decodeNumbers(trimmed, &rec); err == nil && rec != nil {
			return Response{Shape: ShapeObject, Records: []Result{rec}}
		}
	case '[':
		var recs []Result
		if err := decodeNumbers(trimmed, &recs); err == nil {
			if recs == nil {
				recs = []Result{}
			}
			return Response{Shape: ShapeArray, Records: recs}
		}
	}
	return Response{Shape: ShapeRaw, Raw: body}
}

func decodeNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after JSON value")
	}
	return nil
}

// MarshalJSON writes the normalized records in the shape they arrived in.
// Raw bodies are passed through when they are valid JSON and quoted
// otherwise.
func (r Response) MarshalJSON() ([]byte, error) {
	switch r.Shape {
	case ShapeObject:
		return json.Marshal(r.Records[0])
	case ShapeArray:
		return json.Marshal(r.Records)
	default:
		if json.Valid(r.Raw) {
			return bytes.Clone(r.Raw), nil
		}
		return json.Marshal(string(r.Raw))
	}
}

const (
	analysisLayout  = "2006-01-02 15:04:05"
	confidenceField = "confiança"
)

// Normalize rewrites the display fields of rec in place: dataAnalise to
// dd/MM/yyyy HH:mm, gastoTotal to pt-BR currency, and confidence or
// confianca to a two-decimal percentage under "confiança". Values that do
// not parse are left untouched.
func Normalize(rec Result) {
	if s, ok := text(rec["dataAnalise"]); ok {
		if t, err := time.Parse(analysisLayout, strings.TrimSpace(s)); err == nil {
			rec["dataAnalise"] = t.Format(brfmt.DateTimeLayout)
		}
	}
	if s, ok := text(rec["gastoTotal"]); ok {
		if c, err := money.ParseDecimal(s); err == nil {
			rec["gastoTotal"] = c.BRL()
		}
	}
	for _, key := range []string{"confidence", "confianca"} {
		s, ok := text(rec[key])
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			continue
		}
		delete(rec, key)
		rec[confidenceField] = fmt.Sprintf("%.2f%%", v)
		break
	}
}

// text returns the value as a string when it is a JSON string or number.
func text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}

// Verdict is the part of a Result that drives an alert.
type Verdict struct {
	PatientID     int
	Type          string
	RiskGrade     string
	Justification string
}

// VerdictOf extracts the alert fields. ok is false when the patient id or
// type is missing, or the type does not warrant an alert.
func VerdictOf(rec Result) (v Verdict, ok bool) {
	rawID, hasID := text(rec["idPaciente"])
	alertType, hasType := text(rec["tipoAlerta"])
	if !hasID || !hasType {
		return Verdict{}, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(rawID))
	if err != nil {
		return Verdict{}, false
	}
	if !alert.IsPersistable(alertType) {
		return Verdict{}, false
	}
	v = Verdict{PatientID: id, Type: alertType}
	v.RiskGrade, _ = text(rec["grauRisco"])
	v.Justification, _ = text(rec["justificativa"])
	return v, true
}
