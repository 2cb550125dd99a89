package riskanalysis

import (
	"encoding/json"
	"testing"
)

func TestDecodeResponse_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		shape   Shape
		records int
	}{
		{"object", `{"idPaciente": 7}`, ShapeObject, 1},
		{"object with leading space", "  \n{\"idPaciente\": 7}", ShapeObject, 1},
		{"array", `[{"idPaciente": 7}, {"idPaciente": 8}]`, ShapeArray, 2},
		{"empty array", `[]`, ShapeArray, 0},
		{"array of numbers", `[1, 2]`, ShapeRaw, 0},
		{"string", `"ok"`, ShapeRaw, 0},
		{"plain text", `Internal hiccup`, ShapeRaw, 0},
		{"broken object", `{"idPaciente": `, ShapeRaw, 0},
		{"empty", ``, ShapeRaw, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeResponse([]byte(tt.body))
			if got.Shape != tt.shape {
				t.Errorf("shape = %v, want %v", got.Shape, tt.shape)
			}
			if len(got.Records) != tt.records {
				t.Errorf("records = %d, want %d", len(got.Records), tt.records)
			}
		})
	}
}

func TestResponse_MarshalJSON(t *testing.T) {
	tests := map[string]string{
		`{"a":1}`:   `{"a":1}`,
		`[{"a":1}]`: `[{"a":1}]`,
		`"ok"`:      `"ok"`,
		`not json`:  `"not json"`,
		`[1,2]`:     `[1,2]`,
	}
	for body, want := range tests {
		got, err := json.Marshal(DecodeResponse([]byte(body)))
		if err != nil {
			t.Fatalf("%s: %v", body, err)
		}
		if string(got) != want {
			t.Errorf("%s: got %s, want %s", body, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	resp := DecodeResponse([]byte(`{
		"idPaciente": 7,
		"tipoAlerta": "UsoExcessivo",
		"dataAnalise": "2025-03-10 14:05:09",
		"gastoTotal": "1234.5",
		"confidence": "91.2"
	}`))
	rec := resp.Records[0]
	Normalize(rec)

	if rec["dataAnalise"] != "10/03/2025 14:05" {
		t.Errorf("dataAnalise = %v", rec["dataAnalise"])
	}
	if rec["gastoTotal"] != "R$ 1.234,50" {
		t.Errorf("gastoTotal = %v", rec["gastoTotal"])
	}
	if rec["confiança"] != "91.20%" {
		t.Errorf("confiança = %v", rec["confiança"])
	}
	if _, ok := rec["confidence"]; ok {
		t.Error("confidence should be removed")
	}
}

func TestNormalize_ConfiancaNumber(t *testing.T) {
	rec := DecodeResponse([]byte(`{"confianca": 0.5}`)).Records[0]
	Normalize(rec)
	if rec["confiança"] != "0.50%" {
		t.Errorf("confiança = %v", rec["confiança"])
	}
	if _, ok := rec["confianca"]; ok {
		t.Error("confianca should be removed")
	}
}

func TestNormalize_LeavesUnparseableValues(t *testing.T) {
	rec := Result{"dataAnalise": "ontem", "gastoTotal": "muito", "confidence": "alta"}
	Normalize(rec)
	if rec["dataAnalise"] != "ontem" || rec["gastoTotal"] != "muito" || rec["confidence"] != "alta" {
		t.Errorf("values should be untouched: %v", rec)
	}
	if _, ok := rec["confiança"]; ok {
		t.Error("no canonical confidence expected")
	}
}

func TestVerdictOf(t *testing.T) {
	tests := []struct {
		name string
		body string
		ok   bool
		want Verdict
	}{
		{
			name: "excessive",
			body: `{"idPaciente": 7, "tipoAlerta": "UsoExcessivo", "grauRisco": "80%", "justificativa": "x"}`,
			ok:   true,
			want: Verdict{PatientID: 7, Type: "UsoExcessivo", RiskGrade: "80%", Justification: "x"},
		},
		{
			name: "string id and trending label",
			body: `{"idPaciente": "8", "tipoAlerta": "uso moderado com tendência a excesso"}`,
			ok:   true,
			want: Verdict{PatientID: 8, Type: "uso moderado com tendência a excesso"},
		},
		{
			name: "numeric grade",
			body: `{"idPaciente": 7, "tipoAlerta": "Uso Excessivo", "grauRisco": 59}`,
			ok:   true,
			want: Verdict{PatientID: 7, Type: "Uso Excessivo", RiskGrade: "59"},
		},
		{name: "normal use", body: `{"idPaciente": 7, "tipoAlerta": "Uso Normal"}`},
		{name: "missing type", body: `{"idPaciente": 7}`},
		{name: "missing id", body: `{"tipoAlerta": "UsoExcessivo"}`},
		{name: "bad id", body: `{"idPaciente": "sete", "tipoAlerta": "UsoExcessivo"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := DecodeResponse([]byte(tt.body)).Records[0]
			got, ok := VerdictOf(rec)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
