package prompt

import (
	"strings"
	"testing"

	"github.com/medlink-hq/medbot-go/internal/rag"
)

func TestCompose_UnknownKind(t *testing.T) {
	t.Parallel()

	if _, err := Compose(BotKind("support"), "hi", nil); err == nil {
		t.Error("expected error for unknown bot kind")
	}
}

func TestCompose_InstructionPerKind(t *testing.T) {
	t.Parallel()

	doctor, err := Compose(BotDoctor, "chest pain", nil)
	if err != nil {
		t.Fatalf("Compose(doctor) error = %v", err)
	}
	if !strings.Contains(doctor.Instruction, "ICD-11") {
		t.Error("doctor instruction should reference ICD-11 coding")
	}
	if !strings.Contains(doctor.Instruction, "Never invent") {
		t.Error("doctor instruction should forbid inventing codes")
	}

	landing, err := Compose(BotLanding, "what is MedLink", nil)
	if err != nil {
		t.Fatalf("Compose(landing) error = %v", err)
	}
	if !strings.Contains(landing.Instruction, "MedLink") {
		t.Error("landing instruction should name the platform")
	}
	if !strings.Contains(landing.Instruction, SupportEmail) {
		t.Error("landing instruction should carry the support email")
	}
	if doctor.Instruction == landing.Instruction {
		t.Error("bots must not share an instruction")
	}
}

func TestCompose_DoctorInstructionCoversBothSentinels(t *testing.T) {
	t.Parallel()

	p, err := Compose(BotDoctor, "chest pain", nil)
	if err != nil {
		t.Fatalf("Compose(doctor) error = %v", err)
	}

	// Initial load stores missing codes as "Na", augmentation stores them as
	// "Not Available". The model must be told to answer "Not Available" for
	// either, so neither sentinel leaks through as a fabricated code.
	if !strings.Contains(p.Instruction, `"Na"`) {
		t.Error("doctor instruction must name the ingest sentinel \"Na\"")
	}
	if !strings.Contains(p.Instruction, `say exactly "Not Available"`) {
		t.Error("doctor instruction must direct an explicit \"Not Available\" for missing codes")
	}
}

func TestCompose_RendersAllMetadataLosslessly(t *testing.T) {
	t.Parallel()

	records := []rag.Record{
		{
			ID:    "0",
			Score: 0.91234,
			Metadata: map[string]string{
				"ICD11_Code":               "BA00",
				"ICD11_Title":              "Essential hypertension",
				"Ayurveda_NAMC_CODE":       "AYU-123",
				"Siddha_NAMC_CODE":         "Na",
				"Unani_Long_Definition":    "Not Available",
			},
		},
		{
			ID:       "3",
			Score:    0.7,
			Metadata: map[string]string{"ICD11_Code": "MD30"},
		},
	}

	p, err := Compose(BotDoctor, "high blood pressure", records)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}

	for _, want := range []string{
		"ICD11_Code: BA00",
		"ICD11_Title: Essential hypertension",
		"Ayurveda_NAMC_CODE: AYU-123",
		"Siddha_NAMC_CODE: Na",
		"Unani_Long_Definition: Not Available",
		"ICD11_Code: MD30",
		"score: 0.912",
		"Query: high blood pressure",
	} {
		if !strings.Contains(p.UserTurn, want) {
			t.Errorf("user turn missing %q:\n%s", want, p.UserTurn)
		}
	}

	if !strings.Contains(p.UserTurn, "[1]") || !strings.Contains(p.UserTurn, "[2]") {
		t.Error("records should be numbered in retrieval order")
	}
	if strings.Index(p.UserTurn, "BA00") > strings.Index(p.UserTurn, "MD30") {
		t.Error("retrieval order not preserved in rendering")
	}
}

func TestCompose_DeterministicRendering(t *testing.T) {
	t.Parallel()

	records := []rag.Record{{
		ID:    "chunk_0",
		Score: 0.5,
		Metadata: map[string]string{
			"text": "MedLink connects patients with providers.",
			"doc":  "overview",
		},
	}}

	first, err := Compose(BotLanding, "what does MedLink do", records)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Compose(BotLanding, "what does MedLink do", records)
		if err != nil {
			t.Fatalf("Compose() error = %v", err)
		}
		if again.UserTurn != first.UserTurn {
			t.Fatal("rendering is not deterministic across calls")
		}
	}
}

func TestCompose_EmptyRecords(t *testing.T) {
	t.Parallel()

	p, err := Compose(BotLanding, "pricing", nil)
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if !strings.Contains(p.UserTurn, "(no records retrieved)") {
		t.Errorf("user turn should mark an empty context:\n%s", p.UserTurn)
	}
	if !strings.Contains(p.UserTurn, "Query: pricing") {
		t.Error("query must still be present with empty context")
	}
}
