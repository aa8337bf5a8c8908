package fuzztests

import (
	"testing"

	"aasify/internal/testkit"
)

const maxFuzzInput = 64 << 10

func addCorpusSeeds(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"$type":"AasModel"}`))
	f.Add([]byte(`{"$type":"AasModel","aas":[{"$type":"AasDefinition"}]}`))
	f.Add([]byte(`{"$type":"AasModel","aas":[{"$type":"AasDefinition","name":"A","submodels":[{"$refText":"S"}]}]}`))
	f.Add(testkit.JSON(testkit.AAS("Pump", "Nameplate")))
	f.Add(testkit.JSON(
		testkit.AAS("Pump", "Nameplate", "Missing"),
		testkit.Submodel("Nameplate", testkit.Property("Serial")),
		testkit.Rules("PumpRules"),
	))
	f.Add(testkit.JSON(testkit.AAS("Dup", "S"), testkit.AAS("Dup", "S"), testkit.Submodel("S")))
}

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
