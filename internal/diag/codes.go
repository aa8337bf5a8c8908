package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// resource errors
	IOInfo          Code = 1000
	IOLoadFileError Code = 1001
	IODecodeError   Code = 1002
	IOVanished      Code = 1003

	// linking
	LinkInfo       Code = 2000
	LinkUnresolved Code = 2001
	LinkAmbiguous  Code = 2002

	// validation
	ValidateInfo      Code = 3000
	ValidateCapital   Code = 3001
	ValidateDuplicate Code = 3002

	// core contract violations
	ContractInfo          Code = 4000
	ContractNotExportable Code = 4001
	ContractTooDeep       Code = 4002
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	IOInfo:                "I/O information",
	IOLoadFileError:       "Document could not be read",
	IODecodeError:         "Document is not a valid serialized model",
	IOVanished:            "Document disappeared between indexing and linking",
	LinkInfo:              "Linking information",
	LinkUnresolved:        "Unresolved reference",
	LinkAmbiguous:         "Ambiguous reference",
	ValidateInfo:          "Validation information",
	ValidateCapital:       "Definition name should start with a capital",
	ValidateDuplicate:     "Duplicate definition",
	ContractInfo:          "Contract information",
	ContractNotExportable: "Qualified name requested for a non-exportable node",
	ContractTooDeep:       "Containment nested too deep",
}

// ID returns the stable short identifier of the code, e.g. LNK2001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LNK%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("VAL%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CTR%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
