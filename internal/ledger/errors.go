package ledger

import (
	"fmt"

	"github.com/Rhun-Capital/rhun-app-sub003/internal/dlmm"
	"github.com/Rhun-Capital/rhun-app-sub003/internal/domain"
)

// parseProgramError extracts the custom program error code from the ledger's
// loosely typed error payload. The common shape is
// {"InstructionError": [index, {"Custom": code}]}; anything else keeps
// Code = -1 and only the raw payload.
func parseProgramError(raw any) *domain.ProgramError {
	out := &domain.ProgramError{Code: -1, Raw: fmt.Sprintf("%v", raw)}

	m, ok := raw.(map[string]any)
	if !ok {
		return out
	}
	instrErr, ok := m["InstructionError"]
	if !ok {
		return out
	}
	parts, ok := instrErr.([]any)
	if !ok || len(parts) != 2 {
		return out
	}
	detail, ok := parts[1].(map[string]any)
	if !ok {
		return out
	}
	custom, ok := detail["Custom"]
	if !ok {
		return out
	}

	switch v := custom.(type) {
	case float64:
		out.Code = int(v)
	case int:
		out.Code = v
	case int64:
		out.Code = int(v)
	case uint64:
		out.Code = int(v)
	}
	return out
}

// executionError maps a program error into the surfaced taxonomy, attaching
// a human-readable reason for recognized codes.
func executionError(pe *domain.ProgramError) *domain.ExecutionError {
	reason := ""
	if pe.Code >= 0 {
		reason = dlmm.ErrorReasons[pe.Code]
	}
	return &domain.ExecutionError{
		Code:   pe.Code,
		Reason: reason,
		Raw:    pe.Raw,
	}
}
