package models

import (
	"fmt"
	"strings"
)

// PromptStrategy is the answer template variant attached to every outgoing query.
type PromptStrategy string

const (
	PromptBasic      PromptStrategy = "BASIC"
	PromptStructured PromptStrategy = "STRUCTURED"
	PromptSimple     PromptStrategy = "SIMPLE"
	PromptDetailed   PromptStrategy = "DETAILED"
	PromptPoint      PromptStrategy = "POINT"
	PromptFactCheck  PromptStrategy = "FACT_CHECK"
	PromptStepByStep PromptStrategy = "STEP_BY_STEP"
)

// PromptStrategies lists every strategy in display order.
var PromptStrategies = []PromptStrategy{
	PromptBasic,
	PromptStructured,
	PromptSimple,
	PromptDetailed,
	PromptPoint,
	PromptFactCheck,
	PromptStepByStep,
}

var promptLabels = map[PromptStrategy]string{
	PromptBasic:      "기본",
	PromptStructured: "구조화",
	PromptSimple:     "간단",
	PromptDetailed:   "상세",
	PromptPoint:      "핵심포인트",
	PromptFactCheck:  "사실확인",
	PromptStepByStep: "단계별",
}

// Label returns the display label. Unknown strategies are returned verbatim.
func (p PromptStrategy) Label() string {
	if label, ok := promptLabels[p]; ok {
		return label
	}
	return string(p)
}

// Valid reports whether p is one of the known strategies.
func (p PromptStrategy) Valid() bool {
	_, ok := promptLabels[p]
	return ok
}

// Next returns the strategy after p in display order, wrapping around.
func (p PromptStrategy) Next() PromptStrategy {
	for i, s := range PromptStrategies {
		if s == p {
			return PromptStrategies[(i+1)%len(PromptStrategies)]
		}
	}
	return PromptBasic
}

// ParsePromptStrategy accepts the wire name in any case ("fact_check", "FACT_CHECK").
func ParsePromptStrategy(s string) (PromptStrategy, error) {
	p := PromptStrategy(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown prompt type %q", s)
	}
	return p, nil
}
